// internal/services/cep_cache.go
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const cepCachePrefix = "cep:"

// RedisCEPCache keeps successful postal code lookups in Redis.
type RedisCEPCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCEPCache(client *redis.Client, ttl time.Duration) *RedisCEPCache {
	return &RedisCEPCache{client: client, ttl: ttl}
}

func (c *RedisCEPCache) Get(ctx context.Context, cep string) (*AddressFields, bool, error) {
	data, err := c.client.Get(ctx, cepCachePrefix+cep).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var fields AddressFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, err
	}
	return &fields, true, nil
}

func (c *RedisCEPCache) Set(ctx context.Context, cep string, fields *AddressFields) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cepCachePrefix+cep, data, c.ttl).Err()
}
