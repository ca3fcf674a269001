package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/javajoker/confectionery-backend/internal/database"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Addresses() AddressRepository {
	return &addressRepository{db: s.db}
}

func (s *gormStore) Confectioneries() ConfectioneryRepository {
	return &confectioneryRepository{db: s.db}
}

func (s *gormStore) Products() ProductRepository {
	return &productRepository{db: s.db}
}

func (s *gormStore) ProductImages() ProductImageRepository {
	return &productImageRepository{db: s.db}
}

// Transaction runs fn with a Store bound to a single database transaction.
// The transaction is rolled back when fn returns an error or panics.
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
