package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/config"
)

const viaCEPCampinas = `{
  "cep": "13083-970",
  "logradouro": "Avenida Albert Einstein",
  "complemento": "",
  "bairro": "Cidade Universitária",
  "localidade": "Campinas",
  "uf": "SP",
  "ibge": "3509502"
}`

// newViaCEPServer answers like ViaCEP: 13083970 exists, 00000000 yields the
// erro marker, 99999999 fails upstream.
func newViaCEPServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/ws/13083970/json/":
			w.Write([]byte(viaCEPCampinas))
		case "/ws/00000000/json/":
			w.Write([]byte(`{"erro": "true"}`))
		case "/ws/11111111/json/":
			w.WriteHeader(http.StatusBadRequest)
		case "/ws/22222222/json/":
			w.Write([]byte(`<html>maintenance</html>`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestCEPService(baseURL string, cache CEPCache) *CEPService {
	return NewCEPService(config.CEPConfig{BaseURL: baseURL + "/ws", Timeout: 2}, cache)
}

func TestNormalizeCEP(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"13083970", "13083970", false},
		{"13083-970", "13083970", false},
		{" 01.310-200 ", "01310200", false},
		{"1308397", "", true},
		{"130839701", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeCEP(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCEPLookupFound(t *testing.T) {
	server := newViaCEPServer(t, nil)
	service := newTestCEPService(server.URL, nil)

	fields, err := service.Lookup(context.Background(), "13083-970")
	require.NoError(t, err)
	assert.Equal(t, &AddressFields{
		CEP:          "13083970",
		Street:       "Avenida Albert Einstein",
		Neighborhood: "Cidade Universitária",
		City:         "Campinas",
		State:        "SP",
	}, fields)

	// a lookup is a pure query
	again, err := service.Lookup(context.Background(), "13083970")
	require.NoError(t, err)
	assert.Equal(t, fields, again)
}

func TestCEPLookupNotFound(t *testing.T) {
	server := newViaCEPServer(t, nil)
	service := newTestCEPService(server.URL, nil)

	for _, code := range []string{"00000000", "11111111"} {
		_, err := service.Lookup(context.Background(), code)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err), code)
	}
}

func TestCEPLookupFailures(t *testing.T) {
	server := newViaCEPServer(t, nil)
	service := newTestCEPService(server.URL, nil)

	_, err := service.Lookup(context.Background(), "99999999")
	require.Error(t, err)
	assert.True(t, apperrors.IsLookupFailed(err))
	assert.False(t, apperrors.IsNotFound(err))

	_, err = service.Lookup(context.Background(), "22222222")
	require.Error(t, err)
	assert.True(t, apperrors.IsLookupFailed(err))

	unreachable := newTestCEPService("http://127.0.0.1:1", nil)
	_, err = unreachable.Lookup(context.Background(), "13083970")
	require.Error(t, err)
	assert.True(t, apperrors.IsLookupFailed(err))
}

func TestCEPLookupValidatesBeforeDispatch(t *testing.T) {
	var calls int32
	server := newViaCEPServer(t, &calls)
	service := newTestCEPService(server.URL, nil)

	_, err := service.Lookup(context.Background(), "123")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestCEPCircuitBreakerOpens(t *testing.T) {
	var calls int32
	server := newViaCEPServer(t, &calls)
	service := newTestCEPService(server.URL, nil)

	for i := 0; i < 3; i++ {
		_, err := service.Lookup(context.Background(), "99999999")
		require.True(t, apperrors.IsLookupFailed(err))
	}
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))

	// the breaker is open: the upstream is no longer called
	_, err := service.Lookup(context.Background(), "13083970")
	assert.True(t, apperrors.IsLookupFailed(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCEPNotFoundDoesNotTripBreaker(t *testing.T) {
	server := newViaCEPServer(t, nil)
	service := newTestCEPService(server.URL, nil)

	for i := 0; i < 5; i++ {
		_, err := service.Lookup(context.Background(), "00000000")
		require.True(t, apperrors.IsNotFound(err))
	}

	_, err := service.Lookup(context.Background(), "13083970")
	assert.NoError(t, err)
}

func TestCEPCancelledCallersDoNotTripBreaker(t *testing.T) {
	var slow atomic.Bool
	slow.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slow.Load() {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(viaCEPCampinas))
	}))
	t.Cleanup(server.Close)
	service := newTestCEPService(server.URL, nil)

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		_, err := service.Lookup(ctx, "13083970")
		cancel()
		require.True(t, apperrors.IsLookupFailed(err))
	}

	slow.Store(false)
	fields, err := service.Lookup(context.Background(), "13083970")
	require.NoError(t, err)
	assert.Equal(t, "Campinas", fields.City)
}

type memoryCEPCache struct {
	mu      sync.Mutex
	entries map[string]AddressFields
}

func (c *memoryCEPCache) Get(_ context.Context, cep string) (*AddressFields, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields, ok := c.entries[cep]
	if !ok {
		return nil, false, nil
	}
	return &fields, true, nil
}

func (c *memoryCEPCache) Set(_ context.Context, cep string, fields *AddressFields) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cep] = *fields
	return nil
}

func TestCEPLookupUsesCache(t *testing.T) {
	var calls int32
	server := newViaCEPServer(t, &calls)
	cache := &memoryCEPCache{entries: map[string]AddressFields{}}
	service := newTestCEPService(server.URL, cache)

	first, err := service.Lookup(context.Background(), "13083970")
	require.NoError(t, err)
	second, err := service.Lookup(context.Background(), "13083-970")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Contains(t, cache.entries, "13083970")
}

func TestCEPLookupIgnoresUnavailableRedis(t *testing.T) {
	server := newViaCEPServer(t, nil)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	service := newTestCEPService(server.URL, NewRedisCEPCache(client, time.Minute))

	fields, err := service.Lookup(context.Background(), "13083970")
	require.NoError(t, err)
	assert.True(t, strings.EqualFold("campinas", fields.City))
}
