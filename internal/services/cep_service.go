// internal/services/cep_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/config"
	"github.com/javajoker/confectionery-backend/internal/metrics"
)

const (
	cepLength       = 8
	maxCEPBodyBytes = 64 << 10
)

// errCEPNotFound marks an answer from the upstream saying the code does not
// exist. It is a successful call as far as the circuit breaker is concerned.
var errCEPNotFound = errors.New("cep not found")

// errCallerGone marks a call abandoned by its own caller. The upstream did
// not fail, so the circuit breaker does not count it.
var errCallerGone = errors.New("caller cancelled the lookup")

// AddressFields is the address data known for a postal code.
type AddressFields struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// PostalLookup resolves a CEP into address fields.
type PostalLookup interface {
	Lookup(ctx context.Context, code string) (*AddressFields, error)
}

// CEPCache stores successful lookups.
type CEPCache interface {
	Get(ctx context.Context, cep string) (*AddressFields, bool, error)
	Set(ctx context.Context, cep string, fields *AddressFields) error
}

type CEPService struct {
	client  *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker[[]byte]
	cache   CEPCache
}

// NewCEPService builds the ViaCEP client. cache may be nil.
func NewCEPService(cfg config.CEPConfig, cache CEPCache) *CEPService {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &CEPService{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		breaker: newCEPCircuitBreaker("viacep"),
		cache:   cache,
	}
}

func newCEPCircuitBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errCEPNotFound) || errors.Is(err, errCallerGone)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logrus.WithFields(logrus.Fields{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("CEP circuit breaker changed state")
	}

	return gobreaker.NewCircuitBreaker[[]byte](st)
}

// NormalizeCEP strips every non-digit and requires exactly eight digits.
func NormalizeCEP(code string) (string, error) {
	cep := digitsOnly(code)
	if len(cep) != cepLength {
		return "", apperrors.FieldError("cep", "len", "cep must have exactly 8 digits")
	}
	return cep, nil
}

// Lookup queries the postal service. It returns a NotFound error when the
// code does not exist and a LookupFailed error when the service could not
// answer.
func (s *CEPService) Lookup(ctx context.Context, code string) (*AddressFields, error) {
	cep, err := NormalizeCEP(code)
	if err != nil {
		return nil, err
	}

	if fields, ok := s.cached(ctx, cep); ok {
		metrics.RecordPostalLookup("cached", 0)
		return fields, nil
	}

	start := time.Now()
	body, err := s.breaker.Execute(func() ([]byte, error) {
		body, err := s.fetch(ctx, cep)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", errCallerGone, ctx.Err())
		}
		return body, err
	})
	duration := time.Since(start)

	switch {
	case errors.Is(err, errCEPNotFound):
		metrics.RecordPostalLookup("not_found", duration)
		return nil, apperrors.NotFound("cep")
	case errors.Is(err, errCallerGone):
		metrics.RecordPostalLookup("cancelled", duration)
		return nil, apperrors.LookupFailed(err)
	case err != nil:
		metrics.RecordPostalLookup("failed", duration)
		return nil, apperrors.LookupFailed(err)
	}

	fields := parseViaCEP(cep, body)
	metrics.RecordPostalLookup("found", duration)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cep, fields); err != nil {
			logrus.WithError(err).WithField("cep", cep).Warn("Failed to cache CEP lookup")
		}
	}

	return fields, nil
}

func (s *CEPService) cached(ctx context.Context, cep string) (*AddressFields, bool) {
	if s.cache == nil {
		return nil, false
	}
	fields, ok, err := s.cache.Get(ctx, cep)
	if err != nil {
		logrus.WithError(err).WithField("cep", cep).Warn("Failed to read CEP cache")
		return nil, false
	}
	return fields, ok
}

func (s *CEPService) fetch(ctx context.Context, cep string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/json/", s.baseURL, cep)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxCEPBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case response.StatusCode == http.StatusBadRequest, response.StatusCode == http.StatusNotFound:
		return nil, errCEPNotFound
	case response.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d from postal service", response.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed response from postal service")
	}
	if gjson.GetBytes(body, "erro").Bool() {
		return nil, errCEPNotFound
	}

	return body, nil
}

func parseViaCEP(cep string, body []byte) *AddressFields {
	result := gjson.ParseBytes(body)

	fields := &AddressFields{
		CEP:          cep,
		Street:       result.Get("logradouro").String(),
		Neighborhood: result.Get("bairro").String(),
		City:         result.Get("localidade").String(),
		State:        strings.ToUpper(result.Get("uf").String()),
	}
	if normalized, err := NormalizeCEP(result.Get("cep").String()); err == nil {
		fields.CEP = normalized
	}

	return fields
}
