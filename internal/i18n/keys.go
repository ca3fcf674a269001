// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyInternalError = "error.internal"
	KeyHealthy       = "health.ok"

	// Confectioneries
	KeyConfectioneryCreated  = "confectionery.created"
	KeyConfectioneryUpdated  = "confectionery.updated"
	KeyConfectioneryDeleted  = "confectionery.deleted"
	KeyConfectioneryNotFound = "confectionery.not_found"
	KeyAddressNotRegistered  = "address.not_registered"

	// Products
	KeyProductCreated  = "product.created"
	KeyProductUpdated  = "product.updated"
	KeyProductDeleted  = "product.deleted"
	KeyProductNotFound = "product.not_found"

	// Postal code lookup
	KeyCEPNotFound     = "cep.not_found"
	KeyCEPLookupFailed = "cep.lookup_failed"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileInvalidType = "file.invalid_type"
	KeyFileTooLarge    = "file.too_large"

	// Rate limiting
	KeyRateLimited = "rate_limit.exceeded"
)
