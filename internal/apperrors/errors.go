// Package apperrors defines the error kinds shared by the service and
// handler layers.
package apperrors

import (
	stderrors "errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/javajoker/confectionery-backend/internal/utils"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindLookupFailed
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindLookupFailed:
		return "lookup_failed"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is the application error carried from the services to the handlers.
// Message is safe to show to clients; Err holds the internal cause.
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	Resource string
	Fields   []utils.ValidationError
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(fields ...utils.ValidationError) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: "validation failed",
		Fields:  fields,
	}
}

func FieldError(field, tag, message string) *Error {
	return Validation(utils.ValidationError{Field: field, Tag: tag, Message: message})
}

// NotFound reports a missing entity. resource is the i18n prefix
// ("confectionery", "product", "cep").
func NotFound(resource string) *Error {
	return &Error{
		Kind:     KindNotFound,
		Code:     "NOT_FOUND",
		Message:  resource + " not found",
		Resource: resource,
	}
}

func LookupFailed(err error) *Error {
	return &Error{
		Kind:    KindLookupFailed,
		Code:    "LOOKUP_FAILED",
		Message: "postal code lookup failed",
		Err:     pkgerrors.WithStack(err),
	}
}

func Storage(err error, message string) *Error {
	return &Error{
		Kind:    KindStorage,
		Code:    "STORAGE_FAILURE",
		Message: message,
		Err:     pkgerrors.Wrap(err, message),
	}
}

func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsLookupFailed(err error) bool {
	return KindOf(err) == KindLookupFailed
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}
