package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
)

// translate maps gorm errors onto the application error kinds. resource is
// the i18n prefix used when the row is missing.
func translate(err error, resource, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return apperrors.Storage(err, action)
}
