// internal/handlers/errors.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/i18n"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

// respondError maps application errors onto HTTP responses. Internal error
// text is logged, never returned.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		logError(c, err)
		utils.InternalErrorResponse(c, "")
		return
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		utils.ValidationErrorResponse(c, appErr.Fields)
	case apperrors.KindNotFound:
		utils.NotFoundResponse(c, appErr.Resource)
	case apperrors.KindLookupFailed:
		logError(c, err)
		lang := utils.GetLangFromContext(c)
		utils.ErrorResponse(c, http.StatusInternalServerError, appErr.Code, i18n.T(lang, i18n.KeyCEPLookupFailed), nil)
	default:
		logError(c, err)
		utils.InternalErrorResponse(c, "")
	}
}

func logError(c *gin.Context, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("Request failed")
}

// parseID reads the :id path parameter. A malformed id cannot name a row,
// so it is answered as not found.
func parseID(c *gin.Context, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.NotFoundResponse(c, resource)
		return 0, false
	}
	return uint(id), true
}
