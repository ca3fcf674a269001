// internal/handlers/forms.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/i18n"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

func isJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}

// bindJSON decodes the request body into obj. Broken JSON is answered with
// 400; a value of the wrong type is a 422 on its field. Errors raised by a
// field's own decoder carry no field path and are reported on decoderField.
func bindJSON(c *gin.Context, obj interface{}, decoderField string) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		message := typeErr.Field + " must be " + jsonTypeName(typeErr.Type)
		respondError(c, apperrors.FieldError(typeErr.Field, "type", message))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), decoderField == "":
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "JSON"), err.Error())
	default:
		respondError(c, apperrors.FieldError(decoderField, "numeric", decoderField+" must be a number"))
	}
	return false
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "true or false"
	case reflect.String:
		return "a string"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid value"
	}
}

// formString returns the field when the client sent it.
func formString(c *gin.Context, key string) *string {
	value, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &value
}

type formErrors []utils.ValidationError

func (f *formErrors) float(c *gin.Context, key string) *float64 {
	raw := formString(c, key)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		*f = append(*f, utils.ValidationError{Field: key, Tag: "numeric", Message: key + " must be a number"})
		return nil
	}
	return &value
}

func (f *formErrors) boolean(c *gin.Context, key string) *bool {
	raw := formString(c, key)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(*raw)) {
	case "1", "true", "on", "yes":
		value := true
		return &value
	case "0", "false", "off", "no":
		value := false
		return &value
	}
	*f = append(*f, utils.ValidationError{Field: key, Tag: "boolean", Message: key + " must be true or false"})
	return nil
}

func (f *formErrors) id(c *gin.Context, key string) *uint {
	raw := formString(c, key)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	value, err := strconv.ParseUint(strings.TrimSpace(*raw), 10, 64)
	if err != nil {
		*f = append(*f, utils.ValidationError{Field: key, Tag: "integer", Message: key + " must be an integer"})
		return nil
	}
	id := uint(value)
	return &id
}
