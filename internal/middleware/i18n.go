// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/confectionery-backend/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// resolveLanguage picks the first preference with a locale file, e.g.
// "en-US,en;q=0.9" resolves to "en".
func resolveLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag == "" {
			continue
		}

		// Convert common language codes
		switch lower := strings.ToLower(strings.ReplaceAll(tag, "_", "-")); {
		case lower == "pt-br" || lower == "pt":
			return "pt_BR"
		case lower == "en" || strings.HasPrefix(lower, "en-"):
			return "en"
		}

		if i18n.IsSupported(tag) {
			return tag
		}
	}
	return i18n.DefaultLocale()
}
