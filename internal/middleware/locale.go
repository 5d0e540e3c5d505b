package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/pkg/i18n"
	"github.com/hoaxify/hoaxify/pkg/response"
)

// Locale negotiates the response language from Accept-Language.
func Locale(catalog *i18n.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := catalog.Negotiate(c.GetHeader("Accept-Language"))
		c.Set(response.LocaleKey, locale)
		c.Header("Content-Language", locale)
		c.Next()
	}
}
