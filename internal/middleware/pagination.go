package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxPaginationKey = "pagination"

	DefaultPageSize = 10
	// MaxPageSize is the first size that is rejected in favour of the default.
	MaxPageSize = 1000
)

// Page holds the zero-based page index and page size of a list request.
type Page struct {
	Page int
	Size int
}

// Pagination parses the page and size query parameters. Negative or
// non-numeric pages become 0; sizes below 1, at or above MaxPageSize, or
// non-numeric become DefaultPageSize.
func Pagination() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxPaginationKey, ParsePage(c.Query("page"), c.Query("size")))
		c.Next()
	}
}

// ParsePage applies the pagination defaults to raw query values.
func ParsePage(rawPage, rawSize string) Page {
	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil || page < 0 {
		page = 0
	}

	size, err := strconv.Atoi(strings.TrimSpace(rawSize))
	if err != nil || size < 1 || size >= MaxPageSize {
		size = DefaultPageSize
	}

	return Page{Page: page, Size: size}
}

// GetPage returns the pagination parsed for the request.
func GetPage(c *gin.Context) Page {
	if value, ok := c.Get(CtxPaginationKey); ok {
		if page, ok := value.(Page); ok {
			return page
		}
	}
	return ParsePage(c.Query("page"), c.Query("size"))
}
