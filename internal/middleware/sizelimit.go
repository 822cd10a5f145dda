package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmily/pharmily-api/pkg/errors"
	"github.com/pharmily/pharmily-api/pkg/httputil"
)

// DefaultMaxBodySize fits a prescription with a generous number of items.
const DefaultMaxBodySize = 1 << 20

// SizeLimit rejects bodies larger than maxBytes. Bodies without a declared
// length are cut off while reading.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.RespondWithError(c, &errors.AppError{Code: errors.ErrTooLarge, Message: "request body too large"})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
