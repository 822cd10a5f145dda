package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pharmily/pharmily-api/internal/middleware"
	"github.com/pharmily/pharmily-api/pkg/errors"
	"github.com/pharmily/pharmily-api/pkg/httputil"
)

// BindJSON decodes the request body into obj and reports a 400 on failure.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		httputil.RespondWithBindError(c, err)
		return false
	}
	return true
}

// ParseIDParam reads a positive integer path parameter.
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(c, errors.BadRequest("invalid "+name, err))
		return 0, false
	}
	return id, true
}

// CallerID returns the authenticated user id, responding 401 when absent.
func CallerID(c *gin.Context) (int64, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return 0, false
	}
	return id, true
}
