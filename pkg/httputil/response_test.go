package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmily/pharmily-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(err error) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondWithError(c, err)

	var body Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRespondWithErrorMapsCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.NewNotFound("prescription", nil), http.StatusNotFound},
		{errors.NewEmptyResult("no doctors"), http.StatusNotFound},
		{errors.NewConflict("username already exists", nil), http.StatusConflict},
		{errors.NewBadRequest("bad", nil), http.StatusBadRequest},
		{errors.Unauthorized(nil), http.StatusUnauthorized},
		{errors.Forbidden("nope"), http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", errors.NewNotFound("user", nil)), http.StatusNotFound},
	}
	for _, tc := range cases {
		w, body := respond(tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, "error", body.Status)
	}
}

func TestRespondWithErrorHidesInternalDetail(t *testing.T) {
	w, body := respond(fmt.Errorf("sql: connection refused"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body.Message)
}
