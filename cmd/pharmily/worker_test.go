package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestHealthServer(t *testing.T) {
	var pingErr error
	srv := healthServer(0, func(context.Context) error { return pingErr }, prometheus.NewRegistry())

	get := func(path string) int {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("/health/live"))
	assert.Equal(t, http.StatusOK, get("/health/ready"))
	assert.Equal(t, http.StatusOK, get("/metrics"))

	pingErr = errors.New("disk I/O error")
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/ready"))
}
