package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping() error { return f.err }

func serveHealth(db Pinger) *httptest.ResponseRecorder {
	h := NewHealthHandler(db, "1.0.0")
	engine := gin.New()
	engine.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_OK(t *testing.T) {
	w := serveHealth(&fakePinger{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"version":"1.0.0"`)
}

func TestHealthHandler_DegradedWhenDatabaseDown(t *testing.T) {
	w := serveHealth(&fakePinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), `"database":"unavailable"`)
}
