package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todos/internal/config"
	"todos/internal/handlers"
	"todos/internal/repo/repotest"
	"todos/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{App: config.AppConfig{Env: "test", Version: "1.2.3"}}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	_, err = NewLogger(config.LogConfig{Level: "loud", Format: "text"})
	assert.Error(t, err)
	_, err = NewLogger(config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", healthHandler(testConfig(), map[string]healthCheck{
		"postgres": func(context.Context) error { return nil },
	}))
	r.GET("/health-down", healthHandler(testConfig(), map[string]healthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"env":"test","deps":{"postgres":"ok"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
}

func TestMetaRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerMetaRoutes(r, testConfig(), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.JSONEq(t, `{"version":"1.2.3"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger-doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/todos/{id}")
}

func TestRegisterTodoRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerTodoRoutes(r, handlers.NewTodoHandler(service.NewTodoService(repotest.NewMemTodoRepo(), nil)))

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"Buy milk"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Buy milk"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/todos/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAppCloseReportsRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	a := &App{redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	require.NoError(t, a.Close())

	err := a.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, redis.ErrClosed)
}

func TestRouterSetsSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := log.New()
	r := newRouter(testConfig(), logger, nil, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
