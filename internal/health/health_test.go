package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Health(ctx context.Context) error { return f(ctx) }

func TestHealthChecker(t *testing.T) {
	hc := NewHealthChecker(nil)
	hc.AddComponent("database", pingerFunc(func(ctx context.Context) error { return nil }))

	results, healthy := hc.CheckHealth(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "OK", results["database"])

	rec := httptest.NewRecorder()
	hc.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	hc.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthCheckerFailure(t *testing.T) {
	hc := NewHealthChecker(nil)
	hc.AddComponent("content", pingerFunc(func(ctx context.Context) error { return errors.New("read-only filesystem") }))

	results, healthy := hc.CheckHealth(context.Background())
	assert.False(t, healthy)
	assert.Contains(t, results["content"], "read-only filesystem")

	rec := httptest.NewRecorder()
	hc.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// 存活检查不受依赖影响
	rec = httptest.NewRecorder()
	hc.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
