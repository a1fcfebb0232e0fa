package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingRecorder struct {
	calls int
	up    bool
}

func (p *pingRecorder) Ping(ctx context.Context) bool {
	p.calls++
	return p.up
}

var _ HealthPinger = (*pingRecorder)(nil)

// Every probe re-pings the cache backend; that is how the store's
// connected flag recovers after an outage.
func TestHealthPingsCache(t *testing.T) {
	e := echo.New()
	p := &pingRecorder{up: true}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, Health(p)(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, p.calls)
}

// The cache is fail-open, so a dead backend (or no cache at all) must
// not fail the liveness probe.
func TestHealthOKWithoutCache(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, Health(nil)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := &pingRecorder{up: false}
	rec = httptest.NewRecorder()
	require.NoError(t, Health(down)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, down.calls)
}
