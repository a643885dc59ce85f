package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRequestIDGenerated(t *testing.T) {
	r := newRouter(RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestRequestIDPreserved(t *testing.T) {
	r := newRouter(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "client-supplied")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied", w.Header().Get(HeaderRequestID))
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 100, Burst: 10}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitBlocksBurst(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		statuses = append(statuses, w.Code)
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])
	assert.Equal(t, http.StatusTooManyRequests, statuses[3])
}

func TestRateLimitEvictsIdleClients(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, Burst: 1}
	registry := newClientRegistry(time.Minute)

	registry.get("10.0.0.1", cfg)
	registry.get("10.0.0.2", cfg)
	require.Equal(t, 2, registry.size())

	// Backdate one client and the sweep clock; the next request evicts the
	// idle entry and keeps the active one.
	registry.mu.Lock()
	registry.clients["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Minute)
	registry.lastSweep = time.Now().Add(-2 * time.Minute)
	registry.mu.Unlock()

	registry.get("10.0.0.2", cfg)

	assert.Equal(t, 1, registry.size())
	registry.mu.Lock()
	_, kept := registry.clients["10.0.0.2"]
	_, gone := registry.clients["10.0.0.1"]
	registry.mu.Unlock()
	assert.True(t, kept)
	assert.False(t, gone)
}

func TestCORSHeaders(t *testing.T) {
	r := newRouter(CORS(DefaultCORSConfig()))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
