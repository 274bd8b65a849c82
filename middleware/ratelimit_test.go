package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func limitedRouter(perSecond float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(perSecond, burst, zap.NewNop()).Middleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/articles", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = "203.0.113.7:51000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterThrottlesAfterBurst(t *testing.T) {
	router := limitedRouter(1, 2)

	assert.Equal(t, http.StatusOK, get(router, "/api/v1/articles").Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/articles").Code)

	w := get(router, "/api/v1/articles")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimiterExemptsHealth(t *testing.T) {
	router := limitedRouter(1, 1)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, get(router, "/health").Code)
	}
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	router := limitedRouter(1, 1)

	first := httptest.NewRequest("GET", "/api/v1/articles", nil)
	first.RemoteAddr = "198.51.100.1:40000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	// Exhausting one client's bucket must not throttle another.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, first)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	second := httptest.NewRequest("GET", "/api/v1/articles", nil)
	second.RemoteAddr = "198.51.100.2:40000"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, second)
	assert.Equal(t, http.StatusOK, w.Code)
}
