package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderbridge/tender-ingest/internal/config"
)

func bufferedLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger, &buf
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	return router
}

func TestRequestID(t *testing.T) {
	router := newRouter(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, `"level":"info"`},
		{http.StatusBadRequest, `"level":"warning"`},
		{http.StatusBadGateway, `"level":"error"`},
	}

	for _, tt := range tests {
		logger, buf := bufferedLogger()
		router := newRouter(RequestID(), Logger(logger))
		router.GET("/", func(c *gin.Context) { c.Status(tt.status) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Contains(t, buf.String(), tt.level)
		assert.Contains(t, buf.String(), `"request_id":"`+w.Header().Get("X-Request-ID")+`"`)
	}
}

func TestRecovery(t *testing.T) {
	logger, buf := bufferedLogger()
	router := newRouter(Recovery(logger))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestCORS(t *testing.T) {
	cors := config.CORSConfig{
		AllowedOrigins: []string{"https://tenders.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}
	router := newRouter(CORS(cors))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://tenders.example.com")
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://tenders.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSecurity(t *testing.T) {
	router := newRouter(Security())
	router.GET("/*any", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tenders", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "'unsafe-inline'")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerMinute: 60, BurstSize: 2, CleanupInterval: time.Minute})
	defer rl.Stop()

	router := newRouter(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), "RATE_LIMITED")
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	stats := rl.GetStats()
	assert.Equal(t, 1, stats["active_clients"])
	rl.Stop()
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerMinute: 60, BurstSize: 1, CleanupInterval: 10 * time.Millisecond})
	defer rl.Stop()

	rl.getLimiter("10.0.0.1")
	require.Eventually(t, func() bool {
		return rl.GetStats()["active_clients"] == 0
	}, time.Second, 5*time.Millisecond)
}
