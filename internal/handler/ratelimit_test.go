package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter()
	defer rl.Close()

	window := 50 * time.Millisecond

	assert.True(t, rl.Allow("ip:1.2.3.4", 2, window))
	assert.True(t, rl.Allow("ip:1.2.3.4", 2, window))
	assert.False(t, rl.Allow("ip:1.2.3.4", 2, window))

	// Counters are per key.
	assert.True(t, rl.Allow("ip:5.6.7.8", 2, window))

	time.Sleep(window + 10*time.Millisecond)
	assert.True(t, rl.Allow("ip:1.2.3.4", 2, window))
}

func TestMemoryRateLimiterZeroLimitDisables(t *testing.T) {
	rl := NewMemoryRateLimiter()
	defer rl.Close()

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("ip:1.2.3.4", 0, time.Minute))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewMemoryRateLimiter()
	defer rl.Close()

	router := gin.New()
	router.POST("/auth/login", rateLimitMiddleware(rl, 2, time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
