package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(perMin int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(perMin))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newLimitedRouter(2)

	assert.Equal(t, http.StatusOK, get(r, "203.0.113.7"))
	assert.Equal(t, http.StatusOK, get(r, "203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "203.0.113.7"))

	// Limits are per client address.
	assert.Equal(t, http.StatusOK, get(r, "198.51.100.4"))
}

func TestRateLimiterStore_EvictsIdleLimiters(t *testing.T) {
	clock := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	store := newRateLimiterStore(10)
	store.now = func() time.Time { return clock }
	store.lastSweep = clock

	active := store.getLimiter("203.0.113.7")
	store.getLimiter("198.51.100.4")
	assert.Equal(t, 2, store.size())

	clock = clock.Add(2 * time.Minute)
	assert.Same(t, active, store.getLimiter("203.0.113.7"))
	assert.Equal(t, 2, store.size(), "nothing idle long enough yet")

	clock = clock.Add(90 * time.Second)
	store.getLimiter("203.0.113.7")
	assert.Equal(t, 1, store.size(), "idle client dropped, recent one kept")

	clock = clock.Add(limiterIdleTTL)
	store.getLimiter("192.0.2.1")
	assert.Equal(t, 1, store.size())
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"empty forwarded entry", map[string]string{"X-Forwarded-For": " , 10.0.0.1", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote without port", nil, "192.0.2.9", "192.0.2.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			for k, v := range tc.header {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, getClientIP(c))
		})
	}
}
