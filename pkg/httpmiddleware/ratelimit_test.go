package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func request(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := request(h, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, request(h, "10.0.0.1:9999").Code)
	}

	w := request(h, "10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Equal(t, "rate limit exceeded", body.Message)
}

func TestRateLimit_PerClient(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, request(h, "1.1.1.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(h, "1.1.1.1:1").Code)
	assert.Equal(t, http.StatusOK, request(h, "2.2.2.2:1").Code)
}

func TestRateLimit_Refills(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Second})
	now := time.Now()

	_, _, ok := rl.reserve("k", now)
	require.True(t, ok)
	_, _, ok = rl.reserve("k", now)
	require.True(t, ok)
	_, wait, ok := rl.reserve("k", now)
	require.False(t, ok)
	assert.Positive(t, wait)

	_, _, ok = rl.reserve("k", now.Add(600*time.Millisecond))
	assert.True(t, ok)
}

func TestRateLimit_Evict(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Second})
	now := time.Now()
	rl.reserve("a", now)
	rl.reserve("b", now.Add(2*time.Second))

	rl.evict(now.Add(2500 * time.Millisecond))

	assert.NotContains(t, rl.buckets, "a")
	assert.Contains(t, rl.buckets, "b")
}

func TestClientIP(t *testing.T) {
	for _, tt := range []struct {
		name   string
		header http.Header
		remote string
		want   string
	}{
		{name: "Forwarded", header: http.Header{"X-Forwarded-For": {"203.0.113.5, 10.0.0.1"}}, remote: "10.0.0.1:1", want: "203.0.113.5"},
		{name: "RealIP", header: http.Header{"X-Real-Ip": {"198.51.100.7"}}, remote: "10.0.0.1:1", want: "198.51.100.7"},
		{name: "Remote", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "NoPort", remote: "pipe", want: "pipe"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				req.Header[k] = v
			}
			req.RemoteAddr = tt.remote
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
