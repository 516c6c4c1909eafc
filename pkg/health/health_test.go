package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) probeBody {
	t.Helper()
	var body probeBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func TestLiveEndpoint_Passing(t *testing.T) {
	h := New(Info{})
	h.AddLivenessCheck("runtime", time.Second, passing())

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, w).Status)
}

func TestLiveEndpoint_FailsAfterThreshold(t *testing.T) {
	h := New(Info{})
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))
	c := h.liveness[0]

	c.run(context.Background())
	c.run(context.Background())

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code, "below threshold")

	c.run(context.Background())

	w = httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestCheck_Recovers(t *testing.T) {
	fail := true
	h := New(Info{})
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})
	h.SetReady(true)
	c := h.readiness[0]

	for range failureThreshold {
		c.run(context.Background())
	}
	assert.False(t, h.IsReady())

	fail = false
	c.run(context.Background())
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint_NotMarkedReady(t *testing.T) {
	h := New(Info{})

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decode(t, w).Checks, "_readiness")

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	h := New(Info{Environment: "development", Storage: "memory"})

	w := httptest.NewRecorder()
	h.StatusEndpoint(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, map[string]string{
		"status":      "healthy",
		"environment": "development",
		"storage":     "memory",
	}, body)
}

func TestStatusEndpoint_Degraded(t *testing.T) {
	h := New(Info{Environment: "production", Storage: "postgres"})
	h.AddReadinessCheck("postgres", time.Second, failing("no route"))
	for range failureThreshold {
		h.readiness[0].run(context.Background())
	}

	w := httptest.NewRecorder()
	h.StatusEndpoint(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestStartStop(t *testing.T) {
	h := New(Info{})
	calls := make(chan struct{}, 8)
	h.AddLivenessCheck("tick", time.Second, func(context.Context) error {
		select {
		case calls <- struct{}{}:
		default:
		}
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("check did not run")
	}
	h.Stop()
	h.Stop()
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingCheck(t *testing.T) {
	require.NoError(t, PingCheck(pingerFunc(func(context.Context) error { return nil }))(context.Background()))
	err := PingCheck(pingerFunc(func(context.Context) error { return errors.New("refused") }))(context.Background())
	require.ErrorContains(t, err, "refused")
}

func TestRuntimeCheck(t *testing.T) {
	require.NoError(t, RuntimeCheck(0, 0)(context.Background()))
	require.Error(t, RuntimeCheck(1, 0)(context.Background()))
}
