package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adplayer/internal/config"
	"adplayer/internal/health"
)

func newTestRouter(ok bool) *httptest.Server {
	h := NewHandlers(config.Config{})
	h.check = func(context.Context, config.Config) health.HealthStatus {
		return health.HealthStatus{OK: ok, Checks: []health.CheckResult{{Name: "agent", OK: ok}}}
	}
	return httptest.NewServer(NewRouter(h, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
}

func TestHealthz(t *testing.T) {
	srv := newTestRouter(true)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(b))
}

func TestReadyz(t *testing.T) {
	for _, ok := range []bool{true, false} {
		srv := newTestRouter(ok)
		resp, err := http.Get(srv.URL + "/readyz")
		require.NoError(t, err)
		var st health.HealthStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
		resp.Body.Close()
		srv.Close()

		assert.Equal(t, ok, st.OK)
		if ok {
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		} else {
			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		}
	}
}

func TestRoutes(t *testing.T) {
	srv := newTestRouter(true)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws/widget")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
