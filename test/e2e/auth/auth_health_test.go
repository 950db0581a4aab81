package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	e := newEnv(t)

	resp, body := e.get(t, "/livez")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "e2e", body["version"])
	require.NotEmpty(t, body["uptime"])

	resp, body = e.get(t, "/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
	checks := body["checks"].(map[string]any)
	require.Equal(t, "ok", checks["codes"])
}
