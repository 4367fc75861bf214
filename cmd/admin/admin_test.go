package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"vizarcade.dev/config"
	"vizarcade.dev/pkg/listener"
)

func newHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	m := listener.NewMux()
	m.Register(NewAdminListener(cfg))

	server, err := m.BuildServer(&http.Server{ReadHeaderTimeout: time.Second})
	require.NoError(t, err)

	return server.Handler
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	recorder := httptest.NewRecorder()
	newHandler(t, config.Default()).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestConfigDump(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.ACRCloud.Host = "identify-eu-west-1.acrcloud.com"
	cfg.ACRCloud.AccessKey = "super-secret-key"
	cfg.ACRCloud.AccessSecret = "super-secret-secret"
	cfg.Theme.APIKey = "sk-ant-secret"

	recorder := httptest.NewRecorder()
	newHandler(t, cfg).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/config_dump", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)

	body := recorder.Body.String()
	assert.NotContains(t, body, "super-secret-key")
	assert.NotContains(t, body, "super-secret-secret")
	assert.NotContains(t, body, "sk-ant-secret")
	assert.Contains(t, body, "identify-eu-west-1.acrcloud.com")

	var dumped map[string]any
	require.NoError(t, yaml.Unmarshal(recorder.Body.Bytes(), &dumped))

	acrcloud, ok := dumped["acrcloud"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "******", acrcloud["accessKey"])

	assert.Equal(t, "super-secret-key", cfg.ACRCloud.AccessKey)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	recorder := httptest.NewRecorder()
	newHandler(t, config.Default()).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, recorder.Body.String())
}
