package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"techpulse/internal/config"
	"techpulse/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomRecovery_Panic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logBuf bytes.Buffer
	testLogger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	router := gin.New()
	router.Use(customRecovery(testLogger))
	router.GET("/", func(c *gin.Context) {
		panic("test panic")
	})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, logBuf.String(), "Panic recovered")
	assert.Contains(t, logBuf.String(), "test panic")
}

func TestCustomRecovery_AbortHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logBuf bytes.Buffer
	testLogger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	router := gin.New()
	router.Use(customRecovery(testLogger))
	router.GET("/", func(c *gin.Context) {
		panic(http.ErrAbortHandler)
	})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Contains(t, logBuf.String(), "Client connection aborted")
	assert.NotContains(t, logBuf.String(), "Panic recovered")
}

func TestRequestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestMetrics())
	router.GET("/things/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/things/:id", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		req, _ := http.NewRequest(http.MethodGet, "/things/"+id, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter), "requests are labelled by route, not raw path")
}

func TestCORSOptions(t *testing.T) {
	wildcard := corsOptions([]string{"*"})
	assert.False(t, wildcard.AllowCredentials)

	explicit := corsOptions([]string{"https://app.example.com"})
	assert.True(t, explicit.AllowCredentials)
	assert.Contains(t, explicit.AllowedHeaders, "Authorization")
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	const tempConfig = `
port: 8081
debug: false
database:
  type: "sqlite"
  dsn: "file::memory:"
auth:
  jwt_secret: "e2e-secret"
llm:
  fallback_key: ""
scheduler:
  usage_reset_spec: "off"
cors_origins: ["https://app.example.com"]
`
	f, err := os.CreateTemp("", "techpulse-e2e-*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })
	_, err = f.WriteString(tempConfig)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, _, err := config.LoadConfig(f.Name())
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	app, err := newApplication(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)
	return app
}

func serve(app *application, method, path, body, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, req)
	return rr
}

func TestApplicationE2E(t *testing.T) {
	app := newTestApplication(t)

	resp := serve(app, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, resp.Code)

	// Bootstrap an admin and log in with the one-time password.
	resp = serve(app, http.MethodPost, "/api/auth/create-admin", "", "")
	require.Equal(t, http.StatusCreated, resp.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	loginBody, _ := json.Marshal(map[string]string{"username": created["username"], "password": created["password"]})
	resp = serve(app, http.MethodPost, "/api/auth/login", string(loginBody), "")
	require.Equal(t, http.StatusOK, resp.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	resp = serve(app, http.MethodPost, "/api/admin/api-keys",
		`{"provider": "openai", "model": "gpt-4o-mini", "api_key": "sk-e2e-0123456789abcdef", "priority": 3}`, login.AccessToken)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.NotContains(t, resp.Body.String(), "sk-e2e-0123456789abcdef")

	resp = serve(app, http.MethodPost, "/api/admin/usage/reset", "", login.AccessToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = serve(app, http.MethodGet, "/api/admin/api-keys", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = serve(app, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "techpulse_http_requests_total")
}

func TestApplicationCORS(t *testing.T) {
	app := newTestApplication(t)

	req, _ := http.NewRequest(http.MethodOptions, "/api/content", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodGet, "/api/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	app.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
