package application

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T, mr *miniredis.Miniredis) *AppConfig {
	t.Helper()
	var cfg AppConfig
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.Mode = "test"
	cfg.HTTP.ShutdownTimeout = 2 * time.Second
	cfg.Logger.Level = "error"
	cfg.Logger.Encoding = "json"
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.KeyPrefix = "test:"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "tokenauth.db")
	cfg.Database.MaxOpenConns = 1
	cfg.JWT.Secret = testSecret
	cfg.Auth.Password.BcryptCost = bcrypt.MinCost
	cfg.Health.Enabled = true
	cfg.Sweeper.Enabled = true
	cfg.Breaker.Enabled = true
	return &cfg
}

func doRequest(srv *HTTPServer, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

type envelope struct {
	Code int            `json:"code"`
	Msg  string         `json:"msg"`
	Data map[string]any `json:"data"`
}

func post(t *testing.T, base, path string, body any) (int, envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(base+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestApp_MigrateThenRun(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr)

	migrator, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, migrator.Migrate(context.Background()))

	runCfg := testConfig(t, mr)
	runCfg.Database.DSN = cfg.Database.DSN
	app, err := New(runCfg)
	require.NoError(t, err)

	srv, err := app.HTTPServer()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	base := "http://" + srv.Addr().String()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, env := post(t, base, "/auth/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "correct-horse-1",
	})
	require.Equal(t, http.StatusOK, status, env.Msg)

	status, env = post(t, base, "/auth/login", map[string]string{
		"username": "alice", "password": "correct-horse-1",
	})
	require.Equal(t, http.StatusOK, status, env.Msg)
	assert.NotEmpty(t, env.Data["accessToken"])
	assert.NotEmpty(t, env.Data["refreshToken"])

	// session state lands under the configured prefix
	keys := mr.Keys()
	require.NotEmpty(t, keys)
	for _, k := range keys {
		assert.Contains(t, k, "test:")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_HealthReportsRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	app, err := New(testConfig(t, mr))
	require.NoError(t, err)

	srv, err := app.HTTPServer()
	require.NoError(t, err)
	t.Cleanup(func() { app.shutdown(context.Background(), nil, nil) })

	mr.SetError("LOADING")
	defer mr.SetError("")

	w := doRequest(srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(srv, http.MethodGet, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApp_RunFailsOnBusyPort(t *testing.T) {
	mr := miniredis.RunT(t)

	first, err := New(testConfig(t, mr))
	require.NoError(t, err)
	srv, err := first.HTTPServer()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	cfg := testConfig(t, mr)
	cfg.HTTP.Addr = srv.Addr().String()
	second, err := New(cfg)
	require.NoError(t, err)
	err = second.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), srv.Addr().String())

	cancel()
	assert.NoError(t, <-done)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&AppConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt")
}

func TestApp_SwaggerToggle(t *testing.T) {
	mr := miniredis.RunT(t)

	off, err := New(testConfig(t, mr))
	require.NoError(t, err)
	srv, err := off.HTTPServer()
	require.NoError(t, err)
	t.Cleanup(func() { off.shutdown(context.Background(), nil, nil) })
	assert.Equal(t, http.StatusNotFound, doRequest(srv, http.MethodGet, "/openapi.json").Code)

	cfg := testConfig(t, mr)
	cfg.Swagger.Enabled = true
	on, err := New(cfg)
	require.NoError(t, err)
	srv, err = on.HTTPServer()
	require.NoError(t, err)
	t.Cleanup(func() { on.shutdown(context.Background(), nil, nil) })

	w := doRequest(srv, http.MethodGet, "/openapi.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/auth/refresh")
}
