package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isoplan/planner/internal/ai"
	"github.com/isoplan/planner/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Gemini.APIKey = "test-key"
	cfg.Storage.DataFile = filepath.Join(t.TempDir(), "iso27001_data.json")
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Logging.Development = true
	return cfg
}

var okGenerator = ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
	return "OK", nil
})

func TestRoutesAreWired(t *testing.T) {
	srv := New(testConfig(t), nil, okGenerator)

	for _, path := range []string{"/", "/health", "/catalog", "/plan", "/plan/steps", "/chat"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(testConfig(t), nil, okGenerator)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plan", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `planner_plan_loads_total{source="default"} 1`), body)
	assert.True(t, strings.Contains(body, "planner_sessions_active 1"), body)
}

func TestSessionLimitFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.MaxSessions = 1
	srv := New(cfg, nil, okGenerator)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plan", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plan", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Stateless routes do not need a session slot.
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewGeneratorBackends(t *testing.T) {
	cfg := testConfig(t).Gemini

	cfg.Backend = "rest"
	gen, err := NewGenerator(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &ai.GeminiREST{}, gen)

	cfg.Backend = "sdk"
	gen, err = NewGenerator(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &ai.GeminiSDK{}, gen)

	cfg.Backend = "grpc"
	_, err = NewGenerator(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := New(testConfig(t), nil, okGenerator)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
