package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bernyforce/llm-council/internal/config"
	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/bernyforce/llm-council/internal/llm"
	"github.com/bernyforce/llm-council/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSettings() config.Settings {
	return config.Settings{
		Provider: llm.ProviderMock,
		Council:  domain.Council{Members: []string{"A", "B", "C"}, Chairman: "C"},
		Timeout:  time.Second,
	}
}

func newTestApp(t *testing.T, gateway domain.Gateway) *App {
	t.Helper()
	t.Setenv("FRONTEND_DIR", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("RATE_LIMIT_RPS", "")

	sessions, err := store.NewFileSessionStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newApp(ctx, gateway, sessions, testSettings(), zap.NewNop())
}

func serve(app *App, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, llm.NewMockGateway())

	rec := serve(app, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "LLM Council API", got["message"])
	assert.Equal(t, "dev", got["version"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

type failingPingStore struct {
	domain.SessionStore
}

func (failingPingStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestHealth_StoreDown(t *testing.T) {
	rec := httptest.NewRecorder()
	healthHandler(failingPingStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"error","error":"connection refused"}`, rec.Body.String())
}

func TestCouncilRoundTrip(t *testing.T) {
	gw := llm.NewMockGateway()
	app := newTestApp(t, gw)

	rec := serve(app, http.MethodPost, "/api/council", `{"query":"2+2?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sess domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, []string{"A", "B", "C"}, sess.FirstOpinions.Members())
	assert.Equal(t, "Mock response from C", sess.FinalResponse)
	// Three opinions, three reviews, one synthesis.
	assert.Len(t, gw.Calls(), 7)

	rec = serve(app, http.MethodGet, "/api/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sess.ID.String())

	rec = serve(app, http.MethodGet, "/api/conversations/"+sess.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(app, http.MethodGet, "/api/conversations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	app := newTestApp(t, nil)

	serve(app, http.MethodGet, "/api/health", "")
	serve(app, http.MethodGet, "/api/conversations?limit=0", "")

	rec := serve(app, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 3, got["request_count"])
	assert.EqualValues(t, 1, got["error_count"])

	council, ok := got["council"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, council["gateway_configured"])
	assert.Equal(t, "C", council["chairman"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, llm.NewMockGateway())
	serve(app, http.MethodGet, "/api/health", "")

	rec := serve(app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "council_http_requests_total")
}

func TestNewApp_MissingCredential(t *testing.T) {
	t.Setenv("FRONTEND_DIR", filepath.Join(t.TempDir(), "missing"))
	sessions, err := store.NewFileSessionStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	settings := testSettings()
	settings.Provider = llm.ProviderOpenRouter
	settings.APIKey = ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := NewApp(ctx, sessions, settings, zap.NewNop())
	require.NoError(t, err)

	rec := serve(app, http.MethodPost, "/api/council", `{"query":"2+2?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"LLM provider API key not configured"}`, rec.Body.String())

	listed, err := sessions.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestNewApp_UnknownProvider(t *testing.T) {
	sessions, err := store.NewFileSessionStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	settings := testSettings()
	settings.Provider = "openruoter"
	settings.APIKey = "key"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := NewApp(ctx, sessions, settings, zap.NewNop())
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
	assert.Nil(t, app)
}

func TestRateLimit_DisabledByDefault(t *testing.T) {
	app := newTestApp(t, llm.NewMockGateway())

	for i := 0; i < 50; i++ {
		rec := serve(app, http.MethodGet, "/api/council", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimit_SparesHealthAndMetrics(t *testing.T) {
	t.Setenv("FRONTEND_DIR", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("RATE_LIMIT_RPS", "0.001")
	t.Setenv("RATE_LIMIT_BURST", "1")

	sessions, err := store.NewFileSessionStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app := newApp(ctx, llm.NewMockGateway(), sessions, testSettings(), zap.NewNop())

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/council", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, http.MethodGet, "/api/council", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, http.MethodGet, "/api/conversations", "").Code)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/health", "").Code)
		assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/metrics", "").Code)
	}
}

func TestFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>council</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	sessions, err := store.NewFileSessionStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Setenv("FRONTEND_DIR", dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app := newApp(ctx, llm.NewMockGateway(), sessions, testSettings(), zap.NewNop())

	rec := serve(app, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "council")

	rec = serve(app, http.MethodGet, "/assets/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())
}
