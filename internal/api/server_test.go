package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/auth"
	"github.com/driftlog/driftlog-server/internal/objectstore"
	"github.com/driftlog/driftlog-server/internal/search"
	"github.com/driftlog/driftlog-server/internal/service"
	"github.com/driftlog/driftlog-server/internal/sse"
	"github.com/driftlog/driftlog-server/internal/store"
	"github.com/driftlog/driftlog-server/internal/validation"
)

// testEnvelope mirrors the wire envelope with typed data for assertions.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with a humatest client against a
// throwaway store and local object store.
type testServer struct {
	*Server
	api    humatest.TestAPI
	tokens *auth.TokenService
}

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "driftlog-api-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(filepath.Join(tmpDir, "data.db"), logger, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	objects, err := objectstore.NewLocal(filepath.Join(tmpDir, "objects"), logger)
	require.NoError(t, err)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(tmpDir, "search"),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	keyBytes := make([]byte, 32)
	_, err = rand.Read(keyBytes)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(keyBytes), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	validate := validation.New()
	access := service.NewAccessService(st, logger)
	searchService := service.NewSearchService(st, index, logger)
	st.SetSearchIndexer(searchService)

	services := &Services{
		Auth:   service.NewAuthService(st, tokens, validate, logger),
		Access: access,
		Trip:   service.NewTripService(st, access, objects, validate, logger),
		Moment: service.NewMomentService(st, access, validate, logger),
		Canvas: service.NewCanvasService(st, access, logger),
		Media:  service.NewMediaService(st, access, objects, logger),
		Search: searchService,
	}

	srv := NewServer(st, services, objects, sse.NewManager(logger), logger, opts)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
		tokens: tokens,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	// Generous limits so multi-request tests never trip the limiters.
	return setupTestServer(t, Options{
		AuthPerMinute: 6000,
		AuthBurst:     3000,
		JoinPerMinute: 6000,
		JoinBurst:     3000,
	})
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

// registerUser creates an account through the API and returns its bearer
// token and user ID.
func (ts *testServer) registerUser(t *testing.T, email, name string) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "TestPassword123!",
		"display_name": name,
	})
	require.Equal(t, http.StatusOK, resp.Code, "Register failed: %s", resp.Body.String())

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	require.True(t, envelope.Success)
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

// createTrip creates a trip through the API and returns its response body.
func (ts *testServer) createTrip(t *testing.T, token, title string) TripResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/trips",
		"Authorization: Bearer "+token,
		map[string]any{"title": title},
	)
	require.Equal(t, http.StatusOK, resp.Code, "Create trip failed: %s", resp.Body.String())

	return decodeEnvelope[TripResponse](t, resp.Body.Bytes()).Data
}

// createMoment creates a moment through the API and returns its response body.
func (ts *testServer) createMoment(t *testing.T, token, tripID string, body map[string]any) MomentResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/trips/"+tripID+"/moments",
		"Authorization: Bearer "+token,
		body,
	)
	require.Equal(t, http.StatusOK, resp.Code, "Create moment failed: %s", resp.Body.String())

	return decodeEnvelope[MomentResponse](t, resp.Body.Bytes()).Data
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, 1, envelope.V)
	assert.True(t, envelope.Success)
	assert.Equal(t, "healthy", envelope.Data.Status)
}

func TestRegisterAndGetCurrentUser(t *testing.T) {
	ts := newTestServer(t)

	token, userID := ts.registerUser(t, "mara@example.com", "Mara")

	resp := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, userID, envelope.Data.ID)
	assert.Equal(t, "mara@example.com", envelope.Data.Email)
	assert.Equal(t, "Mara", envelope.Data.DisplayName)
	assert.Equal(t, "free", envelope.Data.Tier)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "mara@example.com", "Mara")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "mara@example.com",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "mara@example.com", "Mara")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "mara@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Error)
}

func TestRefresh_RotatesToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "mara@example.com",
		"password":     "TestPassword123!",
		"display_name": "Mara",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	first := decodeEnvelope[AuthResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": first.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	second := decodeEnvelope[AuthResponse](t, resp.Body.Bytes()).Data
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The rotated-out token is dead.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": first.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogoutAll(t *testing.T) {
	ts := newTestServer(t)

	token, _ := ts.registerUser(t, "mara@example.com", "Mara")

	// A second session via login.
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "mara@example.com",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/logout-all", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[LogoutAllResponse](t, resp.Body.Bytes())
	assert.Equal(t, 2, envelope.Data.SessionsRevoked)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{
		"/api/v1/trips",
		"/api/v1/users/me",
		"/api/v1/usage",
		"/api/v1/search?q=kyoto",
	} {
		resp := ts.api.Get(path)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "expected 401 for %s", path)

		envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
		assert.False(t, envelope.Success)
		assert.Equal(t, "UNAUTHORIZED", envelope.Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	ts := setupTestServer(t, Options{
		AuthPerMinute: 1,
		AuthBurst:     1,
		JoinPerMinute: 6000,
		JoinBurst:     3000,
	})

	body := map[string]any{"email": "mara@example.com", "password": "wrong"}

	resp := ts.api.Post("/api/v1/auth/login", "X-Real-IP: 203.0.113.9", body)
	assert.NotEqual(t, http.StatusTooManyRequests, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", "X-Real-IP: 203.0.113.9", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	// A different client IP has its own bucket.
	resp = ts.api.Post("/api/v1/auth/login", "X-Real-IP: 203.0.113.10", body)
	assert.NotEqual(t, http.StatusTooManyRequests, resp.Code)
}
