package service_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/auth"
	"github.com/driftlog/driftlog-server/internal/domain"
	"github.com/driftlog/driftlog-server/internal/id"
	"github.com/driftlog/driftlog-server/internal/objectstore"
	"github.com/driftlog/driftlog-server/internal/service"
	"github.com/driftlog/driftlog-server/internal/store"
	"github.com/driftlog/driftlog-server/internal/validation"
)

// testEnv wires the full service stack against a throwaway store and a
// local object store.
type testEnv struct {
	store   *store.Store
	objects *objectstore.Local
	access  *service.AccessService
	trips   *service.TripService
	moments *service.MomentService
	canvas  *service.CanvasService
	media   *service.MediaService
	auth    *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "service-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(filepath.Join(tmpDir, "data.db"), logger, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	objects, err := objectstore.NewLocal(filepath.Join(tmpDir, "objects"), logger)
	require.NoError(t, err)

	keyBytes := make([]byte, 32)
	_, err = rand.Read(keyBytes)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(keyBytes), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	validate := validation.New()
	access := service.NewAccessService(st, logger)

	return &testEnv{
		store:   st,
		objects: objects,
		access:  access,
		trips:   service.NewTripService(st, access, objects, validate, logger),
		moments: service.NewMomentService(st, access, validate, logger),
		canvas:  service.NewCanvasService(st, access, logger),
		media:   service.NewMediaService(st, access, objects, logger),
		auth:    service.NewAuthService(st, tokens, validate, logger),
	}
}

// newUser writes a user record directly; registration flows are covered in
// the auth tests.
func (e *testEnv) newUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:       email,
		DisplayName: "Test User",
		Tier:        domain.TierFree,
	}
	user.ID = id.MustGenerate("user")
	user.InitTimestamps()
	require.NoError(t, e.store.Users.Create(context.Background(), user.ID, user))
	return user
}

// newTrip creates a trip owned by the given user through the trip service.
func (e *testEnv) newTrip(t *testing.T, ownerID, title string) *domain.Trip {
	t.Helper()
	trip, err := e.trips.Create(context.Background(), ownerID, service.CreateTripRequest{Title: title})
	require.NoError(t, err)
	return trip
}

// newMoment creates a moment through the moment service.
func (e *testEnv) newMoment(t *testing.T, tripID, userID, title string, date time.Time) *domain.Moment {
	t.Helper()
	moment, err := e.moments.Create(context.Background(), tripID, userID, service.CreateMomentRequest{
		Title: title,
		Date:  date,
	})
	require.NoError(t, err)
	return moment
}
