package objectstore_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/objectstore"
)

func newLocal(t *testing.T) *objectstore.Local {
	t.Helper()
	l, err := objectstore.NewLocal(t.TempDir(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return l
}

func TestLocalPutGetDelete(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	data := []byte("fake jpeg bytes")
	key := "trips/trip-1/media-1/original.jpg"

	err := l.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/jpeg")
	require.NoError(t, err)

	r, err := l.Get(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, data, got)

	require.NoError(t, l.Delete(ctx, key))

	_, err = l.Get(ctx, key)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	// Deleting again is harmless.
	assert.NoError(t, l.Delete(ctx, key))
}

func TestLocalSizeMismatchRejected(t *testing.T) {
	l := newLocal(t)

	err := l.Put(context.Background(), "k/obj", strings.NewReader("short"), 999, "text/plain")
	require.Error(t, err)

	// The failed upload must not leave an object behind.
	_, err = l.Get(context.Background(), "k/obj")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestLocalRejectsTraversal(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "..", "../outside", "/etc/passwd"} {
		err := l.Put(ctx, key, strings.NewReader("x"), 1, "text/plain")
		assert.Error(t, err, "key %q should be rejected", key)
	}
}

func TestLocalURLIsServerRelative(t *testing.T) {
	l := newLocal(t)

	u, err := l.URL(context.Background(), "trips/t/m/thumb.jpg", 0)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/media/file/trips/t/m/thumb.jpg", u)
}
