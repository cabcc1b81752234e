package sse

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(slog.New(slog.DiscardHandler))
}

func drainOne(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case evt := <-c.EventChan:
		return evt, true
	default:
		return Event{}, false
	}
}

func TestBroadcastFiltersByTripAccess(t *testing.T) {
	m := newTestManager(t)
	m.SetTripAccessChecker(func(_ context.Context, userID, tripID string) bool {
		return userID == "user-member" && tripID == "trip-1"
	})

	member, err := m.Connect("user-member")
	require.NoError(t, err)
	outsider, err := m.Connect("user-outsider")
	require.NoError(t, err)

	trip := &domain.Trip{Title: "Iceland"}
	trip.ID = "trip-1"
	m.broadcast(NewTripUpdatedEvent(trip))

	evt, ok := drainOne(t, member)
	require.True(t, ok, "member should receive the trip event")
	assert.Equal(t, EventTripUpdated, evt.Type)

	_, ok = drainOne(t, outsider)
	assert.False(t, ok, "outsider should be filtered out")
}

func TestBroadcastUserTargetedEventSkipsAccessCheck(t *testing.T) {
	m := newTestManager(t)
	m.SetTripAccessChecker(func(_ context.Context, _, _ string) bool {
		// Removed user no longer passes the access check.
		return false
	})

	removed, err := m.Connect("user-removed")
	require.NoError(t, err)
	other, err := m.Connect("user-other")
	require.NoError(t, err)

	evt := NewMemberRemovedEvent("trip-1", "user-removed")
	evt.UserID = "user-removed"
	m.broadcast(evt)

	_, ok := drainOne(t, removed)
	assert.True(t, ok, "removed user must still hear about their removal")

	_, ok = drainOne(t, other)
	assert.False(t, ok)
}

func TestHeartbeatReachesEveryone(t *testing.T) {
	m := newTestManager(t)
	m.SetTripAccessChecker(func(_ context.Context, _, _ string) bool { return false })

	a, err := m.Connect("user-a")
	require.NoError(t, err)
	b, err := m.Connect("user-b")
	require.NoError(t, err)

	m.broadcast(NewHeartbeatEvent())

	_, ok := drainOne(t, a)
	assert.True(t, ok)
	_, ok = drainOne(t, b)
	assert.True(t, ok)
}

func TestDisconnectRemovesClient(t *testing.T) {
	m := newTestManager(t)

	c, err := m.Connect("user-a")
	require.NoError(t, err)
	require.Equal(t, 1, m.ClientCount())

	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	// Disconnecting twice is harmless.
	m.Disconnect(c.ID)
}
