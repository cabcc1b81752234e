package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/domain"
	apperr "github.com/driftlog/driftlog-server/internal/errors"
	"github.com/driftlog/driftlog-server/internal/store"
)

func TestCanvasUpdatePositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")
	a := env.newMoment(t, trip.ID, owner.ID, "A", time.Now())
	b := env.newMoment(t, trip.ID, owner.ID, "B", time.Now())

	updates := []store.MomentPositionUpdate{
		{MomentID: a.ID, Position: domain.GridPosition{Column: 1, Row: 0, Width: 1, Height: 2}},
		{MomentID: b.ID, Position: domain.GridPosition{Column: 0, Row: 0, Width: 1, Height: 2}},
	}
	require.NoError(t, env.canvas.UpdatePositions(ctx, trip.ID, owner.ID, updates))

	got, err := env.moments.Get(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.GridPosition.Column)
}

func TestCanvasUpdatePositions_ViewerForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	viewer := env.newUser(t, "viewer@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")
	m := env.newMoment(t, trip.ID, owner.ID, "A", time.Now())

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, viewer.ID)
	require.NoError(t, err)

	err = env.canvas.UpdatePositions(ctx, trip.ID, viewer.ID, []store.MomentPositionUpdate{
		{MomentID: m.ID, Position: domain.GridPosition{Column: 1, Row: 0, Width: 1, Height: 2}},
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// Nothing moved.
	got, err := env.moments.Get(ctx, m.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.GridPosition.Column)
}

func TestCanvasUpdatePositions_ValidatesBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")
	a := env.newMoment(t, trip.ID, owner.ID, "A", time.Now())
	b := env.newMoment(t, trip.ID, owner.ID, "B", time.Now())

	// One bad item rejects the whole batch before anything is written.
	err := env.canvas.UpdatePositions(ctx, trip.ID, owner.ID, []store.MomentPositionUpdate{
		{MomentID: a.ID, Position: domain.GridPosition{Column: 1, Row: 0, Width: 1, Height: 2}},
		{MomentID: b.ID, Position: domain.GridPosition{Column: 5, Row: 0, Width: 1, Height: 2}},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := env.moments.Get(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.GridPosition.Column)

	// Duplicate moment ids are rejected too.
	err = env.canvas.UpdatePositions(ctx, trip.ID, owner.ID, []store.MomentPositionUpdate{
		{MomentID: a.ID, Position: domain.GridPosition{Column: 1, Row: 0, Width: 1, Height: 2}},
		{MomentID: a.ID, Position: domain.GridPosition{Column: 0, Row: 0, Width: 1, Height: 2}},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCanvasLayout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")
	m := env.newMoment(t, trip.ID, owner.ID, "A", time.Now())

	frames, err := env.canvas.Layout(ctx, trip.ID, owner.ID, 400)
	require.NoError(t, err)
	require.Contains(t, frames, m.ID)
	assert.Greater(t, frames[m.ID].Width, 0.0)
}

func TestCanvasReflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	a := env.newMoment(t, trip.ID, owner.ID, "A", base)
	b := env.newMoment(t, trip.ID, owner.ID, "B", base.Add(time.Hour))

	// Scatter the cards, then tidy up.
	require.NoError(t, env.canvas.UpdatePositions(ctx, trip.ID, owner.ID, []store.MomentPositionUpdate{
		{MomentID: a.ID, Position: domain.GridPosition{Column: 1, Row: 6, Width: 1, Height: 2}},
		{MomentID: b.ID, Position: domain.GridPosition{Column: 0, Row: 3, Width: 1, Height: 2}},
	}))

	updates, err := env.canvas.Reflow(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	require.NotEmpty(t, updates)

	moments, err := env.moments.ListByTrip(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	byID := make(map[string]domain.GridPosition)
	for _, m := range moments {
		byID[m.ID] = m.GridPosition
	}
	assert.Equal(t, domain.GridPosition{Column: 0, Row: 0, Width: 1, Height: 2}, byID[a.ID])
	assert.Equal(t, domain.GridPosition{Column: 1, Row: 0, Width: 1, Height: 2}, byID[b.ID])

	// A second reflow has nothing to move.
	updates, err = env.canvas.Reflow(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestCanvasSession_CommitPersists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	a := env.newMoment(t, trip.ID, owner.ID, "A", base)
	env.newMoment(t, trip.ID, owner.ID, "B", base.Add(time.Hour))

	session, err := env.canvas.NewSession(ctx, trip.ID, owner.ID, 400)
	require.NoError(t, err)

	require.NoError(t, session.BeginDrag(a.ID))
	session.UpdateDrag(250, 0) // Drag roughly one column to the right.
	require.NoError(t, session.EndDrag(ctx))

	got, err := env.moments.Get(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.GridPosition.Column)
}

func TestCanvasSession_ViewerCannotDrag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	viewer := env.newUser(t, "viewer@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")
	m := env.newMoment(t, trip.ID, owner.ID, "A", time.Now())

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, viewer.ID)
	require.NoError(t, err)

	session, err := env.canvas.NewSession(ctx, trip.ID, viewer.ID, 400)
	require.NoError(t, err)

	err = session.BeginDrag(m.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}
