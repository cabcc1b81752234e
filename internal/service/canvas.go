package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftlog/driftlog-server/internal/canvas"
	"github.com/driftlog/driftlog-server/internal/domain"
	apperr "github.com/driftlog/driftlog-server/internal/errors"
	"github.com/driftlog/driftlog-server/internal/grid"
	"github.com/driftlog/driftlog-server/internal/sse"
	"github.com/driftlog/driftlog-server/internal/store"
)

// CanvasService is the persistence side of the canvas: it validates and
// applies batched position updates, serves pixel layouts, and triggers full
// repacks.
type CanvasService struct {
	store  *store.Store
	access *AccessService
	logger *slog.Logger
}

// NewCanvasService creates a new canvas service.
func NewCanvasService(st *store.Store, access *AccessService, logger *slog.Logger) *CanvasService {
	return &CanvasService{
		store:  st,
		access: access,
		logger: logger,
	}
}

// UpdatePositions applies a batch of grid positions as one transaction.
// Every update is validated against the caller's role and the position
// invariants before any write; a single bad item fails the whole batch.
func (s *CanvasService) UpdatePositions(ctx context.Context, tripID, userID string, updates []store.MomentPositionUpdate) error {
	if _, err := s.access.RequireEdit(ctx, tripID, userID); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(updates))
	for _, u := range updates {
		if u.MomentID == "" {
			return apperr.Validation("moment_id is required for every position update")
		}
		if seen[u.MomentID] {
			return apperr.Validationf("duplicate position update for moment %s", u.MomentID)
		}
		seen[u.MomentID] = true
		if !u.Position.Valid() {
			return apperr.Validationf("invalid grid position for moment %s", u.MomentID)
		}
	}

	if err := s.store.BatchUpdateMomentPositions(ctx, tripID, updates); err != nil {
		return err
	}

	s.logger.Info("canvas positions committed",
		"trip_id", tripID,
		"user_id", userID,
		"count", len(updates),
	)
	s.store.Emitter().Emit(sse.NewCanvasReflowedEvent(tripID, updates))
	return nil
}

// Layout returns the pixel frames for a trip's canvas at the given width.
// Degenerate widths produce an empty layout, matching the grid math.
func (s *CanvasService) Layout(ctx context.Context, tripID, userID string, canvasWidth float64) (map[string]grid.Frame, error) {
	if _, err := s.access.RequireView(ctx, tripID, userID); err != nil {
		return nil, err
	}

	moments, err := s.store.ListMomentsByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}

	return grid.CalculateLayout(moments, grid.DefaultMetrics(canvasWidth)), nil
}

// Reflow repacks the whole trip chronologically and persists the result.
// Used by the "tidy up" action and after imports.
func (s *CanvasService) Reflow(ctx context.Context, tripID, userID string) ([]store.MomentPositionUpdate, error) {
	if _, err := s.access.RequireEdit(ctx, tripID, userID); err != nil {
		return nil, err
	}

	moments, err := s.store.ListMomentsByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}

	before := make(map[string]domain.GridPosition, len(moments))
	for _, m := range moments {
		before[m.ID] = m.GridPosition
	}

	reflowed := grid.Reflow(moments, "")
	updates := make([]store.MomentPositionUpdate, 0, len(reflowed))
	for _, m := range reflowed {
		if m.GridPosition == before[m.ID] {
			continue
		}
		updates = append(updates, store.MomentPositionUpdate{
			MomentID: m.ID,
			Position: m.GridPosition,
		})
	}

	if len(updates) == 0 {
		return nil, nil
	}

	if err := s.store.BatchUpdateMomentPositions(ctx, tripID, updates); err != nil {
		return nil, err
	}

	s.logger.Info("canvas reflowed", "trip_id", tripID, "user_id", userID, "moved", len(updates))
	s.store.Emitter().Emit(sse.NewCanvasReflowedEvent(tripID, updates))
	return updates, nil
}

// NewSession builds an interactive canvas session for a member: current
// moments, the caller's role for gesture gating, and a committer that funnels
// gesture commits back through UpdatePositions.
func (s *CanvasService) NewSession(ctx context.Context, tripID, userID string, canvasWidth float64) (*canvas.Session, error) {
	role, err := s.access.RequireView(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}

	moments, err := s.store.ListMomentsByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}

	committer := &sessionCommitter{service: s, userID: userID}
	return canvas.NewSession(tripID, role, grid.DefaultMetrics(canvasWidth), moments, committer, s.logger), nil
}

// sessionCommitter adapts UpdatePositions to the canvas.Committer interface,
// carrying the user identity a session was opened with.
type sessionCommitter struct {
	service *CanvasService
	userID  string
}

func (c *sessionCommitter) CommitPositions(ctx context.Context, tripID string, updates []canvas.PositionUpdate) error {
	batch := make([]store.MomentPositionUpdate, len(updates))
	for i, u := range updates {
		batch[i] = store.MomentPositionUpdate{
			MomentID: u.MomentID,
			Position: u.Position,
		}
	}
	return c.service.UpdatePositions(ctx, tripID, c.userID, batch)
}
