package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftlog/driftlog-server/internal/domain"
	apperr "github.com/driftlog/driftlog-server/internal/errors"
	"github.com/driftlog/driftlog-server/internal/grid"
	"github.com/driftlog/driftlog-server/internal/id"
	"github.com/driftlog/driftlog-server/internal/sse"
	"github.com/driftlog/driftlog-server/internal/store"
	"github.com/driftlog/driftlog-server/internal/validation"
)

// Default card size for new moments. Height is in row units.
const (
	defaultMomentWidth  = 1
	defaultMomentHeight = 2.0
)

// MomentService manages moments: creation with automatic placement, metadata
// edits, and deletion with canvas repacking.
type MomentService struct {
	store    *store.Store
	access   *AccessService
	validate *validation.Validator
	logger   *slog.Logger
}

// NewMomentService creates a new moment service.
func NewMomentService(
	st *store.Store,
	access *AccessService,
	validate *validation.Validator,
	logger *slog.Logger,
) *MomentService {
	return &MomentService{
		store:    st,
		access:   access,
		validate: validate,
		logger:   logger,
	}
}

// CreateMomentRequest contains the data for a new moment.
type CreateMomentRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Note        string    `json:"note" validate:"max=5000"`
	Place       string    `json:"place" validate:"max=200"`
	Event       string    `json:"event" validate:"max=200"`
	VoiceNoteID string    `json:"voice_note_id"`
	MediaIDs    []string  `json:"media_ids"`
	Date        time.Time `json:"date"`

	// Optional card size. Zero values fall back to the defaults.
	Width  int     `json:"width" validate:"gte=0,lte=2"`
	Height float64 `json:"height" validate:"gte=0"`
}

// UpdateMomentRequest contains partial moment changes. Nil fields are left
// untouched.
type UpdateMomentRequest struct {
	Title       *string    `json:"title,omitempty"`
	Note        *string    `json:"note,omitempty"`
	Place       *string    `json:"place,omitempty"`
	Event       *string    `json:"event,omitempty"`
	VoiceNoteID *string    `json:"voice_note_id,omitempty"`
	MediaIDs    *[]string  `json:"media_ids,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

// Create adds a moment to a trip, placing it in the topmost-leftmost free
// rectangle of the canvas. Owner and collaborators may create.
func (s *MomentService) Create(ctx context.Context, tripID, userID string, req CreateMomentRequest) (*domain.Moment, error) {
	if _, err := s.access.RequireEdit(ctx, tripID, userID); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	if err := s.checkMediaOwnership(ctx, tripID, req.MediaIDs); err != nil {
		return nil, err
	}

	width := req.Width
	if width == 0 {
		width = defaultMomentWidth
	}
	height := req.Height
	if height == 0 {
		height = defaultMomentHeight
	}

	existing, err := s.store.ListMomentsByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}

	momentID, err := id.Generate("moment")
	if err != nil {
		return nil, fmt.Errorf("generate moment ID: %w", err)
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	moment := &domain.Moment{
		Syncable:     domain.Syncable{ID: momentID},
		TripID:       tripID,
		Title:        req.Title,
		Note:         req.Note,
		Place:        req.Place,
		Event:        req.Event,
		VoiceNoteID:  req.VoiceNoteID,
		MediaIDs:     req.MediaIDs,
		Date:         date,
		GridPosition: grid.NextFreePosition(existing, width, height),
	}
	moment.InitTimestamps()

	if err := s.store.CreateMoment(ctx, moment); err != nil {
		return nil, fmt.Errorf("create moment: %w", err)
	}

	if err := domain.CascadeTripUpdate(ctx, s.store, tripID); err != nil {
		s.logger.Warn("failed to touch trip after moment create", "trip_id", tripID, "error", err)
	}

	s.logger.Info("moment created", "moment_id", momentID, "trip_id", tripID, "user_id", userID)
	s.store.Emitter().Emit(sse.NewMomentCreatedEvent(moment))
	return moment, nil
}

// Get returns one moment. Any member of its trip may read it.
func (s *MomentService) Get(ctx context.Context, momentID, userID string) (*domain.Moment, error) {
	moment, err := s.store.Moments.Get(ctx, momentID)
	if apperr.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("moment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get moment: %w", err)
	}
	if moment.IsDeleted() {
		return nil, apperr.NotFound("moment not found")
	}

	if _, err := s.access.RequireView(ctx, moment.TripID, userID); err != nil {
		return nil, err
	}
	return moment, nil
}

// ListByTrip returns a trip's live moments in chronological packing order.
func (s *MomentService) ListByTrip(ctx context.Context, tripID, userID string) ([]*domain.Moment, error) {
	if _, err := s.access.RequireView(ctx, tripID, userID); err != nil {
		return nil, err
	}

	moments, err := s.store.ListMomentsByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}
	return moments, nil
}

// Update applies partial metadata changes. The grid position is untouched;
// moving a moment goes through the canvas service.
func (s *MomentService) Update(ctx context.Context, momentID, userID string, req UpdateMomentRequest) (*domain.Moment, error) {
	moment, err := s.store.Moments.Get(ctx, momentID)
	if apperr.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("moment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get moment: %w", err)
	}
	if moment.IsDeleted() {
		return nil, apperr.NotFound("moment not found")
	}

	if _, err := s.access.RequireEdit(ctx, moment.TripID, userID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		moment.Title = *req.Title
	}
	if req.Note != nil {
		moment.Note = *req.Note
	}
	if req.Place != nil {
		moment.Place = *req.Place
	}
	if req.Event != nil {
		moment.Event = *req.Event
	}
	if req.VoiceNoteID != nil {
		moment.VoiceNoteID = *req.VoiceNoteID
	}
	if req.MediaIDs != nil {
		if err := s.checkMediaOwnership(ctx, moment.TripID, *req.MediaIDs); err != nil {
			return nil, err
		}
		moment.MediaIDs = *req.MediaIDs
	}
	if req.Date != nil {
		moment.Date = *req.Date
	}

	moment.Touch()
	if err := s.store.UpdateMoment(ctx, moment); err != nil {
		return nil, fmt.Errorf("update moment: %w", err)
	}

	s.logger.Info("moment updated", "moment_id", momentID, "user_id", userID)
	s.store.Emitter().Emit(sse.NewMomentUpdatedEvent(moment))
	return moment, nil
}

// Delete tombstones a moment and repacks the remaining canvas so the gap
// closes. The repack persists as one batch; clients hear a moment.deleted
// followed by a canvas.reflowed.
func (s *MomentService) Delete(ctx context.Context, momentID, userID string) error {
	moment, err := s.store.Moments.Get(ctx, momentID)
	if apperr.Is(err, store.ErrNotFound) {
		return apperr.NotFound("moment not found")
	}
	if err != nil {
		return fmt.Errorf("get moment: %w", err)
	}
	if moment.IsDeleted() {
		return nil
	}

	if _, err := s.access.RequireEdit(ctx, moment.TripID, userID); err != nil {
		return err
	}

	if err := s.store.SoftDeleteMoment(ctx, momentID); err != nil {
		return fmt.Errorf("delete moment: %w", err)
	}

	remaining, err := s.store.ListMomentsByTrip(ctx, moment.TripID)
	if err != nil {
		return fmt.Errorf("list moments: %w", err)
	}

	before := make(map[string]domain.GridPosition, len(remaining))
	for _, m := range remaining {
		before[m.ID] = m.GridPosition
	}

	reflowed := grid.Reflow(remaining, "")
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

	if len(updates) > 0 {
		if err := s.store.BatchUpdateMomentPositions(ctx, moment.TripID, updates); err != nil {
			return fmt.Errorf("repack canvas: %w", err)
		}
	}

	if err := domain.CascadeTripUpdate(ctx, s.store, moment.TripID); err != nil {
		s.logger.Warn("failed to touch trip after moment delete", "trip_id", moment.TripID, "error", err)
	}

	s.logger.Info("moment deleted", "moment_id", momentID, "trip_id", moment.TripID, "user_id", userID)
	s.store.Emitter().Emit(sse.NewMomentDeletedEvent(moment.TripID, momentID, time.Now()))
	if len(updates) > 0 {
		s.store.Emitter().Emit(sse.NewCanvasReflowedEvent(moment.TripID, updates))
	}
	return nil
}

// checkMediaOwnership verifies every referenced media id exists and belongs
// to the trip.
func (s *MomentService) checkMediaOwnership(ctx context.Context, tripID string, mediaIDs []string) error {
	for _, mediaID := range mediaIDs {
		media, err := s.store.Media.Get(ctx, mediaID)
		if apperr.Is(err, store.ErrNotFound) {
			return apperr.NotFoundf("media %s not found", mediaID)
		}
		if err != nil {
			return fmt.Errorf("get media %s: %w", mediaID, err)
		}
		if media.TripID != tripID {
			return apperr.Validationf("media %s belongs to a different trip", mediaID)
		}
	}
	return nil
}
