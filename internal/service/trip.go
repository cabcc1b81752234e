package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftlog/driftlog-server/internal/domain"
	apperr "github.com/driftlog/driftlog-server/internal/errors"
	"github.com/driftlog/driftlog-server/internal/id"
	"github.com/driftlog/driftlog-server/internal/objectstore"
	"github.com/driftlog/driftlog-server/internal/sse"
	"github.com/driftlog/driftlog-server/internal/store"
	"github.com/driftlog/driftlog-server/internal/validation"
)

// TripService manages trip lifecycle: creation, metadata, and deletion.
type TripService struct {
	store    *store.Store
	access   *AccessService
	objects  objectstore.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewTripService creates a new trip service.
func NewTripService(
	st *store.Store,
	access *AccessService,
	objects objectstore.Store,
	validate *validation.Validator,
	logger *slog.Logger,
) *TripService {
	return &TripService{
		store:    st,
		access:   access,
		objects:  objects,
		validate: validate,
		logger:   logger,
	}
}

// CreateTripRequest contains the data for a new trip.
type CreateTripRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// UpdateTripRequest contains partial trip metadata changes. Nil fields are
// left untouched.
type UpdateTripRequest struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	CoverMediaID *string    `json:"cover_media_id,omitempty"`
}

// Create creates a trip with the caller as owner. The trip record and the
// owner's permission row are written in one transaction, so neither can
// exist without the other.
func (s *TripService) Create(ctx context.Context, ownerID string, req CreateTripRequest) (*domain.Trip, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, apperr.Validation("end_date cannot be before start_date")
	}

	tripID, err := id.Generate("trip")
	if err != nil {
		return nil, fmt.Errorf("generate trip ID: %w", err)
	}
	permID, err := id.Generate("perm")
	if err != nil {
		return nil, fmt.Errorf("generate permission ID: %w", err)
	}

	trip := &domain.Trip{
		Syncable:    domain.Syncable{ID: tripID},
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	trip.InitTimestamps()

	ownerPerm := &domain.TripPermission{
		Syncable:   domain.Syncable{ID: permID},
		TripID:     tripID,
		UserID:     ownerID,
		Role:       domain.RoleOwner,
		GrantedVia: domain.GrantedViaTripCreate,
	}
	ownerPerm.InitTimestamps()

	if err := s.store.CreateTripWithOwner(ctx, trip, ownerPerm); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	s.logger.Info("trip created", "trip_id", tripID, "owner_id", ownerID)
	return trip, nil
}

// Get returns a trip the caller is a member of.
func (s *TripService) Get(ctx context.Context, tripID, userID string) (*domain.Trip, error) {
	trip, err := s.store.Trips.Get(ctx, tripID)
	if apperr.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("trip not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	if trip.IsDeleted() {
		return nil, apperr.NotFound("trip not found")
	}

	if _, err := s.access.RequireView(ctx, tripID, userID); err != nil {
		return nil, err
	}
	return trip, nil
}

// List returns every trip the caller belongs to, newest first.
func (s *TripService) List(ctx context.Context, userID string) ([]*domain.Trip, error) {
	trips, err := s.store.ListTripsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

// Update applies partial metadata changes. Owner and collaborators may edit.
func (s *TripService) Update(ctx context.Context, tripID, userID string, req UpdateTripRequest) (*domain.Trip, error) {
	if _, err := s.access.RequireEdit(ctx, tripID, userID); err != nil {
		return nil, err
	}

	trip, err := s.store.Trips.Get(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		trip.Title = *req.Title
	}
	if req.Description != nil {
		trip.Description = *req.Description
	}
	if req.StartDate != nil {
		trip.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		trip.EndDate = req.EndDate
	}
	if trip.StartDate != nil && trip.EndDate != nil && trip.EndDate.Before(*trip.StartDate) {
		return nil, apperr.Validation("end_date cannot be before start_date")
	}
	if req.CoverMediaID != nil {
		if *req.CoverMediaID == "" {
			trip.CoverMediaID = ""
		} else {
			media, err := s.store.Media.Get(ctx, *req.CoverMediaID)
			if apperr.Is(err, store.ErrNotFound) {
				return nil, apperr.NotFound("cover media not found")
			}
			if err != nil {
				return nil, fmt.Errorf("get cover media: %w", err)
			}
			if media.TripID != tripID {
				return nil, apperr.Validation("cover media belongs to a different trip")
			}
			trip.CoverMediaID = media.ID
		}
	}

	trip.Touch()
	if err := s.store.UpdateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	s.logger.Info("trip updated", "trip_id", tripID, "user_id", userID)
	s.store.Emitter().Emit(sse.NewTripUpdatedEvent(trip))
	return trip, nil
}

// Delete tears down a trip: the trip and its moments become tombstones,
// permission rows and media records are removed, stored objects are deleted,
// and each uploader's storage usage is credited back. Owner-only.
func (s *TripService) Delete(ctx context.Context, tripID, userID string) error {
	if _, err := s.access.RequireManage(ctx, tripID, userID); err != nil {
		return err
	}

	// Collect object keys and uploader byte counts before the records go.
	media, err := s.store.ListMediaByTrip(ctx, tripID)
	if err != nil {
		return fmt.Errorf("list media: %w", err)
	}
	bytesByUploader := make(map[string]int64)
	for _, item := range media {
		bytesByUploader[item.UploaderID] += item.TotalBytes()
	}

	if err := s.store.DeleteTripCascade(ctx, tripID); err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}

	// Object and usage cleanup happen after the cascade commits; failures
	// here leave orphans, not dangling references, so log and continue.
	for _, item := range media {
		for _, key := range []string{item.StorageKey, item.ThumbnailKey} {
			if key == "" {
				continue
			}
			if err := s.objects.Delete(ctx, key); err != nil {
				s.logger.Warn("failed to delete object", "key", key, "error", err)
			}
		}
	}
	for uploaderID, bytes := range bytesByUploader {
		if _, err := s.store.AddStorageUsage(ctx, uploaderID, -bytes); err != nil {
			s.logger.Warn("failed to credit storage usage",
				"user_id", uploaderID, "bytes", bytes, "error", err)
		}
	}

	s.logger.Info("trip deleted", "trip_id", tripID, "user_id", userID, "media", len(media))
	s.store.Emitter().Emit(sse.NewTripDeletedEvent(tripID, time.Now()))
	return nil
}

// PublicPreview is the read-only payload served to unauthenticated visitors
// following a share link.
type PublicPreview struct {
	Trip    *domain.Trip     `json:"trip"`
	Moments []*domain.Moment `json:"moments"`
}

// GetPublicPreview resolves a share slug or code without authentication.
// Only trips with link sharing currently enabled are visible.
func (s *TripService) GetPublicPreview(ctx context.Context, token string) (*PublicPreview, error) {
	trip, err := s.store.GetTripBySlugOrCode(ctx, token)
	if apperr.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("no trip matches this link")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve share token: %w", err)
	}
	if trip.IsDeleted() || !trip.IsJoinable() {
		return nil, apperr.NotFound("no trip matches this link")
	}

	moments, err := s.store.ListMomentsByTrip(ctx, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}

	return &PublicPreview{Trip: trip, Moments: moments}, nil
}
