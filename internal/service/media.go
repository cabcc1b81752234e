package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftlog/driftlog-server/internal/domain"
	apperr "github.com/driftlog/driftlog-server/internal/errors"
	"github.com/driftlog/driftlog-server/internal/id"
	"github.com/driftlog/driftlog-server/internal/media/images"
	"github.com/driftlog/driftlog-server/internal/objectstore"
	"github.com/driftlog/driftlog-server/internal/sse"
	"github.com/driftlog/driftlog-server/internal/store"
)

// mediaURLExpiry is how long presigned media URLs stay valid.
const mediaURLExpiry = time.Hour

// MediaService manages uploads: quota enforcement, the photo pipeline
// (blurhash + thumbnail), object storage, and usage accounting.
type MediaService struct {
	store   *store.Store
	access  *AccessService
	objects objectstore.Store
	logger  *slog.Logger
}

// NewMediaService creates a new media service.
func NewMediaService(
	st *store.Store,
	access *AccessService,
	objects objectstore.Store,
	logger *slog.Logger,
) *MediaService {
	return &MediaService{
		store:   st,
		access:  access,
		objects: objects,
		logger:  logger,
	}
}

// UploadMediaRequest carries one upload. The handler reads the multipart
// body into Data before calling the service.
type UploadMediaRequest struct {
	Type            string     `json:"type"`
	ContentType     string     `json:"content_type"`
	Data            []byte     `json:"-"`
	CapturedAt      *time.Time `json:"captured_at,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
}

// Upload stores a photo or video on a trip. The uploader's tier quota is
// checked against the full cost (original plus derived thumbnail) before
// anything is written; photos get a BlurHash placeholder and a thumbnail.
func (s *MediaService) Upload(ctx context.Context, tripID, userID string, req UploadMediaRequest) (*domain.MediaItem, error) {
	if _, err := s.access.RequireEdit(ctx, tripID, userID); err != nil {
		return nil, err
	}

	mediaType, ok := domain.ParseMediaType(req.Type)
	if !ok {
		return nil, apperr.Validationf("type must be photo or video, got %q", req.Type)
	}
	if len(req.Data) == 0 {
		return nil, apperr.Validation("upload body is empty")
	}

	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	// Photos are processed before the quota check so the thumbnail bytes
	// count too.
	var processed *images.Result
	if mediaType == domain.MediaTypePhoto {
		processed, err = images.Process(req.Data)
		if err != nil {
			return nil, apperr.Validation("could not decode image").WithCause(err)
		}
	}

	required := int64(len(req.Data))
	if processed != nil {
		required += int64(len(processed.Thumbnail))
	}

	usage, err := s.store.GetStorageUsage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get storage usage: %w", err)
	}
	limit := user.StorageLimitBytes()
	remaining := limit - usage.BytesUsed
	if remaining < 0 {
		remaining = 0
	}
	if required > remaining {
		return nil, apperr.StorageLimit(required, remaining, limit)
	}

	mediaID, err := id.Generate("media")
	if err != nil {
		return nil, fmt.Errorf("generate media ID: %w", err)
	}

	item := &domain.MediaItem{
		Syncable:        domain.Syncable{ID: mediaID},
		TripID:          tripID,
		UploaderID:      userID,
		Type:            mediaType,
		StorageKey:      objectKey(tripID, mediaID, "original", extensionFor(req.ContentType, mediaType)),
		OriginalBytes:   int64(len(req.Data)),
		ContentType:     req.ContentType,
		CapturedAt:      req.CapturedAt,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		DurationSeconds: req.DurationSeconds,
	}
	if processed != nil {
		item.ThumbnailKey = objectKey(tripID, mediaID, "thumb", ".jpg")
		item.ThumbnailBytes = int64(len(processed.Thumbnail))
		item.BlurHash = processed.BlurHash
		item.Width = processed.Width
		item.Height = processed.Height
	}
	item.InitTimestamps()

	if err := s.objects.Put(ctx, item.StorageKey, bytes.NewReader(req.Data), item.OriginalBytes, req.ContentType); err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}
	if processed != nil {
		if err := s.objects.Put(ctx, item.ThumbnailKey, bytes.NewReader(processed.Thumbnail), item.ThumbnailBytes, "image/jpeg"); err != nil {
			// Roll the original back so a half-stored upload leaves nothing.
			if derr := s.objects.Delete(ctx, item.StorageKey); derr != nil {
				s.logger.Warn("failed to clean up original after thumbnail failure",
					"key", item.StorageKey, "error", derr)
			}
			return nil, fmt.Errorf("store thumbnail: %w", err)
		}
	}

	if err := s.store.Media.Create(ctx, mediaID, item); err != nil {
		for _, key := range []string{item.StorageKey, item.ThumbnailKey} {
			if key == "" {
				continue
			}
			if derr := s.objects.Delete(ctx, key); derr != nil {
				s.logger.Warn("failed to clean up object after create failure", "key", key, "error", derr)
			}
		}
		return nil, fmt.Errorf("create media record: %w", err)
	}

	if _, err := s.store.AddStorageUsage(ctx, userID, item.TotalBytes()); err != nil {
		s.logger.Warn("failed to debit storage usage", "user_id", userID, "error", err)
	}

	s.logger.Info("media uploaded",
		"media_id", mediaID,
		"trip_id", tripID,
		"user_id", userID,
		"type", mediaType,
		"bytes", item.TotalBytes(),
	)
	s.store.Emitter().Emit(sse.NewMediaAddedEvent(item))
	return item, nil
}

// Get returns one media record. Any member of its trip may read it.
func (s *MediaService) Get(ctx context.Context, mediaID, userID string) (*domain.MediaItem, error) {
	item, err := s.store.Media.Get(ctx, mediaID)
	if apperr.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("media not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}

	if _, err := s.access.RequireView(ctx, item.TripID, userID); err != nil {
		return nil, err
	}
	return item, nil
}

// ListByTrip returns a trip's media, newest capture first.
func (s *MediaService) ListByTrip(ctx context.Context, tripID, userID string) ([]*domain.MediaItem, error) {
	if _, err := s.access.RequireView(ctx, tripID, userID); err != nil {
		return nil, err
	}

	media, err := s.store.ListMediaByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return media, nil
}

// URL returns a fetchable URL for the original or thumbnail object.
func (s *MediaService) URL(ctx context.Context, mediaID, userID string, thumbnail bool) (string, error) {
	item, err := s.Get(ctx, mediaID, userID)
	if err != nil {
		return "", err
	}

	key := item.StorageKey
	if thumbnail {
		if item.ThumbnailKey == "" {
			return "", apperr.NotFound("media has no thumbnail")
		}
		key = item.ThumbnailKey
	}

	u, err := s.objects.URL(ctx, key, mediaURLExpiry)
	if err != nil {
		return "", fmt.Errorf("media URL: %w", err)
	}
	return u, nil
}

// Delete removes a media item: its id is pulled out of every referencing
// moment (moments themselves survive, even empty), the trip cover is cleared
// if it pointed here, the objects are deleted, and the uploader's quota is
// credited back.
func (s *MediaService) Delete(ctx context.Context, mediaID, userID string) error {
	item, err := s.store.Media.Get(ctx, mediaID)
	if apperr.Is(err, store.ErrNotFound) {
		return apperr.NotFound("media not found")
	}
	if err != nil {
		return fmt.Errorf("get media: %w", err)
	}

	if _, err := s.access.RequireEdit(ctx, item.TripID, userID); err != nil {
		return err
	}

	changed, err := s.store.RemoveMediaFromMoments(ctx, item.TripID, mediaID)
	if err != nil {
		return fmt.Errorf("remove media references: %w", err)
	}

	trip, err := s.store.Trips.Get(ctx, item.TripID)
	if err == nil && trip.CoverMediaID == mediaID {
		trip.CoverMediaID = ""
		trip.Touch()
		if err := s.store.UpdateTrip(ctx, trip); err != nil {
			s.logger.Warn("failed to clear trip cover", "trip_id", trip.ID, "error", err)
		}
	}

	if err := s.store.Media.Delete(ctx, mediaID); err != nil {
		return fmt.Errorf("delete media record: %w", err)
	}

	for _, key := range []string{item.StorageKey, item.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete object", "key", key, "error", err)
		}
	}

	if _, err := s.store.AddStorageUsage(ctx, item.UploaderID, -item.TotalBytes()); err != nil {
		s.logger.Warn("failed to credit storage usage", "user_id", item.UploaderID, "error", err)
	}

	s.logger.Info("media deleted",
		"media_id", mediaID,
		"trip_id", item.TripID,
		"user_id", userID,
		"moments_updated", len(changed),
	)
	s.store.Emitter().Emit(sse.NewMediaDeletedEvent(item.TripID, mediaID, changed))
	return nil
}

// UsageSummary reports a user's storage consumption against their tier.
type UsageSummary struct {
	BytesUsed      int64                   `json:"bytes_used"`
	LimitBytes     int64                   `json:"limit_bytes"`
	RemainingBytes int64                   `json:"remaining_bytes"`
	Tier           domain.SubscriptionTier `json:"tier"`
}

// Usage returns the caller's storage accounting.
func (s *MediaService) Usage(ctx context.Context, userID string) (*UsageSummary, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	usage, err := s.store.GetStorageUsage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get storage usage: %w", err)
	}

	limit := user.StorageLimitBytes()
	remaining := limit - usage.BytesUsed
	if remaining < 0 {
		remaining = 0
	}
	return &UsageSummary{
		BytesUsed:      usage.BytesUsed,
		LimitBytes:     limit,
		RemainingBytes: remaining,
		Tier:           user.Tier,
	}, nil
}

// RecalculateUsage rebuilds the caller's usage counter from their media
// records, reconciling incremental drift.
func (s *MediaService) RecalculateUsage(ctx context.Context, userID string) (*UsageSummary, error) {
	if _, err := s.store.RecalculateStorageUsage(ctx, userID); err != nil {
		return nil, fmt.Errorf("recalculate storage usage: %w", err)
	}
	return s.Usage(ctx, userID)
}

// objectKey builds the storage key for one variant of a media item.
func objectKey(tripID, mediaID, variant, ext string) string {
	return fmt.Sprintf("trips/%s/%s/%s%s", tripID, mediaID, variant, ext)
}

// extensionFor maps a content type to a file extension, falling back to a
// sensible default per media type.
func extensionFor(contentType string, mediaType domain.MediaType) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	}
	if mediaType == domain.MediaTypeVideo {
		return ".mp4"
	}
	return ".jpg"
}
