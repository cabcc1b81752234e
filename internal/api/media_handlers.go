package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/driftlog/driftlog-server/internal/http/response"
	"github.com/driftlog/driftlog-server/internal/service"
)

func (s *Server) registerMediaRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadMedia",
		Method:       http.MethodPost,
		Path:         "/api/v1/trips/{id}/media",
		Summary:      "Upload media",
		Description:  "Stores a photo or video on a trip. The request body is the raw file",
		Tags:         []string{"Media"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: s.maxUploadBytes,
	}, s.handleUploadMedia)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTripMedia",
		Method:      http.MethodGet,
		Path:        "/api/v1/trips/{id}/media",
		Summary:     "List trip media",
		Description: "Returns all media items on a trip",
		Tags:        []string{"Media"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTripMedia)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMedia",
		Method:      http.MethodGet,
		Path:        "/api/v1/media/{id}",
		Summary:     "Get media item",
		Description: "Returns a media item by ID",
		Tags:        []string{"Media"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMedia)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMediaURL",
		Method:      http.MethodGet,
		Path:        "/api/v1/media/{id}/url",
		Summary:     "Get media URL",
		Description: "Returns a URL for downloading the original or thumbnail object",
		Tags:        []string{"Media"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMediaURL)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMedia",
		Method:      http.MethodDelete,
		Path:        "/api/v1/media/{id}",
		Summary:     "Delete media item",
		Description: "Deletes a media item, pulls its references out of moments, and credits the uploader's quota",
		Tags:        []string{"Media"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteMedia)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStorageUsage",
		Method:      http.MethodGet,
		Path:        "/api/v1/usage",
		Summary:     "Get storage usage",
		Description: "Returns the caller's storage accounting against their tier quota",
		Tags:        []string{"Media"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetStorageUsage)

	huma.Register(s.api, huma.Operation{
		OperationID: "recalculateStorageUsage",
		Method:      http.MethodPost,
		Path:        "/api/v1/usage/recalculate",
		Summary:     "Recalculate storage usage",
		Description: "Reconciles the caller's usage counter from their media records",
		Tags:        []string{"Media"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecalculateStorageUsage)
}

// === DTOs ===

// UploadMediaInput wraps a raw media upload for Huma.
type UploadMediaInput struct {
	Authorization   string     `header:"Authorization"`
	ContentType     string     `header:"Content-Type"`
	ID              string     `path:"id" doc:"Trip ID"`
	Type            string     `query:"type" enum:"photo,video" doc:"Media type"`
	CapturedAt      *time.Time `query:"captured_at" doc:"Capture time"`
	Latitude        *float64   `query:"latitude" doc:"Capture latitude"`
	Longitude       *float64   `query:"longitude" doc:"Capture longitude"`
	DurationSeconds float64    `query:"duration_seconds" doc:"Video duration"`
	RawBody         []byte
}

// MediaItemOutput wraps a media item response for Huma.
type MediaItemOutput struct {
	Body MediaItemResponse
}

// ListTripMediaInput contains parameters for listing a trip's media.
type ListTripMediaInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
}

// ListTripMediaResponse contains a trip's media items.
type ListTripMediaResponse struct {
	Media []MediaItemResponse `json:"media" doc:"Media items on the trip"`
}

// ListTripMediaOutput wraps the media list response for Huma.
type ListTripMediaOutput struct {
	Body ListTripMediaResponse
}

// GetMediaInput contains parameters for getting a media item.
type GetMediaInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Media item ID"`
}

// GetMediaURLInput contains parameters for resolving a media URL.
type GetMediaURLInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Media item ID"`
	Thumbnail     bool   `query:"thumbnail" doc:"Return the thumbnail variant"`
}

// MediaURLResponse contains a download URL for a media object.
type MediaURLResponse struct {
	URL string `json:"url" doc:"Download URL; presigned when the backend supports it"`
}

// MediaURLOutput wraps the media URL response for Huma.
type MediaURLOutput struct {
	Body MediaURLResponse
}

// DeleteMediaInput contains parameters for deleting a media item.
type DeleteMediaInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Media item ID"`
}

// UsageResponse is the caller's storage accounting.
type UsageResponse struct {
	BytesUsed      int64  `json:"bytes_used" doc:"Bytes counted against the quota"`
	LimitBytes     int64  `json:"limit_bytes" doc:"Tier quota in bytes"`
	RemainingBytes int64  `json:"remaining_bytes" doc:"Bytes left before the quota"`
	Tier           string `json:"tier" doc:"Subscription tier"`
}

// UsageOutput wraps the usage response for Huma.
type UsageOutput struct {
	Body UsageResponse
}

// UsageInput carries the caller's token.
type UsageInput struct {
	Authorization string `header:"Authorization"`
}

func mapUsage(u *service.UsageSummary) UsageResponse {
	return UsageResponse{
		BytesUsed:      u.BytesUsed,
		LimitBytes:     u.LimitBytes,
		RemainingBytes: u.RemainingBytes,
		Tier:           string(u.Tier),
	}
}

// === Handlers ===

func (s *Server) handleUploadMedia(ctx context.Context, input *UploadMediaInput) (*MediaItemOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if int64(len(input.RawBody)) > s.maxUploadBytes {
		return nil, huma.NewError(http.StatusRequestEntityTooLarge, "Upload exceeds the maximum allowed size")
	}

	item, err := s.services.Media.Upload(ctx, input.ID, userID, service.UploadMediaRequest{
		Type:            input.Type,
		ContentType:     input.ContentType,
		Data:            input.RawBody,
		CapturedAt:      input.CapturedAt,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		DurationSeconds: input.DurationSeconds,
	})
	if err != nil {
		return nil, err
	}

	return &MediaItemOutput{Body: mapMediaItem(item)}, nil
}

func (s *Server) handleListTripMedia(ctx context.Context, input *ListTripMediaInput) (*ListTripMediaOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Media.ListByTrip(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]MediaItemResponse, len(items))
	for i, m := range items {
		resp[i] = mapMediaItem(m)
	}

	return &ListTripMediaOutput{Body: ListTripMediaResponse{Media: resp}}, nil
}

func (s *Server) handleGetMedia(ctx context.Context, input *GetMediaInput) (*MediaItemOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Media.Get(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &MediaItemOutput{Body: mapMediaItem(item)}, nil
}

func (s *Server) handleGetMediaURL(ctx context.Context, input *GetMediaURLInput) (*MediaURLOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	u, err := s.services.Media.URL(ctx, input.ID, userID, input.Thumbnail)
	if err != nil {
		return nil, err
	}

	return &MediaURLOutput{Body: MediaURLResponse{URL: u}}, nil
}

func (s *Server) handleDeleteMedia(ctx context.Context, input *DeleteMediaInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Media.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Media deleted"}}, nil
}

func (s *Server) handleGetStorageUsage(ctx context.Context, input *UsageInput) (*UsageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	usage, err := s.services.Media.Usage(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UsageOutput{Body: mapUsage(usage)}, nil
}

func (s *Server) handleRecalculateStorageUsage(ctx context.Context, input *UsageInput) (*UsageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	usage, err := s.services.Media.RecalculateUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UsageOutput{Body: mapUsage(usage)}, nil
}

// handleServeMediaFile streams an object from the local store. Only trip
// members can read; the trip ID is the second key segment.
func (s *Server) handleServeMediaFile(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		response.BadRequest(w, "Invalid object key", s.logger)
		return
	}

	// Keys look like trips/{tripID}/{mediaID}/{variant}.
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[0] != "trips" {
		response.BadRequest(w, "Invalid object key", s.logger)
		return
	}
	if !s.services.Access.CanView(r.Context(), userID, parts[1]) {
		response.Forbidden(w, "You do not have access to this trip", s.logger)
		return
	}

	rc, err := s.objects.Get(r.Context(), key)
	if err != nil {
		response.NotFound(w, "Object not found", s.logger)
		return
	}
	defer rc.Close()

	w.Header().Set("Cache-Control", CacheImmutable)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Debug("media stream interrupted", "key", key, "error", err)
	}
}
