package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/driftlog/driftlog-server/internal/service"
)

func (s *Server) registerTripRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createTrip",
		Method:      http.MethodPost,
		Path:        "/api/v1/trips",
		Summary:     "Create trip",
		Description: "Creates a trip with the caller as owner",
		Tags:        []string{"Trips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTrip)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTrips",
		Method:      http.MethodGet,
		Path:        "/api/v1/trips",
		Summary:     "List trips",
		Description: "Returns all trips the caller is a member of",
		Tags:        []string{"Trips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTrips)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTrip",
		Method:      http.MethodGet,
		Path:        "/api/v1/trips/{id}",
		Summary:     "Get trip",
		Description: "Returns a trip by ID",
		Tags:        []string{"Trips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTrip)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTrip",
		Method:      http.MethodPatch,
		Path:        "/api/v1/trips/{id}",
		Summary:     "Update trip",
		Description: "Updates trip metadata. Omitted fields are left untouched",
		Tags:        []string{"Trips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTrip)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTrip",
		Method:      http.MethodDelete,
		Path:        "/api/v1/trips/{id}",
		Summary:     "Delete trip",
		Description: "Deletes a trip and everything it owns. Owner only",
		Tags:        []string{"Trips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTrip)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPublicPreview",
		Method:      http.MethodGet,
		Path:        "/api/v1/public/trips/{token}",
		Summary:     "Public trip preview",
		Description: "Resolves a share slug or code without authentication",
		Tags:        []string{"Sharing"},
	}, s.handleGetPublicPreview)
}

// === DTOs ===

// CreateTripRequest is the request body for creating a trip.
type CreateTripRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200" doc:"Trip title"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=2000" doc:"Trip description"`
	StartDate   *time.Time `json:"start_date,omitempty" doc:"Trip start date"`
	EndDate     *time.Time `json:"end_date,omitempty" doc:"Trip end date"`
}

// CreateTripInput wraps the create trip request for Huma.
type CreateTripInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateTripRequest
}

// TripOutput wraps a trip response for Huma.
type TripOutput struct {
	Body TripResponse
}

// ListTripsInput carries the caller's token.
type ListTripsInput struct {
	Authorization string `header:"Authorization"`
}

// ListTripsResponse contains the caller's trips.
type ListTripsResponse struct {
	Trips []TripResponse `json:"trips" doc:"Trips the caller belongs to"`
}

// ListTripsOutput wraps the list trips response for Huma.
type ListTripsOutput struct {
	Body ListTripsResponse
}

// GetTripInput contains parameters for getting a trip.
type GetTripInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
}

// UpdateTripRequest is the request body for updating a trip.
type UpdateTripRequest struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200" doc:"Trip title"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=2000" doc:"Trip description"`
	StartDate    *time.Time `json:"start_date,omitempty" doc:"Trip start date"`
	EndDate      *time.Time `json:"end_date,omitempty" doc:"Trip end date"`
	CoverMediaID *string    `json:"cover_media_id,omitempty" doc:"Cover media item ID"`
}

// UpdateTripInput wraps the update trip request for Huma.
type UpdateTripInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
	Body          UpdateTripRequest
}

// DeleteTripInput contains parameters for deleting a trip.
type DeleteTripInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
}

// PublicPreviewInput contains the share token being resolved.
type PublicPreviewInput struct {
	Token         string `path:"token" doc:"Share slug or code"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// PublicPreviewResponse is the read-only view behind a share link.
type PublicPreviewResponse struct {
	Trip    TripResponse     `json:"trip" doc:"Shared trip"`
	Moments []MomentResponse `json:"moments" doc:"Trip moments in canvas order"`
}

// PublicPreviewOutput wraps the preview response for Huma.
type PublicPreviewOutput struct {
	Body PublicPreviewResponse
}

// === Handlers ===

func (s *Server) handleCreateTrip(ctx context.Context, input *CreateTripInput) (*TripOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	trip, err := s.services.Trip.Create(ctx, userID, service.CreateTripRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		StartDate:   input.Body.StartDate,
		EndDate:     input.Body.EndDate,
	})
	if err != nil {
		return nil, err
	}

	return &TripOutput{Body: mapTrip(trip)}, nil
}

func (s *Server) handleListTrips(ctx context.Context, input *ListTripsInput) (*ListTripsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	trips, err := s.services.Trip.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]TripResponse, len(trips))
	for i, t := range trips {
		resp[i] = mapTrip(t)
	}

	return &ListTripsOutput{Body: ListTripsResponse{Trips: resp}}, nil
}

func (s *Server) handleGetTrip(ctx context.Context, input *GetTripInput) (*TripOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	trip, err := s.services.Trip.Get(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &TripOutput{Body: mapTrip(trip)}, nil
}

func (s *Server) handleUpdateTrip(ctx context.Context, input *UpdateTripInput) (*TripOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	trip, err := s.services.Trip.Update(ctx, input.ID, userID, service.UpdateTripRequest{
		Title:        input.Body.Title,
		Description:  input.Body.Description,
		StartDate:    input.Body.StartDate,
		EndDate:      input.Body.EndDate,
		CoverMediaID: input.Body.CoverMediaID,
	})
	if err != nil {
		return nil, err
	}

	return &TripOutput{Body: mapTrip(trip)}, nil
}

func (s *Server) handleDeleteTrip(ctx context.Context, input *DeleteTripInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Trip.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Trip deleted"}}, nil
}

func (s *Server) handleGetPublicPreview(ctx context.Context, input *PublicPreviewInput) (*PublicPreviewOutput, error) {
	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkRateLimit(s.joinRateLimiter, ip, "/api/v1/public/trips"); err != nil {
		return nil, err
	}

	preview, err := s.services.Trip.GetPublicPreview(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	return &PublicPreviewOutput{
		Body: PublicPreviewResponse{
			Trip:    mapTrip(preview.Trip),
			Moments: mapMoments(preview.Moments),
		},
	}, nil
}
