package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/driftlog/driftlog-server/internal/service"
)

func (s *Server) registerMomentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createMoment",
		Method:      http.MethodPost,
		Path:        "/api/v1/trips/{id}/moments",
		Summary:     "Create moment",
		Description: "Adds a moment to a trip, auto-placed in the first free canvas slot",
		Tags:        []string{"Moments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateMoment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMoments",
		Method:      http.MethodGet,
		Path:        "/api/v1/trips/{id}/moments",
		Summary:     "List moments",
		Description: "Returns all moments on a trip",
		Tags:        []string{"Moments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMoments)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMoment",
		Method:      http.MethodGet,
		Path:        "/api/v1/moments/{id}",
		Summary:     "Get moment",
		Description: "Returns a moment by ID",
		Tags:        []string{"Moments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMoment)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMoment",
		Method:      http.MethodPatch,
		Path:        "/api/v1/moments/{id}",
		Summary:     "Update moment",
		Description: "Updates moment content. Omitted fields are left untouched; the grid position never changes here",
		Tags:        []string{"Moments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMoment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMoment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/moments/{id}",
		Summary:     "Delete moment",
		Description: "Deletes a moment and repacks the canvas below it",
		Tags:        []string{"Moments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteMoment)
}

// === DTOs ===

// CreateMomentRequest is the request body for creating a moment.
type CreateMomentRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=200" doc:"Moment title"`
	Note        string    `json:"note,omitempty" validate:"omitempty,max=5000" doc:"Free-form note"`
	Place       string    `json:"place,omitempty" validate:"omitempty,max=200" doc:"Place name"`
	Event       string    `json:"event,omitempty" validate:"omitempty,max=200" doc:"Event name"`
	VoiceNoteID string    `json:"voice_note_id,omitempty" doc:"Voice note media ID"`
	MediaIDs    []string  `json:"media_ids,omitempty" doc:"Referenced media item IDs"`
	Date        time.Time `json:"date,omitempty" doc:"Moment date; defaults to now"`
	Width       int       `json:"width,omitempty" validate:"gte=0,lte=2" doc:"Card width in columns"`
	Height      float64   `json:"height,omitempty" validate:"gte=0" doc:"Card height in row units"`
}

// CreateMomentInput wraps the create moment request for Huma.
type CreateMomentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
	Body          CreateMomentRequest
}

// MomentOutput wraps a moment response for Huma.
type MomentOutput struct {
	Body MomentResponse
}

// ListMomentsInput contains parameters for listing a trip's moments.
type ListMomentsInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
}

// ListMomentsResponse contains a trip's moments.
type ListMomentsResponse struct {
	Moments []MomentResponse `json:"moments" doc:"Moments on the trip"`
}

// ListMomentsOutput wraps the moments response for Huma.
type ListMomentsOutput struct {
	Body ListMomentsResponse
}

// GetMomentInput contains parameters for getting a moment.
type GetMomentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Moment ID"`
}

// UpdateMomentRequest is the request body for updating a moment.
type UpdateMomentRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200" doc:"Moment title"`
	Note        *string    `json:"note,omitempty" validate:"omitempty,max=5000" doc:"Free-form note"`
	Place       *string    `json:"place,omitempty" validate:"omitempty,max=200" doc:"Place name"`
	Event       *string    `json:"event,omitempty" validate:"omitempty,max=200" doc:"Event name"`
	VoiceNoteID *string    `json:"voice_note_id,omitempty" doc:"Voice note media ID"`
	MediaIDs    *[]string  `json:"media_ids,omitempty" doc:"Referenced media item IDs"`
	Date        *time.Time `json:"date,omitempty" doc:"Moment date"`
}

// UpdateMomentInput wraps the update moment request for Huma.
type UpdateMomentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Moment ID"`
	Body          UpdateMomentRequest
}

// DeleteMomentInput contains parameters for deleting a moment.
type DeleteMomentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Moment ID"`
}

// === Handlers ===

func (s *Server) handleCreateMoment(ctx context.Context, input *CreateMomentInput) (*MomentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	moment, err := s.services.Moment.Create(ctx, input.ID, userID, service.CreateMomentRequest{
		Title:       input.Body.Title,
		Note:        input.Body.Note,
		Place:       input.Body.Place,
		Event:       input.Body.Event,
		VoiceNoteID: input.Body.VoiceNoteID,
		MediaIDs:    input.Body.MediaIDs,
		Date:        input.Body.Date,
		Width:       input.Body.Width,
		Height:      input.Body.Height,
	})
	if err != nil {
		return nil, err
	}

	return &MomentOutput{Body: mapMoment(moment)}, nil
}

func (s *Server) handleListMoments(ctx context.Context, input *ListMomentsInput) (*ListMomentsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	moments, err := s.services.Moment.ListByTrip(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &ListMomentsOutput{Body: ListMomentsResponse{Moments: mapMoments(moments)}}, nil
}

func (s *Server) handleGetMoment(ctx context.Context, input *GetMomentInput) (*MomentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	moment, err := s.services.Moment.Get(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &MomentOutput{Body: mapMoment(moment)}, nil
}

func (s *Server) handleUpdateMoment(ctx context.Context, input *UpdateMomentInput) (*MomentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	moment, err := s.services.Moment.Update(ctx, input.ID, userID, service.UpdateMomentRequest{
		Title:       input.Body.Title,
		Note:        input.Body.Note,
		Place:       input.Body.Place,
		Event:       input.Body.Event,
		VoiceNoteID: input.Body.VoiceNoteID,
		MediaIDs:    input.Body.MediaIDs,
		Date:        input.Body.Date,
	})
	if err != nil {
		return nil, err
	}

	return &MomentOutput{Body: mapMoment(moment)}, nil
}

func (s *Server) handleDeleteMoment(ctx context.Context, input *DeleteMomentInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Moment.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Moment deleted"}}, nil
}
