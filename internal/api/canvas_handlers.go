package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/driftlog/driftlog-server/internal/domain"
	"github.com/driftlog/driftlog-server/internal/store"
)

func (s *Server) registerCanvasRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "updateCanvasPositions",
		Method:      http.MethodPut,
		Path:        "/api/v1/trips/{id}/canvas/positions",
		Summary:     "Update canvas positions",
		Description: "Applies a batch of card moves. The whole batch is validated before anything is written",
		Tags:        []string{"Canvas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCanvasPositions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCanvasLayout",
		Method:      http.MethodGet,
		Path:        "/api/v1/trips/{id}/canvas/layout",
		Summary:     "Get canvas layout",
		Description: "Returns pixel frames for every moment at the given canvas width",
		Tags:        []string{"Canvas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCanvasLayout)

	huma.Register(s.api, huma.Operation{
		OperationID: "reflowCanvas",
		Method:      http.MethodPost,
		Path:        "/api/v1/trips/{id}/canvas/reflow",
		Summary:     "Reflow canvas",
		Description: "Repacks all cards chronologically into the shortest columns",
		Tags:        []string{"Canvas"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReflowCanvas)
}

// === DTOs ===

// PositionUpdateRequest is one card move within a batch.
type PositionUpdateRequest struct {
	MomentID string               `json:"moment_id" validate:"required" doc:"Moment being moved"`
	Position GridPositionResponse `json:"position" doc:"New placement"`
}

// UpdateCanvasPositionsRequest is the request body for a position batch.
type UpdateCanvasPositionsRequest struct {
	Updates []PositionUpdateRequest `json:"updates" validate:"required,min=1" doc:"Card moves to apply atomically"`
}

// UpdateCanvasPositionsInput wraps the batch request for Huma.
type UpdateCanvasPositionsInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
	Body          UpdateCanvasPositionsRequest
}

// GetCanvasLayoutInput contains parameters for computing a layout.
type GetCanvasLayoutInput struct {
	Authorization string  `header:"Authorization"`
	ID            string  `path:"id" doc:"Trip ID"`
	Width         float64 `query:"width" default:"400" doc:"Canvas width in pixels"`
}

// FrameResponse is a moment's pixel rectangle on the canvas.
type FrameResponse struct {
	X      float64 `json:"x" doc:"Left edge in pixels"`
	Y      float64 `json:"y" doc:"Top edge in pixels"`
	Width  float64 `json:"width" doc:"Width in pixels"`
	Height float64 `json:"height" doc:"Height in pixels"`
}

// CanvasLayoutResponse maps moment IDs to pixel frames.
type CanvasLayoutResponse struct {
	Frames map[string]FrameResponse `json:"frames" doc:"Pixel frames keyed by moment ID"`
}

// CanvasLayoutOutput wraps the layout response for Huma.
type CanvasLayoutOutput struct {
	Body CanvasLayoutResponse
}

// ReflowCanvasInput contains parameters for reflowing a trip's canvas.
type ReflowCanvasInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
}

// ReflowCanvasResponse lists the positions the reflow changed.
type ReflowCanvasResponse struct {
	Updates []PositionUpdateRequest `json:"updates" doc:"Moments that moved, with their new positions"`
}

// ReflowCanvasOutput wraps the reflow response for Huma.
type ReflowCanvasOutput struct {
	Body ReflowCanvasResponse
}

// === Handlers ===

func (s *Server) handleUpdateCanvasPositions(ctx context.Context, input *UpdateCanvasPositionsInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	updates := make([]store.MomentPositionUpdate, len(input.Body.Updates))
	for i, u := range input.Body.Updates {
		updates[i] = store.MomentPositionUpdate{
			MomentID: u.MomentID,
			Position: domain.GridPosition{
				Column: u.Position.Column,
				Row:    u.Position.Row,
				Width:  u.Position.Width,
				Height: u.Position.Height,
			},
		}
	}

	if err := s.services.Canvas.UpdatePositions(ctx, input.ID, userID, updates); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Positions updated"}}, nil
}

func (s *Server) handleGetCanvasLayout(ctx context.Context, input *GetCanvasLayoutInput) (*CanvasLayoutOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	frames, err := s.services.Canvas.Layout(ctx, input.ID, userID, input.Width)
	if err != nil {
		return nil, err
	}

	resp := make(map[string]FrameResponse, len(frames))
	for id, f := range frames {
		resp[id] = FrameResponse{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
	}

	return &CanvasLayoutOutput{Body: CanvasLayoutResponse{Frames: resp}}, nil
}

func (s *Server) handleReflowCanvas(ctx context.Context, input *ReflowCanvasInput) (*ReflowCanvasOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	moved, err := s.services.Canvas.Reflow(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	updates := make([]PositionUpdateRequest, len(moved))
	for i, u := range moved {
		updates[i] = PositionUpdateRequest{
			MomentID: u.MomentID,
			Position: mapGridPosition(u.Position),
		}
	}

	return &ReflowCanvasOutput{Body: ReflowCanvasResponse{Updates: updates}}, nil
}
