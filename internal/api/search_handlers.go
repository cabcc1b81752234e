package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/driftlog/driftlog-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search trips and moments",
		Description: "Full-text search scoped to the trips the caller is a member of",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains search query parameters.
type SearchInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" required:"true" doc:"Search query"`
	Type          string `query:"type" enum:"trip,moment," doc:"Restrict to one document type"`
	TripID        string `query:"trip_id" doc:"Restrict to one trip"`
	Place         string `query:"place" doc:"Filter by place"`
	DateFrom      int64  `query:"date_from" doc:"Start of date range (Unix millis)"`
	DateTo        int64  `query:"date_to" doc:"End of date range (Unix millis)"`
	Limit         int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Results per page"`
	Offset        int    `query:"offset" minimum:"0" doc:"Result offset"`
	SortBy        string `query:"sort_by" doc:"Sort field (relevance, title, recent, date)"`
	Highlight     bool   `query:"highlight" doc:"Include highlighted fragments"`
}

// SearchHitResponse is one search result.
type SearchHitResponse struct {
	ID         string            `json:"id" doc:"Document ID"`
	Type       string            `json:"type" doc:"Document type (trip or moment)"`
	TripID     string            `json:"trip_id" doc:"Owning trip ID"`
	Score      float64           `json:"score" doc:"Relevance score"`
	Name       string            `json:"name,omitempty" doc:"Title"`
	Place      string            `json:"place,omitempty" doc:"Place name"`
	Event      string            `json:"event,omitempty" doc:"Event name"`
	Date       int64             `json:"date,omitempty" doc:"Date (Unix millis)"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted fragment per field"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Hits   []SearchHitResponse `json:"hits" doc:"Matching documents"`
	Total  uint64              `json:"total" doc:"Total matches"`
	TookMs int64               `json:"took_ms" doc:"Query duration in milliseconds"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	if input.Type != "" {
		params.Types = []string{input.Type}
	}
	if input.TripID != "" {
		params.TripIDs = []string{input.TripID}
	}
	params.Place = input.Place
	params.DateFrom = input.DateFrom
	params.DateTo = input.DateTo
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	params.SortBy = input.SortBy
	params.Highlight = input.Highlight

	result, err := s.services.Search.Search(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResponse{
			ID:         h.ID,
			Type:       string(h.Type),
			TripID:     h.TripID,
			Score:      h.Score,
			Name:       h.Name,
			Place:      h.Place,
			Event:      h.Event,
			Date:       h.Date,
			Highlights: h.Highlights,
		}
	}

	return &SearchOutput{
		Body: SearchResponse{
			Hits:   hits,
			Total:  result.Total,
			TookMs: result.TookMs,
		},
	}, nil
}
