package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftlog/driftlog-server/internal/domain"
	"github.com/driftlog/driftlog-server/internal/search"
	"github.com/driftlog/driftlog-server/internal/store"
)

// SearchService keeps the search index in sync with the store and answers
// user queries scoped to the trips they belong to. It implements
// store.SearchIndexer, so store writes flow into the index automatically once
// the service is registered via SetSearchIndexer.
type SearchService struct {
	store  *store.Store
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(st *store.Store, index *search.SearchIndex, logger *slog.Logger) *SearchService {
	return &SearchService{
		store:  st,
		index:  index,
		logger: logger,
	}
}

// IndexTrip adds or updates a trip in the search index.
func (s *SearchService) IndexTrip(ctx context.Context, trip *domain.Trip) error {
	if trip.IsDeleted() {
		return s.index.DeleteDocument(trip.ID)
	}
	return s.index.IndexDocument(search.TripToSearchDocument(trip))
}

// DeleteTrip removes a trip from the search index.
func (s *SearchService) DeleteTrip(ctx context.Context, tripID string) error {
	return s.index.DeleteDocument(tripID)
}

// IndexMoment adds or updates a moment in the search index.
func (s *SearchService) IndexMoment(ctx context.Context, moment *domain.Moment) error {
	if moment.IsDeleted() {
		return s.index.DeleteDocument(moment.ID)
	}
	return s.index.IndexDocument(search.MomentToSearchDocument(moment))
}

// DeleteMoment removes a moment from the search index.
func (s *SearchService) DeleteMoment(ctx context.Context, momentID string) error {
	return s.index.DeleteDocument(momentID)
}

// Search runs a query for a user. Results are scoped to trips the user is a
// member of; a caller-supplied trip filter narrows further but never widens.
func (s *SearchService) Search(ctx context.Context, userID string, params search.SearchParams) (*search.SearchResult, error) {
	trips, err := s.store.ListTripsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	allowed := make(map[string]bool, len(trips))
	for _, trip := range trips {
		allowed[trip.ID] = true
	}

	var scope []string
	if len(params.TripIDs) > 0 {
		for _, tripID := range params.TripIDs {
			if allowed[tripID] {
				scope = append(scope, tripID)
			}
		}
	} else {
		for _, trip := range trips {
			scope = append(scope, trip.ID)
		}
	}

	// No accessible trips means no visible documents.
	if len(scope) == 0 {
		return &search.SearchResult{
			Query: params.Query,
			Hits:  []search.SearchHit{},
		}, nil
	}
	params.TripIDs = scope

	if params.Limit <= 0 {
		params.Limit = search.DefaultSearchParams().Limit
	}

	return s.index.Search(ctx, params)
}

// ReindexAll rebuilds the index from the store. Deleted entities are skipped.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	var docs []*search.SearchDocument
	for trip, err := range s.store.Trips.List(ctx) {
		if err != nil {
			return fmt.Errorf("list trips: %w", err)
		}
		if trip.IsDeleted() {
			continue
		}
		docs = append(docs, search.TripToSearchDocument(trip))
	}
	for moment, err := range s.store.Moments.List(ctx) {
		if err != nil {
			return fmt.Errorf("list moments: %w", err)
		}
		if moment.IsDeleted() {
			continue
		}
		docs = append(docs, search.MomentToSearchDocument(moment))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	s.logger.Info("search index rebuilt", "documents", len(docs))
	return nil
}
