package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/driftlog/driftlog-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:     "moment-123",
		Type:   DocTypeMoment,
		TripID: "trip-1",
		Name:   "Sunrise over Haleakala",
		Place:  "Maui",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_IndexDocuments_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "moment-1", Type: DocTypeMoment, TripID: "trip-1", Name: "Moment One"},
		{ID: "moment-2", Type: DocTypeMoment, TripID: "trip-1", Name: "Moment Two"},
		{ID: "moment-3", Type: DocTypeMoment, TripID: "trip-1", Name: "Moment Three"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_DeleteDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:     "moment-123",
		Type:   DocTypeMoment,
		TripID: "trip-1",
		Name:   "Test Moment",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	err = index.DeleteDocument("moment-123")
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Search_Basic(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "moment-1", Type: DocTypeMoment, TripID: "trip-1", Name: "Ramen in Shinjuku", Place: "Tokyo"},
		{ID: "moment-2", Type: DocTypeMoment, TripID: "trip-1", Name: "Crossing at Shibuya", Place: "Tokyo"},
		{ID: "moment-3", Type: DocTypeMoment, TripID: "trip-1", Name: "Canals at dawn", Place: "Venice"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		Query: "Tokyo",
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	assert.Len(t, result.Hits, 2)
}

func TestSearchIndex_Search_ByType(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "trip-1", Type: DocTypeTrip, TripID: "trip-1", Name: "Japan Spring"},
		{ID: "moment-1", Type: DocTypeMoment, TripID: "trip-1", Name: "Cherry blossoms"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		Query: "",
		Types: []string{string(DocTypeTrip)},
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "trip-1", result.Hits[0].ID)
}

func TestSearchIndex_Search_TripScope(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "moment-1", Type: DocTypeMoment, TripID: "trip-1", Name: "Beach day"},
		{ID: "moment-2", Type: DocTypeMoment, TripID: "trip-2", Name: "Beach bonfire"},
		{ID: "moment-3", Type: DocTypeMoment, TripID: "trip-3", Name: "Beach sunset"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	// Scoped to two of the three trips
	result, err := index.Search(ctx, SearchParams{
		Query:   "beach",
		TripIDs: []string{"trip-1", "trip-3"},
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	for _, hit := range result.Hits {
		assert.NotEqual(t, "moment-2", hit.ID)
	}
}

func TestSearchIndex_Search_Prefix(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:     "moment-1",
		Type:   DocTypeMoment,
		TripID: "trip-1",
		Name:   "Snorkeling the reef",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		Query: "Snork", // Prefix of Snorkeling
		Limit: 10,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Total, uint64(1))
}

func TestSearchIndex_Search_DateRange(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	day := int64(24 * time.Hour / time.Millisecond)
	docs := []*SearchDocument{
		{ID: "moment-1", Type: DocTypeMoment, TripID: "trip-1", Name: "Day one", Date: 1 * day},
		{ID: "moment-2", Type: DocTypeMoment, TripID: "trip-1", Name: "Day five", Date: 5 * day},
		{ID: "moment-3", Type: DocTypeMoment, TripID: "trip-1", Name: "Day ten", Date: 10 * day},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		Query:    "",
		DateFrom: 3 * day,
		DateTo:   7 * day,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "moment-2", result.Hits[0].ID)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{ID: "moment-1", Type: DocTypeMoment, TripID: "trip-1", Name: "Test"}
	err := index.IndexDocument(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Rebuild - should clear the index
	err = index.Rebuild()
	require.NoError(t, err)

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Persistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "search-persist-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	// Create index and add document
	index1, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	doc := &SearchDocument{ID: "moment-1", Type: DocTypeMoment, TripID: "trip-1", Name: "Test Moment"}
	err = index1.IndexDocument(doc)
	require.NoError(t, err)

	err = index1.Close()
	require.NoError(t, err)

	// Reopen index and verify document is still there
	index2, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	defer index2.Close()

	count, err := index2.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	ctx := context.Background()
	result, err := index2.Search(ctx, SearchParams{Query: "Test", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
}

func TestTripToSearchDocument(t *testing.T) {
	now := time.Now()
	trip := &domain.Trip{
		Syncable: domain.Syncable{
			ID:        "trip-123",
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:     "user-1",
		Title:       "Japan Spring",
		Description: "Two weeks chasing cherry blossoms",
	}

	doc := TripToSearchDocument(trip)

	assert.Equal(t, "trip-123", doc.ID)
	assert.Equal(t, DocTypeTrip, doc.Type)
	assert.Equal(t, "trip-123", doc.TripID)
	assert.Equal(t, "Japan Spring", doc.Name)
	assert.Equal(t, "Two weeks chasing cherry blossoms", doc.Description)
	assert.Equal(t, now.UnixMilli(), doc.CreatedAt)
}

func TestMomentToSearchDocument(t *testing.T) {
	now := time.Now()
	moment := &domain.Moment{
		Syncable: domain.Syncable{
			ID:        "moment-123",
			CreatedAt: now,
			UpdatedAt: now,
		},
		TripID: "trip-456",
		Title:  "Ramen at midnight",
		Note:   "Best bowl of the whole trip",
		Place:  "Shinjuku",
		Event:  "Food crawl",
		Date:   now,
	}

	doc := MomentToSearchDocument(moment)

	assert.Equal(t, "moment-123", doc.ID)
	assert.Equal(t, DocTypeMoment, doc.Type)
	assert.Equal(t, "trip-456", doc.TripID)
	assert.Equal(t, "Ramen at midnight", doc.Name)
	assert.Equal(t, "Best bowl of the whole trip", doc.Description)
	assert.Equal(t, "Shinjuku", doc.Place)
	assert.Equal(t, "Food crawl", doc.Event)
	assert.Equal(t, now.UnixMilli(), doc.Date)
}
