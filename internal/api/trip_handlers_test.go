package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripLifecycle(t *testing.T) {
	ts := newTestServer(t)

	token, userID := ts.registerUser(t, "mara@example.com", "Mara")

	trip := ts.createTrip(t, token, "Japan Spring")
	assert.Equal(t, userID, trip.OwnerID)
	assert.Equal(t, "Japan Spring", trip.Title)
	assert.False(t, trip.ShareLinkEnabled)

	resp := ts.api.Get("/api/v1/trips", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeEnvelope[ListTripsResponse](t, resp.Body.Bytes()).Data
	require.Len(t, list.Trips, 1)
	assert.Equal(t, trip.ID, list.Trips[0].ID)

	resp = ts.api.Patch("/api/v1/trips/"+trip.ID,
		"Authorization: Bearer "+token,
		map[string]any{"title": "Japan, Spring 2026", "description": "Two weeks around Kansai"},
	)
	require.Equal(t, http.StatusOK, resp.Code)
	updated := decodeEnvelope[TripResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Japan, Spring 2026", updated.Title)
	assert.Equal(t, "Two weeks around Kansai", updated.Description)

	resp = ts.api.Delete("/api/v1/trips/"+trip.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/trips/"+trip.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateTrip_Validation(t *testing.T) {
	ts := newTestServer(t)

	token, _ := ts.registerUser(t, "mara@example.com", "Mara")

	resp := ts.api.Post("/api/v1/trips",
		"Authorization: Bearer "+token,
		map[string]any{"title": ""},
	)
	assert.GreaterOrEqual(t, resp.Code, 400)
	assert.Less(t, resp.Code, 500)

	envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
	assert.False(t, envelope.Success)
}

func TestGetTrip_NonMemberForbidden(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	strangerToken, _ := ts.registerUser(t, "stranger@example.com", "Stranger")

	trip := ts.createTrip(t, ownerToken, "Private Trip")

	resp := ts.api.Get("/api/v1/trips/"+trip.ID, "Authorization: Bearer "+strangerToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
	assert.Equal(t, "FORBIDDEN", envelope.Code)
}

func TestMomentLifecycle(t *testing.T) {
	ts := newTestServer(t)

	token, _ := ts.registerUser(t, "mara@example.com", "Mara")
	trip := ts.createTrip(t, token, "Japan Spring")

	moment := ts.createMoment(t, token, trip.ID, map[string]any{
		"title": "Fushimi Inari at dawn",
		"place": "Kyoto",
	})
	assert.Equal(t, trip.ID, moment.TripID)
	assert.Equal(t, 0, moment.GridPosition.Column)
	assert.Equal(t, 0.0, moment.GridPosition.Row)

	second := ts.createMoment(t, token, trip.ID, map[string]any{
		"title": "Nishiki market lunch",
	})
	// Auto-placement fills the shorter column.
	assert.Equal(t, 1, second.GridPosition.Column)

	resp := ts.api.Get("/api/v1/trips/"+trip.ID+"/moments", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeEnvelope[ListMomentsResponse](t, resp.Body.Bytes()).Data
	assert.Len(t, list.Moments, 2)

	resp = ts.api.Patch("/api/v1/moments/"+moment.ID,
		"Authorization: Bearer "+token,
		map[string]any{"note": "Beat the crowds by 6am"},
	)
	require.Equal(t, http.StatusOK, resp.Code)
	updated := decodeEnvelope[MomentResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Beat the crowds by 6am", updated.Note)
	// Untouched fields survive a partial update.
	assert.Equal(t, "Fushimi Inari at dawn", updated.Title)
	assert.Equal(t, moment.GridPosition, updated.GridPosition)

	resp = ts.api.Delete("/api/v1/moments/"+moment.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/moments/"+moment.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMoment_ViewerCannotWrite(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	viewerToken, _ := ts.registerUser(t, "viewer@example.com", "Viewer")

	trip := ts.createTrip(t, ownerToken, "Japan Spring")

	resp := ts.api.Post("/api/v1/trips/"+trip.ID+"/share", "Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code)
	share := decodeEnvelope[ShareLinkResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+viewerToken)
	require.Equal(t, http.StatusOK, resp.Code)

	// Viewers can read...
	resp = ts.api.Get("/api/v1/trips/"+trip.ID+"/moments", "Authorization: Bearer "+viewerToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	// ...but not write.
	resp = ts.api.Post("/api/v1/trips/"+trip.ID+"/moments",
		"Authorization: Bearer "+viewerToken,
		map[string]any{"title": "Not allowed"},
	)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
