// Package search provides full-text search over trips and moments using
// Bleve. Access control happens above this package: callers restrict each
// query to the trip ids the user may view.
package search

import (
	"github.com/driftlog/driftlog-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeTrip   DocType = "trip"
	DocTypeMoment DocType = "moment"
)

// SearchDocument is the unified document structure for the Bleve index.
// Trips and moments are indexed with type discrimination; every document
// carries a trip_id so results can be filtered to the trips a user is a
// member of with a single term disjunction.
type SearchDocument struct {
	// Identity
	ID     string  `json:"id"`
	Type   DocType `json:"type"`    // Discriminator for result grouping
	TripID string  `json:"trip_id"` // Own ID for trips, parent trip for moments

	// Primary searchable text: the trip or moment title.
	Name string `json:"name"`

	// Trip description or moment note.
	Description string `json:"description,omitempty"`

	// Moment-specific fields (empty for trips)
	Place string `json:"place,omitempty"`
	Event string `json:"event,omitempty"`

	// Numeric fields for range queries and sorting
	Date int64 `json:"date,omitempty"` // Unix millis (moments only)

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       string(d.Type),
		"trip_id":    d.TripID,
		"name":       d.Name,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Place != "" {
		m["place"] = d.Place
	}
	if d.Event != "" {
		m["event"] = d.Event
	}
	if d.Date > 0 {
		m["date"] = d.Date
	}

	return m
}

// TripToSearchDocument converts a domain Trip to a SearchDocument.
func TripToSearchDocument(trip *domain.Trip) *SearchDocument {
	return &SearchDocument{
		ID:          trip.ID,
		Type:        DocTypeTrip,
		TripID:      trip.ID,
		Name:        trip.Title,
		Description: trip.Description,
		CreatedAt:   trip.CreatedAt.UnixMilli(),
		UpdatedAt:   trip.UpdatedAt.UnixMilli(),
	}
}

// MomentToSearchDocument converts a domain Moment to a SearchDocument.
func MomentToSearchDocument(m *domain.Moment) *SearchDocument {
	return &SearchDocument{
		ID:          m.ID,
		Type:        DocTypeMoment,
		TripID:      m.TripID,
		Name:        m.Title,
		Description: m.Note,
		Place:       m.Place,
		Event:       m.Event,
		Date:        m.Date.UnixMilli(),
		CreatedAt:   m.CreatedAt.UnixMilli(),
		UpdatedAt:   m.UpdatedAt.UnixMilli(),
	}
}
