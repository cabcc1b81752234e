// Package sse implements Server-Sent Events for real-time trip updates:
// connected clients see moments move, media arrive, and membership change
// without polling.
package sse

import (
	"time"

	"github.com/driftlog/driftlog-server/internal/domain"
	"github.com/driftlog/driftlog-server/internal/store"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventTripUpdated represents a trip metadata change.
	EventTripUpdated EventType = "trip.updated"
	// EventTripDeleted represents a trip deletion.
	EventTripDeleted EventType = "trip.deleted"

	// EventMomentCreated represents a moment creation event.
	EventMomentCreated EventType = "moment.created"
	// EventMomentUpdated represents a moment update event.
	EventMomentUpdated EventType = "moment.updated"
	// EventMomentDeleted represents a moment deletion event.
	EventMomentDeleted EventType = "moment.deleted"

	// EventCanvasReflowed carries a full batch of new grid positions after a
	// drag or resize commits. Clients replace their layout with this snapshot.
	EventCanvasReflowed EventType = "canvas.reflowed"

	// EventMediaAdded represents a finished media upload.
	EventMediaAdded EventType = "media.added"
	// EventMediaDeleted represents a media item removal.
	EventMediaDeleted EventType = "media.deleted"

	// EventMemberJoined represents a user redeeming a share link.
	EventMemberJoined EventType = "member.joined"
	// EventMemberUpdated represents a role change on a trip.
	EventMemberUpdated EventType = "member.updated"
	// EventMemberRemoved represents a user losing access to a trip.
	EventMemberRemoved EventType = "member.removed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// Filtering fields for multi-user support. When set, events are only
	// delivered to clients matching these criteria. Empty string means
	// "broadcast to all".
	UserID string `json:"-"` // Filter to specific user (not sent to client)
	TripID string `json:"-"` // Filter to users who can view this trip (not sent to client)
}

// TripEventData is the data payload for trip events.
type TripEventData struct {
	Trip *domain.Trip `json:"trip"`
}

// TripDeletedEventData is the data payload for trip delete events.
type TripDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	TripID    string    `json:"trip_id"`
}

// MomentEventData is the data payload for moment events.
type MomentEventData struct {
	Moment *domain.Moment `json:"moment"`
}

// MomentDeletedEventData is the data payload for moment delete events.
type MomentDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	TripID    string    `json:"trip_id"`
	MomentID  string    `json:"moment_id"`
}

// CanvasReflowedEventData carries the full reflowed position set for a trip.
type CanvasReflowedEventData struct {
	TripID    string                       `json:"trip_id"`
	Positions []store.MomentPositionUpdate `json:"positions"`
}

// MediaEventData is the data payload for media events.
type MediaEventData struct {
	Media *domain.MediaItem `json:"media"`
}

// MediaDeletedEventData is the data payload for media delete events.
type MediaDeletedEventData struct {
	TripID  string `json:"trip_id"`
	MediaID string `json:"media_id"`
	// Moments whose reference lists lost this media id.
	UpdatedMomentIDs []string `json:"updated_moment_ids,omitempty"`
}

// MemberEventData is the data payload for membership events.
type MemberEventData struct {
	TripID string      `json:"trip_id"`
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewTripUpdatedEvent creates a trip.updated event.
func NewTripUpdatedEvent(trip *domain.Trip) Event {
	return Event{
		Type:      EventTripUpdated,
		Data:      TripEventData{Trip: trip},
		Timestamp: time.Now(),
		TripID:    trip.ID,
	}
}

// NewTripDeletedEvent creates a trip.deleted event.
func NewTripDeletedEvent(tripID string, deletedAt time.Time) Event {
	return Event{
		Type: EventTripDeleted,
		Data: TripDeletedEventData{
			TripID:    tripID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
		TripID:    tripID,
	}
}

// NewMomentCreatedEvent creates a moment.created event.
func NewMomentCreatedEvent(moment *domain.Moment) Event {
	return Event{
		Type:      EventMomentCreated,
		Data:      MomentEventData{Moment: moment},
		Timestamp: time.Now(),
		TripID:    moment.TripID,
	}
}

// NewMomentUpdatedEvent creates a moment.updated event.
func NewMomentUpdatedEvent(moment *domain.Moment) Event {
	return Event{
		Type:      EventMomentUpdated,
		Data:      MomentEventData{Moment: moment},
		Timestamp: time.Now(),
		TripID:    moment.TripID,
	}
}

// NewMomentDeletedEvent creates a moment.deleted event.
func NewMomentDeletedEvent(tripID, momentID string, deletedAt time.Time) Event {
	return Event{
		Type: EventMomentDeleted,
		Data: MomentDeletedEventData{
			TripID:    tripID,
			MomentID:  momentID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
		TripID:    tripID,
	}
}

// NewCanvasReflowedEvent creates a canvas.reflowed event.
func NewCanvasReflowedEvent(tripID string, positions []store.MomentPositionUpdate) Event {
	return Event{
		Type: EventCanvasReflowed,
		Data: CanvasReflowedEventData{
			TripID:    tripID,
			Positions: positions,
		},
		Timestamp: time.Now(),
		TripID:    tripID,
	}
}

// NewMediaAddedEvent creates a media.added event.
func NewMediaAddedEvent(media *domain.MediaItem) Event {
	return Event{
		Type:      EventMediaAdded,
		Data:      MediaEventData{Media: media},
		Timestamp: time.Now(),
		TripID:    media.TripID,
	}
}

// NewMediaDeletedEvent creates a media.deleted event.
func NewMediaDeletedEvent(tripID, mediaID string, updatedMomentIDs []string) Event {
	return Event{
		Type: EventMediaDeleted,
		Data: MediaDeletedEventData{
			TripID:           tripID,
			MediaID:          mediaID,
			UpdatedMomentIDs: updatedMomentIDs,
		},
		Timestamp: time.Now(),
		TripID:    tripID,
	}
}

// NewMemberJoinedEvent creates a member.joined event.
func NewMemberJoinedEvent(tripID, userID string, role domain.Role) Event {
	return Event{
		Type: EventMemberJoined,
		Data: MemberEventData{
			TripID: tripID,
			UserID: userID,
			Role:   role,
		},
		Timestamp: time.Now(),
		TripID:    tripID,
	}
}

// NewMemberUpdatedEvent creates a member.updated event.
func NewMemberUpdatedEvent(tripID, userID string, role domain.Role) Event {
	return Event{
		Type: EventMemberUpdated,
		Data: MemberEventData{
			TripID: tripID,
			UserID: userID,
			Role:   role,
		},
		Timestamp: time.Now(),
		TripID:    tripID,
	}
}

// NewMemberRemovedEvent creates a member.removed event. The removed user is
// targeted directly so they hear about it even though they just lost the
// trip access the TripID filter would require.
func NewMemberRemovedEvent(tripID, userID string) Event {
	return Event{
		Type: EventMemberRemoved,
		Data: MemberEventData{
			TripID: tripID,
			UserID: userID,
		},
		Timestamp: time.Now(),
		TripID:    tripID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
