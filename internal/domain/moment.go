package domain

import "time"

// Moment is a titled, positioned group of media items representing one
// experience within a trip. A moment references media items by id; it does
// not own them.
type Moment struct {
	Syncable
	TripID      string    `json:"trip_id"`
	Title       string    `json:"title"`
	Note        string    `json:"note,omitempty"`
	Place       string    `json:"place,omitempty"`
	Event       string    `json:"event,omitempty"`
	VoiceNoteID string    `json:"voice_note_id,omitempty"`
	MediaIDs    []string  `json:"media_ids"`
	Date        time.Time `json:"date"`

	GridPosition GridPosition `json:"grid_position"`
}

// RemoveMedia drops a media id from the moment's reference list.
// Returns true if the list changed.
func (m *Moment) RemoveMedia(mediaID string) bool {
	for i, mid := range m.MediaIDs {
		if mid == mediaID {
			m.MediaIDs = append(m.MediaIDs[:i], m.MediaIDs[i+1:]...)
			return true
		}
	}
	return false
}

// ReferencesMedia reports whether the moment references the given media id.
func (m *Moment) ReferencesMedia(mediaID string) bool {
	for _, mid := range m.MediaIDs {
		if mid == mediaID {
			return true
		}
	}
	return false
}

// ChronoBefore reports whether m sorts before other in the canonical
// chronological packing order: by date, then creation time, then id.
// The id tiebreak keeps reflow deterministic for identical timestamps.
func (m *Moment) ChronoBefore(other *Moment) bool {
	if !m.Date.Equal(other.Date) {
		return m.Date.Before(other.Date)
	}
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}
