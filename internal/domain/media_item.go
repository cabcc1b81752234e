package domain

import "time"

// MediaType distinguishes photos from videos.
type MediaType string

const (
	// MediaTypePhoto is a still image.
	MediaTypePhoto MediaType = "photo"
	// MediaTypeVideo is a video clip.
	MediaTypeVideo MediaType = "video"
)

// ParseMediaType converts a string to a MediaType.
func ParseMediaType(s string) (MediaType, bool) {
	switch s {
	case "photo":
		return MediaTypePhoto, true
	case "video":
		return MediaTypeVideo, true
	default:
		return "", false
	}
}

// MediaItem is an uploaded photo or video owned by a trip. Moments reference
// media items by id; deleting a media item pulls its id out of every
// referencing moment but never deletes the moment.
type MediaItem struct {
	Syncable
	TripID     string    `json:"trip_id"`
	UploaderID string    `json:"uploader_id"`
	Type       MediaType `json:"type"`

	// Object store references.
	StorageKey      string `json:"storage_key"`
	ThumbnailKey    string `json:"thumbnail_key,omitempty"`
	OriginalBytes   int64  `json:"original_bytes"`
	ThumbnailBytes  int64  `json:"thumbnail_bytes,omitempty"`
	ContentType     string `json:"content_type,omitempty"`
	BlurHash        string `json:"blur_hash,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`

	CapturedAt *time.Time `json:"captured_at,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
}

// TotalBytes returns the bytes this item counts against the uploader's quota.
func (m *MediaItem) TotalBytes() int64 {
	return m.OriginalBytes + m.ThumbnailBytes
}
