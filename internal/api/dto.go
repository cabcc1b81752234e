package api

import (
	"time"

	"github.com/driftlog/driftlog-server/internal/domain"
)

// MessageResponse is a simple success message response.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps a message response for huma.
type MessageOutput struct {
	Body MessageResponse
}

// UserResponse contains public user data in API responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Email       string    `json:"email" doc:"Email address"`
	DisplayName string    `json:"display_name" doc:"Display name"`
	Tier        string    `json:"tier" doc:"Subscription tier"`
	CreatedAt   time.Time `json:"created_at" doc:"Account creation time"`
}

func mapUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Tier:        string(u.Tier),
		CreatedAt:   u.CreatedAt,
	}
}

// GridPositionResponse is a moment's card placement on the canvas.
type GridPositionResponse struct {
	Column int     `json:"column" doc:"Column index (0 or 1)"`
	Row    float64 `json:"row" doc:"Row offset in row units"`
	Width  int     `json:"width" doc:"Card width in columns"`
	Height float64 `json:"height" doc:"Card height in row units"`
}

func mapGridPosition(p domain.GridPosition) GridPositionResponse {
	return GridPositionResponse{
		Column: p.Column,
		Row:    p.Row,
		Width:  p.Width,
		Height: p.Height,
	}
}

// TripResponse contains trip data in API responses.
type TripResponse struct {
	ID               string     `json:"id" doc:"Trip ID"`
	OwnerID          string     `json:"owner_id" doc:"Owner user ID"`
	Title            string     `json:"title" doc:"Trip title"`
	Description      string     `json:"description,omitempty" doc:"Trip description"`
	StartDate        *time.Time `json:"start_date,omitempty" doc:"Trip start date"`
	EndDate          *time.Time `json:"end_date,omitempty" doc:"Trip end date"`
	CoverMediaID     string     `json:"cover_media_id,omitempty" doc:"Cover media item ID"`
	ShareSlug        string     `json:"share_slug,omitempty" doc:"Share link slug"`
	ShareCode        string     `json:"share_code,omitempty" doc:"Short share code"`
	ShareLinkEnabled bool       `json:"share_link_enabled" doc:"Whether the share link is active"`
	CreatedAt        time.Time  `json:"created_at" doc:"Creation time"`
	UpdatedAt        time.Time  `json:"updated_at" doc:"Last update time"`
}

func mapTrip(t *domain.Trip) TripResponse {
	return TripResponse{
		ID:               t.ID,
		OwnerID:          t.OwnerID,
		Title:            t.Title,
		Description:      t.Description,
		StartDate:        t.StartDate,
		EndDate:          t.EndDate,
		CoverMediaID:     t.CoverMediaID,
		ShareSlug:        t.ShareSlug,
		ShareCode:        t.ShareCode,
		ShareLinkEnabled: t.ShareLinkEnabled,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// MomentResponse contains moment data in API responses.
type MomentResponse struct {
	ID           string               `json:"id" doc:"Moment ID"`
	TripID       string               `json:"trip_id" doc:"Owning trip ID"`
	Title        string               `json:"title" doc:"Moment title"`
	Note         string               `json:"note,omitempty" doc:"Free-form note"`
	Place        string               `json:"place,omitempty" doc:"Place name"`
	Event        string               `json:"event,omitempty" doc:"Event name"`
	VoiceNoteID  string               `json:"voice_note_id,omitempty" doc:"Voice note media ID"`
	MediaIDs     []string             `json:"media_ids" doc:"Referenced media item IDs"`
	Date         time.Time            `json:"date" doc:"Moment date"`
	GridPosition GridPositionResponse `json:"grid_position" doc:"Canvas placement"`
	CreatedAt    time.Time            `json:"created_at" doc:"Creation time"`
	UpdatedAt    time.Time            `json:"updated_at" doc:"Last update time"`
}

func mapMoment(m *domain.Moment) MomentResponse {
	return MomentResponse{
		ID:           m.ID,
		TripID:       m.TripID,
		Title:        m.Title,
		Note:         m.Note,
		Place:        m.Place,
		Event:        m.Event,
		VoiceNoteID:  m.VoiceNoteID,
		MediaIDs:     m.MediaIDs,
		Date:         m.Date,
		GridPosition: mapGridPosition(m.GridPosition),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func mapMoments(moments []*domain.Moment) []MomentResponse {
	out := make([]MomentResponse, len(moments))
	for i, m := range moments {
		out[i] = mapMoment(m)
	}
	return out
}

// MediaItemResponse contains media item data in API responses.
type MediaItemResponse struct {
	ID              string     `json:"id" doc:"Media item ID"`
	TripID          string     `json:"trip_id" doc:"Owning trip ID"`
	UploaderID      string     `json:"uploader_id" doc:"Uploading user ID"`
	Type            string     `json:"type" doc:"Media type (photo or video)"`
	ContentType     string     `json:"content_type,omitempty" doc:"MIME type"`
	BlurHash        string     `json:"blur_hash,omitempty" doc:"BlurHash placeholder"`
	Width           int        `json:"width,omitempty" doc:"Pixel width"`
	Height          int        `json:"height,omitempty" doc:"Pixel height"`
	OriginalBytes   int64      `json:"original_bytes" doc:"Original object size"`
	ThumbnailBytes  int64      `json:"thumbnail_bytes,omitempty" doc:"Thumbnail object size"`
	DurationSeconds float64    `json:"duration_seconds,omitempty" doc:"Video duration"`
	CapturedAt      *time.Time `json:"captured_at,omitempty" doc:"Capture time from EXIF"`
	Latitude        *float64   `json:"latitude,omitempty" doc:"Capture latitude"`
	Longitude       *float64   `json:"longitude,omitempty" doc:"Capture longitude"`
	CreatedAt       time.Time  `json:"created_at" doc:"Upload time"`
}

func mapMediaItem(m *domain.MediaItem) MediaItemResponse {
	return MediaItemResponse{
		ID:              m.ID,
		TripID:          m.TripID,
		UploaderID:      m.UploaderID,
		Type:            string(m.Type),
		ContentType:     m.ContentType,
		BlurHash:        m.BlurHash,
		Width:           m.Width,
		Height:          m.Height,
		OriginalBytes:   m.OriginalBytes,
		ThumbnailBytes:  m.ThumbnailBytes,
		DurationSeconds: m.DurationSeconds,
		CapturedAt:      m.CapturedAt,
		Latitude:        m.Latitude,
		Longitude:       m.Longitude,
		CreatedAt:       m.CreatedAt,
	}
}

// MemberResponse contains one trip membership row.
type MemberResponse struct {
	TripID     string    `json:"trip_id" doc:"Trip ID"`
	UserID     string    `json:"user_id" doc:"Member user ID"`
	Role       string    `json:"role" doc:"Member role"`
	GrantedVia string    `json:"granted_via" doc:"How the membership was granted"`
	InvitedBy  string    `json:"invited_by,omitempty" doc:"User who granted the role"`
	CreatedAt  time.Time `json:"created_at" doc:"When the membership was created"`
}

func mapMember(p *domain.TripPermission) MemberResponse {
	return MemberResponse{
		TripID:     p.TripID,
		UserID:     p.UserID,
		Role:       string(p.Role),
		GrantedVia: string(p.GrantedVia),
		InvitedBy:  p.InvitedBy,
		CreatedAt:  p.CreatedAt,
	}
}
