package domain

import "time"

// Trip is the aggregate root of the journal: it owns moments, media items,
// and the permission records that grant other users access.
type Trip struct {
	Syncable
	OwnerID      string     `json:"owner_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	CoverMediaID string     `json:"cover_media_id,omitempty"`

	// Share link state. Slug and code are issued once and kept through
	// disable/re-enable cycles so existing links keep resolving.
	ShareSlug        string `json:"share_slug,omitempty"`
	ShareCode        string `json:"share_code,omitempty"`
	ShareLinkEnabled bool   `json:"share_link_enabled"`
}

// HasShareLink reports whether a slug/code pair has been issued for the trip.
func (t *Trip) HasShareLink() bool {
	return t.ShareSlug != "" && t.ShareCode != ""
}

// IsJoinable reports whether a user can currently redeem the trip's share link.
func (t *Trip) IsJoinable() bool {
	return t.HasShareLink() && t.ShareLinkEnabled
}
