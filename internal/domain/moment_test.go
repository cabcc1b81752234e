package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMomentRemoveMedia(t *testing.T) {
	m := &Moment{MediaIDs: []string{"media-a", "media-b", "media-c"}}

	assert.True(t, m.RemoveMedia("media-b"))
	assert.Equal(t, []string{"media-a", "media-c"}, m.MediaIDs)

	assert.False(t, m.RemoveMedia("media-b"))
	assert.Equal(t, []string{"media-a", "media-c"}, m.MediaIDs)
}

func TestMomentChronoBefore(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	a := &Moment{Date: day1}
	b := &Moment{Date: day2}
	assert.True(t, a.ChronoBefore(b))
	assert.False(t, b.ChronoBefore(a))

	// Same date falls back to creation time.
	a.Date, b.Date = day1, day1
	a.CreatedAt = day1.Add(2 * time.Hour)
	b.CreatedAt = day1.Add(3 * time.Hour)
	assert.True(t, a.ChronoBefore(b))

	// Identical timestamps fall back to id so ordering stays deterministic.
	b.CreatedAt = a.CreatedAt
	a.ID, b.ID = "moment-a", "moment-b"
	assert.True(t, a.ChronoBefore(b))
	assert.False(t, b.ChronoBefore(a))
}
