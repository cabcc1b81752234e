package api

// DefaultMaxUploadBytes caps a single media upload body when the config
// does not override it (256 MiB).
const DefaultMaxUploadBytes = 256 << 20

// Cache-Control header values.
const (
	CacheOneWeek  = "public, max-age=604800"
	CacheOneDay   = "public, max-age=86400"
	CacheNoStore  = "no-cache"
	CacheImmutable = "public, max-age=31536000, immutable"
)
