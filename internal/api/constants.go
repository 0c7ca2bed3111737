package api

import "time"

// API limits and constants.
const (
	// DefaultMaxUploadSize is used when no upload limit is configured (25 MB).
	DefaultMaxUploadSize = 25 << 20

	// DefaultSearchLimit caps challenge search results.
	DefaultSearchLimit = 20
)

// Auth endpoint rate limit: 20 requests per minute per IP, burst 10.
const (
	authRatePerInterval = 20
	authRateInterval    = time.Minute
	authRateBurst       = 10
)

// Cache-Control header values.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheNoStore = "no-cache"
)
