package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 15 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Access code allocation
const (
	AccessCodeLength      = 8
	AccessCodeMaxAttempts = 10
)

// Retention windows for the sweeper. Records strictly older than the
// cutoff are removed; a record exactly at the boundary is retained.
const (
	AuthRequestRetention  = 30 * 24 * time.Hour
	SubscriptionRetention = 90 * 24 * time.Hour
	ActivityLogRetention  = 30 * 24 * time.Hour
	UnlinkedCodeRetention = 7 * 24 * time.Hour
)

// Indefinite bans (durationDays = 0) store a far-future end time so the
// single "is_active and ban_end_time > now" rule applies uniformly.
const IndefiniteBanDuration = 100 * 365 * 24 * time.Hour

// Default rate limiting
const DefaultRateLimitPerMin = 60
