package config

import "time"

const (
	DefaultServiceName = "querykit"

	// Database defaults.
	DefaultSQLiteDSN    = "file::memory:"
	DefaultPostgresPort = 5432

	// Timeout defaults.
	DefaultMaxConnIdleTime = 30 * time.Minute
	DefaultSlowThreshold   = 200 * time.Millisecond

	// Pagination defaults.
	DefaultPageSize         = 10
	DefaultMaxPageSize      = 100
	DefaultCursorExpiration = 24 * time.Hour

	// CursorKeySize is the AES-256 key length required for page tokens.
	CursorKeySize = 32
)
