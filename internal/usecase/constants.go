package usecase

import "time"

const (
	// DefaultOracleTimeout bounds a single price read. A stalled oracle
	// fails the operation instead of holding the position lock.
	DefaultOracleTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
