package contracts

import "errors"

// Sentinel errors shared across the persistence boundary.
// ⭐ SSOT: 공용 에러는 여기서만 정의
var (
	// ErrNotFound: the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey: an insert collided with an existing unique key
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrLockTimeout: the per-fingerprint lock could not be acquired
	// within its bounded wait. A hard error: the caller retries on the
	// next scheduled tick instead of treating it as "no signal".
	ErrLockTimeout = errors.New("signal lock timeout")
)
