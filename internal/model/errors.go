package model

import "errors"

// ── Sentinel errors — compare with errors.Is() ──────────────────────

var (
	// ErrDuplicateId is returned when a user or market id already exists.
	ErrDuplicateId = errors.New("id already exists")

	// ErrNotFound is returned when a user, market, or bet lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount is returned for a non-positive deposit/withdrawal, an
	// overdraft, a non-positive stake, or odds at or below 100.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidState is returned when an operation is attempted against a
	// market that is not in the required lifecycle state.
	ErrInvalidState = errors.New("invalid market state")

	// ErrAlreadyRunning is returned by start() when the exchange is already
	// running and was not stopped or cleaned first.
	ErrAlreadyRunning = errors.New("exchange already running")
)

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidState reports whether err is (or wraps) ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsInvalidAmount reports whether err is (or wraps) ErrInvalidAmount.
func IsInvalidAmount(err error) bool {
	return errors.Is(err, ErrInvalidAmount)
}
