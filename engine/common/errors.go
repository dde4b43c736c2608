package common

import "github.com/pkg/errors"

// Error kinds shared by registry, routing and instances
//
// Use errors.Cause to get the kind of a wrapped error
var (
	// ErrNotFound means unknown area, template, instance or occupant
	ErrNotFound = errors.New("not found")
	// ErrConflictingOwnership means an area is declared by two live servers
	ErrConflictingOwnership = errors.New("conflicting ownership")
	// ErrRetryableUnavailable means the area is transiently unowned, retry later
	ErrRetryableUnavailable = errors.New("retryable unavailable")
	// ErrCapacityExceeded means the instance host reached its instance ceiling
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrInstanceFull means the instance reached its occupant capacity
	ErrInstanceFull = errors.New("instance full")
	// ErrUnauthenticated means the session token is invalid
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrRejected means the player is not admitted in current state
	ErrRejected = errors.New("rejected")
)

// IsRetryable returns if the error is a transient ownership gap
func IsRetryable(err error) bool {
	return errors.Cause(err) == ErrRetryableUnavailable
}
