package capability

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error patterns.
// These allow both errors.Is() checks and errors.As() for detailed information.
var (
	// ErrVersionNotFound is returned when a version key has no recipe.
	// This is a recoverable outcome; hosts probe keys and expect it.
	ErrVersionNotFound = errors.New("subsystem version not found")

	// ErrConstructionFailed is returned when a recipe fails to produce an
	// instance.
	ErrConstructionFailed = errors.New("capability construction failed")

	// ErrRegistryClosed is returned for requests issued after teardown.
	ErrRegistryClosed = errors.New("capability registry torn down")
)

// VersionNotFoundError reports a request for a version key with no recipe.
type VersionNotFoundError struct {
	Key uint32
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("no recipe for subsystem version %d", e.Key)
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, capability.ErrVersionNotFound)
func (e *VersionNotFoundError) Is(target error) bool {
	return target == ErrVersionNotFound
}

// ConstructionError reports a recipe failure for a specific version key.
type ConstructionError struct {
	Key   uint32
	Cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing subsystem version %d: %v", e.Key, e.Cause)
}

// Is implements error matching for errors.Is() checks.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstructionFailed
}

// Unwrap exposes the recipe's own error for errors.Is/As chains.
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}
