// Package modulesdk defines the contract between the Lattice engine and a
// dynamically loaded extension module: the boundary status codes, the
// well-known export names a host resolves after loading, and the shape of
// the node-function table a module exports.
package modulesdk

import (
	"errors"

	"github.com/lattice-dev/lattice-module-sdk/capability"
)

// Status is the closed set of result codes returned by every boundary
// function. Nothing unwinds across the module boundary; failures are
// reported as a Status and interpreted by the caller.
type Status uint32

const (
	// StatusSuccess indicates the operation completed.
	StatusSuccess Status = iota

	// StatusFailed is the generic failure code for errors that do not fit
	// a more specific status.
	StatusFailed

	// StatusNotFound indicates the requested version key has no recipe.
	// Recoverable: hosts probe version keys and expect this.
	StatusNotFound

	// StatusResourceExhausted indicates a capability instance could not be
	// constructed. Distinct from StatusNotFound so a host can decide
	// between probing further versions and aborting the load.
	StatusResourceExhausted

	// StatusInvalidCall indicates the caller violated the boundary
	// contract, e.g. requesting a capability after pre-unload.
	StatusInvalidCall
)

// String returns the symbolic name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	case StatusInvalidCall:
		return "INVALID_CALL"
	default:
		return "UNKNOWN"
	}
}

// OK reports whether the status is StatusSuccess.
func (s Status) OK() bool {
	return s == StatusSuccess
}

// Err converts a status into a sentinel error, or nil for StatusSuccess.
// The mapping is the inverse of StatusFromError.
func (s Status) Err() error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusNotFound:
		return capability.ErrVersionNotFound
	case StatusResourceExhausted:
		return capability.ErrConstructionFailed
	case StatusInvalidCall:
		return capability.ErrRegistryClosed
	default:
		return errors.New("module boundary call failed")
	}
}

// StatusFromError maps an in-process error onto the boundary status set.
// A nil error maps to StatusSuccess.
func StatusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, capability.ErrVersionNotFound):
		return StatusNotFound
	case errors.Is(err, capability.ErrConstructionFailed):
		return StatusResourceExhausted
	case errors.Is(err, capability.ErrRegistryClosed):
		return StatusInvalidCall
	default:
		return StatusFailed
	}
}
