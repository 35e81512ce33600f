package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/lattice-dev/lattice-module-sdk/capability"
)

// ProbeVersions asks a module which of the candidate subsystem versions it
// supports. "Not found" is the expected answer for unsupported keys and is
// not an error; anything else (a failed construction, a contract breach)
// aborts the probe.
//
// Probing constructs the instances it finds; they stay cached in the
// module's registry until pre-unload, so a later request is a cache hit.
func ProbeVersions(ctx context.Context, mod BoundaryModule, candidates []uint32) ([]uint32, error) {
	var supported []uint32
	for _, key := range candidates {
		_, err := mod.RequestSubsystem(ctx, key)
		switch {
		case err == nil:
			supported = append(supported, key)
		case errors.Is(err, capability.ErrVersionNotFound):
			continue
		default:
			return nil, fmt.Errorf("probing version %d: %w", key, err)
		}
	}
	return supported, nil
}
