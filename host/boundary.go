// Package host provides the engine side of the Lattice module boundary:
// loading a compiled module, resolving its well-known exports, and speaking
// the status-code ABI. Modules can be WASM binaries executed under wazero
// or Go values linked into the host process; both present the same
// BoundaryModule surface.
package host

import (
	"context"

	sdk "github.com/lattice-dev/lattice-module-sdk"
	"github.com/lattice-dev/lattice-module-sdk/capability"
	"github.com/lattice-dev/lattice-module-sdk/module"
)

// BoundaryModule is the host's view of one loaded extension module.
type BoundaryModule interface {
	// NodeFunctionCount reports how many node-function entries the module
	// exports (the size phase of the two-phase table query).
	NodeFunctionCount(ctx context.Context) (int, error)

	// RequestSubsystem resolves the subsystem capability for a version
	// key. Unknown keys return capability.ErrVersionNotFound.
	RequestSubsystem(ctx context.Context, key uint32) (capability.Instance, error)

	// PreUnload tells the module to release every capability instance.
	// The host must not issue further requests afterwards.
	PreUnload(ctx context.Context) error
}

// inProcessModule adapts a Go-native module to the BoundaryModule surface.
// Statuses are translated back into the sentinel errors in-process callers
// expect.
type inProcessModule struct {
	mod *module.Module
}

// InProcess wraps a Go-native module so hosts (and tests) can drive it
// through the same interface as a WASM-backed module.
func InProcess(mod *module.Module) BoundaryModule {
	return &inProcessModule{mod: mod}
}

func (m *inProcessModule) NodeFunctionCount(ctx context.Context) (int, error) {
	count, status := m.mod.ExportNodeFunctions(nil)
	return count, status.Err()
}

func (m *inProcessModule) RequestSubsystem(ctx context.Context, key uint32) (capability.Instance, error) {
	inst, status := m.mod.RequestSubsystem(key)
	if !status.OK() {
		return nil, status.Err()
	}
	return inst, nil
}

func (m *inProcessModule) PreUnload(ctx context.Context) error {
	return m.mod.PreUnload().Err()
}

var _ BoundaryModule = (*inProcessModule)(nil)

// statusErr converts a raw boundary status word into an error.
func statusErr(raw uint32) error {
	return sdk.Status(raw).Err()
}
