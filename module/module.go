// Package module implements the extension-module side of the Lattice
// boundary: the three operations a host invokes after resolving the
// module's well-known exports, backed by a versioned capability registry.
package module

import (
	sdk "github.com/lattice-dev/lattice-module-sdk"
	"github.com/lattice-dev/lattice-module-sdk/capability"
)

// Module is one loadable extension unit. It owns the capability registry
// for its whole lifetime: created when the module is assembled, torn down
// by PreUnload. The zero value is not usable; construct with New.
type Module struct {
	services sdk.EngineServices
	nodes    []sdk.NodeFunctions
	registry *capability.Registry
}

// New assembles a module. A freshly scaffolded module exports no node
// functions and a single subsystem recipe under version key 0; options add
// node functions, replace the engine services handle, or extend the recipe
// table.
func New(opts ...Option) *Module {
	cfg := &config{
		services: newLogServices(nil),
		recipes:  make(map[uint32]capability.Recipe),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if _, ok := cfg.recipes[DefaultSubsystemVersion]; !ok {
		services := cfg.services
		cfg.recipes[DefaultSubsystemVersion] = func() (capability.Instance, error) {
			return newDefaultSubsystem(services), nil
		}
	}

	return &Module{
		services: cfg.services,
		nodes:    cfg.nodes,
		registry: capability.NewRegistry(cfg.recipes),
	}
}

// ExportNodeFunctions fills table with the module's node-function entries
// using the two-phase size/fill protocol: the returned count is always the
// number of entries the module exports, and a nil table means the caller
// only wants the count. A non-nil table shorter than the count is a
// contract violation and nothing is written.
func (m *Module) ExportNodeFunctions(table []sdk.NodeFunctions) (int, sdk.Status) {
	count := len(m.nodes)
	if table == nil {
		return count, sdk.StatusSuccess
	}
	if len(table) < count {
		return count, sdk.StatusInvalidCall
	}
	copy(table, m.nodes)
	return count, sdk.StatusSuccess
}

// RequestSubsystem resolves the subsystem capability for the given version
// key, constructing it on first request. StatusNotFound reports an
// unrecognized key; StatusResourceExhausted reports a failed construction.
func (m *Module) RequestSubsystem(key uint32) (capability.Instance, sdk.Status) {
	inst, err := m.registry.GetOrCreate(key)
	if err != nil {
		return nil, sdk.StatusFromError(err)
	}
	return inst, sdk.StatusSuccess
}

// PreUnload releases every capability instance the module has handed out.
// The host calls it once before unmapping the module; calling it again, or
// on a module that never served a request, is a harmless no-op.
func (m *Module) PreUnload() sdk.Status {
	if err := m.registry.TeardownAll(); err != nil {
		m.services.LogError("pre-unload: " + err.Error())
		return sdk.StatusFailed
	}
	return sdk.StatusSuccess
}
