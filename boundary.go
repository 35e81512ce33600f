package modulesdk

import "context"

// Well-known export names. A host resolves exactly these symbols after
// loading a module; everything else in the module is private.
const (
	// ExportNodeFunctionsSymbol names the export that fills the module's
	// node-function table using the two-phase size/fill protocol.
	ExportNodeFunctionsSymbol = "lattice_export_node_functions"

	// RequestSubsystemSymbol names the export that resolves a versioned
	// subsystem capability.
	RequestSubsystemSymbol = "lattice_request_subsystem"

	// PreUnloadSymbol names the export the host calls once before it
	// unmaps the module.
	PreUnloadSymbol = "lattice_pre_unload"
)

// NodeFunctions groups the callbacks a module exports for one node kind.
// Entries are immutable once the table is built.
type NodeFunctions struct {
	// TypeName uniquely identifies the node kind within the module,
	// e.g. "lattice.utils.Checkerboard".
	TypeName string

	// OnCreated runs when the engine instantiates a node of this kind.
	OnCreated func(ctx context.Context) error

	// Execute runs the node. Inputs and outputs travel through the
	// engine's pin system, outside this SDK's scope.
	Execute func(ctx context.Context) error

	// OnDeleted runs when the engine removes a node of this kind.
	OnDeleted func(ctx context.Context) error
}

// EngineServices is the module's handle to the hosting engine. The engine
// supplies an implementation when it loads the module; modules use it for
// everything that must surface host-side, most notably logging.
type EngineServices interface {
	// LogInfo writes an informational message to the engine log.
	LogInfo(msg string)

	// LogError writes an error message to the engine log.
	LogError(msg string)
}
