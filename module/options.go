package module

import (
	sdk "github.com/lattice-dev/lattice-module-sdk"
	"github.com/lattice-dev/lattice-module-sdk/capability"
)

type config struct {
	services sdk.EngineServices
	nodes    []sdk.NodeFunctions
	recipes  map[uint32]capability.Recipe
}

// Option configures a Module during assembly.
type Option func(*config)

// WithEngineServices replaces the engine services handle. The engine
// supplies its own implementation when loading the module; the default
// writes to the process log.
func WithEngineServices(services sdk.EngineServices) Option {
	return func(c *config) {
		if services != nil {
			c.services = services
		}
	}
}

// WithNodeFunctions appends entries to the module's node-function table.
func WithNodeFunctions(nodes ...sdk.NodeFunctions) Option {
	return func(c *config) {
		c.nodes = append(c.nodes, nodes...)
	}
}

// WithSubsystemRecipe registers the construction recipe for one subsystem
// version key. Registering key 0 replaces the scaffold's default
// subsystem.
func WithSubsystemRecipe(key uint32, recipe capability.Recipe) Option {
	return func(c *config) {
		c.recipes[key] = recipe
	}
}
