package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	sdk "github.com/lattice-dev/lattice-module-sdk"
)

// Executor manages the lifecycle of WASM extension modules.
type Executor struct {
	runtime wazero.Runtime
	logger  *slog.Logger
	cache   wazero.CompilationCache
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	cfg := wazero.NewRuntimeConfig()
	if e.cache != nil {
		cfg = cfg.WithCompilationCache(e.cache)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	if err := e.registerEngineServices(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register engine services: %w", err)
	}

	return e, nil
}

// Load instantiates a compiled module and resolves its well-known exports.
// The returned handle owns the instance; release it with Close after
// PreUnload.
func (e *Executor) Load(ctx context.Context, name string, wasmBytes []byte) (*ModuleHandle, error) {
	mod, err := e.runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module %q: %w", name, err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	for _, symbol := range []string{
		sdk.ExportNodeFunctionsSymbol,
		sdk.RequestSubsystemSymbol,
		sdk.PreUnloadSymbol,
	} {
		if mod.ExportedFunction(symbol) == nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("module %q does not export %q", name, symbol)
		}
	}

	session := uuid.New()
	e.logger.Info("module loaded", "module", name, "session", session)

	return &ModuleHandle{
		name:       name,
		session:    session,
		mod:        mod,
		logger:     e.logger,
		subsystems: make(map[uint32]*wasmSubsystem),
	}, nil
}

// Close releases resources held by the executor, including every module it
// still has instantiated. Call PreUnload on each handle first.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithLogger routes executor and guest logging through the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCompilationCache configures the executor with a compilation cache.
func WithCompilationCache(cache wazero.CompilationCache) Option {
	return func(e *Executor) {
		e.cache = cache
	}
}
