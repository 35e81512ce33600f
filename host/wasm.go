package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"

	sdk "github.com/lattice-dev/lattice-module-sdk"
	"github.com/lattice-dev/lattice-module-sdk/capability"
)

// WASM flavor of the boundary ABI. Every boundary export returns its
// status in the high 32 bits of a packed u64, with the operation's value
// in the low 32 bits; pre-unload returns a bare status word.
//
//	lattice_export_node_functions(write_table: u32) -> u64  status | count
//	lattice_request_subsystem(version: u32)         -> u64  status | instance handle
//	lattice_pre_unload()                            -> u32  status
//
// Subsystem instance handles are opaque u32s the guest mints; the host
// passes them back when invoking capability methods:
//
//	lattice_subsystem_combine(handle: u32, a: i64, b: i64) -> i64
//	lattice_subsystem_announce(handle: u32, ptr: u32, len: u32)
//
// Announce payloads are written into guest memory obtained from
// lattice_allocate(size: u32) -> u32.

// ModuleHandle is one instantiated WASM module.
type ModuleHandle struct {
	name    string
	session uuid.UUID
	mod     api.Module
	logger  *slog.Logger

	mu         sync.Mutex
	subsystems map[uint32]*wasmSubsystem
}

var _ BoundaryModule = (*ModuleHandle)(nil)

// Name returns the module name the handle was loaded under.
func (h *ModuleHandle) Name() string {
	return h.name
}

// Session returns the load-session identifier used in engine logs.
func (h *ModuleHandle) Session() uuid.UUID {
	return h.session
}

// NodeFunctionCount runs the size phase of the two-phase table query.
func (h *ModuleHandle) NodeFunctionCount(ctx context.Context) (int, error) {
	packed, err := h.call1(ctx, sdk.ExportNodeFunctionsSymbol, 0)
	if err != nil {
		return 0, err
	}
	status, count := unpackU64(packed)
	if err := statusErr(status); err != nil {
		return 0, err
	}
	return int(count), nil
}

// RequestSubsystem resolves a versioned subsystem capability. The guest
// guarantees singleton-per-version; the host mirrors that by caching one
// Go handle per instance handle it receives.
func (h *ModuleHandle) RequestSubsystem(ctx context.Context, key uint32) (capability.Instance, error) {
	packed, err := h.call1(ctx, sdk.RequestSubsystemSymbol, uint64(key))
	if err != nil {
		return nil, err
	}
	status, instanceHandle := unpackU64(packed)
	if err := statusErr(status); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subsystems[instanceHandle]; ok {
		return sub, nil
	}
	sub := &wasmSubsystem{owner: h, handle: instanceHandle}
	h.subsystems[instanceHandle] = sub
	return sub, nil
}

// PreUnload triggers registry teardown inside the guest and invalidates
// every subsystem handle the host is holding.
func (h *ModuleHandle) PreUnload(ctx context.Context) error {
	fn := h.mod.ExportedFunction(sdk.PreUnloadSymbol)
	if fn == nil {
		return fmt.Errorf("module %q does not export %q", h.name, sdk.PreUnloadSymbol)
	}
	res, err := fn.Call(ctx)
	if err != nil {
		return fmt.Errorf("pre-unload of %q failed: %w", h.name, err)
	}

	h.mu.Lock()
	h.subsystems = make(map[uint32]*wasmSubsystem)
	h.mu.Unlock()

	return statusErr(uint32(res[0]))
}

// Close releases the module instance. Call PreUnload first; the module
// never unmaps itself.
func (h *ModuleHandle) Close(ctx context.Context) error {
	h.logger.Info("module unloaded", "module", h.name, "session", h.session)
	return h.mod.Close(ctx)
}

func (h *ModuleHandle) call1(ctx context.Context, symbol string, arg uint64) (uint64, error) {
	fn := h.mod.ExportedFunction(symbol)
	if fn == nil {
		return 0, fmt.Errorf("module %q does not export %q", h.name, symbol)
	}
	res, err := fn.Call(ctx, arg)
	if err != nil {
		return 0, fmt.Errorf("call %s on %q failed: %w", symbol, h.name, err)
	}
	return res[0], nil
}

// wasmSubsystem is the host-side handle for one guest capability instance.
// The guest's registry owns the instance; Close on the host side is a
// no-op because teardown happens wholesale through PreUnload.
type wasmSubsystem struct {
	owner  *ModuleHandle
	handle uint32
}

var _ capability.Subsystem = (*wasmSubsystem)(nil)

func (s *wasmSubsystem) Combine(a, b int64) int64 {
	fn := s.owner.mod.ExportedFunction("lattice_subsystem_combine")
	if fn == nil {
		s.owner.logger.Error("guest missing lattice_subsystem_combine", "module", s.owner.name)
		return 0
	}
	res, err := fn.Call(context.Background(), uint64(s.handle), api.EncodeI64(a), api.EncodeI64(b))
	if err != nil {
		s.owner.logger.Error("combine failed", "module", s.owner.name, "error", err)
		return 0
	}
	return int64(res[0])
}

func (s *wasmSubsystem) Announce(msg string) {
	ctx := context.Background()
	payload := []byte(msg)

	allocate := s.owner.mod.ExportedFunction("lattice_allocate")
	announce := s.owner.mod.ExportedFunction("lattice_subsystem_announce")
	if allocate == nil || announce == nil {
		s.owner.logger.Error("guest missing announce exports", "module", s.owner.name)
		return
	}

	res, err := allocate.Call(ctx, uint64(len(payload)))
	if err != nil {
		s.owner.logger.Error("allocate failed", "module", s.owner.name, "error", err)
		return
	}
	ptr := uint32(res[0])
	if !s.owner.mod.Memory().Write(ptr, payload) {
		s.owner.logger.Error("failed to write announce payload", "module", s.owner.name)
		return
	}

	if _, err := announce.Call(ctx, uint64(s.handle), uint64(ptr), uint64(len(payload))); err != nil {
		s.owner.logger.Error("announce failed", "module", s.owner.name, "error", err)
	}
}

func (s *wasmSubsystem) Close() error {
	return nil
}

// unpackU64 splits a packed boundary word into its high and low halves.
func unpackU64(packed uint64) (hi, lo uint32) {
	//nolint:gosec // boundary words are always 32-bit halves
	return uint32(packed >> 32), uint32(packed)
}
