package host

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-dev/lattice-module-sdk/capability"
	"github.com/lattice-dev/lattice-module-sdk/module"
)

func Test_InProcess_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mod := InProcess(module.New())

	count, err := mod.NodeFunctionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "scaffold exports no node functions")

	first, err := mod.RequestSubsystem(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := mod.RequestSubsystem(ctx, 0)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = mod.RequestSubsystem(ctx, 7)
	assert.ErrorIs(t, err, capability.ErrVersionNotFound)

	require.NoError(t, mod.PreUnload(ctx))
	require.NoError(t, mod.PreUnload(ctx), "pre-unload is idempotent")

	_, err = mod.RequestSubsystem(ctx, 0)
	assert.ErrorIs(t, err, capability.ErrRegistryClosed)
}

func Test_ProbeVersions(t *testing.T) {
	ctx := context.Background()
	mod := InProcess(module.New(
		withTestRecipe(t, 2),
	))

	supported, err := ProbeVersions(ctx, mod, []uint32{0, 1, 2, 9})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, supported)
}

// withTestRecipe registers a trivial recipe under the given key.
func withTestRecipe(t *testing.T, key uint32) module.Option {
	t.Helper()
	return module.WithSubsystemRecipe(key, func() (capability.Instance, error) {
		return nopInstance{}, nil
	})
}

type nopInstance struct{}

func (nopInstance) Close() error { return nil }

func Test_ProbeVersions_AbortsOnConstructionFailure(t *testing.T) {
	ctx := context.Background()
	mod := InProcess(module.New(
		module.WithSubsystemRecipe(3, func() (capability.Instance, error) {
			return nil, errors.New("out of scratch buffers")
		}),
	))

	_, err := ProbeVersions(ctx, mod, []uint32{0, 3})
	assert.ErrorIs(t, err, capability.ErrConstructionFailed)
}

func Test_EngineLog_CarriesModuleIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	services := NewEngineLog(logger, "my-subsystem")
	services.LogInfo("Hello Lattice!")
	services.LogError("scratch buffer low")

	out := buf.String()
	assert.Contains(t, out, "Hello Lattice!")
	assert.Contains(t, out, "module=my-subsystem")
	assert.Contains(t, out, services.Session().String())
	assert.Contains(t, out, "level=ERROR")
}

func Test_EngineLog_DrivesModuleAnnounce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	mod := module.New(module.WithEngineServices(NewEngineLog(logger, "my-subsystem")))
	inst, status := mod.RequestSubsystem(module.DefaultSubsystemVersion)
	require.True(t, status.OK())

	inst.(capability.Subsystem).Announce("Hello Lattice!")
	assert.Contains(t, buf.String(), "Hello Lattice!")
	assert.Contains(t, buf.String(), "module=my-subsystem")
}

func Test_UnpackU64(t *testing.T) {
	hi, lo := unpackU64(0x0000_0002_0000_002a)
	assert.Equal(t, uint32(2), hi)
	assert.Equal(t, uint32(42), lo)

	hi, lo = unpackU64(0)
	assert.Zero(t, hi)
	assert.Zero(t, lo)
}

func Test_ParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func Test_Executor_StartsAndCloses(t *testing.T) {
	ctx := context.Background()
	exec, err := NewExecutor(ctx)
	require.NoError(t, err)
	require.NoError(t, exec.Close(ctx))
}

func Test_Executor_RejectsGarbageModule(t *testing.T) {
	ctx := context.Background()
	exec, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer exec.Close(ctx)

	_, err = exec.Load(ctx, "garbage", []byte("not wasm"))
	assert.Error(t, err)
}
