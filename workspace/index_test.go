package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-dev/lattice-module-sdk/manifest"
	"github.com/lattice-dev/lattice-module-sdk/scanner"
)

func Test_Index_Add(t *testing.T) {
	index := NewIndex()

	err := index.Add("my-subsystem", ModulePin{
		Version:      "1.0.0",
		Type:         manifest.TypeSubsystem,
		ManifestPath: "/ws/subsystems/my-subsystem/my-subsystem.latsys",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, index.Count())

	pin := index.Get("my-subsystem")
	require.NotNil(t, pin)
	assert.Equal(t, "1.0.0", pin.Version)

	assert.Nil(t, index.Get("missing"))
}

func Test_Index_Add_RejectsBadVersion(t *testing.T) {
	index := NewIndex()
	err := index.Add("m", ModulePin{Version: "v1", Type: manifest.TypePlugin})
	assert.Error(t, err)
	assert.Equal(t, 0, index.Count())
}

func Test_Index_Validate(t *testing.T) {
	index := NewIndex()
	require.NoError(t, index.Add("m", ModulePin{Version: "1.0.0", Type: manifest.TypePlugin}))
	assert.NoError(t, index.Validate())

	index.Modules["bad"] = ModulePin{Version: "1.0.0", Type: "gadget"}
	assert.ErrorContains(t, index.Validate(), "unknown type")

	stale := &Index{Modules: map[string]ModulePin{"m": {Version: "1.0.0", Type: manifest.TypePlugin}}}
	assert.ErrorContains(t, stale.Validate(), "generated timestamp")
}

func Test_Index_InstalledVersions(t *testing.T) {
	index := NewIndex()
	require.NoError(t, index.Add("a", ModulePin{Version: "1.2.3", Type: manifest.TypePlugin}))
	require.NoError(t, index.Add("b", ModulePin{Version: "0.4.0", Type: manifest.TypeSubsystem}))

	versions := index.InstalledVersions()
	require.Len(t, versions, 2)
	assert.Equal(t, "1.2.3", versions["a"].String())
}

func Test_FromScan(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "subsystems", "my-subsystem")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "my-subsystem.latsys"),
		[]byte("name: my-subsystem\nversion: 1.0.0\ntype: subsystem\n"),
		0o644,
	))

	modules, err := scanner.Scan(root)
	require.NoError(t, err)

	index := FromScan(modules)
	require.NoError(t, index.Validate())
	pin := index.Get("my-subsystem")
	require.NotNil(t, pin)
	assert.Equal(t, manifest.TypeSubsystem, pin.Type)
	assert.FileExists(t, pin.ManifestPath)
}

func Test_FileIndexRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFileIndexRepository()
	path := filepath.Join(t.TempDir(), IndexFileName)

	index := NewIndex()
	index.Generated = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, index.Add("my-plugin", ModulePin{
		Version:      "0.2.1",
		Type:         manifest.TypePlugin,
		ManifestPath: "/ws/plugins/my-plugin/my-plugin.latcfg",
	}))

	require.NoError(t, repo.Save(ctx, index, path))

	loaded, err := repo.Load(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, index.Version, loaded.Version)
	assert.True(t, index.Generated.Equal(loaded.Generated))
	require.NotNil(t, loaded.Get("my-plugin"))
	assert.Equal(t, "0.2.1", loaded.Get("my-plugin").Version)
}

func Test_FileIndexRepository_MissingIsNil(t *testing.T) {
	repo := NewFileIndexRepository()
	loaded, err := repo.Load(context.Background(), filepath.Join(t.TempDir(), "absent", "index.yaml"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func Test_FileIndexRepository_RefusesInvalid(t *testing.T) {
	repo := NewFileIndexRepository()
	bad := &Index{Modules: map[string]ModulePin{"m": {Version: "nope", Type: manifest.TypePlugin}}}
	err := repo.Save(context.Background(), bad, filepath.Join(t.TempDir(), "index.yaml"))
	assert.ErrorContains(t, err, "refusing to save")
}
