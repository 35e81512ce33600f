// Package workspace maintains the engine workspace's module index: the
// pinned record of which modules are installed, at which versions, and
// where their manifests live. The index makes loads reproducible and spares
// the engine a full rescan on every start.
package workspace

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/lattice-dev/lattice-module-sdk/manifest"
	"github.com/lattice-dev/lattice-module-sdk/scanner"
)

// Index is an aggregate of every installed module's pin.
//
// Invariants:
// - Each pin must carry a valid semver version
// - Generated timestamp must be set once the index holds pins
type Index struct {
	Generated time.Time
	Modules   map[string]ModulePin
	Version   int
}

// ModulePin is a value object pinning one installed module.
// Immutable after creation.
type ModulePin struct {
	Version      string
	Type         manifest.ModuleType
	ManifestPath string
}

// NewIndex creates an empty index with the current format version.
func NewIndex() *Index {
	return &Index{
		Version:   1,
		Generated: time.Now().UTC(),
		Modules:   make(map[string]ModulePin),
	}
}

// Add records a module pin.
// Returns an error if the pinned version is not valid semver.
func (i *Index) Add(name string, pin ModulePin) error {
	if _, err := semver.StrictNewVersion(pin.Version); err != nil {
		return fmt.Errorf("module %q: pinned version %q: %w", name, pin.Version, err)
	}
	if i.Modules == nil {
		i.Modules = make(map[string]ModulePin)
	}
	i.Modules[name] = pin
	return nil
}

// Get retrieves a module pin by name.
// Returns nil if not found.
func (i *Index) Get(name string) *ModulePin {
	if i.Modules == nil {
		return nil
	}
	if pin, ok := i.Modules[name]; ok {
		return &pin
	}
	return nil
}

// Count returns the number of pinned modules.
func (i *Index) Count() int {
	return len(i.Modules)
}

// Validate checks index invariants.
func (i *Index) Validate() error {
	if i.Count() > 0 && i.Generated.IsZero() {
		return fmt.Errorf("generated timestamp is required")
	}
	for name, pin := range i.Modules {
		if _, err := semver.StrictNewVersion(pin.Version); err != nil {
			return fmt.Errorf("module %q: pinned version %q: %w", name, pin.Version, err)
		}
		switch pin.Type {
		case manifest.TypePlugin, manifest.TypeSubsystem:
		default:
			return fmt.Errorf("module %q: unknown type %q", name, pin.Type)
		}
	}
	return nil
}

// InstalledVersions flattens the index into the name -> version map that
// manifest.Satisfies consumes.
func (i *Index) InstalledVersions() map[string]*semver.Version {
	versions := make(map[string]*semver.Version, len(i.Modules))
	for name, pin := range i.Modules {
		if v, err := semver.StrictNewVersion(pin.Version); err == nil {
			versions[name] = v
		}
	}
	return versions
}

// FromScan builds a fresh index from a workspace scan.
func FromScan(modules []scanner.InstalledModule) *Index {
	index := NewIndex()
	for _, m := range modules {
		index.Modules[m.Manifest.Name.String()] = ModulePin{
			Version:      m.Manifest.Version.String(),
			Type:         m.Type,
			ManifestPath: m.ManifestPath,
		}
	}
	return index
}
