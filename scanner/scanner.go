// Package scanner discovers module manifests inside an engine workspace.
// A module lives in its own folder holding exactly one manifest file:
// .latcfg for plugins, .latsys for subsystems.
package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/lattice-dev/lattice-module-sdk/manifest"
)

// Manifest file patterns, relative to the workspace root.
const (
	PluginManifestPattern    = "**/*.latcfg"
	SubsystemManifestPattern = "**/*.latsys"
)

// InstalledModule is one module found in the workspace.
type InstalledModule struct {
	Manifest     *manifest.Manifest
	Type         manifest.ModuleType
	Dir          string
	ManifestPath string
}

// Scan walks the workspace under root and returns every module it finds,
// sorted by module name. A folder holding both a plugin and a subsystem
// manifest is rejected, as is any manifest that fails schema or semantic
// validation.
func Scan(root string) ([]InstalledModule, error) {
	pluginFiles, err := glob(root, PluginManifestPattern)
	if err != nil {
		return nil, err
	}
	subsystemFiles, err := glob(root, SubsystemManifestPattern)
	if err != nil {
		return nil, err
	}

	subsystemDirs := make(map[string]struct{}, len(subsystemFiles))
	for _, path := range subsystemFiles {
		subsystemDirs[filepath.Dir(path)] = struct{}{}
	}
	for _, path := range pluginFiles {
		dir := filepath.Dir(path)
		if _, clash := subsystemDirs[dir]; clash {
			return nil, fmt.Errorf("multiple module manifest files found in %s", filepath.Join(root, dir))
		}
	}

	var modules []InstalledModule
	for _, path := range pluginFiles {
		m, err := load(root, path, manifest.TypePlugin)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	for _, path := range subsystemFiles {
		m, err := load(root, path, manifest.TypeSubsystem)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Manifest.Name.String() < modules[j].Manifest.Name.String()
	})

	slog.Debug("workspace scan complete", "root", root, "modules", len(modules))
	return modules, nil
}

func glob(root, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, fmt.Errorf("scanning %s for %s: %w", root, pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func load(root, relPath string, moduleType manifest.ModuleType) (InstalledModule, error) {
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return InstalledModule{}, fmt.Errorf("reading manifest %s: %w", fullPath, err)
	}

	if err := manifest.ValidateDocument(data); err != nil {
		return InstalledModule{}, fmt.Errorf("manifest %s: %w", fullPath, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return InstalledModule{}, fmt.Errorf("manifest %s: %w", fullPath, err)
	}

	if m.Type != moduleType {
		return InstalledModule{}, fmt.Errorf("manifest %s: file kind says %s but manifest declares %s", fullPath, moduleType, m.Type)
	}

	return InstalledModule{
		Manifest:     m,
		Type:         moduleType,
		Dir:          filepath.Dir(fullPath),
		ManifestPath: fullPath,
	}, nil
}

// InstalledVersions flattens a scan result into the name -> version map
// that manifest.Satisfies consumes.
func InstalledVersions(modules []InstalledModule) map[string]*semver.Version {
	versions := make(map[string]*semver.Version, len(modules))
	for _, m := range modules {
		versions[m.Manifest.Name.String()] = m.Manifest.Version
	}
	return versions
}
