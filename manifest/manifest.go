// Package manifest parses and validates Lattice module manifests: the YAML
// documents (.latcfg for plugins, .latsys for subsystems) that declare a
// module's identity, version, and dependencies to the engine's workspace
// tooling.
package manifest

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
)

// ModuleType distinguishes the two kinds of extension unit the engine
// loads.
type ModuleType string

const (
	// TypePlugin marks a module that exports node functions.
	TypePlugin ModuleType = "plugin"

	// TypeSubsystem marks a module that exports a versioned subsystem
	// capability.
	TypeSubsystem ModuleType = "subsystem"
)

// ErrInvalidManifest is returned when a manifest document fails validation.
var ErrInvalidManifest = errors.New("invalid module manifest")

// Document is the wire form of a module manifest, exactly as written in
// YAML. It carries no guarantees; Parse turns it into a validated Manifest.
type Document struct {
	Name         string               `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Version      string               `yaml:"version" json:"version" jsonschema:"minLength=1"`
	Type         string               `yaml:"type" json:"type" jsonschema:"enum=plugin,enum=subsystem"`
	DisplayName  string               `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Description  string               `yaml:"description,omitempty" json:"description,omitempty"`
	Engine       string               `yaml:"engine,omitempty" json:"engine,omitempty"`
	Dependencies []DependencyDocument `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// DependencyDocument is one dependency declaration in wire form.
type DependencyDocument struct {
	Name    string `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Version string `yaml:"version" json:"version" jsonschema:"minLength=1"`
}

// Manifest is a fully validated module manifest.
type Manifest struct {
	Name         ModuleName
	Version      *semver.Version
	Type         ModuleType
	DisplayName  string
	Description  string
	Engine       *semver.Constraints // nil means any engine version
	Dependencies []Dependency
}

// Dependency is a validated dependency on another module.
type Dependency struct {
	Name       ModuleName
	Constraint *semver.Constraints
}

// Parse unmarshals and validates YAML manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return FromDocument(&doc)
}

// FromDocument validates a wire document into a Manifest.
func FromDocument(doc *Document) (*Manifest, error) {
	name, err := NewModuleName(doc.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	version, err := semver.StrictNewVersion(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: version %q: %w", ErrInvalidManifest, doc.Version, err)
	}

	var moduleType ModuleType
	switch ModuleType(doc.Type) {
	case TypePlugin, TypeSubsystem:
		moduleType = ModuleType(doc.Type)
	default:
		return nil, fmt.Errorf("%w: type must be %q or %q, got %q", ErrInvalidManifest, TypePlugin, TypeSubsystem, doc.Type)
	}

	var engine *semver.Constraints
	if doc.Engine != "" {
		engine, err = semver.NewConstraint(doc.Engine)
		if err != nil {
			return nil, fmt.Errorf("%w: engine constraint %q: %w", ErrInvalidManifest, doc.Engine, err)
		}
	}

	deps := make([]Dependency, 0, len(doc.Dependencies))
	for _, d := range doc.Dependencies {
		depName, err := NewModuleName(d.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: dependency: %w", ErrInvalidManifest, err)
		}
		constraint, err := semver.NewConstraint(d.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: dependency %s: constraint %q: %w", ErrInvalidManifest, depName, d.Version, err)
		}
		deps = append(deps, Dependency{Name: depName, Constraint: constraint})
	}

	return &Manifest{
		Name:         name,
		Version:      version,
		Type:         moduleType,
		DisplayName:  doc.DisplayName,
		Description:  doc.Description,
		Engine:       engine,
		Dependencies: deps,
	}, nil
}

// Document converts the manifest back to wire form, e.g. for re-rendering.
func (m *Manifest) Document() *Document {
	doc := &Document{
		Name:        m.Name.String(),
		Version:     m.Version.String(),
		Type:        string(m.Type),
		DisplayName: m.DisplayName,
		Description: m.Description,
	}
	if m.Engine != nil {
		doc.Engine = m.Engine.String()
	}
	for _, d := range m.Dependencies {
		doc.Dependencies = append(doc.Dependencies, DependencyDocument{
			Name:    d.Name.String(),
			Version: d.Constraint.String(),
		})
	}
	return doc
}

// Marshal renders the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m.Document())
}

// CompatibleWith reports whether the manifest accepts the given engine
// version. A manifest without an engine constraint accepts any version.
func (m *Manifest) CompatibleWith(engine *semver.Version) bool {
	if m.Engine == nil {
		return true
	}
	return m.Engine.Check(engine)
}

// Satisfies checks every declared dependency against the installed module
// versions, keyed by module name. Missing and version-mismatched
// dependencies are both reported.
func (m *Manifest) Satisfies(installed map[string]*semver.Version) error {
	var errs []error
	for _, dep := range m.Dependencies {
		version, ok := installed[dep.Name.String()]
		if !ok {
			errs = append(errs, fmt.Errorf("dependency %s not installed", dep.Name))
			continue
		}
		if !dep.Constraint.Check(version) {
			errs = append(errs, fmt.Errorf("dependency %s: installed %s does not satisfy %s", dep.Name, version, dep.Constraint))
		}
	}
	return errors.Join(errs...)
}
