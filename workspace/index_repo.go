package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/lattice-dev/lattice-module-sdk/manifest"
)

// IndexFileName is the index's location relative to the workspace root.
const IndexFileName = ".lattice/index.yaml"

// FileIndexRepository persists the module index on the local filesystem.
type FileIndexRepository struct{}

// NewFileIndexRepository creates a new FileIndexRepository.
func NewFileIndexRepository() *FileIndexRepository {
	return &FileIndexRepository{}
}

// indexDoc is the YAML wire form of the index.
type indexDoc struct {
	Version   int                     `yaml:"version"`
	Generated time.Time               `yaml:"generated"`
	Modules   map[string]modulePinDoc `yaml:"modules,omitempty"`
}

type modulePinDoc struct {
	Version      string `yaml:"version"`
	Type         string `yaml:"type"`
	ManifestPath string `yaml:"manifest_path"`
}

// Load reads the index from the given path.
// A missing index is not an error; Load returns nil, nil.
func (r *FileIndexRepository) Load(ctx context.Context, path string) (*Index, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	// os.OpenRoot keeps reads inside the workspace even if the path was
	// assembled from untrusted manifest content.
	root, err := os.OpenRoot(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open directory %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.Open(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open index %q: %w", base, err)
	}
	defer func() { _ = file.Close() }()

	var doc indexDoc
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding index YAML: %w", err)
	}

	index := &Index{
		Version:   doc.Version,
		Generated: doc.Generated,
		Modules:   make(map[string]ModulePin, len(doc.Modules)),
	}
	for name, pin := range doc.Modules {
		index.Modules[name] = ModulePin{
			Version:      pin.Version,
			Type:         manifest.ModuleType(pin.Type),
			ManifestPath: pin.ManifestPath,
		}
	}

	if err := index.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index: %w", err)
	}
	return index, nil
}

// Save writes the index to the given path, creating the directory if
// needed.
func (r *FileIndexRepository) Save(ctx context.Context, index *Index, path string) error {
	if err := index.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid index: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("opening directory for write %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	doc := indexDoc{
		Version:   index.Version,
		Generated: index.Generated,
		Modules:   make(map[string]modulePinDoc, len(index.Modules)),
	}
	for name, pin := range index.Modules {
		doc.Modules[name] = modulePinDoc{
			Version:      pin.Version,
			Type:         string(pin.Type),
			ManifestPath: pin.ManifestPath,
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding index YAML: %w", err)
	}

	base := filepath.Base(path)
	file, err := root.OpenFile(base, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating index %q: %w", base, err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("writing index %q: %w", base, err)
	}
	return nil
}
