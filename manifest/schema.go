package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaName = "module-manifest.schema.json"

// Schema returns the JSON Schema describing the manifest wire format,
// generated from the Document struct.
func Schema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	reflector.ExpandedStruct = true

	schema := reflector.Reflect(&Document{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated schema: %w", err)
	}
	return data, nil
}

var (
	compileOnce    sync.Once
	compiledSchema *sjsonschema.Schema
	compileErr     error
)

func compiled() (*sjsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := Schema()
		if err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = sjsonschema.CompileString(schemaName, string(data))
	})
	return compiledSchema, compileErr
}

// ValidateDocument checks raw YAML manifest bytes against the manifest
// schema before any parsing. This catches structural mistakes (missing
// fields, wrong types) with schema-level error messages; Parse still
// applies the stricter semantic checks afterwards.
func ValidateDocument(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return fmt.Errorf("compiling manifest schema: %w", err)
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	var doc any
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return nil
}
