package manifest

import (
	"fmt"
	"strings"
)

// ModuleName represents a validated module identifier.
// Enforces non-empty, trimmed module names.
type ModuleName struct {
	value string
}

// NewModuleName creates a ModuleName with strict validation.
// A valid module name must:
// - Be non-empty
// - contain only alphanumeric characters, underscores, hyphens, and dots
// - NOT contain paths or special characters
// - Be at most 64 characters long
func NewModuleName(name string) (ModuleName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ModuleName{}, fmt.Errorf("module name cannot be empty")
	}

	if len(name) > 64 {
		return ModuleName{}, fmt.Errorf("module name too long (max 64 chars)")
	}

	// Security check: Path separators
	if strings.ContainsAny(name, `/\`) {
		return ModuleName{}, fmt.Errorf("module name cannot contain path separators")
	}

	// Security check: Directory traversal
	if strings.Contains(name, "..") {
		return ModuleName{}, fmt.Errorf("module name cannot contain parent directory references")
	}

	for _, ch := range name {
		if !isValidModuleChar(ch) {
			return ModuleName{}, fmt.Errorf("invalid module name %q: must contain only alphanumeric characters, underscores, hyphens, and dots", name)
		}
	}

	return ModuleName{value: name}, nil
}

// Dots are allowed so engine-style namespaces ("lattice.utils") remain
// valid identifiers; ".." is rejected above.
func isValidModuleChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' ||
		r == '-' ||
		r == '.'
}

// MustNewModuleName creates a ModuleName or panics
func MustNewModuleName(name string) ModuleName {
	mn, err := NewModuleName(name)
	if err != nil {
		panic(err)
	}
	return mn
}

// String returns the string representation
func (m ModuleName) String() string {
	return m.value
}

// IsEmpty returns true if this is the zero value
func (m ModuleName) IsEmpty() bool {
	return m.value == ""
}

// Equals checks if two module names are equal
func (m ModuleName) Equals(other ModuleName) bool {
	return m.value == other.value
}
