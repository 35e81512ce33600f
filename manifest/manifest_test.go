package manifest

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
name: my-subsystem
version: 1.2.0
type: subsystem
display_name: My Subsystem
description: Scaffolded subsystem module.
engine: ">=1.4.0"
dependencies:
  - name: lattice.utils
    version: ">=0.3.0 <1.0.0"
`

func Test_Parse_ValidManifest(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "my-subsystem", m.Name.String())
	assert.Equal(t, "1.2.0", m.Version.String())
	assert.Equal(t, TypeSubsystem, m.Type)
	assert.Equal(t, "My Subsystem", m.DisplayName)
	require.Len(t, m.Dependencies, 1)
	assert.Equal(t, "lattice.utils", m.Dependencies[0].Name.String())
}

func Test_Parse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty name", "name: \"\"\nversion: 1.0.0\ntype: plugin"},
		{"bad version", "name: m\nversion: not-semver\ntype: plugin"},
		{"loose version", "name: m\nversion: v1.0\ntype: plugin"},
		{"bad type", "name: m\nversion: 1.0.0\ntype: gadget"},
		{"bad engine constraint", "name: m\nversion: 1.0.0\ntype: plugin\nengine: \"%%\""},
		{"bad dependency name", "name: m\nversion: 1.0.0\ntype: plugin\ndependencies:\n  - name: \"a/b\"\n    version: \">=1.0.0\""},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func Test_Manifest_RoundTrip(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	data, err := m.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, m.Name.Equals(again.Name))
	assert.Equal(t, m.Version.String(), again.Version.String())
	assert.Equal(t, m.Type, again.Type)
	assert.Len(t, again.Dependencies, len(m.Dependencies))
}

func Test_CompatibleWith(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	assert.True(t, m.CompatibleWith(semver.MustParse("1.4.0")))
	assert.True(t, m.CompatibleWith(semver.MustParse("2.0.0")))
	assert.False(t, m.CompatibleWith(semver.MustParse("1.3.9")))

	unconstrained, err := Parse([]byte("name: m\nversion: 1.0.0\ntype: plugin"))
	require.NoError(t, err)
	assert.True(t, unconstrained.CompatibleWith(semver.MustParse("0.0.1")))
}

func Test_Satisfies(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	assert.NoError(t, m.Satisfies(map[string]*semver.Version{
		"lattice.utils": semver.MustParse("0.4.2"),
	}))

	err = m.Satisfies(map[string]*semver.Version{
		"lattice.utils": semver.MustParse("1.1.0"),
	})
	assert.ErrorContains(t, err, "does not satisfy")

	err = m.Satisfies(nil)
	assert.ErrorContains(t, err, "not installed")
}

func Test_NewModuleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "my-module", "my-module", false},
		{"namespaced", "lattice.utils", "lattice.utils", false},
		{"trims whitespace", "  m  ", "m", false},
		{"empty", "", "", true},
		{"path separator", "a/b", "", true},
		{"traversal", "a..b", "", true},
		{"invalid char", "a b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mn, err := NewModuleName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, mn.String())
			}
		})
	}
}

func Test_MustNewModuleName_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewModuleName("")
	})
}
