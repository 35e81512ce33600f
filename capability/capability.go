// Package capability implements the versioned capability registry an
// extension module keeps behind its boundary: version key in, long-lived
// capability instance out. Instances are constructed lazily, cached for the
// lifetime of the module, and released together when the host announces the
// module is about to be unloaded.
package capability

// Instance is a live capability object owned by the registry. An instance
// releases its own resources in Close; the registry calls Close exactly
// once per instance, during teardown.
type Instance interface {
	Close() error
}

// Recipe constructs the capability instance for one version key. A recipe
// runs at most once per key per module lifetime unless it fails, in which
// case a later request for the same key runs it again (see Registry).
type Recipe func() (Instance, error)

// Subsystem is the capability shape a freshly scaffolded module exports
// under version key 0. The host holds it as a polymorphic handle; the
// module decides what each method does.
type Subsystem interface {
	Instance

	// Combine folds two numeric values into one.
	Combine(a, b int64) int64

	// Announce writes a message through the hosting engine's log.
	Announce(msg string)
}
