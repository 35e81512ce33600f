package capability

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// entry tracks one version key in the registry. The goroutine that wins the
// insert race runs the recipe and publishes the result through done; every
// other caller for the same key waits on done and observes the same outcome.
type entry struct {
	done chan struct{}
	inst Instance
	err  error
}

// Registry maps version keys to lazily constructed capability instances.
//
// The registry exclusively owns every instance it creates: an instance stays
// live, at a stable identity, from its first request until TeardownAll. The
// recipe table is fixed at construction; there is no way to add recipes to a
// live registry.
//
// A failed recipe is not remembered. The failing attempt's entry is removed,
// so a later request for the same key runs the recipe again; only callers
// concurrent with the failing attempt observe its error.
type Registry struct {
	mu      sync.RWMutex
	closed  bool
	recipes map[uint32]Recipe
	entries map[uint32]*entry
}

// NewRegistry creates a registry over a fixed recipe table. The table is
// copied; mutating the argument afterwards has no effect.
func NewRegistry(recipes map[uint32]Recipe) *Registry {
	table := make(map[uint32]Recipe, len(recipes))
	for key, recipe := range recipes {
		table[key] = recipe
	}
	return &Registry{
		recipes: table,
		entries: make(map[uint32]*entry),
	}
}

// GetOrCreate returns the instance for key, constructing it on first
// request. Concurrent first requests for the same key collapse into a
// single recipe run; all callers receive the identical instance.
//
// Returns ErrVersionNotFound when no recipe exists for key, a
// ConstructionError when the recipe fails, and ErrRegistryClosed after
// TeardownAll.
func (r *Registry) GetOrCreate(key uint32) (Instance, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, ErrRegistryClosed
	}
	if e, ok := r.entries[key]; ok {
		r.mu.RUnlock()
		return e.wait()
	}
	r.mu.RUnlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if e, ok := r.entries[key]; ok {
		// Lost the insert race; wait on the winner's result.
		r.mu.Unlock()
		return e.wait()
	}
	recipe, ok := r.recipes[key]
	if !ok {
		r.mu.Unlock()
		return nil, &VersionNotFoundError{Key: key}
	}
	e := &entry{done: make(chan struct{})}
	r.entries[key] = e
	r.mu.Unlock()

	// Recipe runs outside the lock so construction for one key never
	// serializes requests for other keys.
	inst, err := recipe()
	if err != nil {
		e.err = &ConstructionError{Key: key, Cause: err}
		r.mu.Lock()
		// Forget the failed attempt; the next request retries. After
		// teardown the map has been swapped out, so this is a no-op.
		if r.entries[key] == e {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		close(e.done)
		return nil, e.err
	}
	e.inst = inst
	close(e.done)
	return inst, nil
}

func (e *entry) wait() (Instance, error) {
	<-e.done
	if e.err != nil {
		return nil, e.err
	}
	return e.inst, nil
}

// Len reports how many instances are currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// TeardownAll closes every held instance and empties the registry.
// Idempotent: the second and later calls do nothing and return nil.
//
// Instances release their own resources first (Close), then the map entry
// is dropped. In-flight constructions are waited for, so an instance that
// finishes constructing during teardown is still closed rather than leaked.
func (r *Registry) TeardownAll() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	held := r.entries
	r.entries = make(map[uint32]*entry)
	r.mu.Unlock()

	keys := make([]uint32, 0, len(held))
	for key := range held {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var errs []error
	for _, key := range keys {
		e := held[key]
		<-e.done
		if e.err != nil {
			continue
		}
		if err := e.inst.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing subsystem version %d: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
