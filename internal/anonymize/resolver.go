// Package anonymize replaces sensitive HL7 field values with synthetic ones
//
// Every original value is resolved through the term cache: the first time a
// value is seen a generator produces its replacement, which is stored and
// returned for every later occurrence, in this and all following runs of the
// same campaign.
package anonymize

import (
	"reflect"

	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/services"
)

// Store is the persistence the resolver needs; services.TermStore implements it
type Store interface {
	Get(key string, dst any) (bool, error)
	Put(key string, value any, overwrite bool) error
}

// Generator produces a synthetic replacement for original
// Generators only use the original for its shape, never its content
type Generator[T any] func(original T) (T, error)

// Resolver maps originals to synthetic values, reusing cached assignments
type Resolver struct {
	store  Store
	logger *lib.Logger
}

// NewResolver creates a resolver backed by store
func NewResolver(store Store, logger *lib.Logger) *Resolver {
	if logger == nil {
		logger = lib.DefaultLogger
	}
	return &Resolver{store: store, logger: logger}
}

// Store returns the backing term store
func (r *Resolver) Store() Store {
	return r.store
}

// Resolve returns the synthetic value for original
// Empty originals are returned unchanged. A cached value wins over gen, so
// the same original maps to one replacement whichever field it appears in.
func Resolve[T any](r *Resolver, original T, gen Generator[T]) (T, error) {
	if isZero(original) {
		return original, nil
	}

	key := services.CanonicalKey(original)

	var cached T
	found, err := r.store.Get(key, &cached)
	if err != nil {
		var zero T
		return zero, err
	}
	if found {
		return cached, nil
	}

	value, err := gen(original)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := r.store.Put(key, value, false); err != nil {
		var zero T
		return zero, err
	}
	r.logger.Debug("New term cached", "key_length", len(key))
	return value, nil
}

// ResolveString is Resolve for field values
func (r *Resolver) ResolveString(original string, gen Generator[string]) (string, error) {
	return Resolve(r, original, gen)
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
