package metadata

import "sync/atomic"

// Lazy is a once-initialized deferred value tied to an owner entity.
// The first Get runs the resolver and installs its result with a
// compare-and-swap; a value installed through Set (at any time) wins
// over the resolver entirely. There is no lock, so a resolver that
// itself resolves other cells on the same entity cannot deadlock. The
// price is that two racing first reads may both run the resolver; the
// resolver must therefore be pure. Exactly one result is published.
type Lazy[T any] struct {
	value    atomic.Pointer[T]
	resolver func(owner any) (T, error)
}

// NewLazy creates an unresolved cell with the given resolver.
func NewLazy[T any](resolver func(owner any) (T, error)) *Lazy[T] {
	return &Lazy[T]{resolver: resolver}
}

// LazyValue creates a cell that is already resolved to v.
func LazyValue[T any](v T) *Lazy[T] {
	l := &Lazy[T]{}
	l.value.Store(&v)
	return l
}

// Get returns the cell's value, computing it from the owner on first
// use. A resolver error leaves the cell unresolved so a later Get can
// retry.
func (l *Lazy[T]) Get(owner any) (T, error) {
	if p := l.value.Load(); p != nil {
		return *p, nil
	}
	var zero T
	if l.resolver == nil {
		return zero, nil
	}
	v, err := l.resolver(owner)
	if err != nil {
		return zero, err
	}
	// Another goroutine may have installed a value while we computed;
	// the first install wins and our result is discarded.
	if l.value.CompareAndSwap(nil, &v) {
		return v, nil
	}
	return *l.value.Load(), nil
}

// MustGet is Get for cells whose resolver cannot fail (or has already
// run). A resolver error resolves to the zero value.
func (l *Lazy[T]) MustGet(owner any) T {
	v, _ := l.Get(owner)
	return v
}

// Set installs a value directly, bypassing and permanently suppressing
// the resolver. Overwriting an already-resolved cell is allowed.
func (l *Lazy[T]) Set(v T) {
	l.value.Store(&v)
}

// IsSet reports whether the cell currently holds a value.
func (l *Lazy[T]) IsSet() bool {
	return l.value.Load() != nil
}
