// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package intmap implements the integer keyed associative map that backs the
// call-path trie children and the flat aggregation index.
package intmap // import "go.opentelemetry.io/hookprofiler/intmap"

// Map maps 64-bit keys to values of type V.
// The zero value is not usable, use New.
type Map[V any] struct {
	m map[uint64]V
}

// New returns an empty map sized for hint entries.
func New[V any](hint int) *Map[V] {
	return &Map[V]{m: make(map[uint64]V, hint)}
}

// Query returns the value stored for key.
func (im *Map[V]) Query(key uint64) (V, bool) {
	v, ok := im.m[key]
	return v, ok
}

// Set inserts or overwrites the value stored for key.
func (im *Map[V]) Set(key uint64, value V) {
	im.m[key] = value
}

// Remove deletes key and reports whether it was present.
func (im *Map[V]) Remove(key uint64) bool {
	if _, ok := im.m[key]; !ok {
		return false
	}
	delete(im.m, key)
	return true
}

// Len returns the number of stored keys.
func (im *Map[V]) Len() int {
	return len(im.m)
}

// Range calls fn for every entry. Iteration order is unspecified.
// fn must not modify the map.
func (im *Map[V]) Range(fn func(key uint64, value V)) {
	for k, v := range im.m {
		fn(k, v)
	}
}

// Clear removes all entries while keeping the allocated storage.
func (im *Map[V]) Clear() {
	clear(im.m)
}
