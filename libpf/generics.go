// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libpf // import "go.opentelemetry.io/hookprofiler/libpf"

import (
	"cmp"
	"slices"
)

// Void allocates no memory when used as a map value.
type Void struct{}

// Set is a convenience alias for a map with a `Void` key.
type Set[T comparable] map[T]Void

// ToSlice converts the Set keys into a slice.
func (s Set[T]) ToSlice() []T {
	slice := make([]T, 0, len(s))
	for item := range s {
		slice = append(slice, item)
	}
	return slice
}

// SortedKeys returns the Set keys in ascending order.
func SortedKeys[T cmp.Ordered](s Set[T]) []T {
	keys := s.ToSlice()
	slices.Sort(keys)
	return keys
}
