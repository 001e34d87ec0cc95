// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libpf // import "go.opentelemetry.io/hookprofiler/libpf"

import "fmt"

// Identity is a stable key identifying a callable: the prototype address for
// interpreted functions, the entry point for native ones.
type Identity uint64

// NoIdentity is the zero Identity. The call-path root carries it.
const NoIdentity Identity = 0

// Hash32 returns a 32 bits hash of the input.
// It's main purpose is to be used as key for caching.
func (id Identity) Hash32() uint32 {
	return uint32(id.Hash())
}

// Hash returns a 64 bits hash of the input using the Murmur3 finalizer.
// Via https://lemire.me/blog/2018/08/15/fast-strongly-universal-64-bit-hashing-everywhere/
func (id Identity) Hash() uint64 {
	x := uint64(id)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// String returns the identity formatted as a hexadecimal address.
func (id Identity) String() string {
	return fmt.Sprintf("0x%x", uint64(id))
}
