// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package times provides the monotonic timestamps the profiler attributes
// costs with.
package times // import "go.opentelemetry.io/hookprofiler/times"

import (
	"time"
	_ "unsafe" // required to use //go:linkname for runtime.nanotime
)

// KTime stores a time value, retrieved from a monotonic clock, in nanoseconds
type KTime int64

// Clock returns the current monotonic time.
type Clock func() KTime

// GetKTime gets the current time from CLOCK_MONOTONIC in nanoseconds.
// This relies on runtime.nanotime, which is able to use the vDSO to query
// the time without syscall.
//
//go:noescape
//go:linkname GetKTime runtime.nanotime
func GetKTime() KTime

// Sub returns the duration t-u. A result below zero is returned as is; callers
// that need a cost must check it.
func (t KTime) Sub(u KTime) time.Duration {
	return time.Duration(t - u)
}

// Add returns the time t+d.
func (t KTime) Add(d time.Duration) KTime {
	return t + KTime(d)
}

// Micros converts a duration into whole microseconds, truncating.
func Micros(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Microsecond)
}
