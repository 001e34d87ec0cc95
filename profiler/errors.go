// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package profiler // import "go.opentelemetry.io/hookprofiler/profiler"

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/hookprofiler/host"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("profiler is already running")
	// ErrNotRunning is returned by operations that need an active session.
	ErrNotRunning = errors.New("profiler is not running")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("profiler is closed")
	// ErrNoCallPath is returned by DumpCallPath before the first return
	// event of a session.
	ErrNoCallPath = errors.New("no call path recorded yet")
)

// CapacityError is the panic value raised when a fixed limit is exceeded.
// Events are delivered from inside the observed runtime, so there is no
// caller to return an error to; the runtime's error mechanism takes over.
type CapacityError struct {
	// Resource is "call depth" or "contexts".
	Resource string
	Limit    int
	Context  host.ContextID
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s limit of %d exceeded on %v", e.Resource, e.Limit, e.Context)
}

// ClockError is the panic value raised in strict clock mode when a cost
// would become negative.
type ClockError struct {
	Context host.ContextID
	Total   time.Duration
	Foreign time.Duration
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("clock went backwards on %v: total %v, foreign %v",
		e.Context, e.Total, e.Foreign)
}
