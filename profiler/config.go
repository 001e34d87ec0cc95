// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package profiler // import "go.opentelemetry.io/hookprofiler/profiler"

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/reporter"
	"go.opentelemetry.io/hookprofiler/times"
)

const (
	// DefaultMaxCallDepth is the default number of open frames per context.
	DefaultMaxCallDepth = 1024
	// DefaultMaxContexts is the default number of contexts with a call state.
	DefaultMaxContexts = 1024
)

// Config holds the settings of a Profiler.
type Config struct {
	// Runtime is the observed runtime. Required.
	Runtime host.Runtime
	// Clock reads the current time. Defaults to times.GetKTime.
	Clock times.Clock

	MaxCallDepth int
	MaxContexts  int

	// StrictClock turns a negative cost into a ClockError panic instead of
	// clamping it to zero.
	StrictClock bool
	// CallPathReport adds the call-path view to the report returned by Stop.
	CallPathReport bool
	// Rollup selects how call-path nodes summarize their children.
	Rollup reporter.Rollup

	// SymbolCacheSize is the capacity of the symbol cache. 0 selects the
	// symbolizer default.
	SymbolCacheSize uint32
	// Demangle enables demangling of native function names.
	Demangle bool
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.Runtime == nil {
		return errors.New("no runtime configured")
	}
	if c.Clock == nil {
		c.Clock = times.GetKTime
	}
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = DefaultMaxCallDepth
	}
	if c.MaxContexts == 0 {
		c.MaxContexts = DefaultMaxContexts
	}
	if c.MaxCallDepth < 1 {
		return fmt.Errorf("invalid max call depth %d", c.MaxCallDepth)
	}
	if c.MaxContexts < 1 {
		return fmt.Errorf("invalid max contexts %d", c.MaxContexts)
	}
	if c.Rollup != reporter.RollupMax && c.Rollup != reporter.RollupSum {
		return fmt.Errorf("invalid rollup policy %v", c.Rollup)
	}
	return nil
}
