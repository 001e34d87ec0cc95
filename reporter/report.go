// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package reporter renders profiling sessions and hands them to sinks.
package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"go.opentelemetry.io/hookprofiler/flat"
	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/times"
)

// Report is the outcome of a profiling session.
type Report struct {
	// Name identifies the profiled program, e.g. the replayed trace.
	Name      string
	SessionID uuid.UUID
	// Start is the wall clock time the session started at.
	Start time.Time
	// Elapsed is the session duration on the monotonic clock.
	Elapsed time.Duration
	// Records is sorted by descending cost.
	Records []flat.Record
	// CallPath is nil unless call-path reporting was enabled.
	CallPath *CallPath
}

// CallPath is the call-path view of a session.
type CallPath struct {
	Elapsed time.Duration
	Root    *CallPathNode
}

// CallPathNode is one node of the call-path view. Count and Cost hold the
// rolled up values shown to the user, SelfCount and SelfCost what was measured
// at the node itself.
type CallPathNode struct {
	Name   string
	Source string
	Line   int
	Flag   libpf.FrameFlag

	SelfCount uint64
	SelfCost  time.Duration

	Count uint64
	// Cost is in microseconds.
	Cost uint64

	// LastReturn is the time of the first return seen at this node. Zero
	// if the node never returned.
	LastReturn times.KTime

	Children []*CallPathNode
}

// Label returns the "name source:line" form used in reports.
func (n *CallPathNode) Label() string {
	return fmt.Sprintf("%s %s:%d", n.Name, n.Source, n.Line)
}

// Walk calls fn for n and all its descendants in depth-first pre-order.
func (n *CallPathNode) Walk(fn func(node *CallPathNode, depth int)) {
	n.walk(fn, 0)
}

func (n *CallPathNode) walk(fn func(*CallPathNode, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}
