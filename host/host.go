// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package host defines the boundary between the profiler and the runtime it
// observes: the events the runtime delivers and the introspection it offers.
package host // import "go.opentelemetry.io/hookprofiler/host"

import (
	"fmt"

	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/times"
)

// ContextID identifies one execution context (coroutine or thread) of the
// observed runtime.
type ContextID uint64

func (c ContextID) String() string {
	return fmt.Sprintf("co#%d", uint64(c))
}

// CallEvent is delivered when a function is entered.
type CallEvent struct {
	Context ContextID
	Time    times.KTime
	// Tail is set if the callee replaced its caller's frame.
	Tail     bool
	Identity libpf.Identity
	// Name is empty when the runtime could not name the callee.
	Name   string
	Source string
	// Line is the line the callee is defined at.
	Line int
	Flag libpf.FrameFlag
}

// ReturnEvent is delivered when a function returns. For a chain of tail calls
// the runtime delivers a single ReturnEvent.
type ReturnEvent struct {
	Context ContextID
	Time    times.KTime
}

// FrameInfo describes an activation on a context's stack.
type FrameInfo struct {
	Source string
	// CurrentLine is the line currently executing in that activation.
	CurrentLine int
	Flag        libpf.FrameFlag
}

// Hook receives the events of subscribed contexts. Hooks are invoked
// synchronously on the thread running the observed program and must not block.
type Hook interface {
	OnCall(ev *CallEvent)
	OnReturn(ev *ReturnEvent)
}

// StackWalker gives access to the activations of a context. Level 0 is the
// function currently running, level 1 its caller, and so on.
type StackWalker interface {
	StackFrame(ctx ContextID, level int) (FrameInfo, bool)
}

// Runtime is the observed language runtime.
type Runtime interface {
	StackWalker

	// Subscribe installs hook for call and return events of ctx.
	Subscribe(ctx ContextID, hook Hook) error
	// Unsubscribe removes the hook of ctx. Unknown contexts are ignored.
	Unsubscribe(ctx ContextID) error
	// Contexts lists all execution contexts alive right now.
	Contexts() []ContextID
}
