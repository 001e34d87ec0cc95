// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package replay implements a host.Runtime that feeds recorded call/return
// traces to a hook, as if the traced program was running again.
package replay // import "go.opentelemetry.io/hookprofiler/host/replay"

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/times"
)

// Compile time check for interface adherence
var _ host.Runtime = (*Runtime)(nil)

// checkInterval is the number of events replayed between context checks.
const checkInterval = 4096

type activation struct {
	source      string
	currentLine int
	flag        libpf.FrameFlag
}

type coroutine struct {
	stack []activation
	hook  host.Hook
}

// Runtime keeps a shadow stack per coroutine so that stack introspection
// answers the way the recorded runtime would have.
// It is not safe for concurrent use.
type Runtime struct {
	coroutines map[host.ContextID]*coroutine
	// order keeps Contexts stable, in spawn order.
	order []host.ContextID
	now   times.KTime

	// OnSpawn, if set, is called for every coroutine created after the
	// replay started, before its first event is dispatched.
	OnSpawn func(ctx host.ContextID)
	// OnExit, if set, is called when a coroutine finishes, after its hook
	// was removed.
	OnExit func(ctx host.ContextID)

	callEv host.CallEvent
	retEv  host.ReturnEvent
}

// New returns a Runtime without any coroutine.
func New() *Runtime {
	return &Runtime{
		coroutines: make(map[host.ContextID]*coroutine),
	}
}

// Now returns the timestamp of the most recently dispatched event. It is the
// clock to drive a profiler with while replaying.
func (r *Runtime) Now() times.KTime {
	return r.now
}

// Spawn creates the coroutine ctx if it does not exist yet.
func (r *Runtime) Spawn(ctx host.ContextID) {
	r.coroutine(ctx)
}

func (r *Runtime) coroutine(ctx host.ContextID) *coroutine {
	co, ok := r.coroutines[ctx]
	if ok {
		return co
	}
	co = &coroutine{}
	r.coroutines[ctx] = co
	r.order = append(r.order, ctx)
	log.Debugf("Spawned coroutine %v", ctx)
	if r.OnSpawn != nil {
		r.OnSpawn(ctx)
	}
	return co
}

// Subscribe implements host.Runtime.
func (r *Runtime) Subscribe(ctx host.ContextID, hook host.Hook) error {
	co, ok := r.coroutines[ctx]
	if !ok {
		return fmt.Errorf("unknown coroutine %v", ctx)
	}
	co.hook = hook
	return nil
}

// Unsubscribe implements host.Runtime.
func (r *Runtime) Unsubscribe(ctx host.ContextID) error {
	if co, ok := r.coroutines[ctx]; ok {
		co.hook = nil
	}
	return nil
}

// Contexts implements host.Runtime.
func (r *Runtime) Contexts() []host.ContextID {
	out := make([]host.ContextID, len(r.order))
	copy(out, r.order)
	return out
}

// StackFrame implements host.Runtime.
func (r *Runtime) StackFrame(ctx host.ContextID, level int) (host.FrameInfo, bool) {
	co, ok := r.coroutines[ctx]
	if !ok || level < 0 || level >= len(co.stack) {
		return host.FrameInfo{}, false
	}
	a := co.stack[len(co.stack)-1-level]
	return host.FrameInfo{
		Source:      a.source,
		CurrentLine: a.currentLine,
		Flag:        a.flag,
	}, true
}

func (r *Runtime) exit(ctx host.ContextID) {
	if _, ok := r.coroutines[ctx]; !ok {
		return
	}
	delete(r.coroutines, ctx)
	for i, c := range r.order {
		if c == ctx {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Debugf("Coroutine %v exited", ctx)
	if r.OnExit != nil {
		r.OnExit(ctx)
	}
}

// Dispatch applies ev to the shadow stacks and delivers it to the hook of the
// coroutine, if one is subscribed.
func (r *Runtime) Dispatch(ev *Event) error {
	if ev.Kind == KindExit {
		r.exit(ev.Context)
		return nil
	}
	co := r.coroutine(ev.Context)
	switch ev.Kind {
	case KindSpawn:
	case KindLine:
		if n := len(co.stack); n > 0 {
			co.stack[n-1].currentLine = ev.Line
		}
	case KindCall, KindTail:
		r.now = ev.Time
		a := activation{source: ev.Source, currentLine: ev.Line, flag: ev.Flag}
		if ev.Kind == KindTail && len(co.stack) > 0 {
			co.stack[len(co.stack)-1] = a
		} else {
			co.stack = append(co.stack, a)
		}
		if co.hook != nil {
			r.callEv = host.CallEvent{
				Context:  ev.Context,
				Time:     ev.Time,
				Tail:     ev.Kind == KindTail,
				Identity: ev.Identity,
				Name:     ev.Name,
				Source:   ev.Source,
				Line:     ev.Line,
				Flag:     ev.Flag,
			}
			if err := deliver(func() { co.hook.OnCall(&r.callEv) }); err != nil {
				return err
			}
		}
	case KindReturn:
		r.now = ev.Time
		// The returning activation stays visible while the hook runs.
		var err error
		if co.hook != nil {
			r.retEv = host.ReturnEvent{Context: ev.Context, Time: ev.Time}
			err = deliver(func() { co.hook.OnReturn(&r.retEv) })
		}
		if n := len(co.stack); n > 0 {
			co.stack = co.stack[:n-1]
		}
		return err
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
	return nil
}

// deliver runs a hook. A hook raises errors by panicking with an error value,
// which ends up in the running program like an error of the runtime itself.
// Here that is the caller of Dispatch.
func deliver(hook func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			e, ok := v.(error)
			if !ok {
				panic(v)
			}
			err = fmt.Errorf("hook failed: %w", e)
		}
	}()
	hook()
	return nil
}

// Replay dispatches every event of d. It returns the number of events
// dispatched.
func (r *Runtime) Replay(ctx context.Context, d *Decoder) (int, error) {
	n := 0
	for {
		if n%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err = r.Dispatch(&ev); err != nil {
			return n, err
		}
		n++
	}
}
