// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package profiler // import "go.opentelemetry.io/hookprofiler/profiler"

import (
	"time"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/hookprofiler/calltree"
	"go.opentelemetry.io/hookprofiler/flat"
	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/symbolizer"
	"go.opentelemetry.io/hookprofiler/times"
)

// Frame is one open activation on a shadow stack.
type Frame struct {
	Identity libpf.Identity
	// Tail is set if the frame replaced its caller's frame.
	Tail bool
	// PushedAt is the time of the call event.
	PushedAt times.KTime
	// EnteredAt is the time the frame started to run, read after the
	// profiler's own bookkeeping for the call.
	EnteredAt times.KTime
	// ForeignCost is the time not spent in the frame's own code: callees and
	// time its context was switched out.
	ForeignCost time.Duration
	// AwayCost is the part of ForeignCost its context was switched out.
	AwayCost time.Duration

	fn symbolizer.Function
}

// callState is the shadow stack of one execution context.
type callState struct {
	ctx    host.ContextID
	frames []Frame

	// away is set while another context is active. awaySince is the time
	// this context was switched out.
	away      bool
	awaySince times.KTime
}

// pathInfo is the payload of a call-path trie node.
type pathInfo struct {
	// fn is the function of the first frame that reached this node.
	fn       symbolizer.Function
	resolved bool
	sym      symbolizer.Symbol

	count    uint64
	selfCost time.Duration
	// lastReturn is the time of the first return at this node.
	lastReturn times.KTime
	returned   bool
}

const (
	rootName   = "total"
	rootSource = "total"
)

func rootInfo() pathInfo {
	return pathInfo{
		resolved: true,
		sym:      symbolizer.Symbol{Name: rootName, Source: rootSource},
	}
}

// OnCall pushes a frame for the callee. A tail call pushes a frame marked as
// tail, which is popped together with its caller.
func (p *Profiler) OnCall(ev *host.CallEvent) {
	if p.state != StateRunning {
		return
	}
	cs := p.cur
	if cs == nil || cs.ctx != ev.Context {
		cs, _ = p.states.Query(uint64(ev.Context))
	}
	if cs != nil && len(cs.frames) >= p.cfg.MaxCallDepth {
		panic(&CapacityError{
			Resource: "call depth",
			Limit:    p.cfg.MaxCallDepth,
			Context:  ev.Context,
		})
	}
	cs = p.activate(ev.Context, ev.Time)
	p.counters.calls++

	cs.frames = append(cs.frames, Frame{
		Identity: ev.Identity,
		Tail:     ev.Tail,
		PushedAt: ev.Time,
		fn: symbolizer.Function{
			Identity: ev.Identity,
			Name:     ev.Name,
			Source:   ev.Source,
			Line:     ev.Line,
			Flag:     ev.Flag,
		},
	})
	top := &cs.frames[len(cs.frames)-1]
	top.EnteredAt = max(ev.Time, p.clock())
}

// OnReturn pops the top frame and charges its self cost. If the popped frame
// was entered through a tail call, its caller returns as well, and so on.
func (p *Profiler) OnReturn(ev *host.ReturnEvent) {
	if p.state != StateRunning {
		return
	}
	cs := p.activate(ev.Context, ev.Time)
	p.counters.returns++
	if len(cs.frames) == 0 {
		p.counters.spurious++
		return
	}

	now := ev.Time
	p.rooted = true
	node := p.tree.Walk(len(cs.frames),
		func(i int) libpf.Identity { return cs.frames[i].Identity },
		func(i int, _ calltree.NodeID) pathInfo { return pathInfo{fn: cs.frames[i].fn} })

	for {
		n := len(cs.frames)
		fr := cs.frames[n-1]
		cs.frames = cs.frames[:n-1]

		total := now.Sub(fr.EnteredAt)
		self := p.selfCost(ev.Context, total, fr.ForeignCost)

		p.table.Add(fr.Identity, &flat.Meta{
			Name:   fr.fn.Name,
			Source: fr.fn.Source,
			Line:   fr.fn.Line,
			Flag:   fr.fn.Flag,
		}, self)

		info := p.tree.Value(node)
		if !info.resolved {
			info.sym = p.sym.Resolve(ev.Context, &info.fn)
			info.resolved = true
		}
		info.count++
		info.selfCost += self
		if !info.returned {
			info.lastReturn = now
			info.returned = true
		}

		if n == 1 {
			return
		}
		// The caller did not run while the callee was active.
		active := now.Sub(fr.PushedAt) - fr.AwayCost
		if active > 0 {
			cs.frames[n-2].ForeignCost += active
		}

		if !fr.Tail {
			return
		}
		p.counters.tailCollapses++
		node = p.tree.Parent(node)
	}
}

// activate makes ctx the active context. Switching from another context
// records when that one was switched out; a context switched back in charges
// the time it was away to all of its open frames.
func (p *Profiler) activate(ctx host.ContextID, now times.KTime) *callState {
	cs := p.cur
	if cs == nil || cs.ctx != ctx {
		cs = p.callState(ctx)
		if p.cur != nil {
			p.cur.away = true
			p.cur.awaySince = now
			p.counters.contextSwitch++
		}
		p.cur = cs
	}
	if cs.away {
		cs.away = false
		away := now.Sub(cs.awaySince)
		if away < 0 {
			away = p.selfCost(ctx, away, 0)
		}
		for i := range cs.frames {
			cs.frames[i].ForeignCost += away
			cs.frames[i].AwayCost += away
		}
	}
	return cs
}

// callState returns the call state of ctx, creating it on first use.
func (p *Profiler) callState(ctx host.ContextID) *callState {
	if cs, ok := p.states.Query(uint64(ctx)); ok {
		return cs
	}
	if p.states.Len() >= p.cfg.MaxContexts {
		panic(&CapacityError{
			Resource: "contexts",
			Limit:    p.cfg.MaxContexts,
			Context:  ctx,
		})
	}
	cs := &callState{
		ctx:    ctx,
		frames: make([]Frame, 0, min(p.cfg.MaxCallDepth, 64)),
	}
	p.states.Set(uint64(ctx), cs)
	return cs
}

// selfCost returns total-foreign. A negative result means the clock went
// backwards: it is clamped to zero, or panics in strict clock mode.
func (p *Profiler) selfCost(ctx host.ContextID, total, foreign time.Duration) time.Duration {
	self := total - foreign
	if total >= 0 && self >= 0 {
		return self
	}
	if p.cfg.StrictClock {
		panic(&ClockError{Context: ctx, Total: total, Foreign: foreign})
	}
	p.counters.clockSkews++
	if !p.skewWarned {
		p.skewWarned = true
		log.Warnf("Clock went backwards on %v (total %v, foreign %v), clamping to 0",
			ctx, total, foreign)
	}
	return 0
}
