// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package profiler implements a deterministic call-stack profiler. It keeps a
// shadow stack per execution context of the observed runtime and charges every
// function its self cost: the time spent in its own code, excluding callees
// and excluding time its context was not running.
//
// Results are aggregated twice: per function identity (the flat view) and
// per call path in a trie (the call-path view).
//
// A Profiler is driven synchronously from the runtime's call and return
// hooks and is not safe for concurrent use.
package profiler // import "go.opentelemetry.io/hookprofiler/profiler"

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/hookprofiler/calltree"
	"go.opentelemetry.io/hookprofiler/flat"
	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/intmap"
	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/metrics"
	"go.opentelemetry.io/hookprofiler/reporter"
	"go.opentelemetry.io/hookprofiler/symbolizer"
	"go.opentelemetry.io/hookprofiler/times"
)

// State is the lifecycle state of a Profiler.
type State int

const (
	// StateIdle is the state after New and Stop.
	StateIdle State = iota
	// StateRunning is the state between Start and Stop.
	StateRunning
	// StateClosed is the final state after Close.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Compile time check that the Profiler can be installed as a hook.
var _ host.Hook = (*Profiler)(nil)

// Profiler is the accounting engine.
type Profiler struct {
	cfg   Config
	rt    host.Runtime
	clock times.Clock
	sym   *symbolizer.Symbolizer

	state     State
	sessionID uuid.UUID
	startTime time.Time
	start     times.KTime

	// marked holds the contexts the profiler subscribed to.
	marked libpf.Set[host.ContextID]

	states *intmap.Map[*callState]
	cur    *callState

	// tree holds the call-path trie. Its root only counts once rooted is
	// set by the first return of a session.
	tree   *calltree.Tree[pathInfo]
	rooted bool

	table *flat.Table

	skewWarned bool
	counters   counters
}

// counters are plain integers on the hot path and are handed to the metrics
// package in bulk.
type counters struct {
	calls         int64
	returns       int64
	spurious      int64
	tailCollapses int64
	contextSwitch int64
	clockSkews    int64
}

// New returns an idle Profiler.
func New(cfg Config) (*Profiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sym, err := symbolizer.New(cfg.Runtime, cfg.SymbolCacheSize, cfg.Demangle)
	if err != nil {
		return nil, err
	}
	return &Profiler{
		cfg:    cfg,
		rt:     cfg.Runtime,
		clock:  cfg.Clock,
		sym:    sym,
		marked: make(libpf.Set[host.ContextID]),
		states: intmap.New[*callState](1),
		tree:   calltree.New(rootInfo()),
		table:  flat.NewTable(256),
	}, nil
}

// State returns the lifecycle state.
func (p *Profiler) State() State {
	return p.state
}

// SessionID returns the identifier of the current or last session.
func (p *Profiler) SessionID() uuid.UUID {
	return p.sessionID
}

// Start begins a session and subscribes to every context currently alive.
func (p *Profiler) Start() error {
	switch p.state {
	case StateClosed:
		return ErrClosed
	case StateRunning:
		log.Warnf("Profiler session %v is already running", p.sessionID)
		return ErrAlreadyRunning
	}

	p.clear()
	p.sessionID = uuid.New()
	p.startTime = time.Now()
	p.start = p.clock()
	p.state = StateRunning

	for _, ctx := range p.rt.Contexts() {
		if err := p.subscribe(ctx); err != nil {
			log.Warnf("Failed to subscribe to %v: %v", ctx, err)
		}
	}
	log.Debugf("Started profiler session %v", p.sessionID)
	return nil
}

// Stop ends the session and returns its report. Subscriptions are removed
// and all accounting state is discarded.
func (p *Profiler) Stop() (*reporter.Report, error) {
	switch p.state {
	case StateClosed:
		return nil, ErrClosed
	case StateIdle:
		return nil, ErrNotRunning
	}

	p.unsubscribeAll()

	report := &reporter.Report{
		SessionID: p.sessionID,
		Start:     p.startTime,
		Elapsed:   p.elapsed(),
		Records:   p.table.Snapshot(0),
	}
	if p.cfg.CallPathReport && p.rooted {
		report.CallPath = p.callPath()
	}
	p.flushMetrics()

	p.clear()
	p.state = StateIdle
	log.Debugf("Stopped profiler session %v after %v", p.sessionID, report.Elapsed)
	return report, nil
}

// Mark subscribes the profiler to ctx, typically a context created after
// Start. It reports whether a session is running; while idle it does nothing.
func (p *Profiler) Mark(ctx host.ContextID) (bool, error) {
	switch p.state {
	case StateClosed:
		return false, ErrClosed
	case StateIdle:
		return false, nil
	}
	return true, p.subscribe(ctx)
}

// Unmark removes the subscription to ctx. The call state of ctx is kept and
// its open frames are accounted for if events arrive again.
func (p *Profiler) Unmark(ctx host.ContextID) error {
	if p.state == StateClosed {
		return ErrClosed
	}
	if _, ok := p.marked[ctx]; !ok {
		return nil
	}
	delete(p.marked, ctx)
	return p.rt.Unsubscribe(ctx)
}

// Dump returns the flat records of the running session, finalized and sorted
// by descending cost. A positive limit truncates the result. Dump does not
// change the accounting state.
func (p *Profiler) Dump(limit int) ([]flat.Record, error) {
	switch p.state {
	case StateClosed:
		return nil, ErrClosed
	case StateIdle:
		return nil, ErrNotRunning
	}
	p.flushMetrics()
	return p.table.Snapshot(limit), nil
}

// DumpCallPath returns the call-path view of the running session.
func (p *Profiler) DumpCallPath() (*reporter.CallPath, error) {
	switch p.state {
	case StateClosed:
		return nil, ErrClosed
	case StateIdle:
		return nil, ErrNotRunning
	}
	if !p.rooted {
		return nil, ErrNoCallPath
	}
	p.flushMetrics()
	return p.callPath(), nil
}

// Reset discards all accounting state of the running session, as happens on
// Stop, but keeps the session and its subscriptions alive. The session start
// moves to now.
func (p *Profiler) Reset() error {
	switch p.state {
	case StateClosed:
		return ErrClosed
	case StateRunning:
		p.flushMetrics()
		p.start = p.clock()
		p.startTime = time.Now()
	}
	p.clear()
	return nil
}

// Close ends any session and releases all state. Every later operation
// returns ErrClosed; hooks still delivered are ignored.
func (p *Profiler) Close() error {
	if p.state == StateClosed {
		return ErrClosed
	}
	if p.state == StateRunning {
		p.unsubscribeAll()
		p.flushMetrics()
	}
	p.clear()
	p.state = StateClosed
	return nil
}

// Stack returns a copy of the open frames of ctx, outermost first.
func (p *Profiler) Stack(ctx host.ContextID) []Frame {
	cs, ok := p.states.Query(uint64(ctx))
	if !ok {
		return nil
	}
	out := make([]Frame, len(cs.frames))
	copy(out, cs.frames)
	return out
}

func (p *Profiler) subscribe(ctx host.ContextID) error {
	if _, ok := p.marked[ctx]; ok {
		return nil
	}
	if err := p.rt.Subscribe(ctx, p); err != nil {
		return fmt.Errorf("failed to subscribe to %v: %v", ctx, err)
	}
	p.marked[ctx] = libpf.Void{}
	return nil
}

func (p *Profiler) unsubscribeAll() {
	for _, ctx := range libpf.SortedKeys(p.marked) {
		if err := p.rt.Unsubscribe(ctx); err != nil {
			log.Warnf("Failed to unsubscribe from %v: %v", ctx, err)
		}
	}
	clear(p.marked)
}

func (p *Profiler) elapsed() time.Duration {
	d := p.clock().Sub(p.start)
	if d < 0 {
		return 0
	}
	return d
}

func (p *Profiler) clear() {
	p.states.Clear()
	p.cur = nil
	p.tree.Reset(rootInfo())
	p.rooted = false
	p.table.Reset()
	p.sym.Purge()
	p.skewWarned = false
}

func (p *Profiler) flushMetrics() {
	c := &p.counters
	st := p.sym.GetAndResetStatistics()
	metrics.AddSlice([]metrics.Metric{
		{ID: metrics.IDCallEvents, Value: metrics.MetricValue(c.calls)},
		{ID: metrics.IDReturnEvents, Value: metrics.MetricValue(c.returns)},
		{ID: metrics.IDSpuriousReturns, Value: metrics.MetricValue(c.spurious)},
		{ID: metrics.IDTailCollapses, Value: metrics.MetricValue(c.tailCollapses)},
		{ID: metrics.IDContextSwitches, Value: metrics.MetricValue(c.contextSwitch)},
		{ID: metrics.IDClockSkews, Value: metrics.MetricValue(c.clockSkews)},
		{ID: metrics.IDCallPathNodes, Value: metrics.MetricValue(p.tree.Len())},
		{ID: metrics.IDFlatRecords, Value: metrics.MetricValue(p.table.Len())},
		{ID: metrics.IDCallStates, Value: metrics.MetricValue(p.states.Len())},
		{ID: metrics.IDSymbolCacheHit, Value: metrics.MetricValue(st.Hit)},
		{ID: metrics.IDSymbolCacheMiss, Value: metrics.MetricValue(st.Miss)},
	})
	p.counters = counters{}
}
