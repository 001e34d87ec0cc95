// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/host/replay"
	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/times"
)

// options are shared by all workloads.
type options struct {
	output     string
	seed       uint64
	functions  int
	iterations int
	maxStep    time.Duration
}

// generator emits a synthetic trace with monotonic timestamps.
type generator struct {
	enc *replay.Encoder
	rnd *rand.Rand
	now times.KTime

	maxStep time.Duration
	fns     []replay.Event
	err     error
	events  int
}

func newGenerator(w io.Writer, opts *options) *generator {
	g := &generator{
		enc:     replay.NewEncoder(w),
		rnd:     rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15)),
		maxStep: max(opts.maxStep, time.Nanosecond),
	}
	for i := range max(opts.functions, 1) {
		fn := replay.Event{
			Identity: libpf.Identity(0x1000 + 0x10*i),
			Flag:     libpf.InterpretedFrame,
			Name:     fmt.Sprintf("f%d", i),
			Source:   "@gen.lua",
			Line:     1 + 10*i,
		}
		// Every fifth function is native.
		if i%5 == 4 {
			fn.Flag = libpf.NativeFrame
			fn.Name = fmt.Sprintf("native%d", i)
			fn.Source = "=[C]"
			fn.Line = -1
		}
		g.fns = append(g.fns, fn)
	}
	return g
}

func (g *generator) emit(ev *replay.Event) {
	if g.err != nil {
		return
	}
	g.err = g.enc.Encode(ev)
	g.events++
}

func (g *generator) tick() {
	g.now = g.now.Add(time.Duration(1 + g.rnd.Int64N(int64(g.maxStep))))
}

func (g *generator) comment(text string) {
	if g.err == nil {
		g.err = g.enc.Comment(text)
	}
}

func (g *generator) spawn(ctx host.ContextID) {
	g.emit(&replay.Event{Kind: replay.KindSpawn, Context: ctx})
}

func (g *generator) exit(ctx host.ContextID) {
	g.emit(&replay.Event{Kind: replay.KindExit, Context: ctx})
}

// call enters a random function.
func (g *generator) call(ctx host.ContextID, tail bool) {
	g.tick()
	ev := g.fns[g.rnd.IntN(len(g.fns))]
	ev.Kind = replay.KindCall
	if tail {
		ev.Kind = replay.KindTail
	}
	ev.Context = ctx
	ev.Time = g.now
	g.emit(&ev)
}

func (g *generator) ret(ctx host.ContextID) {
	g.tick()
	g.emit(&replay.Event{Kind: replay.KindReturn, Context: ctx, Time: g.now})
}

func (g *generator) finish() error {
	if g.err != nil {
		return g.err
	}
	return g.enc.Flush()
}

// nested emits a random call tree of the given depth below the current frame.
func (g *generator) nested(ctx host.ContextID, depth, fanout int) {
	g.call(ctx, false)
	if depth > 1 {
		for range g.rnd.IntN(fanout + 1) {
			g.nested(ctx, depth-1, fanout)
		}
	}
	g.ret(ctx)
}

// tailChain emits a call followed by n tail calls. The single return ends
// the whole chain.
func (g *generator) tailChain(ctx host.ContextID, n int) {
	g.call(ctx, false)
	for range n {
		g.call(ctx, true)
	}
	g.ret(ctx)
}

// coroutines runs contexts 1..n interleaved, each with a random stack of at
// most depth frames. Contexts other than 1 exit at the end.
func (g *generator) coroutines(n, depth, steps int) {
	depths := make([]int, n)
	for i := range n {
		g.spawn(host.ContextID(i + 1))
	}
	for range steps {
		i := g.rnd.IntN(n)
		ctx := host.ContextID(i + 1)
		if depths[i] > 0 && (depths[i] >= depth || g.rnd.IntN(2) == 0) {
			g.ret(ctx)
			depths[i]--
			continue
		}
		g.call(ctx, false)
		depths[i]++
	}
	for i := range n {
		ctx := host.ContextID(i + 1)
		for ; depths[i] > 0; depths[i]-- {
			g.ret(ctx)
		}
		if i > 0 {
			g.exit(ctx)
		}
	}
}

// writeTrace runs workload and writes the trace to opts.output. "-" writes to
// stdout, a .zst suffix compresses.
func writeTrace(opts *options, workload func(g *generator)) (n int, err error) {
	if opts.output == "" || opts.output == "-" {
		return generate(os.Stdout, opts, workload)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(opts.output, ".zst") {
		return generate(f, opts, workload)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return 0, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if n, err = generate(zw, opts, workload); err != nil {
		zw.Close()
		return n, err
	}
	return n, zw.Close()
}

func generate(w io.Writer, opts *options, workload func(g *generator)) (int, error) {
	g := newGenerator(w, opts)
	g.comment(fmt.Sprintf("generated by tracegen, seed %d", opts.seed))
	for range max(opts.iterations, 1) {
		workload(g)
	}
	return g.events, g.finish()
}
