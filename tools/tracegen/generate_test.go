// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/host/replay"
	"go.opentelemetry.io/hookprofiler/profiler"
)

// profile replays trace through a profiler and returns it while still
// running.
func profile(t *testing.T, trace io.Reader) (*profiler.Profiler, int) {
	t.Helper()
	rt := replay.New()
	p, err := profiler.New(profiler.Config{Runtime: rt, Clock: rt.Now})
	require.NoError(t, err)
	rt.OnSpawn = func(ctx host.ContextID) {
		_, err := p.Mark(ctx)
		require.NoError(t, err)
	}
	require.NoError(t, p.Start())
	n, err := rt.Replay(context.Background(), replay.NewDecoder(trace))
	require.NoError(t, err)
	return p, n
}

func TestWorkloads(t *testing.T) {
	tests := map[string]struct {
		workload func(g *generator)
		contexts int
		// events is the exact event count, if known.
		events int
	}{
		"nested": {
			workload: func(g *generator) { g.nested(1, 5, 3) },
			contexts: 1,
		},
		"tail": {
			workload: func(g *generator) { g.tailChain(1, 4) },
			contexts: 1,
			events:   10 * 6,
		},
		"coroutines": {
			workload: func(g *generator) { g.coroutines(3, 4, 40) },
			contexts: 3,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			opts := &options{seed: 7, functions: 12, iterations: 10, maxStep: 1000}
			var buf bytes.Buffer
			n, err := generate(&buf, opts, tc.workload)
			require.NoError(t, err)
			if tc.events > 0 {
				assert.Equal(t, tc.events, n)
			}

			p, replayed := profile(t, &buf)
			assert.Equal(t, n, replayed)
			records, err := p.Dump(0)
			require.NoError(t, err)
			assert.NotEmpty(t, records)
			assert.LessOrEqual(t, len(records), opts.functions)
			for ctx := 1; ctx <= tc.contexts; ctx++ {
				assert.Empty(t, p.Stack(host.ContextID(ctx)), "context %d", ctx)
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	opts := &options{seed: 42, functions: 8, iterations: 5, maxStep: 500}
	var a, b bytes.Buffer
	_, err := generate(&a, opts, func(g *generator) { g.nested(1, 4, 2) })
	require.NoError(t, err)
	_, err = generate(&b, opts, func(g *generator) { g.nested(1, 4, 2) })
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestGenerateWriteError(t *testing.T) {
	opts := &options{seed: 1, functions: 4, iterations: 1, maxStep: 10}
	_, err := generate(failingWriter{}, opts, func(g *generator) { g.tailChain(1, 1) })
	require.Error(t, err)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]struct {
		args []string
		file string
	}{
		"tail compressed": {
			args: []string{"tail", "-iterations", "3", "-length", "2"},
			file: "tail.trace.zst",
		},
		"coroutines": {
			args: []string{"coroutines", "-iterations", "2", "-contexts", "2"},
			file: "co.trace",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			args := append(tc.args, "-o", path)
			require.NoError(t, newRootCmd().ParseAndRun(context.Background(), args))

			dec, err := replay.Open(path)
			require.NoError(t, err)
			defer dec.Close()
			n, err := replay.New().Replay(context.Background(), dec)
			require.NoError(t, err)
			assert.Positive(t, n)
		})
	}

	err := newRootCmd().ParseAndRun(context.Background(), nil)
	require.ErrorIs(t, err, flag.ErrHelp)
}
