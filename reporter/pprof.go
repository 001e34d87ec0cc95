// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"fmt"
	"io"

	"github.com/google/pprof/profile"

	"go.opentelemetry.io/hookprofiler/libpf"
)

type funcKey struct {
	name   string
	source string
	line   int
}

// pprofBuilder deduplicates functions and locations of a profile.
type pprofBuilder struct {
	prof      *profile.Profile
	locations map[funcKey]*profile.Location
}

func newPprofBuilder(r *Report) *pprofBuilder {
	b := &pprofBuilder{
		prof: &profile.Profile{
			SampleType: []*profile.ValueType{
				{Type: "calls", Unit: "count"},
				{Type: "self", Unit: "nanoseconds"},
			},
			DefaultSampleType: "self",
			PeriodType:        &profile.ValueType{Type: "self", Unit: "nanoseconds"},
			Period:            1,
			TimeNanos:         r.Start.UnixNano(),
			DurationNanos:     r.Elapsed.Nanoseconds(),
			Comments:          []string{"session " + r.SessionID.String()},
		},
		locations: make(map[funcKey]*profile.Location),
	}
	if r.Name != "" {
		b.prof.Comments = append(b.prof.Comments, "profile "+r.Name)
	}
	return b
}

func (b *pprofBuilder) location(name, source string, line int) *profile.Location {
	key := funcKey{name: name, source: source, line: line}
	if loc, ok := b.locations[key]; ok {
		return loc
	}
	fn := &profile.Function{
		ID:         uint64(len(b.prof.Function) + 1),
		Name:       name,
		SystemName: name,
		Filename:   source,
		StartLine:  int64(line),
	}
	b.prof.Function = append(b.prof.Function, fn)
	loc := &profile.Location{
		ID:   uint64(len(b.prof.Location) + 1),
		Line: []profile.Line{{Function: fn, Line: int64(line)}},
	}
	b.prof.Location = append(b.prof.Location, loc)
	b.locations[key] = loc
	return loc
}

func (b *pprofBuilder) addSample(stack []*profile.Location, count uint64, cost int64,
	flag libpf.FrameFlag) {
	b.prof.Sample = append(b.prof.Sample, &profile.Sample{
		Location: stack,
		Value:    []int64{int64(count), cost},
		Label:    map[string][]string{"frame_type": {flag.String()}},
	})
}

// addCallPath adds a sample for every node that returned at least once. The
// location stack of a sample is the node's call path, leaf first.
func (b *pprofBuilder) addCallPath(n *CallPathNode, parents []*profile.Location) {
	for _, c := range n.Children {
		stack := make([]*profile.Location, 0, len(parents)+1)
		stack = append(stack, b.location(c.Name, c.Source, c.Line))
		stack = append(stack, parents...)
		if c.SelfCount > 0 {
			b.addSample(stack, c.SelfCount, c.SelfCost.Nanoseconds(), c.Flag)
		}
		b.addCallPath(c, stack)
	}
}

// WritePprof renders r as a gzipped pprof profile. The call-path view is used
// if present, otherwise every flat record becomes a single-frame sample.
func WritePprof(w io.Writer, r *Report) error {
	b := newPprofBuilder(r)
	if r.CallPath != nil {
		b.addCallPath(r.CallPath.Root, nil)
	} else {
		for i := range r.Records {
			rec := &r.Records[i]
			loc := b.location(rec.Name, rec.Source, rec.Line)
			b.addSample([]*profile.Location{loc}, rec.Count, rec.Cost.Nanoseconds(), rec.Flag)
		}
	}
	if err := b.prof.CheckValid(); err != nil {
		return fmt.Errorf("invalid profile: %v", err)
	}
	return b.prof.Write(w)
}
