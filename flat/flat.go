// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package flat aggregates self costs per function identity, independent of
// the call path a function was reached through.
package flat // import "go.opentelemetry.io/hookprofiler/flat"

import (
	"slices"
	"time"

	"go.opentelemetry.io/hookprofiler/intmap"
	"go.opentelemetry.io/hookprofiler/libpf"
)

// Record is the aggregate of one function identity.
// Average and Percent are only set on records returned by Snapshot.
type Record struct {
	Identity libpf.Identity
	Name     string
	Source   string
	Line     int
	Flag     libpf.FrameFlag

	Count   uint64
	Cost    time.Duration
	Average time.Duration
	// Percent is the share of Cost in the grand total, in the range 0..1.
	Percent float64
}

// Meta holds the descriptive fields copied into a Record on creation.
type Meta struct {
	Name   string
	Source string
	Line   int
	Flag   libpf.FrameFlag
}

// Table is a growable array of records plus an index from identity to
// array position.
type Table struct {
	records []Record
	index   *intmap.Map[int]
}

// NewTable returns an empty Table with room for sizeHint records.
func NewTable(sizeHint int) *Table {
	return &Table{
		records: make([]Record, 0, sizeHint),
		index:   intmap.New[int](sizeHint),
	}
}

// Len returns the number of distinct identities seen.
func (t *Table) Len() int {
	return len(t.records)
}

// Add accumulates one invocation of id with the given self cost. meta is only
// read when id is seen for the first time.
func (t *Table) Add(id libpf.Identity, meta *Meta, cost time.Duration) {
	if pos, ok := t.index.Query(uint64(id)); ok {
		r := &t.records[pos]
		r.Count++
		r.Cost += cost
		return
	}
	t.index.Set(uint64(id), len(t.records))
	t.records = append(t.records, Record{
		Identity: id,
		Name:     meta.Name,
		Source:   meta.Source,
		Line:     meta.Line,
		Flag:     meta.Flag,
		Count:    1,
		Cost:     cost,
	})
}

// Snapshot returns a finalized copy of all records sorted by descending Cost,
// truncated to limit entries when limit is positive. Truncation does not
// influence the percentages. The table itself is left untouched.
func (t *Table) Snapshot(limit int) []Record {
	out := slices.Clone(t.records)
	finalize(out)
	Sort(out)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Reset drops all records while keeping the allocated storage.
func (t *Table) Reset() {
	clear(t.records)
	t.records = t.records[:0]
	t.index.Clear()
}

func finalize(records []Record) time.Duration {
	var total time.Duration
	for i := range records {
		r := &records[i]
		total += r.Cost
		if r.Count > 0 {
			r.Average = r.Cost / time.Duration(r.Count)
		}
	}
	for i := range records {
		r := &records[i]
		if total > 0 {
			r.Percent = float64(r.Cost) / float64(total)
		} else {
			r.Percent = 0
		}
	}
	return total
}

// Sort orders records by descending Cost. Equal costs keep their order.
func Sort(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		switch {
		case a.Cost > b.Cost:
			return -1
		case a.Cost < b.Cost:
			return 1
		}
		return 0
	})
}
