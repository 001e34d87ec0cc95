// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ReportQueue is a first-in-first-out ring buffer of reports that is safe
// for concurrent access. Once full, the oldest report is overwritten.
type ReportQueue struct {
	mu sync.Mutex

	name string
	data []*Report

	// readPos is the position of the oldest report, count the number of
	// queued reports.
	readPos uint32
	count   uint32

	overwriteCount uint32
}

// NewReportQueue returns a queue with room for size reports. name identifies
// the queue in log messages.
func NewReportQueue(size uint32, name string) (*ReportQueue, error) {
	if size == 0 {
		return nil, fmt.Errorf("unsupported size of report queue: %d", size)
	}
	return &ReportQueue{
		name: name,
		data: make([]*Report, size),
	}, nil
}

// Send implements Sink by queueing r.
func (q *ReportQueue) Send(_ context.Context, r *Report) error {
	q.Append(r)
	return nil
}

// Append adds r, overwriting the oldest report if there is no space left.
func (q *ReportQueue) Append(r *Report) {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := uint32(len(q.data))
	q.data[(q.readPos+q.count)%size] = r
	if q.count < size {
		q.count++
		if q.count == size {
			log.Warnf("About to start overwriting reports in queue %s", q.name)
		}
		return
	}
	q.readPos = (q.readPos + 1) % size
	q.overwriteCount++
}

// Len returns the number of queued reports.
func (q *ReportQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.count)
}

// ReadAll removes and returns all queued reports, oldest first.
func (q *ReportQueue) ReadAll() []*Report {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := uint32(len(q.data))
	out := make([]*Report, q.count)
	for i := uint32(0); i < q.count; i++ {
		pos := (q.readPos + i) % size
		out[i] = q.data[pos]
		// Allow for the report to be GCed
		q.data[pos] = nil
	}
	q.readPos = 0
	q.count = 0
	return out
}

// GetOverwriteCount returns the number of reports lost since the last call.
func (q *ReportQueue) GetOverwriteCount() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.overwriteCount
	q.overwriteCount = 0
	return n
}
