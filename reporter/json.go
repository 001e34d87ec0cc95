// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"encoding/json"
	"io"
	"time"

	"go.opentelemetry.io/hookprofiler/flat"
)

type jsonReport struct {
	Name      string        `json:"name,omitempty"`
	SessionID string        `json:"session_id"`
	Start     time.Time     `json:"start"`
	Elapsed   float64       `json:"elapsed"`
	Records   []jsonRecord  `json:"records"`
	CallPath  *jsonCallPath `json:"call_path,omitempty"`
}

// jsonRecord holds costs in seconds and the percentage in the range 0..1.
type jsonRecord struct {
	Identity string  `json:"identity"`
	Name     string  `json:"name"`
	Source   string  `json:"source"`
	Line     int     `json:"line"`
	Flag     string  `json:"flag"`
	Count    uint64  `json:"count"`
	Cost     float64 `json:"cost"`
	Average  float64 `json:"average"`
	Percent  float64 `json:"percent"`
}

type jsonCallPath struct {
	// Elapsed is in microseconds.
	Elapsed int64         `json:"elapsed"`
	Root    *CallPathNode `json:"root"`
}

type jsonNode struct {
	Label      string          `json:"label"`
	Count      uint64          `json:"count"`
	Cost       uint64          `json:"cost"`
	LastReturn int64           `json:"last_return"`
	Children   []*CallPathNode `json:"children,omitempty"`
}

// MarshalJSON encodes the node the way the call-path view shows it: label,
// rolled up count, rolled up cost in microseconds and the time of the first
// return.
func (n *CallPathNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{
		Label:      n.Label(),
		Count:      n.Count,
		Cost:       n.Cost,
		LastReturn: int64(n.LastReturn),
		Children:   n.Children,
	})
}

func newJSONRecord(r *flat.Record) jsonRecord {
	return jsonRecord{
		Identity: r.Identity.String(),
		Name:     r.Name,
		Source:   r.Source,
		Line:     r.Line,
		Flag:     r.Flag.String(),
		Count:    r.Count,
		Cost:     r.Cost.Seconds(),
		Average:  r.Average.Seconds(),
		Percent:  r.Percent,
	}
}

// WriteJSON renders r as an indented JSON document.
func WriteJSON(w io.Writer, r *Report) error {
	out := jsonReport{
		Name:      r.Name,
		SessionID: r.SessionID.String(),
		Start:     r.Start,
		Elapsed:   r.Elapsed.Seconds(),
		Records:   make([]jsonRecord, 0, len(r.Records)),
	}
	for i := range r.Records {
		out.Records = append(out.Records, newJSONRecord(&r.Records[i]))
	}
	if r.CallPath != nil {
		out.CallPath = &jsonCallPath{
			Elapsed: r.CallPath.Elapsed.Microseconds(),
			Root:    r.CallPath.Root,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
