// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// WriteText renders r as aligned tables for humans.
func WriteText(w io.Writer, r *Report) error {
	if r.Name != "" {
		if _, err := fmt.Fprintf(w, "profile %s\n", r.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "session %v started %v elapsed %v\n\n",
		r.SessionID, r.Start.Format(time.RFC3339), r.Elapsed); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "share\tcost (s)\tavg (s)\tcount\t\t")
	for i := range r.Records {
		rec := &r.Records[i]
		fmt.Fprintf(tw, "%.2f\t%.6f\t%.6f\t%d\t\t%s\t%s:%d\t\n",
			rec.Percent*100, rec.Cost.Seconds(), rec.Average.Seconds(), rec.Count,
			rec.Name, rec.Source, rec.Line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.CallPath == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\ncall path (elapsed %dus)\n",
		r.CallPath.Elapsed.Microseconds()); err != nil {
		return err
	}
	var err error
	r.CallPath.Root.Walk(func(n *CallPathNode, depth int) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%s%s count=%d cost=%dus\n",
			strings.Repeat("  ", depth), n.Label(), n.Count, n.Cost)
	})
	return err
}
