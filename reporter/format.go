// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"fmt"
	"io"
	"strings"
)

// Format is an output encoding of a Report.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatPprof
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatPprof:
		return "pprof"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the file name extension commonly used for f.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatPprof:
		return ".pb.gz"
	}
	return ".txt"
}

// ParseFormat parses the names returned by Format.String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "pprof":
		return FormatPprof, nil
	}
	return FormatText, fmt.Errorf("unknown output format '%s'", s)
}

// Write encodes r in format f.
func Write(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatText:
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatPprof:
		return WritePprof(w, r)
	}
	return fmt.Errorf("unsupported output format %v", f)
}
