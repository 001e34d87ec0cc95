// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
)

// Sink receives finished reports.
type Sink interface {
	Send(ctx context.Context, r *Report) error
}

// Compile time checks for interface adherence
var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*S3Sink)(nil)
	_ Sink = (*ReportQueue)(nil)
)

// FileSink writes reports to a local file, or to stdout for the path "-".
// Paths ending in ".zst" are zstd compressed.
type FileSink struct {
	Path   string
	Format Format

	// Stdout replaces os.Stdout, for tests.
	Stdout io.Writer
}

// Send writes r, replacing the file if it exists.
func (s *FileSink) Send(_ context.Context, r *Report) error {
	if s.Path == "-" || s.Path == "" {
		out := s.Stdout
		if out == nil {
			out = os.Stdout
		}
		return Write(out, r, s.Format)
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", s.Path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var zw *zstd.Encoder
	if strings.HasSuffix(s.Path, ".zst") {
		zw, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %v", err)
		}
		w = zw
	}
	if err = Write(w, r, s.Format); err != nil {
		return fmt.Errorf("failed to write report to %s: %v", s.Path, err)
	}
	if zw != nil {
		if err = zw.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream: %v", err)
		}
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %v", s.Path, err)
	}
	log.Infof("Wrote report of session %v to %s", r.SessionID, s.Path)
	return nil
}

// encode renders r in memory, zstd compressed if requested.
func encode(r *Report, format Format, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	if !compress {
		if err := Write(&buf, r, format); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if err = Write(zw, r, format); err != nil {
		zw.Close()
		return nil, err
	}
	if err = zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish zstd stream: %v", err)
	}
	return buf.Bytes(), nil
}
