// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/hookprofiler/internal/controller"

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/hookprofiler/reporter"
)

// setupSinks derives the sinks from the configuration.
func (c *Controller) setupSinks(ctx context.Context) error {
	cfg := c.config
	if cfg.Output != "" {
		if len(cfg.Traces) > 1 && cfg.Output != "-" {
			// Output names a directory receiving one file per trace.
			if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %v", err)
			}
			c.sinks = append(c.sinks, &perTraceSink{dir: cfg.Output, format: cfg.format})
		} else {
			c.sinks = append(c.sinks, &reporter.FileSink{Path: cfg.Output, Format: cfg.format})
		}
	}
	if cfg.S3Bucket != "" {
		s3Sink, err := reporter.NewS3Sink(ctx, reporter.S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			PathStyle: cfg.S3PathStyle,
			Format:    cfg.format,
			Compress:  cfg.S3Compress,
		})
		if err != nil {
			return fmt.Errorf("failed to set up S3 upload: %v", err)
		}
		c.sinks = append(c.sinks, s3Sink)
	}
	return nil
}

// perTraceSink writes each report into dir, named after its trace.
type perTraceSink struct {
	dir    string
	format reporter.Format
}

func (s *perTraceSink) Send(ctx context.Context, r *reporter.Report) error {
	name := filepath.Base(r.Name)
	name = strings.TrimSuffix(name, ".zst")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	sink := &reporter.FileSink{
		Path:   filepath.Join(s.dir, name+s.format.Extension()),
		Format: s.format,
	}
	return sink.Send(ctx, r)
}
