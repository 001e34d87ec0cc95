// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/hookprofiler/internal/controller"

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/host/replay"
	"go.opentelemetry.io/hookprofiler/profiler"
	"go.opentelemetry.io/hookprofiler/reporter"
)

// Controller replays recorded traces through the profiler and hands the
// resulting reports to the configured sinks.
type Controller struct {
	config *Config
	sinks  []reporter.Sink

	mu         sync.Mutex
	violations []error
}

// New creates a new controller for a validated configuration.
func New(cfg *Config, opts ...Option) *Controller {
	c := &Controller{
		config: cfg,
	}
	for _, opt := range opts {
		c = opt.applyOption(c)
	}
	return c
}

// Run profiles every trace, in parallel up to the configured limit. A trace
// that fails to replay cancels the others and no report is published.
// Traces that hit a profiler limit are reported with the data recorded so far
// and turn the result into an ErrorWithExitCode.
func (c *Controller) Run(ctx context.Context) error {
	if len(c.sinks) == 0 {
		if err := c.setupSinks(ctx); err != nil {
			return err
		}
	}

	// The spare slot keeps a full run below the overwrite warning.
	queue, err := reporter.NewReportQueue(uint32(len(c.config.Traces)+1), "reports")
	if err != nil {
		return err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Parallelism)
	for _, trace := range c.config.Traces {
		g.Go(func() error {
			r, err := c.profile(gctx, trace)
			if err != nil {
				return fmt.Errorf("failed to profile %s: %w", trace, err)
			}
			return queue.Send(gctx, r)
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}
	log.Infof("Profiled %d traces in %v", len(c.config.Traces), time.Since(start))

	reports := queue.ReadAll()
	if lost := queue.GetOverwriteCount(); lost > 0 {
		return fmt.Errorf("lost %d of %d reports", lost, len(c.config.Traces))
	}
	order := make(map[string]int, len(c.config.Traces))
	for i, t := range c.config.Traces {
		order[t] = i
	}
	slices.SortFunc(reports, func(a, b *reporter.Report) int {
		return order[a.Name] - order[b.Name]
	})

	for _, r := range reports {
		for _, sink := range c.sinks {
			if err = sink.Send(ctx, r); err != nil {
				return fmt.Errorf("failed to publish report of %s: %w", r.Name, err)
			}
		}
	}

	if len(c.violations) > 0 {
		return ErrorWithExitCode{error: errors.Join(c.violations...), code: ExitLimitViolation}
	}
	return nil
}

// profile replays one trace in its own runtime and profiler session.
func (c *Controller) profile(ctx context.Context, trace string) (*reporter.Report, error) {
	dec, err := replay.Open(trace)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	rt := replay.New()
	p, err := profiler.New(profiler.Config{
		Runtime:         rt,
		Clock:           rt.Now,
		MaxCallDepth:    c.config.MaxCallDepth,
		MaxContexts:     c.config.MaxContexts,
		StrictClock:     c.config.StrictClock,
		CallPathReport:  c.config.CallPath,
		Rollup:          c.config.rollup,
		SymbolCacheSize: uint32(c.config.SymbolCacheSize),
		Demangle:        c.config.Demangle,
	})
	if err != nil {
		return nil, err
	}
	defer p.Close()

	rt.OnSpawn = func(ctx host.ContextID) {
		if len(c.config.contexts) > 0 {
			if _, ok := c.config.contexts[ctx]; !ok {
				return
			}
		}
		if _, err := p.Mark(ctx); err != nil {
			log.Warnf("Failed to mark %v in %s: %v", ctx, trace, err)
		}
	}
	rt.OnExit = func(ctx host.ContextID) {
		if err := p.Unmark(ctx); err != nil {
			log.Warnf("Failed to unmark %v in %s: %v", ctx, trace, err)
		}
	}

	if err = p.Start(); err != nil {
		return nil, err
	}
	n, err := rt.Replay(ctx, dec)
	if err != nil {
		var capErr *profiler.CapacityError
		var clockErr *profiler.ClockError
		if !errors.As(err, &capErr) && !errors.As(err, &clockErr) {
			return nil, err
		}
		log.Errorf("Replay of %s stopped after %d events: %v", trace, n, err)
		c.mu.Lock()
		c.violations = append(c.violations, fmt.Errorf("%s: %w", trace, err))
		c.mu.Unlock()
	}

	report, err := p.Stop()
	if err != nil {
		return nil, err
	}
	report.Name = trace
	if limit := c.config.Limit; limit > 0 && limit < len(report.Records) {
		report.Records = report.Records[:limit]
	}
	log.Infof("Replayed %d events of %s: %d functions in %v",
		n, trace, len(report.Records), report.Elapsed)
	return report, nil
}
