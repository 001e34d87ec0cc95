// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/hookprofiler/internal/controller"

import "go.opentelemetry.io/hookprofiler/reporter"

type Option interface {
	applyOption(*Controller) *Controller
}
type controllerOptionFunc func(*Controller) *Controller

func (f controllerOptionFunc) applyOption(c *Controller) *Controller {
	return f(c)
}

// WithSink adds a sink that receives every report. Sinks given as options
// replace the ones derived from the configuration.
func WithSink(sink reporter.Sink) Option {
	return controllerOptionFunc(func(c *Controller) *Controller {
		c.sinks = append(c.sinks, sink)
		return c
	})
}
