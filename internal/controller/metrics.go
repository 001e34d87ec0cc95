// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/hookprofiler/internal/controller"

import (
	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/hookprofiler/metrics"
)

// metricsLogger logs every metrics batch at debug level.
type metricsLogger struct {
	names map[uint32]string
}

// NewMetricsLogger returns a metrics.Reporter writing to the log.
func NewMetricsLogger() metrics.Reporter {
	defs := metrics.GetDefinitions()
	names := make(map[uint32]string, len(defs))
	for _, d := range defs {
		names[uint32(d.ID)] = d.Name
	}
	return &metricsLogger{names: names}
}

func (m *metricsLogger) ReportMetrics(ids []uint32, values []int64) {
	for i, id := range ids {
		log.Debugf("Metric %s: %d", m.names[id], values[i])
	}
}
