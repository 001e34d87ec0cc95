// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package metrics contains the code for reporting profiler-internal metrics.

Metrics are defined in metrics.json; ids.go is generated from it. Every metric
is exported as an OpenTelemetry instrument on the global meter provider, and
optionally handed to a Reporter set with SetReporter.

The profiler never reports from its event hooks. It keeps plain counters and
flushes them with AddSlice when a snapshot is taken or the session ends:

	metrics.AddSlice([]metrics.Metric{
		{ID: metrics.IDCallEvents, Value: metrics.MetricValue(calls)},
	})
*/
package metrics
