// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package times

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetKTimeMonotonic(t *testing.T) {
	a := GetKTime()
	b := GetKTime()
	assert.GreaterOrEqual(t, int64(b), int64(a))
}

func TestKTimeArithmetic(t *testing.T) {
	start := KTime(1000)
	end := start.Add(2500 * time.Nanosecond)
	assert.Equal(t, KTime(3500), end)
	assert.Equal(t, 2500*time.Nanosecond, end.Sub(start))
	assert.Equal(t, -2500*time.Nanosecond, start.Sub(end))
}

func TestMicros(t *testing.T) {
	tests := map[string]struct {
		d      time.Duration
		expect uint64
	}{
		"zero":      {d: 0, expect: 0},
		"negative":  {d: -time.Second, expect: 0},
		"truncated": {d: 1999 * time.Nanosecond, expect: 1},
		"second":    {d: time.Second, expect: 1000000},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Micros(tc.d))
		})
	}
}
