// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libpf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityHash(t *testing.T) {
	tests := map[string]struct {
		input  Identity
		expect uint64
	}{
		"0":          {input: 0, expect: 0},
		"1":          {input: 1, expect: 12994781566227106604},
		"uint16 max": {input: Identity(math.MaxUint16), expect: 6444452806975366496},
		"uint32 max": {input: Identity(math.MaxUint32), expect: 14731816277868330182},
		"uint64 max": {input: Identity(math.MaxUint64), expect: 7256831767414464289},
	}

	for name, testcase := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, testcase.expect, testcase.input.Hash())
			assert.Equal(t, uint32(testcase.expect), testcase.input.Hash32())
		})
	}
}

func TestIdentityString(t *testing.T) {
	assert.Equal(t, "0x7f00dead", Identity(0x7f00dead).String())
	assert.Equal(t, "0x0", NoIdentity.String())
}
