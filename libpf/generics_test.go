// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	s := Set[uint64]{3: Void{}, 1: Void{}, 2: Void{}}
	assert.Equal(t, []uint64{1, 2, 3}, SortedKeys(s))
	assert.Empty(t, SortedKeys(Set[uint64]{}))
}
