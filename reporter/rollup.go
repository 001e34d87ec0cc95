// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/hookprofiler/times"
)

// Rollup selects how the displayed values of a call-path node derive from
// its children.
type Rollup int

const (
	// RollupMax shows max(own, largest child) for count and cost.
	RollupMax Rollup = iota
	// RollupSum shows max(own, sum of children) for count and cost.
	RollupSum
)

func (r Rollup) String() string {
	switch r {
	case RollupMax:
		return "max"
	case RollupSum:
		return "sum"
	}
	return fmt.Sprintf("Rollup(%d)", int(r))
}

// ParseRollup parses the names returned by Rollup.String.
func ParseRollup(s string) (Rollup, error) {
	switch strings.ToLower(s) {
	case "max", "":
		return RollupMax, nil
	case "sum":
		return RollupSum, nil
	}
	return RollupMax, fmt.Errorf("unknown rollup policy '%s'", s)
}

// ApplyRollup computes Count and Cost of n and all its descendants from their
// self values, bottom-up. Children end up ordered by descending Cost, then by
// label.
func ApplyRollup(n *CallPathNode, policy Rollup) {
	var count, cost uint64
	for _, c := range n.Children {
		ApplyRollup(c, policy)
		if policy == RollupSum {
			count += c.Count
			cost += c.Cost
		} else {
			count = max(count, c.Count)
			cost = max(cost, c.Cost)
		}
	}
	n.Count = max(n.SelfCount, count)
	n.Cost = max(times.Micros(n.SelfCost), cost)

	slices.SortStableFunc(n.Children, func(a, b *CallPathNode) int {
		if c := cmp.Compare(b.Cost, a.Cost); c != 0 {
			return c
		}
		return strings.Compare(a.Label(), b.Label())
	})
}
