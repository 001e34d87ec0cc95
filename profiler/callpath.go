// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package profiler // import "go.opentelemetry.io/hookprofiler/profiler"

import (
	"go.opentelemetry.io/hookprofiler/calltree"
	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/reporter"
	"go.opentelemetry.io/hookprofiler/symbolizer"
)

func (p *Profiler) callPath() *reporter.CallPath {
	root := p.callPathNode(calltree.Root)
	reporter.ApplyRollup(root, p.cfg.Rollup)
	return &reporter.CallPath{
		Elapsed: p.elapsed(),
		Root:    root,
	}
}

func (p *Profiler) callPathNode(id calltree.NodeID) *reporter.CallPathNode {
	info := p.tree.Value(id)
	sym := info.sym
	if !info.resolved {
		// The node's frames are all still open, so there is no stack to
		// attribute native frames to.
		sym = symbolizer.Symbol{
			Name:   info.fn.Name,
			Source: info.fn.Source,
			Line:   info.fn.Line,
			Flag:   info.fn.Flag,
		}
		if sym.Name == "" {
			sym.Name = symbolizer.UnknownName
		}
		if sym.Source == "" {
			sym.Source = symbolizer.UnknownName
		}
	}
	n := &reporter.CallPathNode{
		Name:       sym.Name,
		Source:     sym.Source,
		Line:       sym.Line,
		Flag:       sym.Flag,
		SelfCount:  info.count,
		SelfCost:   info.selfCost,
		LastReturn: info.lastReturn,
	}
	if c := p.tree.NumChildren(id); c > 0 {
		n.Children = make([]*reporter.CallPathNode, 0, c)
	}
	p.tree.Children(id, func(_ libpf.Identity, child calltree.NodeID) {
		n.Children = append(n.Children, p.callPathNode(child))
	})
	return n
}
