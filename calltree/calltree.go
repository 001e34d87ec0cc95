// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package calltree implements a trie keyed by sequences of function
// identities. Each node stands for one call path from the root and carries an
// opaque payload.
//
// Nodes live in an arena and refer to each other by NodeID, so the parent link
// is a plain index and never an owning reference.
package calltree // import "go.opentelemetry.io/hookprofiler/calltree"

import (
	"go.opentelemetry.io/hookprofiler/intmap"
	"go.opentelemetry.io/hookprofiler/libpf"
)

// NodeID addresses a node inside a Tree.
type NodeID int32

const (
	// Root is the NodeID of the root node of every Tree.
	Root NodeID = 0
	// NoNode is returned where no node exists, e.g. as the parent of Root.
	NoNode NodeID = -1
)

type node[V any] struct {
	key      libpf.Identity
	parent   NodeID
	depth    int32
	children *intmap.Map[NodeID]
	value    V
}

// Tree is a call-path trie with payloads of type V.
type Tree[V any] struct {
	nodes []node[V]
}

// New returns a Tree holding only the root, carrying rootValue.
func New[V any](rootValue V) *Tree[V] {
	t := &Tree[V]{}
	t.Reset(rootValue)
	return t
}

// Reset discards every node and installs a fresh root carrying rootValue.
func (t *Tree[V]) Reset(rootValue V) {
	clear(t.nodes)
	t.nodes = append(t.nodes[:0], node[V]{
		key:    libpf.NoIdentity,
		parent: NoNode,
		value:  rootValue,
	})
}

// Len returns the number of nodes, including the root.
func (t *Tree[V]) Len() int {
	return len(t.nodes)
}

// Child returns the child of id reached through key.
func (t *Tree[V]) Child(id NodeID, key libpf.Identity) (NodeID, bool) {
	n := &t.nodes[id]
	if n.children == nil {
		return NoNode, false
	}
	return n.children.Query(uint64(key))
}

// AddChild creates the child of id for key. The caller must make sure the child
// does not exist yet.
func (t *Tree[V]) AddChild(id NodeID, key libpf.Identity, value V) NodeID {
	child := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node[V]{
		key:    key,
		parent: id,
		depth:  t.nodes[id].depth + 1,
		value:  value,
	})
	n := &t.nodes[id]
	if n.children == nil {
		n.children = intmap.New[NodeID](1)
	}
	n.children.Set(uint64(key), child)
	return child
}

// Walk descends from the root along the n identities returned by key(0) ..
// key(n-1), creating missing nodes on the way. A created node gets the payload
// returned by init, which receives the position of the node in the path and
// the new node's parent.
// It returns the node of the full path.
func (t *Tree[V]) Walk(n int, key func(i int) libpf.Identity,
	init func(i int, parent NodeID) V) NodeID {
	cur := Root
	for i := 0; i < n; i++ {
		k := key(i)
		next, ok := t.Child(cur, k)
		if !ok {
			next = t.AddChild(cur, k, init(i, cur))
		}
		cur = next
	}
	return cur
}

// Value returns a pointer to the payload of id. The pointer is invalidated by
// the next AddChild, Walk or Reset.
func (t *Tree[V]) Value(id NodeID) *V {
	return &t.nodes[id].value
}

// Key returns the identity that leads from the parent of id to id.
func (t *Tree[V]) Key(id NodeID) libpf.Identity {
	return t.nodes[id].key
}

// Parent returns the parent of id, or NoNode for Root.
func (t *Tree[V]) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// Depth returns the distance of id from Root.
func (t *Tree[V]) Depth(id NodeID) int {
	return int(t.nodes[id].depth)
}

// NumChildren returns the number of children of id.
func (t *Tree[V]) NumChildren(id NodeID) int {
	if c := t.nodes[id].children; c != nil {
		return c.Len()
	}
	return 0
}

// Children calls fn for each child of id in unspecified order.
func (t *Tree[V]) Children(id NodeID, fn func(key libpf.Identity, child NodeID)) {
	c := t.nodes[id].children
	if c == nil {
		return
	}
	c.Range(func(k uint64, child NodeID) {
		fn(libpf.Identity(k), child)
	})
}
