package store

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/l0p7/regiond/internal/hierarchy"
)

// Memory serves hierarchy lookups from an immutable in-process snapshot.
// Replace swaps the whole snapshot atomically so readers never observe a
// partially loaded dataset.
type Memory struct {
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	nodes    map[int64]hierarchy.Node
	children map[int64][]int64
}

// NewMemory indexes the given nodes and returns the store.
func NewMemory(nodes []hierarchy.Node) *Memory {
	m := &Memory{}
	m.Replace(nodes)
	return m
}

// Replace swaps in a fresh snapshot built from nodes. Children are kept in id
// order so resolution walks stay deterministic.
func (m *Memory) Replace(nodes []hierarchy.Node) {
	snap := &snapshot{
		nodes:    make(map[int64]hierarchy.Node, len(nodes)),
		children: make(map[int64][]int64),
	}
	for _, node := range nodes {
		snap.nodes[node.ID] = node
		if node.ParentID != nil {
			snap.children[*node.ParentID] = append(snap.children[*node.ParentID], node.ID)
		}
	}
	for parent := range snap.children {
		ids := snap.children[parent]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	m.snap.Store(snap)
}

// ByID implements hierarchy.Store.
func (m *Memory) ByID(_ context.Context, id int64) (hierarchy.Node, bool, error) {
	snap := m.snap.Load()
	node, ok := snap.nodes[id]
	return node, ok, nil
}

// ChildrenOf implements hierarchy.Store.
func (m *Memory) ChildrenOf(_ context.Context, parentID int64) ([]hierarchy.Node, error) {
	snap := m.snap.Load()
	ids := snap.children[parentID]
	out := make([]hierarchy.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, snap.nodes[id])
	}
	return out, nil
}

// Len reports the snapshot size, mostly for startup logging.
func (m *Memory) Len() int {
	return len(m.snap.Load().nodes)
}
