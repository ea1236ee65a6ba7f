package hierarchy

import (
	"context"
	"time"
)

// Levels run from 0 (country) down to 5 (finest granularity). A node without a
// level is "unleveled": it sits in a parent chain without a depth
// classification of its own and is skipped over during level resolution.
const (
	MinLevel = 0
	MaxLevel = 5
)

// Node is one row of the administrative hierarchy as exposed by the location
// store. Parent chains are acyclic; level values never decrease from root to
// leaf, but intermediate levels may be missing entirely.
type Node struct {
	ID           int64
	ParentID     *int64
	Level        *int
	Name         string
	Translations map[string]string
	Bounds       *Bounds
	Deleted      bool
	EndDate      *time.Time
}

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Live reports whether the node participates in resolution. Tombstoned rows
// and rows whose validity period has ended are invisible to every lookup.
func (n Node) Live() bool {
	return !n.Deleted && n.EndDate == nil
}

// Store is the read contract the resolver expects from the location store.
// Implementations must be safe for concurrent use; the resolver itself holds
// no mutable state.
type Store interface {
	// ByID returns the node with the given id. The boolean reports presence;
	// tombstoned nodes are still returned so callers can distinguish "gone"
	// from "never existed" in logs.
	ByID(ctx context.Context, id int64) (Node, bool, error)
	// ChildrenOf returns every node whose parent is parentID, in a
	// deterministic order.
	ChildrenOf(ctx context.Context, parentID int64) ([]Node, error)
}
