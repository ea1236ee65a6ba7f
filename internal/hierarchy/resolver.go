package hierarchy

import "context"

// Resolver computes the slice of the hierarchy "at" a level beneath a root
// node. It is stateless and safe for concurrent use.
type Resolver struct {
	store Store
}

// NewResolver wires the resolver to its location store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolved is one node selected by Resolve together with the ancestor id a
// flattened tree should report as its parent.
type Resolved struct {
	Node            Node
	EffectiveParent int64
}

// Resolve returns the live nodes beneath rootID. With a nil targetLevel the
// result is the immediate children of the root. With a target level the walk
// crosses arbitrarily many generations, tolerating missing intermediate
// levels, and returns every live descendant whose level equals the target.
func (r *Resolver) Resolve(ctx context.Context, rootID int64, targetLevel *int) (map[int64]Resolved, error) {
	root, ok, err := r.store.ByID(ctx, rootID)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	if !ok || !root.Live() {
		return nil, &NotFoundError{ID: rootID}
	}

	if targetLevel == nil {
		return r.children(ctx, root)
	}

	level := *targetLevel
	if level < MinLevel || level > MaxLevel {
		return nil, &InvalidLevelError{Level: level, Reason: "outside the supported range"}
	}
	if root.Level != nil && level <= *root.Level {
		return nil, &InvalidLevelError{Level: level, Reason: "at or above the requested location"}
	}
	return r.descendants(ctx, root, level)
}

func (r *Resolver) children(ctx context.Context, root Node) (map[int64]Resolved, error) {
	rows, err := r.store.ChildrenOf(ctx, root.ID)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	out := make(map[int64]Resolved, len(rows))
	for _, node := range rows {
		if !node.Live() {
			continue
		}
		out[node.ID] = Resolved{Node: node, EffectiveParent: root.ID}
	}
	return out, nil
}

// descendants walks the subtree breadth-first. Each frontier node carries its
// ancestor chain (nearest first, ending at the root) so the effective parent
// can be derived by walking strictly toward the root. Subtrees rooted at nodes
// already past the target level are pruned: levels never decrease down a
// chain, so nothing below them can match.
func (r *Resolver) descendants(ctx context.Context, root Node, target int) (map[int64]Resolved, error) {
	type frame struct {
		node  Node
		chain []Node
	}

	out := make(map[int64]Resolved)
	queue := []frame{{node: root}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		rows, err := r.store.ChildrenOf(ctx, cur.node.ID)
		if err != nil {
			return nil, &StoreError{Err: err}
		}
		chain := make([]Node, 0, len(cur.chain)+1)
		chain = append(chain, cur.node)
		chain = append(chain, cur.chain...)

		for _, child := range rows {
			if !child.Live() {
				continue
			}
			if child.Level != nil && *child.Level > target {
				continue
			}
			if child.Level != nil && *child.Level == target {
				out[child.ID] = Resolved{
					Node:            child,
					EffectiveParent: effectiveParent(chain, root.ID, target),
				}
			}
			queue = append(queue, frame{node: child, chain: chain})
		}
	}
	return out, nil
}

// effectiveParent picks the ancestor a flattened tree reports as parent: the
// nearest ancestor at the level immediately below the target; failing that,
// the nearest ancestor with any lower level; failing that, the root itself.
// The chain is walked strictly toward the root, so the choice is deterministic
// and never a sibling or farther relative.
func effectiveParent(chain []Node, rootID int64, target int) int64 {
	nearestLower := int64(0)
	haveLower := false
	for _, anc := range chain {
		if anc.Level == nil {
			continue
		}
		if *anc.Level == target-1 {
			return anc.ID
		}
		if !haveLower && *anc.Level < target {
			nearestLower = anc.ID
			haveLower = true
		}
	}
	if haveLower {
		return nearestLower
	}
	return rootID
}
