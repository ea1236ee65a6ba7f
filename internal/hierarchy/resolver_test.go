package hierarchy

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

type fakeStore struct {
	nodes map[int64]Node
	err   error
}

func newFakeStore(nodes ...Node) *fakeStore {
	s := &fakeStore{nodes: make(map[int64]Node, len(nodes))}
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
	return s
}

func (s *fakeStore) ByID(_ context.Context, id int64) (Node, bool, error) {
	if s.err != nil {
		return Node{}, false, s.err
	}
	node, ok := s.nodes[id]
	return node, ok, nil
}

func (s *fakeStore) ChildrenOf(_ context.Context, parentID int64) ([]Node, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Node
	for _, node := range s.nodes {
		if node.ParentID != nil && *node.ParentID == parentID {
			out = append(out, node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func levelOf(v int) *int { return &v }

func parentOf(v int64) *int64 { return &v }

func TestResolveChildren(t *testing.T) {
	deletedTime := time.Now()
	store := newFakeStore(
		Node{ID: 1, Level: levelOf(0), Name: "Root"},
		Node{ID: 10, ParentID: parentOf(1), Level: levelOf(1), Name: "Alpha"},
		Node{ID: 11, ParentID: parentOf(1), Level: levelOf(1), Name: "Beta"},
		Node{ID: 12, ParentID: parentOf(1), Level: levelOf(1), Name: "Gone", Deleted: true},
		Node{ID: 13, ParentID: parentOf(1), Level: levelOf(1), Name: "Retired", EndDate: &deletedTime},
		Node{ID: 100, ParentID: parentOf(10), Level: levelOf(2), Name: "Grandchild"},
	)
	resolver := NewResolver(store)

	out, err := resolver.Resolve(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 live children, got %d: %#v", len(out), out)
	}
	for _, id := range []int64{10, 11} {
		res, ok := out[id]
		if !ok {
			t.Fatalf("expected node %d in result", id)
		}
		if res.EffectiveParent != 1 {
			t.Fatalf("expected effective parent 1 for %d, got %d", id, res.EffectiveParent)
		}
	}
	if _, ok := out[100]; ok {
		t.Fatalf("grandchild must not appear in a children query")
	}
}

func TestResolveRootNotFound(t *testing.T) {
	store := newFakeStore(
		Node{ID: 5, Level: levelOf(0), Name: "Tombstone", Deleted: true},
	)
	resolver := NewResolver(store)

	for _, id := range []int64{999999, 5} {
		_, err := resolver.Resolve(context.Background(), id, nil)
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected NotFoundError for %d, got %v", id, err)
		}
		if notFound.ID != id {
			t.Fatalf("expected error to carry id %d, got %d", id, notFound.ID)
		}
	}
}

func TestResolveInvalidLevel(t *testing.T) {
	store := newFakeStore(
		Node{ID: 1, Level: levelOf(2), Name: "District"},
	)
	resolver := NewResolver(store)

	cases := map[string]int{
		"below range":    -1,
		"above range":    6,
		"equal to root":  2,
		"above root":     1,
		"top above root": 0,
	}
	for name, level := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), 1, &level)
			var invalid *InvalidLevelError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidLevelError for level %d, got %v", level, err)
			}
		})
	}
}

func TestResolveAtLevel(t *testing.T) {
	store := newFakeStore(
		Node{ID: 1, Level: levelOf(0), Name: "Country"},
		Node{ID: 10, ParentID: parentOf(1), Level: levelOf(1), Name: "State"},
		Node{ID: 100, ParentID: parentOf(10), Level: levelOf(2), Name: "District A"},
		Node{ID: 101, ParentID: parentOf(10), Level: levelOf(2), Name: "District B"},
		Node{ID: 102, ParentID: parentOf(10), Level: levelOf(2), Name: "Removed", Deleted: true},
	)
	resolver := NewResolver(store)

	level := 2
	out, err := resolver.Resolve(context.Background(), 1, &level)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 districts, got %d", len(out))
	}
	for _, id := range []int64{100, 101} {
		if out[id].EffectiveParent != 10 {
			t.Fatalf("expected effective parent 10 for %d, got %d", id, out[id].EffectiveParent)
		}
	}
}

func TestResolveMissingLevelGap(t *testing.T) {
	// Root level 0, child level 2, no level-1 node anywhere: the level-2 node
	// must resolve with the root as effective parent, not error or vanish.
	store := newFakeStore(
		Node{ID: 1, Level: levelOf(0), Name: "Country"},
		Node{ID: 20, ParentID: parentOf(1), Level: levelOf(2), Name: "Skipped"},
	)
	resolver := NewResolver(store)

	level := 2
	out, err := resolver.Resolve(context.Background(), 1, &level)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	res, ok := out[20]
	if !ok {
		t.Fatalf("expected node 20 in result")
	}
	if res.EffectiveParent != 1 {
		t.Fatalf("expected effective parent 1, got %d", res.EffectiveParent)
	}
}

func TestResolveGapFallsToNearestLowerLevel(t *testing.T) {
	// Chain 0 -> 1 -> 3 with no level-2 ancestor: the level-3 node reports the
	// level-1 ancestor, the nearest one with any lower level.
	store := newFakeStore(
		Node{ID: 1, Level: levelOf(0), Name: "Country"},
		Node{ID: 10, ParentID: parentOf(1), Level: levelOf(1), Name: "State"},
		Node{ID: 300, ParentID: parentOf(10), Level: levelOf(3), Name: "City"},
	)
	resolver := NewResolver(store)

	level := 3
	out, err := resolver.Resolve(context.Background(), 1, &level)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out[300].EffectiveParent != 10 {
		t.Fatalf("expected effective parent 10, got %d", out[300].EffectiveParent)
	}
}

func TestResolveWalksThroughUnleveledNodes(t *testing.T) {
	store := newFakeStore(
		Node{ID: 1, Level: levelOf(0), Name: "Country"},
		Node{ID: 50, ParentID: parentOf(1), Name: "Grouping"}, // unleveled
		Node{ID: 500, ParentID: parentOf(50), Level: levelOf(1), Name: "State"},
	)
	resolver := NewResolver(store)

	level := 1
	out, err := resolver.Resolve(context.Background(), 1, &level)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	res, ok := out[500]
	if !ok {
		t.Fatalf("expected node 500 behind the unleveled grouping")
	}
	// The unleveled grouping cannot serve as effective parent; the root can.
	if res.EffectiveParent != 1 {
		t.Fatalf("expected effective parent 1, got %d", res.EffectiveParent)
	}
}

func TestResolveEmptyResultIsNotAnError(t *testing.T) {
	store := newFakeStore(
		Node{ID: 1, Level: levelOf(0), Name: "Country"},
	)
	resolver := NewResolver(store)

	level := 3
	out, err := resolver.Resolve(context.Background(), 1, &level)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %#v", out)
	}
}

func TestResolveStoreErrorWrapped(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	resolver := NewResolver(store)

	_, err := resolver.Resolve(context.Background(), 1, nil)
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !errors.Is(err, store.err) {
		t.Fatalf("expected wrapped cause to survive")
	}
}
