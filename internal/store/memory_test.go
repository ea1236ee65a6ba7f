package store

import (
	"context"
	"testing"

	"github.com/l0p7/regiond/internal/hierarchy"
)

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

func TestMemoryByID(t *testing.T) {
	mem := NewMemory([]hierarchy.Node{
		{ID: 1, Level: intp(0), Name: "Country"},
		{ID: 10, ParentID: int64p(1), Level: intp(1), Name: "Alpha"},
	})

	node, ok, err := mem.ByID(context.Background(), 10)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if !ok {
		t.Fatalf("expected node 10")
	}
	if node.Name != "Alpha" {
		t.Fatalf("unexpected node %+v", node)
	}

	_, ok, err = mem.ByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("by id missing: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for unknown id")
	}
}

func TestMemoryChildrenOfOrderedByID(t *testing.T) {
	mem := NewMemory([]hierarchy.Node{
		{ID: 1, Level: intp(0), Name: "Country"},
		{ID: 12, ParentID: int64p(1), Level: intp(1), Name: "Gamma"},
		{ID: 10, ParentID: int64p(1), Level: intp(1), Name: "Alpha"},
		{ID: 11, ParentID: int64p(1), Level: intp(1), Name: "Beta"},
		{ID: 20, ParentID: int64p(10), Level: intp(2), Name: "Nested"},
	})

	children, err := mem.ChildrenOf(context.Background(), 1)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	for i, want := range []int64{10, 11, 12} {
		if children[i].ID != want {
			t.Fatalf("children out of order: %v", children)
		}
	}

	none, err := mem.ChildrenOf(context.Background(), 20)
	if err != nil {
		t.Fatalf("leaf children: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no children for leaf, got %v", none)
	}
}

func TestMemoryReplaceSwapsSnapshot(t *testing.T) {
	mem := NewMemory([]hierarchy.Node{{ID: 1, Name: "Old"}})
	if mem.Len() != 1 {
		t.Fatalf("expected 1 node, got %d", mem.Len())
	}

	mem.Replace([]hierarchy.Node{
		{ID: 2, Name: "New"},
		{ID: 3, ParentID: int64p(2), Name: "Child"},
	})

	if _, ok, _ := mem.ByID(context.Background(), 1); ok {
		t.Fatalf("old snapshot still visible")
	}
	node, ok, _ := mem.ByID(context.Background(), 2)
	if !ok || node.Name != "New" {
		t.Fatalf("replacement not visible: %+v ok=%v", node, ok)
	}
	if mem.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", mem.Len())
	}
}
