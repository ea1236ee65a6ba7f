package hierarchy

import (
	"encoding/json"
	"testing"
)

func defaultName(n Node) string { return n.Name }

func TestEncodeChildrenSchema(t *testing.T) {
	nodes := map[int64]Resolved{
		10: {Node: Node{ID: 10, Level: levelOf(1), Name: "Alpha"}, EffectiveParent: 1},
		11: {
			Node: Node{
				ID: 11, Level: levelOf(1), Name: "Beta",
				Bounds: &Bounds{MinLon: 6.5, MinLat: 43, MaxLon: 7.5, MaxLat: 44},
			},
			EffectiveParent: 1,
		},
	}

	payload, err := json.Marshal(Encode(nodes, levelOf(1), defaultName))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"10":{"n":"Alpha","l":1},"11":{"n":"Beta","l":1,"b":[6.5,43,7.5,44]}}`
	if string(payload) != want {
		t.Fatalf("unexpected payload:\n got %s\nwant %s", payload, want)
	}
}

func TestEncodeLevelFieldOnlyWhenDifferent(t *testing.T) {
	nodes := map[int64]Resolved{
		// Matches the context level: no f field.
		100: {Node: Node{ID: 100, Level: levelOf(2), Name: "Same"}, EffectiveParent: 10},
		// Differs from the context level: f carries the actual level.
		101: {Node: Node{ID: 101, Level: levelOf(3), Name: "Deeper"}, EffectiveParent: 10},
		// Unleveled: no f field either way.
		102: {Node: Node{ID: 102, Name: "Unleveled"}, EffectiveParent: 10},
	}

	payload, err := json.Marshal(Encode(nodes, levelOf(2), defaultName))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"100":{"n":"Same","l":10},"101":{"n":"Deeper","l":10,"f":3},"102":{"n":"Unleveled","l":10}}`
	if string(payload) != want {
		t.Fatalf("unexpected payload:\n got %s\nwant %s", payload, want)
	}
}

func TestEncodeWithoutContextReportsLevels(t *testing.T) {
	nodes := map[int64]Resolved{
		10: {Node: Node{ID: 10, Level: levelOf(1), Name: "Alpha"}, EffectiveParent: 1},
	}

	payload, err := json.Marshal(Encode(nodes, nil, defaultName))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"10":{"n":"Alpha","l":1,"f":1}}`
	if string(payload) != want {
		t.Fatalf("unexpected payload:\n got %s\nwant %s", payload, want)
	}
}

func TestEncodeEmptySet(t *testing.T) {
	payload, err := json.Marshal(Encode(nil, nil, defaultName))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != "{}" {
		t.Fatalf("expected empty object, got %s", payload)
	}
}

func TestEncodeAppliesDisplayNameFn(t *testing.T) {
	nodes := map[int64]Resolved{
		10: {
			Node: Node{
				ID: 10, Level: levelOf(1), Name: "Geneva",
				Translations: map[string]string{"fr": "Genève"},
			},
			EffectiveParent: 1,
		},
	}
	translator := Translator{DefaultLanguage: "en", Enabled: true}

	result := Encode(nodes, levelOf(1), func(n Node) string {
		return translator.DisplayName(n, "fr")
	})
	if result["10"].Name != "Genève" {
		t.Fatalf("expected translated name, got %q", result["10"].Name)
	}
}
