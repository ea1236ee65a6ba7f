package hierarchy

import "strconv"

// Record is the wire form of one resolved node. Field absence, never an
// explicit null, signals optionality: the schema is consumed byte-for-byte by
// the selector widget and by template customizations.
type Record struct {
	// Name is the display name after translation overlay.
	Name string `json:"n"`
	// Parent is the effective parent id, omitted for top-level rows.
	Parent int64 `json:"l,omitempty"`
	// Level carries the node's own level only when it differs from the level
	// the caller asked about.
	Level *int `json:"f,omitempty"`
	// Bounds is [minLon, minLat, maxLon, maxLat], present only when the store
	// holds a bounding box for the node.
	Bounds []float64 `json:"b,omitempty"`
}

// Result maps node ids, rendered as decimal strings, to their encoded records.
// It is read by key and never iterated positionally.
type Result map[string]Record

// Encode assembles resolver output into the stable response schema.
// contextLevel is the level the caller asked about: the target level when one
// was given, or the root's next level for a plain children query. Nodes whose
// own level differs from the context carry it in the f field; with no context
// at all every leveled node reports its level.
func Encode(nodes map[int64]Resolved, contextLevel *int, displayName func(Node) string) Result {
	out := make(Result, len(nodes))
	for id, res := range nodes {
		rec := Record{
			Name:   displayName(res.Node),
			Parent: res.EffectiveParent,
		}
		if res.Node.Level != nil && (contextLevel == nil || *res.Node.Level != *contextLevel) {
			level := *res.Node.Level
			rec.Level = &level
		}
		if b := res.Node.Bounds; b != nil {
			rec.Bounds = []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
		}
		out[strconv.FormatInt(id, 10)] = rec
	}
	return out
}
