package cache

import "strconv"

// Descriptor identifies one cacheable resolution request. Requests that could
// produce different payloads must never share a key, so every field that
// affects the response participates.
type Descriptor struct {
	RootID   int64
	Level    *int
	Language string
}

// Key composes the deterministic cache key. The level slot uses a sentinel
// when no target level was requested so the two request forms never collide,
// and the empty language collapses to a sentinel so it shares entries with
// explicit requests for the default.
func (d Descriptor) Key() string {
	level := "all"
	if d.Level != nil {
		level = strconv.Itoa(*d.Level)
	}
	language := d.Language
	if language == "" {
		language = "default"
	}
	return "ldata:" + strconv.FormatInt(d.RootID, 10) + ":" + level + ":" + language
}
