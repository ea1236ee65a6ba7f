package hierarchy

import "fmt"

// NotFoundError reports a root id that does not reference a live node. It is
// never cached: absence must stay distinguishable from an empty region, so the
// next request retries a fresh resolution.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("hierarchy: location not found: %d", e.ID)
}

// InvalidLevelError reports a target level that cannot hold descendants of the
// requested root, either because it is outside the supported range or because
// it is at or above the root's own level.
type InvalidLevelError struct {
	Level  int
	Reason string
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("hierarchy: invalid level %d: %s", e.Level, e.Reason)
}

// StoreError wraps an underlying store failure so the boundary can map it to a
// 5xx response without losing the cause.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("hierarchy: location store: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
