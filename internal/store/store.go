// Package store describes the shared key/value tree that every room
// session reads and writes. Backends live under infra/.
package store

import (
	"context"
	"encoding/json"
)

// Listener receives the value at a subscribed path.
type Listener func(Snapshot)

type Subscription interface {
	Unsubscribe() error
}

type Store interface {
	// Set replaces the value at path. A nil value removes it.
	Set(ctx context.Context, path string, value any) error
	// Update applies every field atomically. Field keys are paths
	// relative to path and a nil value removes that child.
	Update(ctx context.Context, path string, fields map[string]any) error
	Remove(ctx context.Context, path string) error
	Once(ctx context.Context, path string) (Snapshot, error)
	// On calls fn with the current value and again every time the value
	// at path changes, until the returned subscription is cancelled.
	On(ctx context.Context, path string, fn Listener) (Subscription, error)
}

type serverTimestamp struct{}

func (serverTimestamp) MarshalJSON() ([]byte, error) {
	return []byte(`{".sv":"timestamp"}`), nil
}

// ServerTimestamp is replaced by the store's clock, in epoch
// milliseconds, when the write is applied.
var ServerTimestamp any = serverTimestamp{}

type Snapshot struct {
	path  string
	value any
}

func NewSnapshot(path string, value any) Snapshot {
	return Snapshot{path: path, value: value}
}

func (s Snapshot) Path() string {
	return s.path
}

func (s Snapshot) Exists() bool {
	return s.value != nil
}

// Value returns the normalized JSON value (maps, slices, strings,
// float64, bool) or nil.
func (s Snapshot) Value() any {
	return s.value
}

func (s Snapshot) Decode(v any) error {
	raw, err := json.Marshal(s.value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
