package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"wordgame-service/domain"
)

// Normalize converts any JSON-encodable value into the generic tree
// representation and drops empty objects, which are indistinguishable
// from absent ones.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot encode value: %v", domain.ErrValidation, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return prune(out), nil
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if p := prune(child); p == nil {
				delete(t, k)
			} else {
				t[k] = p
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []any:
		if len(t) == 0 {
			return nil
		}
		for i := range t {
			t[i] = prune(t[i])
		}
		return t
	default:
		return v
	}
}

func isServerTimestamp(v any) bool {
	m, ok := v.(map[string]any)
	return ok && len(m) == 1 && m[".sv"] == "timestamp"
}

// ResolveServerValues replaces server timestamp placeholders with now.
func ResolveServerValues(v any, nowMillis int64) any {
	if isServerTimestamp(v) {
		return float64(nowMillis)
	}
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = ResolveServerValues(child, nowMillis)
		}
	case []any:
		for i := range t {
			t[i] = ResolveServerValues(t[i], nowMillis)
		}
	}
	return v
}

// Get returns a deep copy of the value found under segs.
func Get(root any, segs []string) any {
	node := root
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[seg]
	}
	return Clone(node)
}

// SetAt writes value under segs, creating intermediate objects. A nil
// value removes the entry and prunes parents left empty. It returns the
// new root, which is nil when the whole tree became empty.
func SetAt(root any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := root.(map[string]any)
	if !ok {
		if value == nil {
			return root
		}
		m = map[string]any{}
	}
	key := segs[0]
	child := SetAt(m[key], segs[1:], value)
	if child == nil {
		delete(m, key)
	} else {
		m[key] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Clone(t[i])
		}
		return out
	default:
		return v
	}
}

// Equal compares two normalized values.
func Equal(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}
