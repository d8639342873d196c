package store

import (
	"fmt"
	"strings"

	"wordgame-service/domain"
)

const RoomsRoot = "rooms"

func RoomPath(code string) string {
	return RoomsRoot + "/" + code
}

func PlayersPath(code string) string {
	return RoomPath(code) + "/players"
}

func PlayerPath(code, playerID string) string {
	return PlayersPath(code) + "/" + playerID
}

func SubmissionsPath(code string) string {
	return RoomPath(code) + "/submissions"
}

func SubmissionPath(code, playerID string) string {
	return SubmissionsPath(code) + "/" + playerID
}

func PublicChoicePath(code, playerID string) string {
	return RoomPath(code) + "/publicWordChoices/" + playerID
}

func ReplacementPath(code, playerID string) string {
	return RoomPath(code) + "/replacements/" + playerID
}

// Split breaks a slash separated path into its segments. The empty path
// addresses the root.
func Split(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, seg := range segs {
		if seg == "" || strings.ContainsAny(seg, ".#$[]") {
			return nil, fmt.Errorf("%w: invalid path %q", domain.ErrValidation, path)
		}
	}
	return segs, nil
}

func Join(segs []string) string {
	return strings.Join(segs, "/")
}

// Related reports whether a write at one path can change the value at
// the other one.
func Related(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Resolve expands the field keys of an update into absolute segments.
func Resolve(path string, fields map[string]any) (map[string][]string, error) {
	base, err := Split(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(fields))
	for key := range fields {
		rel, err := Split(key)
		if err != nil {
			return nil, err
		}
		if len(rel) == 0 {
			return nil, fmt.Errorf("%w: empty update key under %q", domain.ErrValidation, path)
		}
		full := make([]string, 0, len(base)+len(rel))
		full = append(append(full, base...), rel...)
		out[key] = full
	}
	return out, nil
}
