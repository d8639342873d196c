package store

import (
	"fmt"

	"wordgame-service/domain"
)

// DocumentDepth is how deep documents sit in the tree: rooms/{code}.
// Backends that keep one record per document group writes by it.
const DocumentDepth = 2

// DocumentWrite is one field of an update, relative to its document.
type DocumentWrite struct {
	Rel   []string
	Value any
}

// DocumentWrites groups an update by document. Every field must address
// the same document.
func DocumentWrites(path string, fields map[string]any) (string, []DocumentWrite, error) {
	targets, err := Resolve(path, fields)
	if err != nil {
		return "", nil, err
	}

	var docPath string
	writes := make([]DocumentWrite, 0, len(targets))
	for key, segs := range targets {
		if len(segs) < DocumentDepth {
			return "", nil, fmt.Errorf("%w: write to %q must address a document", domain.ErrValidation, Join(segs))
		}
		doc := Join(segs[:DocumentDepth])
		if docPath != "" && doc != docPath {
			return "", nil, fmt.Errorf("%w: update spans %q and %q", domain.ErrValidation, docPath, doc)
		}
		docPath = doc
		value, err := Normalize(fields[key])
		if err != nil {
			return "", nil, err
		}
		writes = append(writes, DocumentWrite{Rel: segs[DocumentDepth:], Value: value})
	}
	return docPath, writes, nil
}

// ApplyWrites returns doc with every write applied and server values
// resolved. A nil result means the document is gone.
func ApplyWrites(doc any, writes []DocumentWrite, nowMillis int64) any {
	for _, w := range writes {
		doc = SetAt(doc, w.Rel, ResolveServerValues(Clone(w.Value), nowMillis))
	}
	return doc
}

// DocumentOf splits a subscription path into its document and the
// segments below it.
func DocumentOf(path string) (string, []string, error) {
	segs, err := Split(path)
	if err != nil {
		return "", nil, err
	}
	if len(segs) < DocumentDepth {
		return "", nil, fmt.Errorf("%w: %q must address a document", domain.ErrValidation, path)
	}
	return Join(segs[:DocumentDepth]), segs[DocumentDepth:], nil
}
