package store

import "sync"

// Watch is a subscription to a path inside a versioned document. Backends
// that read the initial value and receive change notices on different
// connections use the version to drop values older than the last one
// delivered.
type Watch struct {
	path string
	rel  []string
	feed *Feed

	mu      sync.Mutex
	seen    bool
	version int64
}

// NewWatch subscribes fn to rel, the part of path below the document.
func NewWatch(path string, rel []string, fn Listener) *Watch {
	return &Watch{path: path, rel: rel, feed: NewFeed(fn)}
}

func (w *Watch) Path() string {
	return w.path
}

func (w *Watch) Deliver(version int64, doc any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen && version <= w.version {
		return
	}
	w.seen = true
	w.version = version
	w.feed.Push(NewSnapshot(w.path, Get(doc, w.rel)))
}

func (w *Watch) Close() {
	w.feed.Close()
}
