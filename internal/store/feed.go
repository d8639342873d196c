package store

import (
	"sync"
)

// Feed delivers snapshots to one listener, in order, on a goroutine owned
// by the feed. Pushing never blocks so backends may push while holding
// their own locks. Consecutive equal values are delivered once.
type Feed struct {
	fn Listener

	mu      sync.Mutex
	queue   []Snapshot
	closed  bool
	last    any
	started bool

	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewFeed(fn Listener) *Feed {
	f := &Feed{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go f.loop()
	return f
}

func (f *Feed) Push(s Snapshot) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.queue = append(f.queue, s)
	f.mu.Unlock()

	select {
	case f.signal <- struct{}{}:
	default:
	}
}

// Close stops delivery. A callback already running is allowed to finish.
func (f *Feed) Close() {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.queue = nil
		f.mu.Unlock()
		close(f.done)
	})
}

// Done is closed once the feed stops delivering.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

func (f *Feed) loop() {
	for {
		select {
		case <-f.done:
			return
		case <-f.signal:
		}
		for {
			s, ok := f.next()
			if !ok {
				break
			}
			f.fn(s)
		}
	}
}

func (f *Feed) next() (Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) > 0 && !f.closed {
		s := f.queue[0]
		f.queue = f.queue[1:]
		if f.started && Equal(f.last, s.value) {
			continue
		}
		f.started = true
		f.last = s.value
		return s, true
	}
	return Snapshot{}, false
}
