// Package memory is an in-process store backend. It is used for single
// node deployments and for tests.
package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"wordgame-service/internal/store"
)

type Store struct {
	mu     sync.Mutex
	root   any
	subs   map[uint64]*subscription
	nextID uint64

	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(opts ...Option) *Store {
	s := &Store{
		subs:   make(map[uint64]*subscription),
		now:    time.Now,
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type subscription struct {
	id    uint64
	path  string
	segs  []string
	feed  *store.Feed
	store *Store
}

func (sub *subscription) Unsubscribe() error {
	sub.store.mu.Lock()
	delete(sub.store.subs, sub.id)
	sub.store.mu.Unlock()
	sub.feed.Close()
	return nil
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	return s.Update(ctx, "", map[string]any{path: value})
}

func (s *Store) Remove(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	targets, err := store.Resolve(path, fields)
	if err != nil {
		return err
	}

	values := make(map[string]any, len(fields))
	for key, value := range fields {
		v, err := store.Normalize(value)
		if err != nil {
			return err
		}
		values[key] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nowMillis := s.now().UnixMilli()
	changed := make([][]string, 0, len(targets))
	for key, segs := range targets {
		s.root = store.SetAt(s.root, segs, store.ResolveServerValues(values[key], nowMillis))
		changed = append(changed, segs)
	}
	s.notifyLocked(changed)
	return nil
}

func (s *Store) Once(ctx context.Context, path string) (store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return store.Snapshot{}, err
	}
	segs, err := store.Split(path)
	if err != nil {
		return store.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.NewSnapshot(path, store.Get(s.root, segs)), nil
}

func (s *Store) On(ctx context.Context, path string, fn store.Listener) (store.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	segs, err := store.Split(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sub := &subscription{
		id:    s.nextID,
		path:  path,
		segs:  segs,
		feed:  store.NewFeed(fn),
		store: s,
	}
	s.subs[sub.id] = sub
	s.logger.Debug("memory store subscription added", zap.String("path", path), zap.Int("subscriptions", len(s.subs)))
	sub.feed.Push(store.NewSnapshot(path, store.Get(s.root, segs)))
	return sub, nil
}

func (s *Store) notifyLocked(changed [][]string) {
	for _, sub := range s.subs {
		for _, segs := range changed {
			if store.Related(sub.segs, segs) {
				sub.feed.Push(store.NewSnapshot(sub.path, store.Get(s.root, sub.segs)))
				break
			}
		}
	}
}

// Close ends every subscription. The data stays readable.
func (s *Store) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[uint64]*subscription)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.feed.Close()
	}
	return nil
}
