package roomsync

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"wordgame-service/internal/store"
)

// --- Store ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Set(ctx context.Context, path string, value any) error {
	args := m.Called(ctx, path, value)
	return args.Error(0)
}

func (m *MockStore) Update(ctx context.Context, path string, fields map[string]any) error {
	args := m.Called(ctx, path, fields)
	return args.Error(0)
}

func (m *MockStore) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockStore) Once(ctx context.Context, path string) (store.Snapshot, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(store.Snapshot), args.Error(1)
}

func (m *MockStore) On(ctx context.Context, path string, fn store.Listener) (store.Subscription, error) {
	args := m.Called(ctx, path, fn)
	sub, _ := args.Get(0).(store.Subscription)
	return sub, args.Error(1)
}

// --- Subscription ---

type MockSubscription struct {
	mock.Mock
}

func (m *MockSubscription) Unsubscribe() error {
	args := m.Called()
	return args.Error(0)
}

// --- Tickers ---

// manualTickers hands every countdown the same channel so a test can
// drive ticks by hand.
type manualTickers struct {
	ch chan time.Time
}

func (m *manualTickers) Create(time.Duration) (<-chan time.Time, func()) {
	return m.ch, func() {}
}

// --- Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
