// Package cleanup removes rooms nobody has touched for a long time.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"wordgame-service/domain"
	"wordgame-service/internal/store"
)

const DefaultMaxAge = 24 * time.Hour

type Result struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Kept    int `json:"kept"`
}

// stamps holds the only fields the job looks at.
type stamps struct {
	CreatedAt int64 `json:"createdAt"`
	StartTime int64 `json:"startTime"`
}

type Cleaner struct {
	store  store.Store
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Cleaner)

func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) { c.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cleaner) { c.logger = logger }
}

func New(st store.Store, maxAge time.Duration, opts ...Option) *Cleaner {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	c := &Cleaner{
		store:  st,
		maxAge: maxAge,
		now:    time.Now,
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run deletes every room whose createdAt, or startTime when createdAt is
// missing, is older than the max age. Rooms with neither are kept. A
// failed delete does not stop the scan.
func (c *Cleaner) Run(ctx context.Context) (Result, error) {
	snap, err := c.store.Once(ctx, store.RoomsRoot)
	if err != nil {
		return Result{}, domain.StoreError("read", store.RoomsRoot, err)
	}

	rooms := map[string]stamps{}
	if snap.Exists() {
		if err := snap.Decode(&rooms); err != nil {
			return Result{}, fmt.Errorf("decode rooms: %w", err)
		}
	}

	codes := make([]string, 0, len(rooms))
	for code := range rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	cutoff := c.now().Add(-c.maxAge).UnixMilli()
	var res Result
	var errs []error
	for _, code := range codes {
		res.Scanned++
		r := rooms[code]
		ts := r.CreatedAt
		if ts == 0 {
			ts = r.StartTime
		}
		if ts == 0 || ts >= cutoff {
			res.Kept++
			continue
		}

		path := store.RoomPath(code)
		if err := c.store.Remove(ctx, path); err != nil {
			errs = append(errs, domain.StoreError("remove", path, err))
			res.Kept++
			continue
		}
		res.Deleted++
		c.logger.Info("removed stale room",
			zap.String("room_code", code),
			zap.Duration("age", c.now().Sub(time.UnixMilli(ts))),
		)
	}

	c.logger.Info("cleanup finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("deleted", res.Deleted),
		zap.Int("kept", res.Kept),
	)
	return res, errors.Join(errs...)
}
