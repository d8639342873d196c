// Package timer derives a round's remaining time from the shared start
// time so that every session shows the same countdown.
package timer

import (
	"context"
	"sync"
	"time"
)

// Remaining is max(0, duration - floor(elapsed seconds)). A start time in
// the future counts as no time elapsed.
func Remaining(nowMillis, startMillis int64, durationSeconds int) int {
	elapsed := nowMillis - startMillis
	if elapsed < 0 {
		elapsed = 0
	}
	left := int64(durationSeconds) - elapsed/1000
	if left < 0 {
		return 0
	}
	return int(left)
}

// Reconciler reports expiry exactly once for one (start, duration) pair.
type Reconciler struct {
	startMillis int64
	duration    int
	fired       bool
}

func NewReconciler(startMillis int64, durationSeconds int) *Reconciler {
	return &Reconciler{startMillis: startMillis, duration: durationSeconds}
}

func (r *Reconciler) Evaluate(nowMillis int64) (int, bool) {
	left := Remaining(nowMillis, r.startMillis, r.duration)
	if left == 0 && !r.fired {
		r.fired = true
		return 0, true
	}
	return left, false
}

type TickerCreator interface {
	Create(d time.Duration) (<-chan time.Time, func())
}

type systemTickers struct{}

func (systemTickers) Create(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func NewTickerCreator() TickerCreator {
	return systemTickers{}
}

type Config struct {
	StartMillis     int64
	DurationSeconds int
	Interval        time.Duration
	Now             func() time.Time
	Tickers         TickerCreator
	OnTick          func(left int)
	OnExpire        func()
}

// Countdown owns one periodic trigger. It evaluates once immediately and
// then on every tick until expiry, Stop, or context cancellation.
type Countdown struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func Start(ctx context.Context, cfg Config) *Countdown {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Tickers == nil {
		cfg.Tickers = systemTickers{}
	}
	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go c.run(ctx, cfg)
	return c
}

// Stop cancels the countdown. It does not wait for a callback that is
// already running; use Done for that.
func (c *Countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) run(ctx context.Context, cfg Config) {
	defer close(c.done)

	ticks, stopTicker := cfg.Tickers.Create(cfg.Interval)
	defer stopTicker()

	rec := NewReconciler(cfg.StartMillis, cfg.DurationSeconds)
	evaluate := func() bool {
		select {
		case <-c.stop:
			return true
		default:
		}
		left, expired := rec.Evaluate(cfg.Now().UnixMilli())
		if cfg.OnTick != nil {
			cfg.OnTick(left)
		}
		if expired {
			if cfg.OnExpire != nil {
				cfg.OnExpire()
			}
			return true
		}
		return false
	}

	if evaluate() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticks:
			if evaluate() {
				return
			}
		}
	}
}
