package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Clock advances simulated years on a wall-clock interval.
type Clock struct {
	Interval time.Duration // Base time per simulated year

	// OnYear runs once per simulated year.
	OnYear func(ctx context.Context)

	mu    sync.Mutex
	speed float64 // 1.0 = one year per Interval, 0 = paused
	years uint64
}

// NewClock creates a clock that fires every interval at speed 1.
func NewClock(interval time.Duration, onYear func(ctx context.Context)) *Clock {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Clock{
		Interval: interval,
		OnYear:   onYear,
		speed:    1.0,
	}
}

// Speed returns the current multiplier.
func (k *Clock) Speed() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.speed
}

// SetSpeed changes the multiplier. Zero or less pauses the clock.
func (k *Clock) SetSpeed(speed float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.speed = speed
}

// Years returns how many years this clock has advanced.
func (k *Clock) Years() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.years
}

// Run drives the clock until ctx is cancelled.
func (k *Clock) Run(ctx context.Context) {
	slog.Info("year clock started", "interval", k.Interval, "speed", k.Speed())
	defer slog.Info("year clock stopped", "years", k.Years())

	for {
		speed := k.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			if !sleep(ctx, 100*time.Millisecond) {
				return
			}
			continue
		}

		start := time.Now()
		k.step(ctx)

		elapsed := time.Since(start)
		target := time.Duration(float64(k.Interval) / speed)
		if elapsed < target {
			if !sleep(ctx, target-elapsed) {
				return
			}
		} else if ctx.Err() != nil {
			return
		}
	}
}

func (k *Clock) step(ctx context.Context) {
	if k.OnYear != nil {
		k.OnYear(ctx)
	}
	k.mu.Lock()
	k.years++
	k.mu.Unlock()
}

// sleep waits for d or until ctx is done. Reports false when cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
