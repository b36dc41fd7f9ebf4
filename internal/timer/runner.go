package timer

import (
	"context"
	"time"
)

// Clock creates tickers.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is the system clock.
type RealClock struct{}

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Runner drives a Countdown once per second without a UI.
type Runner struct {
	Countdown *Countdown
	Clock     Clock

	// OnTick is called with the display after every tick that did not expire.
	OnTick func(display string)
}

// Run counts down from minutes and returns when the countdown expires. If
// ctx ends first the countdown is stopped and ctx's error returned.
func (r *Runner) Run(ctx context.Context, minutes int) error {
	gen, err := r.Countdown.Start(minutes)
	if err != nil {
		return err
	}
	clock := r.Clock
	if clock == nil {
		clock = RealClock{}
	}
	if r.OnTick != nil {
		r.OnTick(r.Countdown.Display())
	}

	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Countdown.Stop()
			return ctx.Err()
		case <-ticker.C():
			if r.Countdown.Tick(gen) {
				return nil
			}
			if r.Countdown.Generation() != gen {
				// Restarted or stopped elsewhere.
				return nil
			}
			if r.OnTick != nil {
				r.OnTick(r.Countdown.Display())
			}
		}
	}
}
