package reader

import (
	"context"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
)

// SpeedRange bounds the speech rate.
type SpeedRange struct {
	Min, Max, Step float64
}

// DefaultSpeedRange is 10% to 300% in 10% steps.
var DefaultSpeedRange = SpeedRange{Min: 0.1, Max: 3.0, Step: 0.1}

func (r SpeedRange) valid() bool {
	return r.Min > 0 && r.Min <= r.Max && r.Step > 0
}

// SpeedControl holds the rate within its range. Rates are kept as decimals
// so stepping never accumulates float error.
type SpeedControl struct {
	rng SpeedRange

	mu   sync.Mutex
	rate decimal.Decimal
}

// NewSpeedControl starts at normal speed, clamped into rng. An invalid range
// falls back to DefaultSpeedRange.
func NewSpeedControl(rng SpeedRange) *SpeedControl {
	if !rng.valid() {
		rng = DefaultSpeedRange
	}
	s := &SpeedControl{rng: rng}
	s.Set(1)
	return s
}

// Range returns the bounds.
func (s *SpeedControl) Range() SpeedRange { return s.rng }

// Rate returns the current rate multiplier.
func (s *SpeedControl) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate.InexactFloat64()
}

// Set clamps rate into range and returns the applied rate. NaN is ignored.
func (s *SpeedControl) Set(rate float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(rate)
}

func (s *SpeedControl) setLocked(rate float64) float64 {
	if !math.IsNaN(rate) {
		rate = min(max(rate, s.rng.Min), s.rng.Max)
		s.rate = decimal.NewFromFloat(rate)
	}
	return s.rate.InexactFloat64()
}

// Increase steps the rate up.
func (s *SpeedControl) Increase() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(s.rate.Add(decimal.NewFromFloat(s.rng.Step)).InexactFloat64())
}

// Decrease steps the rate down.
func (s *SpeedControl) Decrease() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(s.rate.Sub(decimal.NewFromFloat(s.rng.Step)).InexactFloat64())
}

// Display renders the rate as a percentage.
func (s *SpeedControl) Display() string {
	return FormatPercent(s.Rate())
}

// FormatPercent renders rate*100 with one decimal place, e.g. 1.5 as
// "150.0%".
func FormatPercent(rate float64) string {
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// OnSpeedChange implements Events. The new rate is persisted and speech
// restarted at it.
func (r *Reader) OnSpeedChange(ctx context.Context, rate float64) error {
	applied := r.speed.Set(rate)
	r.session.SetRate(applied)
	if err := r.prefs.SetSpeed(ctx, applied); err != nil {
		log.Warn("could not save speed", "error", err)
	}
	r.view.SetStatus(r.speedStatus())
	return r.OnSpeak(ctx)
}
