// Package timer implements the countdown timer: a one-second countdown that
// plays a tone when it runs out.
package timer

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrInvalidDuration is returned when starting with a non-positive duration.
var ErrInvalidDuration = errors.New("duration must be at least one minute")

// DefaultPresets are the durations offered for selection, in minutes.
var DefaultPresets = []int{1, 2, 3, 5, 10}

// Mode is what the timer screen shows.
type Mode int

const (
	// Selecting shows the duration choices.
	Selecting Mode = iota
	// Counting shows the remaining time.
	Counting
)

func (m Mode) String() string {
	if m == Counting {
		return "counting"
	}
	return "selecting"
}

// Toner plays the expiry tone.
type Toner interface {
	Tone() error
}

// Countdown holds the timer state. Each Start begins a new generation; ticks
// carry the generation they were scheduled for and stale ones are ignored,
// so at most one interval is ever live.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	mode      Mode
	gen       uint64
	tones     int
	toner     Toner
}

// NewCountdown creates an idle countdown.
func NewCountdown(toner Toner) *Countdown {
	return &Countdown{toner: toner}
}

// Start cancels any running interval and counts down from minutes. It
// returns the generation to tick with.
func (c *Countdown) Start(minutes int) (uint64, error) {
	if minutes <= 0 {
		return 0, ErrInvalidDuration
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.remaining = minutes * 60
	c.mode = Counting
	log.Debug("countdown started", "minutes", minutes, "generation", c.gen)
	return c.gen, nil
}

// Tick advances the interval gen by one second. It reports whether the
// countdown expired on this tick, in which case the tone has been played.
func (c *Countdown) Tick(gen uint64) bool {
	c.mu.Lock()
	if c.mode != Counting || gen != c.gen {
		c.mu.Unlock()
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		c.mu.Unlock()
		return false
	}

	c.gen++
	c.mode = Selecting
	c.tones++
	c.mu.Unlock()

	if err := c.toner.Tone(); err != nil {
		log.Warn("could not play timer tone", "error", err)
	}
	return true
}

// Stop cancels the interval without a tone. The remaining time is kept.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == Counting {
		c.gen++
	}
	c.mode = Selecting
}

// Display formats the remaining time as MM:SS.
func (c *Countdown) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FormatClock(c.remaining)
}

// Remaining returns the remaining seconds.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Mode returns the current mode.
func (c *Countdown) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Generation identifies the live interval.
func (c *Countdown) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Tones returns how many times the countdown has expired.
func (c *Countdown) Tones() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tones
}

// FormatClock renders seconds as zero-padded minutes and seconds.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Bell is a Toner ringing the terminal bell, for when there is no audio
// device.
type Bell struct {
	W io.Writer
}

func (b Bell) Tone() error {
	_, err := io.WriteString(b.W, "\a")
	return err
}
