package prefs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/voice"
)

// Storage keys. They match the keys the web reader used in localStorage.
const (
	KeyVoice = "selectedVoice"
	KeySpeed = "selectedSpeed"
)

// Preferences reads and writes the reader's typed preferences on top of a
// Store.
type Preferences struct {
	store Store
}

// New wraps store.
func New(store Store) *Preferences {
	return &Preferences{store: store}
}

// Voice returns the stored voice descriptor. A missing or unreadable value
// yields the zero descriptor.
func (p *Preferences) Voice(ctx context.Context) voice.Descriptor {
	v, ok, err := p.store.Get(ctx, KeyVoice)
	if err != nil {
		log.Warn("could not read stored voice", "error", err)
		return voice.Descriptor{}
	}
	if !ok {
		return voice.Descriptor{}
	}
	return voice.ParseDescriptor(v)
}

// SetVoice stores d as the selected voice.
func (p *Preferences) SetVoice(ctx context.Context, d voice.Descriptor) error {
	if err := p.store.Set(ctx, KeyVoice, d.Encode()); err != nil {
		return fmt.Errorf("store voice: %w", err)
	}
	return nil
}

// Speed returns the stored playback rate and whether one was stored.
func (p *Preferences) Speed(ctx context.Context) (float64, bool) {
	v, ok, err := p.store.Get(ctx, KeySpeed)
	if err != nil {
		log.Warn("could not read stored speed", "error", err)
		return 0, false
	}
	if !ok {
		return 0, false
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || rate <= 0 {
		log.Debug("ignoring invalid stored speed", "value", v)
		return 0, false
	}
	return rate, true
}

// SetSpeed stores rate as the selected playback rate.
func (p *Preferences) SetSpeed(ctx context.Context, rate float64) error {
	if err := p.store.Set(ctx, KeySpeed, strconv.FormatFloat(rate, 'f', -1, 64)); err != nil {
		return fmt.Errorf("store speed: %w", err)
	}
	return nil
}
