//go:build nocgo

package audio

import "fmt"

// Player stands in for the oto device in builds without cgo. It can never
// be opened, so callers fall back to their no-audio behavior.
type Player struct {
	format Format
}

// NewPlayer validates config and reports that no device is available.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return nil, fmt.Errorf("%w: built without cgo", ErrNoDevice)
}

// Format implements Sink.
func (p *Player) Format() Format { return p.format }

// Play implements Sink.
func (p *Player) Play([]byte) (<-chan struct{}, error) {
	return nil, ErrNoDevice
}

// Stop implements Sink.
func (p *Player) Stop() error { return nil }

// IsPlaying implements Sink.
func (p *Player) IsPlaying() bool { return false }

// Close implements io.Closer.
func (p *Player) Close() error { return nil }

var _ Sink = (*Player)(nil)
