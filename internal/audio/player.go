//go:build !nocgo

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player is a Sink backed by an oto context. Only one oto context may exist
// per process, so a program creates a single Player and shares it.
type Player struct {
	context *oto.Context
	format  Format
	volume  float64

	mu      sync.Mutex
	current *playback
}

// playback is one Play call. data is referenced until the player is closed
// so the reader oto drains is never collected mid-stream.
type playback struct {
	player *oto.Player
	data   []byte
	done   chan struct{}
	once   sync.Once
}

func (pb *playback) finish() {
	pb.once.Do(func() { close(pb.done) })
}

// NewPlayer opens the default output device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*config.Channels*2),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	<-ready

	return &Player{
		context: ctx,
		format:  Format{SampleRate: config.SampleRate, Channels: config.Channels},
		volume:  config.Volume,
	}, nil
}

// Format implements Sink.
func (p *Player) Format() Format { return p.format }

// Play implements Sink.
func (p *Player) Play(pcm []byte) (<-chan struct{}, error) {
	if len(pcm) == 0 {
		return nil, errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	data := make([]byte, len(pcm))
	copy(data, pcm)

	op := p.context.NewPlayer(bytes.NewReader(data))
	op.SetVolume(p.volume)

	pb := &playback{player: op, data: data, done: make(chan struct{})}
	p.current = pb
	op.Play()

	go p.watch(pb)
	return pb.done, nil
}

// watch closes pb.done once oto has drained the buffer.
func (p *Player) watch(pb *playback) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-pb.done:
			return
		case <-ticker.C:
			if pb.player.IsPlaying() {
				continue
			}
			p.mu.Lock()
			if p.current == pb {
				p.current = nil
			}
			p.mu.Unlock()
			_ = pb.player.Close()
			pb.finish()
			return
		}
	}
}

// Stop implements Sink.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	p.current.player.Pause()
	_ = p.current.player.Close()
	p.current.finish()
	p.current = nil
}

// IsPlaying implements Sink.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.player.IsPlaying()
}

// Close stops playback. oto contexts cannot be closed in v3; the device is
// released when the process exits.
func (p *Player) Close() error {
	return p.Stop()
}

var _ Sink = (*Player)(nil)
