package audio

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoDevice is returned when no audio output device can be opened.
var ErrNoDevice = errors.New("audio device unavailable")

// Sink plays 16-bit little-endian PCM in the sink's Format.
type Sink interface {
	// Play replaces any current playback with pcm. The returned channel is
	// closed when playback finishes or is stopped.
	Play(pcm []byte) (<-chan struct{}, error)

	// Stop ends playback. Stopping an idle sink is a no-op.
	Stop() error

	// IsPlaying reports whether audio is currently playing.
	IsPlaying() bool

	// Format returns the PCM layout the sink expects.
	Format() Format
}

// Format describes 16-bit PCM audio.
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerSecond returns the byte rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Duration returns how long n bytes of audio in this format play for.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BufferSize int // buffer size in bytes
	Volume     float64
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1,
		BufferSize: 4096,
		Volume:     1.0,
	}
}

func validateConfig(config PlayerConfig) error {
	// oto only handles these rates reliably across platforms
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	if config.Volume < 0 || config.Volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", config.Volume)
	}
	return nil
}
