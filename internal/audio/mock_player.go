package audio

import (
	"errors"
	"sync"
	"sync/atomic"
)

// MockPlayer is a Sink that produces no sound. Playback lasts until Stop,
// the next Play, or an explicit Finish, which lets tests step through
// playback deterministically.
type MockPlayer struct {
	mu      sync.Mutex
	format  Format
	current chan struct{}
	last    []byte

	// Fail makes the next Play call return an error.
	Fail bool

	playCount atomic.Int64
	stopCount atomic.Int64
}

// NewMockPlayer returns a mono 44.1 kHz mock sink.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{format: Format{SampleRate: 44100, Channels: 1}}
}

// Format implements Sink.
func (mp *MockPlayer) Format() Format { return mp.format }

// Play implements Sink.
func (mp *MockPlayer) Play(pcm []byte) (<-chan struct{}, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.Fail {
		mp.Fail = false
		return nil, errors.New("simulated playback error")
	}
	if len(pcm) == 0 {
		return nil, errors.New("audio data is empty")
	}

	mp.stopLocked()
	mp.last = append([]byte(nil), pcm...)
	mp.current = make(chan struct{})
	mp.playCount.Add(1)
	return mp.current, nil
}

// Finish simulates the current audio reaching its end.
func (mp *MockPlayer) Finish() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.current != nil {
		close(mp.current)
		mp.current = nil
	}
}

// Stop implements Sink.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.stopLocked()
	return nil
}

func (mp *MockPlayer) stopLocked() {
	if mp.current == nil {
		return
	}
	close(mp.current)
	mp.current = nil
	mp.stopCount.Add(1)
}

// IsPlaying implements Sink.
func (mp *MockPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.current != nil
}

// LastPlayed returns a copy of the most recently played audio.
func (mp *MockPlayer) LastPlayed() []byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]byte(nil), mp.last...)
}

// PlayCount returns how many times Play succeeded.
func (mp *MockPlayer) PlayCount() int { return int(mp.playCount.Load()) }

// StopCount returns how many playbacks were cut short.
func (mp *MockPlayer) StopCount() int { return int(mp.stopCount.Load()) }

var _ Sink = (*MockPlayer)(nil)
