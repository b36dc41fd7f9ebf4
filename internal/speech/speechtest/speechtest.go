// Package speechtest provides fake speech engines for tests.
package speechtest

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"

	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/dgnsrekt/speak/internal/voice"
)

// WAV returns n samples of silence as a mono 16-bit WAV file.
func WAV(sampleRate, n int) []byte {
	var buf bytes.Buffer
	dataSize := uint32(n * 2)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVEfmt ")
	for _, v := range []any{
		uint32(16), uint16(1), uint16(1),
		uint32(sampleRate), uint32(sampleRate * 2),
		uint16(2), uint16(16),
	} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

// Backend is a speech.Backend that renders silence.
type Backend struct {
	VoiceList []voice.Voice
	VoicesErr error
	Err       error // returned by Synthesize

	// Block makes Synthesize wait until its context is done.
	Block bool

	mu    sync.Mutex
	calls []speech.Utterance
}

func (b *Backend) Name() string { return "fake" }

func (b *Backend) Voices(context.Context) ([]voice.Voice, error) {
	return b.VoiceList, b.VoicesErr
}

func (b *Backend) Synthesize(ctx context.Context, u speech.Utterance) ([]byte, error) {
	b.mu.Lock()
	b.calls = append(b.calls, u)
	b.mu.Unlock()

	if b.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if b.Err != nil {
		return nil, b.Err
	}
	return WAV(44100, 441), nil
}

// Calls returns the utterances synthesized so far.
func (b *Backend) Calls() []speech.Utterance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]speech.Utterance(nil), b.calls...)
}

// Synthesizer is a speech.Synthesizer that records what it was asked to say.
// An utterance stays "speaking" until Finish or Cancel.
type Synthesizer struct {
	VoiceList []voice.Voice
	VoicesErr error
	SpeakErr  error

	mu       sync.Mutex
	spoken   []speech.Utterance
	speaking bool
	cancels  int
	events   chan speech.Event
}

// NewSynthesizer returns a fake offering voices.
func NewSynthesizer(voices ...voice.Voice) *Synthesizer {
	return &Synthesizer{VoiceList: voices, events: make(chan speech.Event, 64)}
}

func (s *Synthesizer) Voices(context.Context) ([]voice.Voice, error) {
	return s.VoiceList, s.VoicesErr
}

func (s *Synthesizer) Speak(_ context.Context, u speech.Utterance) error {
	if s.SpeakErr != nil {
		return s.SpeakErr
	}
	s.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, u)
	s.speaking = true
	s.emit(speech.Event{Kind: speech.Started, UtteranceID: u.ID})
	return nil
}

func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.speaking {
		return
	}
	s.speaking = false
	s.cancels++
	s.emit(speech.Event{Kind: speech.Canceled, UtteranceID: s.spoken[len(s.spoken)-1].ID})
}

func (s *Synthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

func (s *Synthesizer) Events() <-chan speech.Event { return s.events }

func (s *Synthesizer) emit(ev speech.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Finish ends the current utterance normally.
func (s *Synthesizer) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.speaking {
		return
	}
	s.speaking = false
	s.emit(speech.Event{Kind: speech.Ended, UtteranceID: s.spoken[len(s.spoken)-1].ID})
}

// Spoken returns every utterance passed to Speak.
func (s *Synthesizer) Spoken() []speech.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]speech.Utterance(nil), s.spoken...)
}

// Last returns the most recent utterance.
func (s *Synthesizer) Last() (speech.Utterance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.spoken) == 0 {
		return speech.Utterance{}, false
	}
	return s.spoken[len(s.spoken)-1], true
}

// Cancels returns how many utterances were cut short.
func (s *Synthesizer) Cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

var (
	_ speech.Backend     = (*Backend)(nil)
	_ speech.Synthesizer = (*Synthesizer)(nil)
)
