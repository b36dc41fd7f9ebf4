package speech

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/audio"
	"github.com/dgnsrekt/speak/internal/cache"
	"github.com/dgnsrekt/speak/internal/voice"
)

// Synthesizer is the speech capability the reader depends on.
type Synthesizer interface {
	// Voices lists the voices the engine offers.
	Voices(ctx context.Context) ([]voice.Voice, error)

	// Speak cancels any current utterance and starts u.
	Speak(ctx context.Context, u Utterance) error

	// Cancel stops the current utterance, if any.
	Cancel()

	// Speaking reports whether an utterance is being synthesized or played.
	Speaking() bool

	// Events delivers playback events.
	Events() <-chan Event
}

// Backend renders utterances to WAV audio.
type Backend interface {
	Name() string
	Voices(ctx context.Context) ([]voice.Voice, error)
	Synthesize(ctx context.Context, u Utterance) ([]byte, error)
}

// AudioCache stores rendered audio between utterances.
type AudioCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

const eventBuffer = 32

// Engine plays a Backend's audio on a Sink. It is the single synthesizer of
// the process: starting an utterance first cancels the previous one and
// waits for it to wind down.
type Engine struct {
	backend Backend
	sink    audio.Sink
	cache   AudioCache
	events  chan Event

	speakMu sync.Mutex // serializes Speak
	mu      sync.Mutex
	current *job
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache makes the engine reuse rendered audio.
func WithCache(c AudioCache) Option {
	return func(e *Engine) { e.cache = c }
}

// NewEngine creates an engine.
func NewEngine(backend Backend, sink audio.Sink, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		sink:    sink,
		events:  make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Voices implements Synthesizer.
func (e *Engine) Voices(ctx context.Context) ([]voice.Voice, error) {
	return e.backend.Voices(ctx)
}

// Events implements Synthesizer.
func (e *Engine) Events() <-chan Event { return e.events }

// Speak implements Synthesizer. It returns once the previous utterance has
// been canceled and u has been handed to the playback goroutine.
func (e *Engine) Speak(ctx context.Context, u Utterance) error {
	if strings.TrimSpace(u.Text) == "" {
		return ErrEmptyText
	}

	e.speakMu.Lock()
	defer e.speakMu.Unlock()
	e.Cancel()

	jctx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	e.current = j
	e.mu.Unlock()

	go e.run(jctx, j, u)
	return nil
}

// Cancel implements Synthesizer.
func (e *Engine) Cancel() {
	e.mu.Lock()
	j := e.current
	e.current = nil
	e.mu.Unlock()

	if j == nil {
		return
	}
	j.cancel()
	<-j.done
}

// Speaking implements Synthesizer.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

func (e *Engine) run(ctx context.Context, j *job, u Utterance) {
	defer close(j.done)
	defer j.cancel()

	e.emit(Event{Kind: Started, UtteranceID: u.ID})
	ev := e.play(ctx, u)
	e.release(j)
	e.emit(ev)
}

// play renders and plays u, returning the event that ends it.
func (e *Engine) play(ctx context.Context, u Utterance) Event {
	pcm, err := e.render(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return Event{Kind: Canceled, UtteranceID: u.ID}
		}
		log.Error("synthesis failed", "backend", e.backend.Name(), "utterance", u.ID, "error", err)
		return Event{Kind: Failed, UtteranceID: u.ID, Err: err}
	}

	finished, err := e.sink.Play(pcm)
	if err != nil {
		err = NewError(CodePlayback, "play audio", err)
		log.Error("playback failed", "utterance", u.ID, "error", err)
		return Event{Kind: Failed, UtteranceID: u.ID, Err: err}
	}

	select {
	case <-finished:
	case <-ctx.Done():
		_ = e.sink.Stop()
	}

	if ctx.Err() != nil {
		return Event{Kind: Canceled, UtteranceID: u.ID}
	}
	return Event{Kind: Ended, UtteranceID: u.ID}
}

// release clears the current job if it is still j.
func (e *Engine) release(j *job) {
	e.mu.Lock()
	if e.current == j {
		e.current = nil
	}
	e.mu.Unlock()
}

func (e *Engine) render(ctx context.Context, u Utterance) ([]byte, error) {
	key := cache.Key(e.backend.Name(), u.Voice.Key(), voice.NormalizeLang(u.Lang), u.RateString(), u.Text)

	var wav []byte
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			wav = cached
		}
	}
	if wav == nil {
		var err error
		wav, err = e.backend.Synthesize(ctx, u)
		if err != nil {
			return nil, err
		}
		if e.cache != nil {
			if err := e.cache.Put(key, wav); err != nil {
				log.Debug("audio not cached", "error", err)
			}
		}
	}

	pcm, err := audio.DecodeWAV(wav, e.sink.Format())
	if err != nil {
		return nil, NewError(CodeAudioFormat, "decode synthesized audio", err)
	}
	return pcm, nil
}

// emit never blocks; a full buffer drops the event.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		log.Debug("speech event dropped", "kind", ev.Kind, "utterance", ev.UtteranceID)
	}
}

// Disabled is a Synthesizer for when no engine could be started. Every call
// reports the reason.
type Disabled struct {
	Reason error
	events chan Event
}

// NewDisabled returns a Disabled synthesizer. A nil reason becomes
// ErrUnavailable.
func NewDisabled(reason error) *Disabled {
	if reason == nil {
		reason = ErrUnavailable
	}
	if !errors.Is(reason, ErrUnavailable) {
		reason = NewError(CodeUnavailable, "no speech engine", reason)
	}
	return &Disabled{Reason: reason, events: make(chan Event)}
}

func (d *Disabled) Voices(context.Context) ([]voice.Voice, error) { return nil, d.Reason }
func (d *Disabled) Speak(context.Context, Utterance) error         { return d.Reason }
func (d *Disabled) Cancel()                                        {}
func (d *Disabled) Speaking() bool                                 { return false }
func (d *Disabled) Events() <-chan Event                           { return d.events }

var (
	_ Synthesizer = (*Engine)(nil)
	_ Synthesizer = (*Disabled)(nil)
)
