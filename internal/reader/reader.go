// Package reader implements the speech reader: it speaks the text (or the
// selected part of it) with the chosen voice and speed, keeps the voice
// list, and fills the text from dictation. A presentation layer drives it
// through Events and is updated through View.
package reader

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/dictation"
	"github.com/dgnsrekt/speak/internal/prefs"
	"github.com/dgnsrekt/speak/internal/session"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/dgnsrekt/speak/internal/voice"
)

// Surface is a focusable part of the screen.
type Surface int

const (
	SurfaceNone Surface = iota
	SurfaceText
	SurfaceVoiceFilter
	SurfaceSpeed
)

// SelectionEvent reports the selected range of the text, in runes, and
// where focus was when the selection changed.
type SelectionEvent struct {
	Focus      Surface
	Start, End int
}

// Events are the user interactions a presentation layer forwards.
type Events interface {
	OnCatalogReady(ctx context.Context) error
	OnToggleVoiceList()
	OnSelectVoice(ctx context.Context, v voice.Voice) error
	OnFilterKey(ctx context.Context, key, filter string) error
	OnSpeedChange(ctx context.Context, rate float64) error
	OnSelectionChange(ctx context.Context, ev SelectionEvent) error
	OnTextChange(text string)
	OnSpeak(ctx context.Context) error
	OnStop()
	OnDictationToggle(ctx context.Context) error
}

// View receives state changes. Implementations must be safe to call from
// any goroutine: dictation results arrive from the recognizer.
type View interface {
	ShowVoices(voices []voice.Voice, selected voice.Voice, open bool)
	SetRecording(on bool)
	SetStatus(status string)
	SetText(text string)
}

// KeyEnter is the filter key that selects the first match.
const KeyEnter = "enter"

// Options configure a Reader. Session, Synthesizer and Prefs are required.
type Options struct {
	Session     *session.Session
	Synthesizer speech.Synthesizer
	Recognizer  dictation.Recognizer // nil disables dictation
	Prefs       *prefs.Preferences
	View        View
	Speed       SpeedRange
	Fuzzy       bool // rank voice filter matches fuzzily
	Params      Params
}

// Reader implements Events.
type Reader struct {
	session *session.Session
	synth   speech.Synthesizer
	rec     dictation.Recognizer
	prefs   *prefs.Preferences
	view    View
	speed   *SpeedControl
	fuzzy   bool

	mu        sync.Mutex
	filter    string
	listOpen  bool
	params    Params
	autoSpeak bool

	dictating  bool
	dictSerial int
	dictBase   string
	transcript dictation.Transcript
}

// New creates a reader. Call Init before forwarding events.
func New(opts Options) *Reader {
	view := opts.View
	if view == nil {
		view = nopView{}
	}
	return &Reader{
		session: opts.Session,
		synth:   opts.Synthesizer,
		rec:     opts.Recognizer,
		prefs:   opts.Prefs,
		view:    view,
		speed:   NewSpeedControl(opts.Speed),
		fuzzy:   opts.Fuzzy,
		params:  opts.Params,
	}
}

// Init restores the stored speed and applies launch parameters. Parameters
// win over stored preferences and are not persisted.
func (r *Reader) Init(ctx context.Context) {
	if rate, ok := r.prefs.Speed(ctx); ok {
		r.session.SetRate(r.speed.Set(rate))
	}

	r.mu.Lock()
	p := r.params
	r.mu.Unlock()

	if rate, ok := p.Rate(); ok {
		r.session.SetRate(r.speed.Set(rate))
	}
	if p.Lang != "" {
		r.session.SetLang(p.Lang)
	}
	if p.Text != "" {
		r.session.SetText(p.Text)
		r.view.SetText(p.Text)
		r.mu.Lock()
		r.autoSpeak = true
		r.mu.Unlock()
	}
	r.view.SetStatus(r.speedStatus())
}

// Speed returns the speed control.
func (r *Reader) Speed() *SpeedControl { return r.speed }

// Session returns the shared session.
func (r *Reader) Session() *session.Session { return r.session }

// DictationAvailable reports whether a recognizer is configured.
func (r *Reader) DictationAvailable() bool { return r.rec != nil }

// HandleSpeechEvent reflects playback progress in the status line.
func (r *Reader) HandleSpeechEvent(ev speech.Event) {
	switch ev.Kind {
	case speech.Started:
		r.view.SetStatus("Speaking at " + r.speed.Display())
	case speech.Ended:
		r.view.SetStatus("Done")
	case speech.Canceled:
		r.view.SetStatus("Stopped")
	case speech.Failed:
		r.view.SetStatus(fmt.Sprintf("Speech failed: %v", ev.Err))
	}
}

// Close stops speech and dictation.
func (r *Reader) Close() {
	r.OnStop()
	r.stopDictation()
}

func (r *Reader) speedStatus() string {
	return "Speed " + r.speed.Display()
}

func (r *Reader) warn(msg string, err error) {
	log.Warn(msg, "error", err)
	r.view.SetStatus(fmt.Sprintf("%s: %v", msg, err))
}

type nopView struct{}

func (nopView) ShowVoices([]voice.Voice, voice.Voice, bool) {}
func (nopView) SetRecording(bool)                          {}
func (nopView) SetStatus(string)                           {}
func (nopView) SetText(string)                             {}

var _ Events = (*Reader)(nil)
