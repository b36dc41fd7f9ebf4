package reader

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/speak/internal/dictation"
	"github.com/dgnsrekt/speak/internal/prefs"
	"github.com/dgnsrekt/speak/internal/session"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/dgnsrekt/speak/internal/speech/speechtest"
	"github.com/dgnsrekt/speak/internal/voice"
)

var (
	alex     = voice.Voice{Name: "alex", Lang: "en-US"}
	zira     = voice.Voice{Name: "Zira", Lang: "en-US"}
	daniel   = voice.Voice{Name: "Daniel", Lang: "en_GB"}
	amelie   = voice.Voice{Name: "amelie", Lang: "fr-CA"}
	hortense = voice.Voice{Name: "Hortense", Lang: "fr-FR"}

	testVoices = []voice.Voice{alex, zira, daniel, amelie, hortense}
)

type fakeView struct {
	mu        sync.Mutex
	voices    []voice.Voice
	selected  voice.Voice
	open      bool
	recording bool
	statuses  []string
	text      string
}

func (v *fakeView) ShowVoices(voices []voice.Voice, selected voice.Voice, open bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.voices, v.selected, v.open = voices, selected, open
}

func (v *fakeView) SetRecording(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.recording = on
}

func (v *fakeView) SetStatus(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, s)
}

func (v *fakeView) SetText(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.text = s
}

func (v *fakeView) Recording() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.recording
}

func (v *fakeView) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text
}

func (v *fakeView) LastStatus() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return ""
	}
	return v.statuses[len(v.statuses)-1]
}

type fixture struct {
	reader *Reader
	synth  *speechtest.Synthesizer
	view   *fakeView
	store  *prefs.MemoryStore
	prefs  *prefs.Preferences
	rec    *dictation.Fake
}

func newFixture(t *testing.T, configure ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		synth: speechtest.NewSynthesizer(testVoices...),
		view:  &fakeView{},
		store: prefs.NewMemoryStore(),
		rec:   &dictation.Fake{},
	}
	f.prefs = prefs.New(f.store)
	opts := Options{
		Session:     session.New(voice.NewCatalog(true)),
		Synthesizer: f.synth,
		Recognizer:  f.rec,
		Prefs:       f.prefs,
		View:        f.view,
		Speed:       DefaultSpeedRange,
	}
	for _, c := range configure {
		c(&opts)
	}
	f.reader = New(opts)
	f.reader.Init(context.Background())
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSpeakUsesSelectionOrWholeText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.reader.OnCatalogReady(ctx); err != nil {
		t.Fatal(err)
	}

	f.reader.OnTextChange("hello big world")
	if err := f.reader.OnSpeak(ctx); err != nil {
		t.Fatal(err)
	}
	u, _ := f.synth.Last()
	if u.Text != "hello big world" {
		t.Errorf("spoke %q, want whole text", u.Text)
	}
	if u.Voice != daniel || u.Lang != daniel.Lang || u.Rate != 1 {
		t.Errorf("utterance = %+v, want first voice at rate 1", u)
	}

	f.reader.Session().SetSelection("big")
	if err := f.reader.OnSpeak(ctx); err != nil {
		t.Fatal(err)
	}
	u, _ = f.synth.Last()
	if u.Text != "big" {
		t.Errorf("spoke %q, want selection", u.Text)
	}
	if f.synth.Cancels() != 1 {
		t.Errorf("Cancels() = %d, want previous utterance canceled", f.synth.Cancels())
	}
}

func TestSpeakEmptyTextIsNoop(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"", "   \n"} {
		f.reader.OnTextChange(text)
		if err := f.reader.OnSpeak(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(f.synth.Spoken()); n != 0 {
		t.Errorf("%d utterances for empty text", n)
	}
}

func TestStopOnlyWhenSpeaking(t *testing.T) {
	f := newFixture(t)

	f.reader.OnStop()
	if f.synth.Cancels() != 0 {
		t.Error("Stop while idle should not cancel")
	}

	f.reader.OnTextChange("words")
	_ = f.reader.OnSpeak(context.Background())
	f.reader.OnStop()
	if f.synth.Cancels() != 1 || f.synth.Speaking() {
		t.Errorf("Stop while speaking: cancels=%d speaking=%v", f.synth.Cancels(), f.synth.Speaking())
	}
}

func TestSelectionChange(t *testing.T) {
	tests := []struct {
		name  string
		ev    SelectionEvent
		spoke string
	}{
		{"outside text ignored", SelectionEvent{Focus: SurfaceVoiceFilter, Start: 0, End: 4}, ""},
		{"no focus ignored", SelectionEvent{Focus: SurfaceNone, Start: 0, End: 4}, ""},
		{"empty selection", SelectionEvent{Focus: SurfaceText, Start: 3, End: 3}, ""},
		{"selection spoken", SelectionEvent{Focus: SurfaceText, Start: 6, End: 11}, "über "},
		{"reversed range", SelectionEvent{Focus: SurfaceText, Start: 5, End: 0}, "Grüße"},
		{"clamped", SelectionEvent{Focus: SurfaceText, Start: 11, End: 99}, "alles"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.reader.OnTextChange("Grüße über alles")
			if err := f.reader.OnSelectionChange(context.Background(), tt.ev); err != nil {
				t.Fatal(err)
			}
			u, ok := f.synth.Last()
			if tt.spoke == "" {
				if ok {
					t.Errorf("unexpected utterance %q", u.Text)
				}
				return
			}
			if u.Text != tt.spoke {
				t.Errorf("spoke %q, want %q", u.Text, tt.spoke)
			}
		})
	}
}

func TestCatalogReadySelection(t *testing.T) {
	tests := []struct {
		name   string
		stored string // raw stored value, "" for none
		params Params
		want   voice.Voice
	}{
		{"nothing stored", "", Params{}, daniel},
		{"stored descriptor", hortense.Descriptor().Encode(), Params{}, hortense},
		{"stored descriptor other locale", `{"name":"Zira","lang":"en-AU"}`, Params{}, zira},
		{"legacy bare name", "amelie", Params{}, amelie},
		{"stored voice gone", `{"name":"Ghost","lang":"en-US"}`, Params{}, voice.Voice{}},
		{"voice param", hortense.Descriptor().Encode(), Params{Voice: "ZIRA"}, zira},
		{"lang param", "", Params{Lang: "fr_fr"}, hortense},
		{"unknown lang param", "", Params{Lang: "xx"}, daniel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := prefs.NewMemoryStore()
			if tt.stored != "" {
				_ = store.Set(context.Background(), prefs.KeyVoice, tt.stored)
			}
			f := newFixture(t, func(o *Options) {
				o.Prefs = prefs.New(store)
				o.Params = tt.params
			})
			if err := f.reader.OnCatalogReady(context.Background()); err != nil {
				t.Fatal(err)
			}
			if got := f.reader.Session().Voice(); got != tt.want {
				t.Errorf("selected %+v, want %+v", got, tt.want)
			}
			if f.view.selected != tt.want {
				t.Errorf("view marked %+v as selected", f.view.selected)
			}
			if len(f.view.voices) != len(testVoices) {
				t.Errorf("view shows %d voices", len(f.view.voices))
			}
		})
	}
}

func TestCatalogReadyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.reader.OnCatalogReady(ctx); err != nil {
		t.Fatal(err)
	}
	f.reader.Session().SetVoice(hortense)
	if err := f.reader.OnCatalogReady(ctx); err != nil {
		t.Fatal(err)
	}

	if n := f.reader.Session().Catalog().Rebuilds(); n != 1 {
		t.Errorf("catalog rebuilt %d times, want 1", n)
	}
	if f.reader.Session().Voice() != hortense {
		t.Error("repeated catalog notification reset the selection")
	}
}

func TestCatalogReadyFailure(t *testing.T) {
	f := newFixture(t)
	f.synth.VoicesErr = errors.New("engine gone")
	if err := f.reader.OnCatalogReady(context.Background()); err == nil {
		t.Error("expected error")
	}
	if f.view.LastStatus() == "" {
		t.Error("failure should be shown")
	}
}

func TestSelectVoicePersistsAndRestarts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.reader.OnCatalogReady(ctx)
	f.reader.OnTextChange("bonjour")
	f.reader.OnToggleVoiceList()
	if !f.view.open {
		t.Fatal("list should be open")
	}

	if err := f.reader.OnSelectVoice(ctx, amelie); err != nil {
		t.Fatal(err)
	}
	if got := f.prefs.Voice(ctx); got != amelie.Descriptor() {
		t.Errorf("stored voice = %+v", got)
	}
	if f.view.open {
		t.Error("selecting should close the list")
	}
	u, ok := f.synth.Last()
	if !ok || u.Voice != amelie || u.Lang != "fr-CA" {
		t.Errorf("restart utterance = %+v", u)
	}
}

func TestFilterKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.reader.OnCatalogReady(ctx)

	if err := f.reader.OnFilterKey(ctx, "e", "E"); err != nil {
		t.Fatal(err)
	}
	want := []voice.Voice{daniel, alex, amelie, hortense}
	if !slices.Equal(f.view.voices, want) {
		t.Errorf("filtered = %v, want %v", f.view.voices, want)
	}
	if !f.view.open {
		t.Error("filtering keeps the list open")
	}
	if f.reader.Filter() != "E" {
		t.Errorf("Filter() = %q", f.reader.Filter())
	}

	if err := f.reader.OnFilterKey(ctx, KeyEnter, "ame"); err != nil {
		t.Fatal(err)
	}
	if f.reader.Session().Voice() != amelie {
		t.Errorf("Enter selected %+v, want first match", f.reader.Session().Voice())
	}

	// Enter with no matches changes nothing.
	if err := f.reader.OnFilterKey(ctx, KeyEnter, "zzz"); err != nil {
		t.Fatal(err)
	}
	if f.reader.Session().Voice() != amelie {
		t.Error("Enter without matches changed the voice")
	}

	// The filter is kept when the list is reopened.
	f.reader.OnToggleVoiceList()
	if len(f.view.voices) != 0 {
		t.Errorf("reopened list ignores previous filter: %v", f.view.voices)
	}
}

func TestFuzzyFilter(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Fuzzy = true })
	ctx := context.Background()
	_ = f.reader.OnCatalogReady(ctx)

	if err := f.reader.OnFilterKey(ctx, KeyEnter, "hrt"); err != nil {
		t.Fatal(err)
	}
	if f.reader.Session().Voice() != hortense {
		t.Errorf("fuzzy Enter selected %+v", f.reader.Session().Voice())
	}
}

func TestSpeedChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.reader.OnTextChange("fast")

	if err := f.reader.OnSpeedChange(ctx, 1.5); err != nil {
		t.Fatal(err)
	}
	if rate, ok := f.prefs.Speed(ctx); !ok || rate != 1.5 {
		t.Errorf("stored speed = %v, %v", rate, ok)
	}
	if f.reader.Speed().Display() != "150.0%" {
		t.Errorf("Display() = %q", f.reader.Speed().Display())
	}
	if u, _ := f.synth.Last(); u.Rate != 1.5 {
		t.Errorf("restarted at rate %v", u.Rate)
	}

	_ = f.reader.OnSpeedChange(ctx, 10)
	if u, _ := f.synth.Last(); u.Rate != 3 {
		t.Errorf("rate not clamped: %v", u.Rate)
	}
}

func TestInitRestoresSpeed(t *testing.T) {
	store := prefs.NewMemoryStore()
	_ = store.Set(context.Background(), prefs.KeySpeed, "0.7")

	f := newFixture(t, func(o *Options) { o.Prefs = prefs.New(store) })
	if got := f.reader.Session().Rate(); got != 0.7 {
		t.Errorf("restored rate = %v", got)
	}

	// Launch parameters win over the stored speed.
	f = newFixture(t, func(o *Options) {
		o.Prefs = prefs.New(store)
		o.Params = Params{Speed: 125}
	})
	if got := f.reader.Session().Rate(); got != 1.25 {
		t.Errorf("param rate = %v", got)
	}
	if rate, _ := prefs.New(store).Speed(context.Background()); rate != 0.7 {
		t.Error("launch parameters must not be persisted")
	}
}

func TestParamsAutoSpeak(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Params = Params{Text: "salut", Lang: "fr-CA", Speed: 80}
	})
	if f.view.Text() != "salut" {
		t.Errorf("view text = %q", f.view.Text())
	}
	if len(f.synth.Spoken()) != 0 {
		t.Fatal("must wait for the catalog before speaking")
	}

	ctx := context.Background()
	if err := f.reader.OnCatalogReady(ctx); err != nil {
		t.Fatal(err)
	}
	u, ok := f.synth.Last()
	if !ok || u.Text != "salut" || u.Voice != amelie || u.Rate != 0.8 {
		t.Errorf("auto utterance = %+v", u)
	}

	// Only once.
	f.synth.VoiceList = append(f.synth.VoiceList, voice.Voice{Name: "New", Lang: "de-DE"})
	_ = f.reader.OnCatalogReady(ctx)
	if n := len(f.synth.Spoken()); n != 1 {
		t.Errorf("auto speak ran %d times", n)
	}
}

func TestSpeechUnavailable(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Synthesizer = speech.NewDisabled(nil) })
	f.reader.OnTextChange("hello")
	if err := f.reader.OnSpeak(context.Background()); !errors.Is(err, speech.ErrUnavailable) {
		t.Errorf("OnSpeak() error = %v", err)
	}
	if f.view.LastStatus() != "Speech is not available" {
		t.Errorf("status = %q", f.view.LastStatus())
	}
	f.reader.OnStop()
}

func TestHandleSpeechEvent(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		ev   speech.Event
		want string
	}{
		{speech.Event{Kind: speech.Started}, "Speaking at 100.0%"},
		{speech.Event{Kind: speech.Ended}, "Done"},
		{speech.Event{Kind: speech.Canceled}, "Stopped"},
		{speech.Event{Kind: speech.Failed, Err: errors.New("boom")}, "Speech failed: boom"},
	}
	for _, tt := range tests {
		f.reader.HandleSpeechEvent(tt.ev)
		if got := f.view.LastStatus(); got != tt.want {
			t.Errorf("status for %v = %q, want %q", tt.ev.Kind, got, tt.want)
		}
	}
}

func TestDictation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.reader.OnCatalogReady(ctx)
	_ = f.reader.OnSelectVoice(ctx, hortense)
	f.reader.OnTextChange("Début")

	if err := f.reader.OnDictationToggle(ctx); err != nil {
		t.Fatal(err)
	}
	if !f.view.Recording() || !f.reader.Dictating() {
		t.Fatal("recording indicator not set")
	}
	if got := f.rec.Langs(); !slices.Equal(got, []string{"fr-FR"}) {
		t.Errorf("recognizer langs = %v", got)
	}

	f.rec.Send(dictation.Result{Index: 0, Text: "bonjour", Final: true})
	f.rec.Send(dictation.Result{Index: 1, Text: "tout", Final: false})
	waitFor(t, func() bool { return f.view.Text() == "Début bonjour tout" })

	f.rec.Send(dictation.Result{Index: 1, Text: "tout le monde", Final: true})
	waitFor(t, func() bool { return f.view.Text() == "Début bonjour tout le monde" })
	if f.reader.Session().Text() != "Début bonjour tout le monde" {
		t.Errorf("session text = %q", f.reader.Session().Text())
	}

	// Second activation stops.
	if err := f.reader.OnDictationToggle(ctx); err != nil {
		t.Fatal(err)
	}
	if f.view.Recording() || f.reader.Dictating() {
		t.Error("toggle should stop dictation")
	}
	if f.rec.Stops() != 1 {
		t.Errorf("Stops() = %d", f.rec.Stops())
	}
}

func TestDictationEndedByRecognizer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.reader.OnDictationToggle(ctx); err != nil {
		t.Fatal(err)
	}
	f.rec.End()
	waitFor(t, func() bool { return !f.view.Recording() })
	if f.reader.Dictating() {
		t.Error("reader still dictating after recognizer ended")
	}

	// A new session can start afterwards.
	if err := f.reader.OnDictationToggle(ctx); err != nil {
		t.Fatal(err)
	}
	if !f.reader.Dictating() {
		t.Error("expected a second session")
	}
	f.reader.Close()
	if f.reader.Dictating() {
		t.Error("Close should stop dictation")
	}
}

func TestDictationUnavailable(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Recognizer = nil })
	if f.reader.DictationAvailable() {
		t.Error("no recognizer configured")
	}
	if err := f.reader.OnDictationToggle(context.Background()); !errors.Is(err, dictation.ErrUnavailable) {
		t.Errorf("error = %v", err)
	}
	if f.view.Recording() {
		t.Error("recording indicator set without recognizer")
	}
}

func TestDictationStartFailure(t *testing.T) {
	f := newFixture(t)
	f.rec.Err = errors.New("microphone busy")
	if err := f.reader.OnDictationToggle(context.Background()); err == nil {
		t.Error("expected start error")
	}
	if f.reader.Dictating() || f.view.Recording() {
		t.Error("failed start must not mark dictation active")
	}
}
