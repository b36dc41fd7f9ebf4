package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/speak/internal/prefs"
	"github.com/dgnsrekt/speak/internal/reader"
	"github.com/dgnsrekt/speak/internal/session"
	"github.com/dgnsrekt/speak/internal/source"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/dgnsrekt/speak/internal/speech/speechtest"
	"github.com/dgnsrekt/speak/internal/voice"
)

var (
	alex   = voice.Voice{Name: "Alex", Lang: "en-US"}
	amelie = voice.Voice{Name: "Amelie", Lang: "fr-CA"}
)

func newTestReader(t *testing.T, text string) (readerModel, *speechtest.Synthesizer) {
	t.Helper()
	synth := speechtest.NewSynthesizer(alex, amelie)
	opts := ReaderOptions{
		Session:     session.New(voice.NewCatalog(true)),
		Synthesizer: synth,
		Prefs:       prefs.New(prefs.NewMemoryStore()),
		Speed:       reader.DefaultSpeedRange,
	}
	if text != "" {
		opts.Document = &source.Document{Kind: source.KindStdin, Text: text}
	}
	m := newReaderModel(Config{}, opts)
	t.Cleanup(m.cancel)
	return m, synth
}

func update(t *testing.T, m readerModel, msg tea.Msg) (readerModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(readerModel), cmd
}

// run executes a single command and feeds its message back.
func run(t *testing.T, m readerModel, cmd tea.Cmd) readerModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg := cmd(); msg != nil {
		m, _ = update(t, m, msg)
	}
	// pick up whatever the reader pushed while the command ran
	m.applyView(m.view.snapshot())
	return m
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReaderLoadsDocument(t *testing.T) {
	m, _ := newTestReader(t, "hello world")
	if m.text.Value() != "hello world" {
		t.Errorf("text area = %q", m.text.Value())
	}
	if got := m.reader.Session().Text(); got != "hello world" {
		t.Errorf("session text = %q", got)
	}
	if m.snap.status != "Speed 100.0%" {
		t.Errorf("status = %q", m.snap.status)
	}
}

func TestReaderTypingUpdatesSession(t *testing.T) {
	m, _ := newTestReader(t, "")
	m, _ = update(t, m, keys("hi"))
	if got := m.reader.Session().Text(); got != "hi" {
		t.Errorf("session text = %q, want %q", got, "hi")
	}
}

func TestReaderSpeak(t *testing.T) {
	m, synth := newTestReader(t, "read this")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = run(t, m, cmd)

	u, ok := synth.Last()
	if !ok || u.Text != "read this" || u.Rate != 1 {
		t.Fatalf("spoken = %+v, %v", u, ok)
	}

	m, _ = update(t, m, speechEventMsg(speech.Event{Kind: speech.Started, UtteranceID: u.ID}))
	if !m.speaking || m.snap.status != "Speaking at 100.0%" {
		t.Errorf("speaking = %v, status = %q", m.speaking, m.snap.status)
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m = run(t, m, cmd)
	if synth.Cancels() != 1 {
		t.Errorf("cancels = %d, want 1", synth.Cancels())
	}
	m, _ = update(t, m, speechEventMsg(speech.Event{Kind: speech.Canceled, UtteranceID: u.ID}))
	if m.speaking || m.snap.status != "Stopped" {
		t.Errorf("speaking = %v, status = %q", m.speaking, m.snap.status)
	}
}

func TestReaderSpeaksSelection(t *testing.T) {
	m, synth := newTestReader(t, "hello world")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	if m.mark != 11 {
		t.Fatalf("mark = %d, want 11", m.mark)
	}
	for i := 0; i < 5; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	m = run(t, m, cmd)

	u, ok := synth.Last()
	if !ok || u.Text != "world" {
		t.Errorf("spoken = %q, want %q", u.Text, "world")
	}
	if m.mark != -1 {
		t.Errorf("mark not cleared: %d", m.mark)
	}
}

func TestReaderSelectionClearedByCursor(t *testing.T) {
	m, synth := newTestReader(t, "hello world")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	for i := 0; i < 5; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	m = run(t, m, cmd)
	if got := m.reader.Session().Selection(); got != "world" {
		t.Fatalf("selection = %q, want %q", got, "world")
	}

	// a Speak right after selecting repeats the selection
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = run(t, m, cmd)
	if u, _ := synth.Last(); u.Text != "world" {
		t.Errorf("spoken = %q, want %q", u.Text, "world")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	if got := m.reader.Session().Selection(); got != "" {
		t.Errorf("selection after moving = %q", got)
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	run(t, m, cmd)
	if u, _ := synth.Last(); u.Text != "hello world" {
		t.Errorf("spoken = %q, want %q", u.Text, "hello world")
	}
}

func TestReaderSelectionClearedByStop(t *testing.T) {
	m, synth := newTestReader(t, "hello world")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	for i := 0; i < 5; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	m = run(t, m, cmd)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})
	m, _ = update(t, m, statusMessageTimeoutMsg{})
	if out := m.View(); !strings.Contains(out, "selection |") {
		t.Errorf("view does not show the selection:\n%s", out)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.reader.Session().Selection(); got != "" {
		t.Errorf("selection after esc = %q", got)
	}
	if m.statusMessage != "Selection cleared" {
		t.Errorf("status message = %q", m.statusMessage)
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	run(t, m, cmd)
	if u, _ := synth.Last(); u.Text != "hello world" {
		t.Errorf("spoken = %q, want %q", u.Text, "hello world")
	}
}

func TestReaderVoiceMenu(t *testing.T) {
	m, synth := newTestReader(t, "bonjour")
	m = run(t, m, m.do(m.reader.OnCatalogReady))
	if got := m.reader.Session().Voice(); got != alex {
		t.Fatalf("initial voice = %+v", got)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if !m.snap.open || !m.filter.Focused() {
		t.Fatal("voice list did not open")
	}
	if len(m.snap.voices) != 2 {
		t.Fatalf("voices = %v", m.snap.voices)
	}

	m, _ = update(t, m, keys("ame"))
	if len(m.snap.voices) != 1 || m.snap.voices[0] != amelie {
		t.Fatalf("filtered = %v", m.snap.voices)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)
	if m.snap.open || !m.text.Focused() {
		t.Error("voice list still open after choosing")
	}
	u, ok := synth.Last()
	if !ok || u.Voice != amelie || u.Lang != "fr-CA" {
		t.Errorf("spoken with %+v (%s)", u.Voice, u.Lang)
	}
}

func TestReaderMenuCursorPick(t *testing.T) {
	m, _ := newTestReader(t, "")
	m = run(t, m, m.do(m.reader.OnCatalogReady))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.menuCursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.menuCursor)
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)
	if got := m.reader.Session().Voice(); got != amelie {
		t.Errorf("voice = %+v", got)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.snap.open {
		t.Error("esc should close the voice list")
	}
}

func TestReaderMenuPicksShownVoice(t *testing.T) {
	m, _ := newTestReader(t, "")
	m = run(t, m, m.do(m.reader.OnCatalogReady))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	// the list on screen is what gets picked, even before the filter
	// catches up with it
	m.snap.voices = []voice.Voice{amelie, alex}
	if m.menuCursor != 0 {
		t.Fatalf("cursor = %d, want 0", m.menuCursor)
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	if got := m.reader.Session().Voice(); got != amelie {
		t.Errorf("voice = %+v, want %+v", got, amelie)
	}
}

func TestReaderSpeedKeys(t *testing.T) {
	m, _ := newTestReader(t, "")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	m = run(t, m, cmd)
	if got := m.reader.Session().Rate(); got != 1.1 {
		t.Errorf("rate = %v, want 1.1", got)
	}
	if m.snap.status != "Speed 110.0%" {
		t.Errorf("status = %q", m.snap.status)
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyDown, Alt: true})
	m = run(t, m, cmd)
	if got := m.reader.Session().Rate(); got != 1 {
		t.Errorf("rate = %v, want 1", got)
	}
}

func TestReaderDictationUnavailable(t *testing.T) {
	m, _ := newTestReader(t, "")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m = run(t, m, cmd)
	if m.snap.status != "Dictation is not available" {
		t.Errorf("status = %q", m.snap.status)
	}
}

func TestReaderViewPushesText(t *testing.T) {
	m, _ := newTestReader(t, "before")
	m.view.SetText("dictated words")
	m, _ = update(t, m, viewChangedMsg(m.view.snapshot()))
	if m.text.Value() != "dictated words" {
		t.Errorf("text area = %q", m.text.Value())
	}
	if got := m.reader.Session().Text(); got != "dictated words" {
		t.Errorf("session text = %q", got)
	}

	// the same revision is not applied twice
	m, _ = update(t, m, keys("!"))
	m, _ = update(t, m, viewChangedMsg(m.view.snapshot()))
	if m.text.Value() != "dictated words!" {
		t.Errorf("text area = %q", m.text.Value())
	}
}

func TestReaderStatusMessage(t *testing.T) {
	m, _ := newTestReader(t, "copy me")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd == nil || m.state != readerStateStatusMessage || m.statusMessage != "Copied text" {
		t.Fatalf("state = %v, message = %q", m.state, m.statusMessage)
	}
	m, _ = update(t, m, statusMessageTimeoutMsg{})
	if m.state != readerStateBrowse {
		t.Error("status message did not time out")
	}
}

func TestReaderView(t *testing.T) {
	m, _ := newTestReader(t, "some text")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 12})

	out := m.View()
	for _, want := range []string{"Speak", "some text", "100.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = run(t, m, m.do(m.reader.OnCatalogReady))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	out = m.View()
	for _, want := range []string{"Voices (2/2)", "Alex", "Amelie"} {
		if !strings.Contains(out, want) {
			t.Errorf("menu view missing %q", want)
		}
	}
}

func TestCursorOffset(t *testing.T) {
	ta := textarea.New()
	ta.CharLimit = 0
	ta.SetWidth(40)
	ta.Focus()
	ta.SetValue("ab\ncdé")
	if got := cursorOffset(ta); got != 6 {
		t.Errorf("cursorOffset() = %d, want 6", got)
	}
	ta.CursorStart()
	if got := cursorOffset(ta); got != 3 {
		t.Errorf("at line start cursorOffset() = %d, want 3", got)
	}
}
