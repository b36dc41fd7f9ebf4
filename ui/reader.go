package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/dictation"
	"github.com/dgnsrekt/speak/internal/prefs"
	"github.com/dgnsrekt/speak/internal/reader"
	"github.com/dgnsrekt/speak/internal/session"
	"github.com/dgnsrekt/speak/internal/source"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
)

const statusBarHeight = 1

// ReaderOptions are the capabilities driven by the reader program.
type ReaderOptions struct {
	Session     *session.Session
	Synthesizer speech.Synthesizer
	Recognizer  dictation.Recognizer // nil disables dictation
	Prefs       *prefs.Preferences
	Speed       reader.SpeedRange
	Params      reader.Params

	// Document is the loaded text, if any.
	Document *source.Document
	// Watcher reloads Document when its file changes.
	Watcher *source.Watcher
}

type (
	speechEventMsg speech.Event
	reloadMsg      struct {
		doc source.Document
		err error
	}
	editorFinishedMsg struct {
		path string
		temp bool
		err  error
	}
)

type readerState int

const (
	readerStateBrowse readerState = iota
	readerStateStatusMessage
)

type readerModel struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	reader *reader.Reader
	view   *sharedView
	synth  speech.Synthesizer
	keys   readerKeyMap
	help   help.Model

	text   textarea.Model
	filter textinput.Model

	doc     *source.Document
	watcher *source.Watcher

	snap       viewSnapshot
	textRev    int
	menuCursor int
	mark       int // rune offset where the selection starts, -1 when unset
	speaking   bool
	lastKey    string

	state              readerState
	statusMessage      string
	statusMessageTimer *time.Timer

	width      int
	height     int
	bodyHeight int
	showHelp   bool
}

func newReaderModel(cfg Config, opts ReaderOptions) readerModel {
	ctx, cancel := context.WithCancel(context.Background())
	view := newSharedView()

	r := reader.New(reader.Options{
		Session:     opts.Session,
		Synthesizer: opts.Synthesizer,
		Recognizer:  opts.Recognizer,
		Prefs:       opts.Prefs,
		View:        view,
		Speed:       opts.Speed,
		Fuzzy:       cfg.Fuzzy,
		Params:      opts.Params,
	})

	ta := textarea.New()
	ta.Placeholder = "Type or paste text to read aloud..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "Filter: "
	ti.Placeholder = "voice name"

	m := readerModel{
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		reader:  r,
		view:    view,
		synth:   opts.Synthesizer,
		keys:    newReaderKeyMap(),
		help:    help.New(),
		text:    ta,
		filter:  ti,
		doc:     opts.Document,
		watcher: opts.Watcher,
		mark:    -1,
	}

	if m.doc != nil {
		m.setText(m.doc.Text)
	}
	r.Init(ctx)
	m.applyView(view.snapshot())
	return m
}

func (m readerModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.view.wait(m.ctx),
		waitForSpeechEvent(m.ctx, m.synth.Events()),
		m.do(m.reader.OnCatalogReady),
	}
	if m.watcher != nil && m.doc != nil {
		log.Debug("watching document", "path", m.watcher.Path())
		cmds = append(cmds, m.watchFile())
	}
	return tea.Batch(cmds...)
}

func (m readerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.cfg.ShowKeys {
			m.lastKey = msg.String()
		}
		return m.handleKey(msg)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.setSize()
		return m, nil

	case viewChangedMsg:
		m.applyView(viewSnapshot(msg))
		return m, m.view.wait(m.ctx)

	case speechEventMsg:
		ev := speech.Event(msg)
		log.Debug("speech event", "kind", ev.Kind, "utterance", ev.UtteranceID)
		m.speaking = ev.Kind == speech.Started
		m.reader.HandleSpeechEvent(ev)
		m.applyView(m.view.snapshot())
		return m, waitForSpeechEvent(m.ctx, m.synth.Events())

	// The file was changed on disk and we've reloaded it
	case reloadMsg:
		if msg.err != nil {
			log.Error("unable to reload document", "error", msg.err)
			return m, tea.Batch(m.watchFile(), m.showStatusMessage("Could not reload: "+msg.err.Error()))
		}
		*m.doc = msg.doc
		m.setText(msg.doc.Text)
		return m, tea.Batch(m.watchFile(), m.showStatusMessage("Reloaded"))

	// We've finished editing the text, potentially making changes.
	case editorFinishedMsg:
		return m.finishEditing(msg)

	case statusMessageTimeoutMsg:
		m.state = readerStateBrowse
		return m, nil

	case errMsg:
		log.Debug("reader command failed", "error", msg.err)
		return m, nil
	}

	var cmd tea.Cmd
	if m.snap.open {
		m.filter, cmd = m.filter.Update(msg)
	} else {
		m.text, cmd = m.text.Update(msg)
	}
	return m, cmd
}

func (m readerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.setSize()
		return m, nil
	}

	if m.snap.open {
		return m.handleMenuKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Speak):
		m.mark = -1
		return m, m.do(m.reader.OnSpeak)

	case key.Matches(msg, m.keys.Stop):
		if m.mark >= 0 {
			m.mark = -1
			m.clearSelection()
			return m, m.showStatusMessage("Selection cleared")
		}
		if m.clearSelection() {
			return m, tea.Batch(m.stop(), m.showStatusMessage("Selection cleared"))
		}
		return m, m.stop()

	case key.Matches(msg, m.keys.Mark):
		pos := cursorOffset(m.text)
		if m.mark < 0 {
			m.mark = pos
			return m, m.showStatusMessage("Selection started, move and press ctrl+g again")
		}
		ev := reader.SelectionEvent{Focus: reader.SurfaceText, Start: m.mark, End: pos}
		m.mark = -1
		return m, m.do(func(ctx context.Context) error {
			return m.reader.OnSelectionChange(ctx, ev)
		})

	case key.Matches(msg, m.keys.Voices):
		m.reader.OnToggleVoiceList()
		m.applyView(m.view.snapshot())
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Faster):
		speed := m.reader.Speed()
		return m, m.do(func(ctx context.Context) error {
			return m.reader.OnSpeedChange(ctx, speed.Increase())
		})

	case key.Matches(msg, m.keys.Slower):
		speed := m.reader.Speed()
		return m, m.do(func(ctx context.Context) error {
			return m.reader.OnSpeedChange(ctx, speed.Decrease())
		})

	case key.Matches(msg, m.keys.Dictate):
		return m, m.do(m.reader.OnDictationToggle)

	case key.Matches(msg, m.keys.Copy):
		text := m.text.Value()
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(text)
		return m, m.showStatusMessage("Copied text")

	case key.Matches(msg, m.keys.Edit):
		return m, m.openEditor()
	}

	before, pos := m.text.Value(), cursorOffset(m.text)
	var cmd tea.Cmd
	m.text, cmd = m.text.Update(msg)
	if after := m.text.Value(); after != before {
		m.mark = -1
		m.reader.OnTextChange(after)
	} else if cursorOffset(m.text) != pos {
		// moving away from a finished selection goes back to the whole text
		m.clearSelection()
	}
	return m, cmd
}

// clearSelection drops the selection in the session, reporting whether
// there was one.
func (m *readerModel) clearSelection() bool {
	if m.reader.Session().Selection() == "" {
		return false
	}
	if err := m.reader.OnSelectionChange(m.ctx, reader.SelectionEvent{Focus: reader.SurfaceText}); err != nil {
		log.Debug("clearing selection failed", "error", err)
	}
	return true
}

func (m readerModel) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.MenuClose):
		m.reader.OnToggleVoiceList()
		m.applyView(m.view.snapshot())
		return m, nil

	case key.Matches(msg, m.keys.MenuUp):
		if m.menuCursor > 0 {
			m.menuCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.MenuDown):
		if m.menuCursor < len(m.snap.voices)-1 {
			m.menuCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.MenuPick):
		if m.menuCursor >= 0 && m.menuCursor < len(m.snap.voices) {
			v := m.snap.voices[m.menuCursor]
			return m, m.do(func(ctx context.Context) error {
				return m.reader.OnSelectVoice(ctx, v)
			})
		}
		filter := m.filter.Value()
		return m, m.do(func(ctx context.Context) error {
			return m.reader.OnFilterKey(ctx, reader.KeyEnter, filter)
		})
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if after := m.filter.Value(); after != before {
		if err := m.reader.OnFilterKey(m.ctx, msg.String(), after); err != nil {
			log.Debug("filter failed", "error", err)
		}
		m.menuCursor = 0
		m.applyView(m.view.snapshot())
	}
	return m, cmd
}

// applyView copies what the reader pushed into the widgets.
func (m *readerModel) applyView(s viewSnapshot) {
	wasOpen := m.snap.open
	m.snap = s

	if s.textRev != m.textRev {
		m.textRev = s.textRev
		if m.text.Value() != s.text {
			m.setText(s.text)
		}
	}

	switch {
	case s.open && !wasOpen:
		m.filter.SetValue(m.reader.Filter())
		m.filter.CursorEnd()
		m.filter.Focus()
		m.text.Blur()
		m.menuCursor = 0
	case !s.open && wasOpen:
		m.filter.Blur()
		m.text.Focus()
	}
	m.menuCursor = max(0, min(m.menuCursor, len(s.voices)-1))
}

// setText replaces the text area's content and keeps the session in step
// with what the text area actually holds.
func (m *readerModel) setText(text string) {
	m.text.SetValue(text)
	m.mark = -1
	m.reader.OnTextChange(m.text.Value())
}

func (m *readerModel) setSize() {
	h := m.height - statusBarHeight
	if m.showHelp {
		m.help.ShowAll = true
		h -= lipgloss.Height(m.help.View(m.keys))
	}
	m.bodyHeight = max(1, h)
	m.help.Width = m.width
	m.text.SetWidth(m.width)
	m.text.SetHeight(m.bodyHeight)
	m.filter.Width = max(0, m.width-len(m.filter.Prompt)-1)
}

// showStatusMessage replaces the status bar note with msg until the timeout
// message arrives.
func (m *readerModel) showStatusMessage(msg string) tea.Cmd {
	m.state = readerStateStatusMessage
	m.statusMessage = msg
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)

	return waitForStatusMessageTimeout(m.statusMessageTimer)
}

func (m readerModel) finishEditing(msg editorFinishedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Error("editor failed", "error", msg.err)
		return m, m.showStatusMessage("Editor failed: " + msg.err.Error())
	}

	if !msg.temp {
		fresh, err := m.doc.Reload()
		if err != nil {
			return m, m.showStatusMessage("Could not reload: " + err.Error())
		}
		*m.doc = fresh
		m.setText(fresh.Text)
		return m, nil
	}

	data, err := os.ReadFile(msg.path)
	_ = os.Remove(msg.path)
	if err != nil {
		return m, m.showStatusMessage("Could not read edited text: " + err.Error())
	}
	m.setText(strings.TrimRight(string(data), "\n"))
	return m, nil
}

func (m readerModel) View() string {
	var b strings.Builder
	if m.snap.open {
		b.WriteString(m.menuView())
	} else {
		b.WriteString(m.text.View())
	}
	b.WriteString("\n")
	m.statusBarView(&b)

	if m.showHelp {
		b.WriteString("\n" + m.help.View(m.keys))
	}
	return b.String()
}

func (m readerModel) statusBarView(b *strings.Builder) {
	showStatusMessage := m.state == readerStateStatusMessage

	logo := logoView()

	var indicators string
	if m.snap.recording {
		indicators += recordingStyle(" REC ")
	}
	if m.speaking {
		indicators += speakingStyle(" ▶ ")
	}

	speed := statusBarSpeedStyle(" " + m.reader.Speed().Display() + " ")

	var helpNote string
	if !m.showHelp {
		helpNote = statusBarHelpStyle(" f1 Help ")
	}

	note := m.snap.status
	if v := m.reader.Session().Voice(); !v.IsZero() {
		note = v.Name + " | " + note
	}
	switch {
	case m.mark >= 0:
		note = "selecting | " + note
	case m.reader.Session().Selection() != "":
		note = "selection | " + note
	}
	if m.lastKey != "" {
		note = "[" + m.lastKey + "] " + note
	}
	if showStatusMessage {
		note = m.statusMessage
	}

	fixed := ansi.PrintableRuneWidth(logo) +
		ansi.PrintableRuneWidth(indicators) +
		ansi.PrintableRuneWidth(speed) +
		ansi.PrintableRuneWidth(helpNote)

	note = truncate.StringWithTail(" "+note+" ", uint(max(0, m.width-fixed)), ellipsis) //nolint:gosec
	if showStatusMessage {
		note = statusBarMessageStyle(note)
	} else {
		note = statusBarNoteStyle(note)
	}

	// Empty space
	padding := max(0, m.width-fixed-ansi.PrintableRuneWidth(note))
	emptySpace := strings.Repeat(" ", padding)
	if showStatusMessage {
		emptySpace = statusBarMessageStyle(emptySpace)
	} else {
		emptySpace = statusBarNoteStyle(emptySpace)
	}

	fmt.Fprintf(b, "%s%s%s%s%s%s",
		logo,
		indicators,
		note,
		emptySpace,
		speed,
		helpNote,
	)
}

// COMMANDS

// do runs a reader event off the UI goroutine. Speech started by it belongs
// to the program's context, not the command's.
func (m readerModel) do(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m readerModel) stop() tea.Cmd {
	r := m.reader
	return func() tea.Msg {
		r.OnStop()
		return nil
	}
}

func (m readerModel) watchFile() tea.Cmd {
	w, ctx := m.watcher, m.ctx
	if w == nil || m.doc == nil {
		return nil
	}
	doc := *m.doc
	return func() tea.Msg {
		if err := w.Next(ctx); err != nil {
			log.Debug("stopped watching document", "error", err)
			return nil
		}
		fresh, err := doc.Reload()
		return reloadMsg{doc: fresh, err: err}
	}
}

func waitForSpeechEvent(ctx context.Context, events <-chan speech.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			return speechEventMsg(ev)
		}
	}
}

// cursorOffset returns the cursor position in runes from the start of the
// text area's value.
func cursorOffset(ta textarea.Model) int {
	lines := strings.Split(ta.Value(), "\n")
	row := min(ta.Line(), len(lines)-1)
	offset := 0
	for _, l := range lines[:row] {
		offset += utf8.RuneCountInString(l) + 1
	}
	li := ta.LineInfo()
	return offset + li.StartColumn + li.ColumnOffset
}
