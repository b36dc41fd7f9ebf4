package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/speak/internal/reader"
	"github.com/dgnsrekt/speak/internal/voice"
)

// viewSnapshot is what the reader last pushed to the screen.
type viewSnapshot struct {
	voices    []voice.Voice
	selected  voice.Voice
	open      bool
	recording bool
	status    string

	text    string
	textRev int // bumped by every SetText
}

type viewChangedMsg viewSnapshot

// sharedView implements reader.View. The reader calls it from command
// goroutines and from Update alike, so it never blocks: it records the
// state and wakes a single waiting command.
type sharedView struct {
	mu      sync.Mutex
	snap    viewSnapshot
	changed chan struct{}
}

func newSharedView() *sharedView {
	return &sharedView{changed: make(chan struct{}, 1)}
}

func (v *sharedView) ShowVoices(voices []voice.Voice, selected voice.Voice, open bool) {
	v.update(func(s *viewSnapshot) {
		s.voices = voices
		s.selected = selected
		s.open = open
	})
}

func (v *sharedView) SetRecording(on bool) {
	v.update(func(s *viewSnapshot) { s.recording = on })
}

func (v *sharedView) SetStatus(status string) {
	v.update(func(s *viewSnapshot) { s.status = status })
}

func (v *sharedView) SetText(text string) {
	v.update(func(s *viewSnapshot) {
		s.text = text
		s.textRev++
	})
}

func (v *sharedView) update(fn func(*viewSnapshot)) {
	v.mu.Lock()
	fn(&v.snap)
	v.mu.Unlock()

	select {
	case v.changed <- struct{}{}:
	default:
	}
}

func (v *sharedView) snapshot() viewSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.snap
	s.voices = append([]voice.Voice(nil), v.snap.voices...)
	return s
}

// wait returns the next change as a viewChangedMsg.
func (v *sharedView) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-v.changed:
			return viewChangedMsg(v.snapshot())
		}
	}
}

var _ reader.View = (*sharedView)(nil)
