// Package session holds the state shared by the reader's controllers: the
// voice catalog, the selected voice, the rate and the text being read.
package session

import (
	"sync"

	"github.com/dgnsrekt/speak/internal/voice"
)

// Session is safe for concurrent use.
type Session struct {
	catalog *voice.Catalog

	mu        sync.RWMutex
	voice     voice.Voice
	lang      string
	rate      float64
	text      string
	selection string
}

// New creates a session over catalog at normal speed.
func New(catalog *voice.Catalog) *Session {
	return &Session{catalog: catalog, rate: 1}
}

// Catalog returns the voice catalog.
func (s *Session) Catalog() *voice.Catalog { return s.catalog }

// Voice returns the selected voice. The zero voice means the engine default.
func (s *Session) Voice() voice.Voice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voice
}

// SetVoice selects v.
func (s *Session) SetVoice(v voice.Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = v
}

// Lang returns the locale to speak in: the selected voice's, else the
// requested one.
func (s *Session) Lang() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.voice.Lang != "" {
		return s.voice.Lang
	}
	return s.lang
}

// SetLang sets the locale used when no voice is selected.
func (s *Session) SetLang(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = lang
}

// Rate returns the speech rate multiplier.
func (s *Session) Rate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rate
}

// SetRate sets the speech rate multiplier.
func (s *Session) SetRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

// Text returns the whole text.
func (s *Session) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// SetText replaces the text and drops the selection.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.selection = ""
}

// Selection returns the selected part of the text.
func (s *Session) Selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// SetSelection records the selected part of the text.
func (s *Session) SetSelection(sel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
}

// Speakable returns the selection if there is one, else the whole text.
func (s *Session) Speakable() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selection != "" {
		return s.selection
	}
	return s.text
}
