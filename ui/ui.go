// Package ui provides the terminal programs for the reader and the
// countdown timer.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/timer"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "Copied text"
	ellipsis             = "…"
)

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type statusMessageTimeoutMsg struct{}

func programOptions(cfg Config) []tea.ProgramOption {
	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return opts
}

// RunReader runs the reader until the user quits, then stops speech and
// dictation.
func RunReader(cfg Config, opts ReaderOptions) error {
	log.Debug("Starting reader", "watch", cfg.Watch, "fuzzy", cfg.Fuzzy)

	m := newReaderModel(cfg, opts)
	defer func() {
		m.cancel()
		m.reader.Close()
	}()

	if _, err := tea.NewProgram(m, programOptions(cfg)...).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// NewTimerProgram returns the countdown program. A positive minutes starts
// counting right away.
func NewTimerProgram(cfg Config, countdown *timer.Countdown, minutes int) *tea.Program {
	log.Debug("Starting timer", "minutes", minutes, "presets", cfg.Presets)
	return tea.NewProgram(newTimerModel(cfg, countdown, minutes), programOptions(cfg)...)
}

// COMMANDS

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}
