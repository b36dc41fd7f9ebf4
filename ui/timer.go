package ui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/timer"
)

// countdownTickMsg is one second of the interval started as gen.
type countdownTickMsg struct{ gen uint64 }

func countdownTick(gen uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{gen: gen}
	})
}

type timerModel struct {
	countdown *timer.Countdown
	presets   []int
	cursor    int
	expired   bool
	err       error

	keys     timerKeyMap
	help     help.Model
	width    int
	height   int
	showHelp bool

	// started on Init when positive
	initial int
}

func newTimerModel(cfg Config, countdown *timer.Countdown, minutes int) timerModel {
	presets := cfg.Presets
	if len(presets) == 0 {
		presets = timer.DefaultPresets
	}
	m := timerModel{
		countdown: countdown,
		presets:   presets,
		keys:      newTimerKeyMap(),
		help:      help.New(),
		initial:   minutes,
	}
	for i, p := range presets {
		if p == minutes {
			m.cursor = i
		}
	}
	return m
}

func (m timerModel) Init() tea.Cmd {
	if m.initial <= 0 {
		return nil
	}
	return func() tea.Msg { return startTimerMsg(m.initial) }
}

type startTimerMsg int

func (m timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case startTimerMsg:
		return m.start(int(msg))

	case countdownTickMsg:
		if msg.gen != m.countdown.Generation() {
			// stale tick from a stopped or restarted interval
			return m, nil
		}
		if m.countdown.Tick(msg.gen) {
			log.Info("countdown expired")
			m.expired = true
			return m, nil
		}
		return m, countdownTick(msg.gen)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.countdown.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, m.keys.Prev):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Next):
			if m.cursor < len(m.presets)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Start):
			return m.start(m.presets[m.cursor])
		case key.Matches(msg, m.keys.Stop):
			m.countdown.Stop()
		default:
			// digits pick a preset by position
			if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(m.presets) {
				m.cursor = n - 1
				return m.start(m.presets[m.cursor])
			}
		}
	}
	return m, nil
}

func (m timerModel) start(minutes int) (tea.Model, tea.Cmd) {
	gen, err := m.countdown.Start(minutes)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.expired = false
	return m, countdownTick(gen)
}

func (m timerModel) View() string {
	counting := m.countdown.Mode() == timer.Counting

	style := clockStyle
	if counting {
		style = clockCountingStyle
	}
	clock := style.Render(m.countdown.Display())

	presets := make([]string, len(m.presets))
	for i, p := range m.presets {
		label := strconv.Itoa(p) + " min"
		if i == m.cursor {
			presets[i] = presetActiveStyle.Render(label)
		} else {
			presets[i] = presetStyle.Render(label)
		}
	}

	var status string
	switch {
	case m.err != nil && errors.Is(m.err, timer.ErrInvalidDuration):
		status = "Pick a duration of at least one minute"
	case m.err != nil:
		status = m.err.Error()
	case counting:
		status = "Counting down"
	case m.expired:
		status = "Time's up"
	default:
		status = "Pick a duration"
	}

	m.help.ShowAll = m.showHelp
	body := lipgloss.JoinVertical(lipgloss.Center,
		logoView(),
		"",
		clock,
		"",
		strings.Join(presets, " "),
		"",
		subtleStyle.Render(status),
	)
	if m.width > 0 && m.height > 0 {
		body = lipgloss.Place(m.width, max(0, m.height-1), lipgloss.Center, lipgloss.Center, body)
	} else {
		body = indent(body, 2)
	}
	return body + "\n" + m.help.View(m.keys)
}
