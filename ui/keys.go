package ui

import "github.com/charmbracelet/bubbles/key"

// The text area owns most control keys, so reader shortcuts use the ones
// it leaves free.
type readerKeyMap struct {
	Speak     key.Binding
	Stop      key.Binding
	Mark      key.Binding
	Voices    key.Binding
	Faster    key.Binding
	Slower    key.Binding
	Dictate   key.Binding
	Copy      key.Binding
	Edit      key.Binding
	Help      key.Binding
	Quit      key.Binding
	MenuUp    key.Binding
	MenuDown  key.Binding
	MenuPick  key.Binding
	MenuClose key.Binding
}

func newReaderKeyMap() readerKeyMap {
	return readerKeyMap{
		Speak:     key.NewBinding(key.WithKeys("ctrl+s", "f5"), key.WithHelp("ctrl+s", "speak")),
		Stop:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
		Mark:      key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "mark / speak selection")),
		Voices:    key.NewBinding(key.WithKeys("ctrl+o", "f2"), key.WithHelp("ctrl+o", "voices")),
		Faster:    key.NewBinding(key.WithKeys("alt+up", "alt+="), key.WithHelp("alt+↑", "faster")),
		Slower:    key.NewBinding(key.WithKeys("alt+down", "alt+-"), key.WithHelp("alt+↓", "slower")),
		Dictate:   key.NewBinding(key.WithKeys("ctrl+r", "f3"), key.WithHelp("ctrl+r", "dictate")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy text")),
		Edit:      key.NewBinding(key.WithKeys("alt+e"), key.WithHelp("alt+e", "open in editor")),
		Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		MenuUp:    key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "previous voice")),
		MenuDown:  key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next voice")),
		MenuPick:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose voice")),
		MenuClose: key.NewBinding(key.WithKeys("esc", "ctrl+o", "f2"), key.WithHelp("esc", "close voices")),
	}
}

func (k readerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Speak, k.Stop, k.Voices, k.Dictate, k.Help, k.Quit}
}

func (k readerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Speak, k.Stop, k.Mark},
		{k.Voices, k.Faster, k.Slower},
		{k.Dictate, k.Copy, k.Edit},
		{k.Help, k.Quit},
	}
}

type timerKeyMap struct {
	Prev  key.Binding
	Next  key.Binding
	Start key.Binding
	Stop  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func newTimerKeyMap() timerKeyMap {
	return timerKeyMap{
		Prev:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "shorter")),
		Next:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "longer")),
		Start: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "start")),
		Stop:  key.NewBinding(key.WithKeys("s", "esc"), key.WithHelp("s", "stop")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k timerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Start, k.Stop, k.Quit}
}

func (k timerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Prev, k.Next}, {k.Start, k.Stop}, {k.Help, k.Quit}}
}
