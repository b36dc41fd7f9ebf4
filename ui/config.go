package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Reload the document when its file changes on disk.
	Watch bool
	// Rank voice filter matches fuzzily instead of by substring.
	Fuzzy       bool
	EnableMouse bool

	// Countdown presets in minutes.
	Presets []int

	// For debugging the UI
	AltScreen bool `env:"SPEAK_ALT_SCREEN" envDefault:"true"`
	ShowKeys  bool `env:"SPEAK_SHOW_KEYS"`
}
