package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech engine: espeak, google or none
engine: "espeak"
# mouse support
mouse: false

espeak:
  # empty picks espeak-ng or espeak from PATH
  binary: ""
  timeout: "30s"
  # words per minute at 100% speed
  words_per_minute: 175

google:
  # service account key; empty uses application default credentials
  credentials: ""
  requests_per_second: 5
  # used when no voice or language is chosen
  language: "en-US"

audio:
  sample_rate: 44100
  buffer_size: 4096
  volume: 1.0

cache:
  enabled: true
  # empty uses the user cache directory
  dir: ""
  memory_mb: 32
  disk_mb: 256

reader:
  # sort voices by language, then name
  sort_voices: true
  # rank voice filter matches fuzzily
  fuzzy: false
  # reload files when they change on disk
  watch: true
  speed:
    min: 0.1
    max: 3.0
    step: 0.1

dictation:
  # program printing one recognized phrase per line; {lang} is replaced
  # with the session language
  command: ""

timer:
  # preset durations in minutes
  presets: [1, 2, 3, 5, 10]
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the speak config file",
	Long:    paragraph(fmt.Sprintf("\n%s the speak config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("speak config\nspeak config --config path/to/speak.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("speak", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
