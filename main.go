// Package main provides the entry point for the speak CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/reader"
	"github.com/dgnsrekt/speak/internal/source"
	"github.com/dgnsrekt/speak/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	engineName    string
	text          string
	lang          string
	voiceName     string
	speed         float64
	query         string
	fromClipboard bool
	markdown      bool
	fuzzy         bool
	mouse         bool

	engines = []string{"espeak", "google", "none"}

	rootCmd = &cobra.Command{
		Use:   "speak [FILE|-]",
		Short: "Read text aloud in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nRead text aloud in the terminal, %s!", keyword("in any voice you have")),
		),
		Example: paragraph("speak notes.md\necho hello | speak\nspeak --query 'text=bonjour&lang=fr-FR&speed=120'"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") && cmd.Name() != "config" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}

	// grab config values from Viper
	engineName = viper.GetString("engine")
	mouse = viper.GetBool("mouse")
	fuzzy = viper.GetBool("reader.fuzzy")

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	valid := false
	for _, e := range engines {
		if engineName == e {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("unknown engine %q: use one of %s", engineName, strings.Join(engines, ", "))
	}

	if cmd.Flags().Changed("speed") && speed <= 0 {
		return fmt.Errorf("speed must be a positive percentage, got %v", speed)
	}

	rng := speedRange()
	if rng.Min <= 0 || rng.Min > rng.Max || rng.Step <= 0 {
		return fmt.Errorf("invalid reader speed range %v-%v step %v", rng.Min, rng.Max, rng.Step)
	}
	return nil
}

func speedRange() reader.SpeedRange {
	return reader.SpeedRange{
		Min:  viper.GetFloat64("reader.speed.min"),
		Max:  viper.GetFloat64("reader.speed.max"),
		Step: viper.GetFloat64("reader.speed.step"),
	}
}

// launchParams merges the flags with --query; flags win.
func launchParams() (reader.Params, error) {
	params := reader.Params{Text: text, Lang: lang, Voice: voiceName, Speed: speed}
	if query == "" {
		return params, nil
	}
	q, err := reader.ParseQuery(query)
	if err != nil {
		return reader.Params{}, err
	}
	return params.Merge(q), nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// loadDocument reads the text named on the command line. It returns nil
// when there is none.
func loadDocument(args []string) (*source.Document, error) {
	var (
		doc source.Document
		err error
	)
	switch {
	case fromClipboard:
		doc, err = source.FromClipboard()
	case len(args) == 1 && args[0] != "-":
		doc, err = source.FromFile(args[0])
	default:
		// if stdin is a pipe then use stdin for input. note that you can also
		// explicitly use a - to read from stdin.
		pipe, perr := stdinIsPipe()
		if perr != nil {
			return nil, perr
		}
		if !pipe && len(args) == 0 {
			return nil, nil
		}
		doc, err = source.FromReader(os.Stdin, markdown)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func execute(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args)
	if err != nil {
		return err
	}
	params, err := launchParams()
	if err != nil {
		return err
	}

	a := newApp(cmd.Context(), true)
	defer a.Close() //nolint:errcheck

	var watcher *source.Watcher
	if doc != nil && doc.Kind == source.KindFile && viper.GetBool("reader.watch") {
		watcher, err = source.Watch(doc.Path)
		if err != nil {
			log.Warn("unable to watch document", "file", doc.Path, "error", err)
		} else {
			defer watcher.Close() //nolint:errcheck
		}
	}

	cfg, err := uiConfig()
	if err != nil {
		return err
	}
	cfg.Watch = watcher != nil

	return ui.RunReader(cfg, ui.ReaderOptions{
		Session:     a.session(),
		Synthesizer: a.synth,
		Recognizer:  a.recognizer(),
		Prefs:       a.prefs,
		Speed:       speedRange(),
		Params:      params,
		Document:    doc,
		Watcher:     watcher,
	})
}

func uiConfig() (ui.Config, error) {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return ui.Config{}, fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Fuzzy = fuzzy
	cfg.EnableMouse = mouse
	cfg.Presets = viper.GetIntSlice("timer.presets")
	return cfg, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", "espeak", "speech engine ("+strings.Join(engines, ", ")+")")
	rootCmd.PersistentFlags().StringVarP(&lang, "lang", "l", "", "language of the voice to use, e.g. en-US")
	rootCmd.PersistentFlags().StringVarP(&voiceName, "voice", "v", "", "voice name or ID")
	rootCmd.PersistentFlags().Float64VarP(&speed, "speed", "s", 0, "speed in percent, e.g. 150")
	rootCmd.PersistentFlags().Bool("debug", false, "log debug messages")
	rootCmd.Flags().StringVarP(&text, "text", "t", "", "text to read")
	rootCmd.Flags().StringVarP(&query, "query", "q", "", "launch parameters as a query string (text, lang, voice, speed)")
	rootCmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "read the clipboard")
	rootCmd.Flags().BoolVarP(&markdown, "markdown", "m", false, "treat standard input as markdown")
	rootCmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "rank voice filter matches fuzzily")
	rootCmd.Flags().BoolVar(&mouse, "mouse", false, "enable mouse support")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("reader.fuzzy", rootCmd.Flags().Lookup("fuzzy"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("engine", "espeak")
	viper.SetDefault("mouse", false)

	viper.SetDefault("espeak.binary", "")
	viper.SetDefault("espeak.timeout", "30s")
	viper.SetDefault("espeak.words_per_minute", 175)

	viper.SetDefault("google.credentials", "")
	viper.SetDefault("google.requests_per_second", 5)
	viper.SetDefault("google.language", "en-US")

	viper.SetDefault("audio.sample_rate", 44100)
	viper.SetDefault("audio.buffer_size", 4096)
	viper.SetDefault("audio.volume", 1.0)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.memory_mb", 32)
	viper.SetDefault("cache.disk_mb", 256)

	viper.SetDefault("reader.sort_voices", true)
	viper.SetDefault("reader.fuzzy", false)
	viper.SetDefault("reader.watch", true)
	viper.SetDefault("reader.speed.min", reader.DefaultSpeedRange.Min)
	viper.SetDefault("reader.speed.max", reader.DefaultSpeedRange.Max)
	viper.SetDefault("reader.speed.step", reader.DefaultSpeedRange.Step)

	viper.SetDefault("dictation.command", "")
	viper.SetDefault("timer.presets", []int{1, 2, 3, 5, 10})

	rootCmd.AddCommand(configCmd, manCmd, timerCmd, voicesCmd, sayCmd, cacheCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	dirs, err := scope().ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "speak")}, dirs...)
	}

	if c := os.Getenv("SPEAK_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speak")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("speak")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	configFile = filepath.Join(dirs[0], "speak.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
