package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/audio"
	"github.com/dgnsrekt/speak/internal/cache"
	"github.com/dgnsrekt/speak/internal/dictation"
	"github.com/dgnsrekt/speak/internal/prefs"
	"github.com/dgnsrekt/speak/internal/session"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/dgnsrekt/speak/internal/speech/espeak"
	"github.com/dgnsrekt/speak/internal/speech/google"
	"github.com/dgnsrekt/speak/internal/timer"
	"github.com/dgnsrekt/speak/internal/voice"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

var errNoEngine = errors.New("speech is turned off (engine: none)")

func scope() *gap.Scope {
	return gap.NewScope(gap.User, "speak")
}

// app holds the capabilities shared by the commands. Anything that could
// not be opened is replaced by a disabled stand-in.
type app struct {
	sink    *audio.Player
	backend speech.Backend
	cache   *cache.Cache
	store   prefs.Store
	prefs   *prefs.Preferences
	synth   speech.Synthesizer
}

func newApp(ctx context.Context, persist bool) *app {
	a := &app{}

	backend, err := newBackend(ctx)
	if err != nil {
		log.Warn("Speech engine unavailable", "engine", engineName, "error", err)
		a.synth = speech.NewDisabled(err)
	} else {
		a.backend = backend
	}

	if a.backend != nil {
		sink, err := openSink()
		if err != nil {
			log.Warn("Audio output unavailable", "error", err)
			a.synth = speech.NewDisabled(err)
		} else {
			a.sink = sink
			var opts []speech.Option
			if c := openCache(); c != nil {
				a.cache = c
				opts = append(opts, speech.WithCache(c))
			}
			a.synth = speech.NewEngine(a.backend, sink, opts...)
		}
	}

	if persist {
		a.store = openStore()
	} else {
		a.store = prefs.NewMemoryStore()
	}
	a.prefs = prefs.New(a.store)
	return a
}

func (a *app) session() *session.Session {
	return session.New(voice.NewCatalog(viper.GetBool("reader.sort_voices")))
}

// recognizer returns nil when no dictation command is configured.
func (a *app) recognizer() dictation.Recognizer {
	rec, err := dictation.NewCommandRecognizer(viper.GetString("dictation.command"))
	if err != nil {
		log.Debug("Dictation unavailable", "error", err)
		return nil
	}
	return rec
}

func (a *app) Close() error {
	var errs []error
	if c, ok := a.backend.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if a.sink != nil {
		errs = append(errs, a.sink.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

func newBackend(ctx context.Context) (speech.Backend, error) {
	switch engineName {
	case "espeak":
		b, err := espeak.New(espeak.Config{
			Binary:         viper.GetString("espeak.binary"),
			Timeout:        viper.GetDuration("espeak.timeout"),
			WordsPerMinute: viper.GetInt("espeak.words_per_minute"),
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case "google":
		creds := viper.GetString("google.credentials")
		if creds != "" {
			expanded, err := homedir.Expand(creds)
			if err != nil {
				return nil, fmt.Errorf("unable to expand credentials path: %w", err)
			}
			creds = expanded
		}
		b, err := google.New(ctx, google.Config{
			CredentialsFile:   creds,
			RequestsPerSecond: viper.GetFloat64("google.requests_per_second"),
			DefaultLanguage:   viper.GetString("google.language"),
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errNoEngine
	}
}

func openSink() (*audio.Player, error) {
	cfg := audio.DefaultPlayerConfig()
	if sr := viper.GetInt("audio.sample_rate"); sr > 0 {
		cfg.SampleRate = sr
	}
	if bs := viper.GetInt("audio.buffer_size"); bs > 0 {
		cfg.BufferSize = bs
	}
	if viper.IsSet("audio.volume") {
		cfg.Volume = viper.GetFloat64("audio.volume")
	}
	return audio.NewPlayer(cfg)
}

func cacheDir() (string, error) {
	if dir := viper.GetString("cache.dir"); dir != "" {
		return homedir.Expand(dir)
	}
	dir, err := scope().CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

func cacheConfig() (cache.Config, error) {
	dir, err := cacheDir()
	if err != nil {
		return cache.Config{}, err
	}
	cfg := cache.DefaultConfig(dir)
	if mb := viper.GetInt64("cache.memory_mb"); mb > 0 {
		cfg.MemoryCapacity = mb << 20
	}
	if mb := viper.GetInt64("cache.disk_mb"); mb > 0 {
		cfg.DiskCapacity = mb << 20
	}
	return cfg, nil
}

// openCache returns nil when caching is turned off or the cache cannot be
// opened; speech then renders every utterance.
func openCache() *cache.Cache {
	if !viper.GetBool("cache.enabled") {
		return nil
	}
	cfg, err := cacheConfig()
	if err != nil {
		log.Warn("Audio cache disabled", "error", err)
		return nil
	}
	c, err := cache.New(cfg)
	if err != nil {
		log.Warn("Audio cache disabled", "dir", cfg.DiskPath, "error", err)
		return nil
	}
	return c
}

// openStore falls back to memory so preferences still work for the session.
func openStore() prefs.Store {
	path, err := scope().DataPath("prefs.db")
	if err == nil {
		var store *prefs.SQLiteStore
		store, err = prefs.OpenSQLite(path)
		if err == nil {
			log.Debug("Opened preferences", "path", path)
			return store
		}
	}
	log.Warn("Preferences will not be saved", "error", err)
	return prefs.NewMemoryStore()
}

// toner beeps on the audio device, or rings the terminal bell without one.
func toner() (timer.Toner, func() error) {
	sink, err := openSink()
	if err != nil {
		log.Debug("Using terminal bell", "error", err)
		return timer.Bell{W: os.Stdout}, func() error { return nil }
	}
	return audio.NewBeeper(sink), sink.Close
}
