// Package espeak renders speech with the espeak-ng command line program.
package espeak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/dgnsrekt/speak/internal/voice"
)

// DefaultWordsPerMinute is espeak's speed at rate 1.
const DefaultWordsPerMinute = 175

// Config configures the backend.
type Config struct {
	// Binary is the program to run. Empty means the first of espeak-ng and
	// espeak found in PATH.
	Binary string

	// Timeout bounds a single synthesis.
	Timeout time.Duration

	WordsPerMinute int
}

// Backend is a speech.Backend running a fresh espeak process per utterance.
type Backend struct {
	path    string
	timeout time.Duration
	wpm     int
}

// New locates the espeak binary. A missing binary is reported as
// speech.ErrUnavailable.
func New(cfg Config) (*Backend, error) {
	path, err := findExecutable(cfg.Binary)
	if err != nil {
		return nil, speech.NewError(speech.CodeUnavailable, "espeak not found", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = DefaultWordsPerMinute
	}
	return &Backend{path: path, timeout: cfg.Timeout, wpm: cfg.WordsPerMinute}, nil
}

func findExecutable(binary string) (string, error) {
	candidates := []string{"espeak-ng", "espeak"}
	if binary != "" {
		candidates = []string{binary}
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("none of %s found in PATH", strings.Join(candidates, ", "))
}

// Name implements speech.Backend.
func (b *Backend) Name() string { return "espeak" }

// Voices implements speech.Backend.
func (b *Backend) Voices(ctx context.Context) ([]voice.Voice, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, b.path, "--voices").Output()
	if err != nil {
		return nil, speech.NewError(speech.CodeVoices, "list espeak voices", err)
	}
	return ParseVoices(string(out)), nil
}

// Synthesize implements speech.Backend and returns WAV audio.
func (b *Backend) Synthesize(ctx context.Context, u speech.Utterance) ([]byte, error) {
	if strings.TrimSpace(u.Text) == "" {
		return nil, speech.ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.path, b.args(u)...)
	// The text is attached before start so espeak never sees a half-written
	// stdin.
	cmd.Stdin = strings.NewReader(u.Text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, speech.NewError(speech.CodeTimeout, fmt.Sprintf("espeak took longer than %s", b.timeout), ctx.Err())
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, speech.NewError(speech.CodeSynthesis, strings.TrimSpace(stderr.String()), err)
	}
	if stdout.Len() == 0 {
		return nil, speech.NewError(speech.CodeSynthesis, "espeak produced no audio", nil)
	}

	log.Debug("espeak synthesized", "chars", len(u.Text), "bytes", stdout.Len(), "took", time.Since(start))
	return stdout.Bytes(), nil
}

func (b *Backend) args(u speech.Utterance) []string {
	args := []string{"--stdout", "--stdin", "-s", strconv.Itoa(WordsPerMinute(b.wpm, u.Rate))}
	if v := voiceArg(u); v != "" {
		args = append(args, "-v", v)
	}
	return args
}

// voiceArg picks espeak's -v value: the voice file, else the language.
func voiceArg(u speech.Utterance) string {
	if u.Voice.ID != "" {
		return u.Voice.ID
	}
	if u.Lang != "" {
		return voice.NormalizeLang(u.Lang)
	}
	return u.Voice.Lang
}

// WordsPerMinute scales base by rate, clamped to espeak's accepted range.
func WordsPerMinute(base int, rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	wpm := int(float64(base)*rate + 0.5)
	return min(max(wpm, 80), 450)
}

// ParseVoices parses the table printed by `espeak --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func ParseVoices(output string) []voice.Voice {
	var voices []voice.Voice
	for i, line := range strings.Split(output, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		voices = append(voices, voice.Voice{
			ID:     fields[4],
			Name:   strings.ReplaceAll(fields[3], "_", " "),
			Lang:   fields[1],
			Gender: gender(fields[2]),
		})
	}
	return voices
}

func gender(ageGender string) string {
	_, g, _ := strings.Cut(ageGender, "/")
	switch g {
	case "M":
		return "male"
	case "F":
		return "female"
	default:
		return ""
	}
}

var _ speech.Backend = (*Backend)(nil)
