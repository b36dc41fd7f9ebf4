// Package google renders speech with Google Cloud Text-to-Speech.
package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/dgnsrekt/speak/internal/voice"
	"github.com/googleapis/gax-go/v2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const (
	// SampleRate is requested for all synthesized audio.
	SampleRate = 44100

	// maxTextBytes is the API's input limit.
	maxTextBytes = 5000

	minSpeakingRate = 0.25
	maxSpeakingRate = 4.0
)

// Config configures the backend.
type Config struct {
	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string

	// RequestsPerSecond throttles API calls.
	RequestsPerSecond float64

	// DefaultLanguage is used when an utterance names neither voice nor
	// language.
	DefaultLanguage string
}

type client interface {
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// Backend is a speech.Backend calling the Cloud Text-to-Speech API.
type Backend struct {
	client   client
	limiter  *rate.Limiter
	fallback string
}

// New creates an API client. Missing credentials are reported as
// speech.ErrUnavailable.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	c, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, speech.NewError(speech.CodeUnavailable, "create text-to-speech client", err)
	}
	return newBackend(c, cfg), nil
}

func newBackend(c client, cfg Config) *Backend {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en-US"
	}
	return &Backend{
		client:   c,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		fallback: cfg.DefaultLanguage,
	}
}

// Name implements speech.Backend.
func (b *Backend) Name() string { return "google" }

// Voices implements speech.Backend. A voice serving several languages is
// listed once per language.
func (b *Backend) Voices(ctx context.Context) ([]voice.Voice, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := b.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, speech.NewError(speech.CodeVoices, "list voices", err)
	}

	var voices []voice.Voice
	for _, v := range resp.GetVoices() {
		for _, lang := range v.GetLanguageCodes() {
			voices = append(voices, voice.Voice{
				ID:     v.GetName(),
				Name:   v.GetName(),
				Lang:   lang,
				Gender: gender(v.GetSsmlGender()),
			})
		}
	}
	return voices, nil
}

// Synthesize implements speech.Backend and returns WAV audio.
func (b *Backend) Synthesize(ctx context.Context, u speech.Utterance) ([]byte, error) {
	if strings.TrimSpace(u.Text) == "" {
		return nil, speech.ErrEmptyText
	}
	if len(u.Text) > maxTextBytes {
		return nil, speech.NewError(speech.CodeSynthesis,
			fmt.Sprintf("text too long: %d bytes (max %d)", len(u.Text), maxTextBytes), nil)
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := b.client.SynthesizeSpeech(ctx, b.request(u))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, speech.NewError(speech.CodeSynthesis, "synthesize speech", err)
	}
	audio := resp.GetAudioContent()
	if len(audio) == 0 {
		return nil, speech.NewError(speech.CodeSynthesis, "empty audio response", nil)
	}

	log.Debug("google synthesized", "voice", u.Voice.Name, "chars", len(u.Text), "bytes", len(audio), "took", time.Since(start))
	return audio, nil
}

// Close releases the API client.
func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) request(u speech.Utterance) *texttospeechpb.SynthesizeSpeechRequest {
	lang := u.Lang
	if lang == "" {
		lang = u.Voice.Lang
	}
	if lang == "" {
		lang = b.fallback
	}

	cfg := &texttospeechpb.AudioConfig{
		AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
		SampleRateHertz: SampleRate,
	}
	// Chirp voices reject speaking rate adjustments.
	if !strings.Contains(strings.ToLower(u.Voice.Name), "chirp") {
		cfg.SpeakingRate = SpeakingRate(u.Rate)
	}

	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: u.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         u.Voice.ID,
		},
		AudioConfig: cfg,
	}
}

// SpeakingRate clamps rate to the range the API accepts.
func SpeakingRate(rate float64) float64 {
	if rate <= 0 {
		return 1
	}
	return min(max(rate, minSpeakingRate), maxSpeakingRate)
}

func gender(g texttospeechpb.SsmlVoiceGender) string {
	switch g {
	case texttospeechpb.SsmlVoiceGender_MALE:
		return "male"
	case texttospeechpb.SsmlVoiceGender_FEMALE:
		return "female"
	case texttospeechpb.SsmlVoiceGender_NEUTRAL:
		return "neutral"
	default:
		return ""
	}
}

var _ speech.Backend = (*Backend)(nil)
