package speech

import (
	"strconv"

	"github.com/dgnsrekt/speak/internal/voice"
	"github.com/google/uuid"
)

// Utterance is one request to speak text.
type Utterance struct {
	ID    string
	Text  string
	Voice voice.Voice // zero means the engine default
	Lang  string
	Rate  float64 // 1 is normal speed
}

// NewUtterance creates an utterance with a fresh ID. Lang defaults to the
// voice's language.
func NewUtterance(text string, v voice.Voice, rate float64) Utterance {
	return Utterance{
		ID:    uuid.NewString(),
		Text:  text,
		Voice: v,
		Lang:  v.Lang,
		Rate:  rate,
	}
}

// RateString formats the rate for command lines and cache keys.
func (u Utterance) RateString() string {
	return strconv.FormatFloat(u.Rate, 'f', -1, 64)
}

// EventKind is the type of a playback event.
type EventKind int

const (
	Started EventKind = iota
	Ended
	Canceled
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case Ended:
		return "ended"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports a change in an utterance's playback.
type Event struct {
	Kind        EventKind
	UtteranceID string
	Err         error // set for Failed
}
