// Package dictation turns speech into text through a recognizer that
// reports numbered results, some of them interim.
package dictation

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnavailable indicates no recognizer is configured or installed.
	ErrUnavailable = errors.New("speech recognition unavailable")

	// ErrActive is returned when starting a second session.
	ErrActive = errors.New("dictation already active")
)

// Result is one recognized phrase. An interim result may be replaced by a
// later result with the same index.
type Result struct {
	Index int
	Text  string
	Final bool
}

// Recognizer is the speech recognition capability.
type Recognizer interface {
	// Start begins recognition in lang. The channel is closed when the
	// session ends, whether through Stop or on the recognizer's own accord.
	Start(ctx context.Context, lang string) (<-chan Result, error)

	// Stop ends the session, if any, and waits for it to wind down.
	Stop()

	// Active reports whether a session is running.
	Active() bool
}

// Transcript assembles results into text, in index order.
type Transcript struct {
	results []Result
}

// Add records r, replacing any earlier result with the same index.
func (t *Transcript) Add(r Result) {
	if r.Index < 0 {
		return
	}
	for len(t.results) <= r.Index {
		t.results = append(t.results, Result{Index: len(t.results)})
	}
	t.results[r.Index] = r
}

// Reset forgets all results.
func (t *Transcript) Reset() {
	t.results = t.results[:0]
}

// Pending reports whether the last result is still interim.
func (t *Transcript) Pending() bool {
	return len(t.results) > 0 && !t.results[len(t.results)-1].Final
}

// String joins the results with single spaces.
func (t *Transcript) String() string {
	parts := make([]string, 0, len(t.results))
	for _, r := range t.results {
		if s := strings.TrimSpace(r.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
