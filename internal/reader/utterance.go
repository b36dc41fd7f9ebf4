package reader

import (
	"context"
	"errors"
	"strings"

	"github.com/dgnsrekt/speak/internal/speech"
)

// OnSpeak implements Events. It cancels whatever is being said and speaks
// the selection, or the whole text when nothing is selected, with the
// selected voice and speed. Empty text only cancels.
func (r *Reader) OnSpeak(ctx context.Context) error {
	r.OnStop()

	text := r.session.Speakable()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	u := speech.NewUtterance(text, r.session.Voice(), r.session.Rate())
	u.Lang = r.session.Lang()

	if err := r.synth.Speak(ctx, u); err != nil {
		if errors.Is(err, speech.ErrUnavailable) {
			r.view.SetStatus("Speech is not available")
			return err
		}
		r.warn("Could not speak", err)
		return err
	}
	return nil
}

// OnStop implements Events. It only cancels when something is playing.
func (r *Reader) OnStop() {
	if r.synth.Speaking() {
		r.synth.Cancel()
	}
}

// OnSelectionChange implements Events. Selections made outside the text are
// ignored; a non-empty selection is spoken on its own.
func (r *Reader) OnSelectionChange(ctx context.Context, ev SelectionEvent) error {
	if ev.Focus != SurfaceText {
		return nil
	}
	sel := substring(r.session.Text(), ev.Start, ev.End)
	r.session.SetSelection(sel)
	if sel == "" {
		return nil
	}
	return r.OnSpeak(ctx)
}

// OnTextChange implements Events.
func (r *Reader) OnTextChange(text string) {
	r.session.SetText(text)
}

// substring returns the runes of s between start and end, in either order,
// clamped to s.
func substring(s string, start, end int) string {
	if start > end {
		start, end = end, start
	}
	runes := []rune(s)
	start = min(max(start, 0), len(runes))
	end = min(max(end, 0), len(runes))
	return string(runes[start:end])
}
