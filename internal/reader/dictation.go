package reader

import (
	"context"

	"github.com/dgnsrekt/speak/internal/dictation"
)

// OnDictationToggle implements Events. The first call starts recognition
// in the selected voice's language and the second stops it. Results
// replace the text live, appended to what was there when dictation began.
func (r *Reader) OnDictationToggle(ctx context.Context) error {
	if r.rec == nil {
		r.view.SetStatus("Dictation is not available")
		return dictation.ErrUnavailable
	}

	r.mu.Lock()
	if r.dictating {
		r.mu.Unlock()
		r.stopDictation()
		return nil
	}
	r.mu.Unlock()

	lang := r.session.Lang()
	results, err := r.rec.Start(ctx, lang)
	if err != nil {
		r.warn("Could not start dictation", err)
		return err
	}

	r.mu.Lock()
	r.dictating = true
	r.dictSerial++
	serial := r.dictSerial
	r.dictBase = r.session.Text()
	r.transcript.Reset()
	r.mu.Unlock()

	r.view.SetRecording(true)
	r.view.SetStatus("Listening (" + lang + ")")
	go r.pump(serial, results)
	return nil
}

// Dictating reports whether dictation is running.
func (r *Reader) Dictating() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dictating
}

func (r *Reader) stopDictation() {
	r.mu.Lock()
	if !r.dictating {
		r.mu.Unlock()
		return
	}
	r.dictating = false
	r.mu.Unlock()

	r.rec.Stop()
	r.view.SetRecording(false)
	r.view.SetStatus("Dictation stopped")
}

// pump applies results of dictation session serial until the recognizer
// closes the channel.
func (r *Reader) pump(serial int, results <-chan dictation.Result) {
	for res := range results {
		r.mu.Lock()
		if serial != r.dictSerial {
			r.mu.Unlock()
			continue
		}
		r.transcript.Add(res)
		text := joinText(r.dictBase, r.transcript.String())
		r.mu.Unlock()

		r.session.SetText(text)
		r.view.SetText(text)
	}

	r.mu.Lock()
	ended := serial == r.dictSerial && r.dictating
	if ended {
		r.dictating = false
	}
	r.mu.Unlock()

	if ended {
		r.view.SetRecording(false)
		r.view.SetStatus("Dictation ended")
	}
}

func joinText(base, dictated string) string {
	switch {
	case base == "":
		return dictated
	case dictated == "":
		return base
	default:
		return base + " " + dictated
	}
}
