package speech_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/speak/internal/audio"
	"github.com/dgnsrekt/speak/internal/cache"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/dgnsrekt/speak/internal/speech/speechtest"
	"github.com/dgnsrekt/speak/internal/voice"
)

var alex = voice.Voice{Name: "Alex", Lang: "en-US"}

func nextEvent(t *testing.T, ch <-chan speech.Event) speech.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for speech event")
		return speech.Event{}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEngineSpeakPlaysToEnd(t *testing.T) {
	mp := audio.NewMockPlayer()
	e := speech.NewEngine(&speechtest.Backend{}, mp)

	u := speech.NewUtterance("hello", alex, 1)
	if err := e.Speak(context.Background(), u); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if ev := nextEvent(t, e.Events()); ev.Kind != speech.Started || ev.UtteranceID != u.ID {
		t.Fatalf("first event = %+v, want started %s", ev, u.ID)
	}

	waitFor(t, func() bool { return mp.PlayCount() == 1 })
	if !e.Speaking() {
		t.Error("expected Speaking() during playback")
	}

	mp.Finish()
	if ev := nextEvent(t, e.Events()); ev.Kind != speech.Ended || ev.UtteranceID != u.ID {
		t.Fatalf("final event = %+v, want ended", ev)
	}
	if e.Speaking() {
		t.Error("expected idle after playback ended")
	}
}

func TestEngineStopsBeforeStart(t *testing.T) {
	mp := audio.NewMockPlayer()
	e := speech.NewEngine(&speechtest.Backend{}, mp)
	ctx := context.Background()

	first := speech.NewUtterance("first", alex, 1)
	second := speech.NewUtterance("second", alex, 1)

	if err := e.Speak(ctx, first); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, e.Events())
	waitFor(t, func() bool { return mp.PlayCount() == 1 })

	if err := e.Speak(ctx, second); err != nil {
		t.Fatal(err)
	}

	want := []struct {
		kind speech.EventKind
		id   string
	}{
		{speech.Canceled, first.ID},
		{speech.Started, second.ID},
	}
	for _, w := range want {
		ev := nextEvent(t, e.Events())
		if ev.Kind != w.kind || ev.UtteranceID != w.id {
			t.Errorf("event = %v %s, want %v %s", ev.Kind, ev.UtteranceID, w.kind, w.id)
		}
	}
	if mp.StopCount() != 1 {
		t.Errorf("StopCount = %d, want 1", mp.StopCount())
	}
	e.Cancel()
}

func TestEngineCancelDuringSynthesis(t *testing.T) {
	backend := &speechtest.Backend{Block: true}
	mp := audio.NewMockPlayer()
	e := speech.NewEngine(backend, mp)

	u := speech.NewUtterance("slow", alex, 1)
	if err := e.Speak(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, e.Events())

	e.Cancel()
	if ev := nextEvent(t, e.Events()); ev.Kind != speech.Canceled {
		t.Errorf("event = %v, want canceled", ev.Kind)
	}
	if e.Speaking() {
		t.Error("expected idle after Cancel")
	}
	if mp.PlayCount() != 0 {
		t.Error("nothing should have played")
	}
}

func TestEngineReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	e := speech.NewEngine(&speechtest.Backend{Err: boom}, audio.NewMockPlayer())

	if err := e.Speak(context.Background(), speech.NewUtterance("x", alex, 1)); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, e.Events())
	ev := nextEvent(t, e.Events())
	if ev.Kind != speech.Failed || !errors.Is(ev.Err, boom) {
		t.Errorf("event = %+v, want failure wrapping boom", ev)
	}
}

func TestEngineUsesCache(t *testing.T) {
	backend := &speechtest.Backend{}
	mp := audio.NewMockPlayer()
	c, err := cache.New(cache.Config{MemoryCapacity: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	e := speech.NewEngine(backend, mp, speech.WithCache(c))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := e.Speak(ctx, speech.NewUtterance("same text", alex, 1.5)); err != nil {
			t.Fatal(err)
		}
		nextEvent(t, e.Events())
		waitFor(t, func() bool { return mp.PlayCount() == i+1 })
		mp.Finish()
		nextEvent(t, e.Events())
	}

	if n := len(backend.Calls()); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
}

func TestEngineRejectsEmptyText(t *testing.T) {
	e := speech.NewEngine(&speechtest.Backend{}, audio.NewMockPlayer())
	if err := e.Speak(context.Background(), speech.NewUtterance("  ", alex, 1)); !errors.Is(err, speech.ErrEmptyText) {
		t.Errorf("Speak() error = %v, want ErrEmptyText", err)
	}
	if e.Speaking() {
		t.Error("empty text must not start an utterance")
	}
}

func TestDisabled(t *testing.T) {
	tests := []struct {
		name   string
		reason error
	}{
		{"nil reason", nil},
		{"plain error", errors.New("espeak-ng not found")},
		{"sentinel", speech.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := speech.NewDisabled(tt.reason)
			if err := d.Speak(context.Background(), speech.NewUtterance("x", alex, 1)); !errors.Is(err, speech.ErrUnavailable) {
				t.Errorf("Speak() error = %v, want ErrUnavailable", err)
			}
			if _, err := d.Voices(context.Background()); err == nil {
				t.Error("Voices() should fail")
			}
			if d.Speaking() {
				t.Error("disabled engine never speaks")
			}
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("exit status 1")
	err := speech.NewError(speech.CodeSynthesis, "espeak-ng failed", cause)
	if got, want := err.Error(), "SYNTHESIS_FAILED: espeak-ng failed: exit status 1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
	if errors.Is(err, speech.ErrUnavailable) || err.IsFatal() {
		t.Error("synthesis failure is not an unavailability")
	}
}

func TestNewUtterance(t *testing.T) {
	a := speech.NewUtterance("hi", alex, 1.25)
	b := speech.NewUtterance("hi", alex, 1.25)
	if a.ID == "" || a.ID == b.ID {
		t.Error("utterances need unique IDs")
	}
	if a.Lang != "en-US" {
		t.Errorf("Lang = %q, want voice lang", a.Lang)
	}
	if a.RateString() != "1.25" {
		t.Errorf("RateString() = %q", a.RateString())
	}
}
