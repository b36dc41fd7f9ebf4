package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/reader"
	"github.com/dgnsrekt/speak/internal/speech"
	"github.com/spf13/cobra"
)

var errNothingToSay = errors.New("nothing to say")

var sayCmd = &cobra.Command{
	Use:     "say [TEXT]...",
	Short:   "Speak text without opening the reader",
	Long:    paragraph(fmt.Sprintf("\nSpeak the arguments, or standard input when there are none, and %s when done.", keyword("exit"))),
	Example: paragraph("speak say hello world\nspeak say --lang en-GB --speed 80 good evening\ndate | speak say"),
	RunE: func(cmd *cobra.Command, args []string) error {
		piped, err := stdinIsPipe()
		if err != nil {
			return err
		}
		text, err := sayText(args, os.Stdin, piped)
		if err != nil {
			return err
		}
		params, err := launchParams()
		if err != nil {
			return err
		}
		params.Text = text

		a := newApp(cmd.Context(), true)
		defer a.Close() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		r := reader.New(reader.Options{
			Session:     a.session(),
			Synthesizer: a.synth,
			Prefs:       a.prefs,
			Speed:       speedRange(),
			Params:      params,
		})
		err = say(ctx, r, a.synth.Events())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// sayText joins the arguments, or reads r when there are none and r is a
// pipe.
func sayText(args []string, r io.Reader, piped bool) (string, error) {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		if !piped {
			return "", errNothingToSay
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("unable to read stdin: %w", err)
		}
		text = string(b)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errNothingToSay
	}
	return text, nil
}

// say speaks the reader's launch text once the voices are loaded and waits
// for the utterance to finish. Canceling ctx stops speech.
func say(ctx context.Context, r *reader.Reader, events <-chan speech.Event) error {
	r.Init(ctx)
	if err := r.OnCatalogReady(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return ctx.Err()
		case ev := <-events:
			log.Debug("Speech event", "kind", ev.Kind, "utterance", ev.UtteranceID)
			r.HandleSpeechEvent(ev)
			switch ev.Kind {
			case speech.Ended:
				return nil
			case speech.Canceled:
				return context.Canceled
			case speech.Failed:
				return ev.Err
			}
		}
	}
}
