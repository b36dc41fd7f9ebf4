package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/audio"
	"github.com/dgnsrekt/speak/internal/timer"
	"github.com/dgnsrekt/speak/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	headless bool

	timerCmd = &cobra.Command{
		Use:   "timer [MINUTES]",
		Short: "Count down and beep",
		Long: paragraph(fmt.Sprintf("\nCount down from a preset number of minutes and %s when the time is up. "+
			"Without a terminal, or with --headless, the countdown is printed on a single line.", keyword("beep"))),
		Example: paragraph("speak timer\nspeak timer 5\nspeak timer 10 --headless"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runTimer,
	}
)

func runTimer(cmd *cobra.Command, args []string) error {
	minutes := 0
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid number of minutes %q: %w", args[0], timer.ErrInvalidDuration)
		}
		minutes = n
	}

	tone, closeTone := toner()
	defer closeTone() //nolint:errcheck
	countdown := timer.NewCountdown(tone)

	if headless || !term.IsTerminal(int(os.Stdout.Fd())) {
		if minutes == 0 {
			return fmt.Errorf("headless timer needs a number of minutes: %w", timer.ErrInvalidDuration)
		}
		return runHeadlessTimer(cmd.Context(), countdown, minutes)
	}

	cfg, err := uiConfig()
	if err != nil {
		return err
	}
	if _, err := ui.NewTimerProgram(cfg, countdown, minutes).Run(); err != nil {
		return fmt.Errorf("unable to run timer: %w", err)
	}
	return nil
}

func runHeadlessTimer(ctx context.Context, countdown *timer.Countdown, minutes int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	r := timer.Runner{
		Countdown: countdown,
		OnTick: func(display string) {
			fmt.Printf("\r%s", display)
		},
	}
	err := r.Run(ctx, minutes)
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		log.Debug("Timer interrupted", "remaining", countdown.Remaining())
		fmt.Println("Stopped at", countdown.Display())
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("Time's up")
	// let the tone finish before the device goes away
	time.Sleep(audio.BeepDuration)
	return nil
}

func init() {
	timerCmd.Flags().BoolVar(&headless, "headless", false, "print the countdown instead of running the timer screen")
}
