package dictation

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// LangPlaceholder in a command is replaced with the recognition locale.
const LangPlaceholder = "{lang}"

// interimPrefix marks an output line as a provisional result.
const interimPrefix = "~"

// CommandRecognizer runs an external program that prints one recognized
// phrase per line. A line starting with "~" is an interim guess at the
// next phrase and is superseded by the following line.
type CommandRecognizer struct {
	argv []string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandRecognizer parses command into arguments. An empty command or a
// program missing from PATH is reported as ErrUnavailable.
func NewCommandRecognizer(command string) (*CommandRecognizer, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: no dictation command configured", ErrUnavailable)
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &CommandRecognizer{argv: argv}, nil
}

// Args returns the command line for lang.
func (c *CommandRecognizer) Args(lang string) []string {
	args := make([]string, len(c.argv))
	for i, a := range c.argv {
		args[i] = strings.ReplaceAll(a, LangPlaceholder, lang)
	}
	return args
}

// Start implements Recognizer.
func (c *CommandRecognizer) Start(ctx context.Context, lang string) (<-chan Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return nil, ErrActive
	}

	ctx, cancel := context.WithCancel(ctx)
	args := c.Args(lang)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("dictation pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start dictation: %w", err)
	}
	log.Debug("dictation started", "command", args)

	results := make(chan Result)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done

	go func() {
		defer close(done)
		defer close(results)
		defer c.finish(done)

		index := 0
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			r := Result{Index: index, Final: true}
			if rest, ok := strings.CutPrefix(line, interimPrefix); ok {
				r.Text, r.Final = strings.TrimSpace(rest), false
			} else {
				r.Text = line
				index++
			}
			select {
			case results <- r:
			case <-ctx.Done():
			}
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Warn("dictation command exited", "error", err)
		}
		cancel()
	}()

	return results, nil
}

// finish clears the session if it is still the current one.
func (c *CommandRecognizer) finish(done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == done {
		c.cancel, c.done = nil, nil
	}
}

// Stop implements Recognizer.
func (c *CommandRecognizer) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active implements Recognizer.
func (c *CommandRecognizer) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done != nil
}

var _ Recognizer = (*CommandRecognizer)(nil)
