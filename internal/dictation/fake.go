package dictation

import (
	"context"
	"sync"
)

// Fake is a Recognizer driven by the test: Send delivers results and End
// simulates the recognizer ending the session itself.
type Fake struct {
	// Err is returned by Start.
	Err error

	mu      sync.Mutex
	results chan Result
	langs   []string
	stops   int
}

// Start implements Recognizer.
func (f *Fake) Start(_ context.Context, lang string) (<-chan Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if f.results != nil {
		return nil, ErrActive
	}
	f.langs = append(f.langs, lang)
	f.results = make(chan Result, 16)
	return f.results, nil
}

// Send delivers r to the running session.
func (f *Fake) Send(r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results != nil {
		f.results <- r
	}
}

// End closes the session as if the recognizer stopped on its own.
func (f *Fake) End() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endLocked()
}

func (f *Fake) endLocked() {
	if f.results != nil {
		close(f.results)
		f.results = nil
	}
}

// Stop implements Recognizer.
func (f *Fake) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results != nil {
		f.stops++
	}
	f.endLocked()
}

// Active implements Recognizer.
func (f *Fake) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results != nil
}

// Langs returns the locale of every started session.
func (f *Fake) Langs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.langs...)
}

// Stops returns how many sessions were stopped by Stop.
func (f *Fake) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

var _ Recognizer = (*Fake)(nil)
