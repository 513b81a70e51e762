package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Spinner shows an animated activity indicator for operations of
// unknown duration, such as a rebuild.
type Spinner struct {
	w        io.Writer
	interval time.Duration
	noColor  bool

	mu      sync.Mutex
	message string
	stop    chan struct{}
}

// SpinnerOptions configures spinner behavior
type SpinnerOptions struct {
	Message  string
	NoColor  bool
	Interval time.Duration // Default: 100ms
}

// NewSpinner creates a new spinner
func NewSpinner(w io.Writer, opts SpinnerOptions) *Spinner {
	interval := opts.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	return &Spinner{
		w:        w,
		interval: interval,
		noColor:  opts.NoColor,
		message:  opts.Message,
	}
}

// Start begins the animation. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	ch := make(chan struct{})
	s.stop = ch
	go s.animate(ch)
}

// Stop halts the animation and clears the spinner line. Safe to call
// on a spinner that was never started. The send hands off to the
// animation goroutine, so no frame write is in flight afterwards.
func (s *Spinner) Stop() {
	s.mu.Lock()
	ch := s.stop
	s.stop = nil
	s.mu.Unlock()
	if ch == nil {
		return
	}
	ch <- struct{}{}
	fmt.Fprint(s.w, "\r\033[K")
}

// UpdateMessage changes the text shown next to the spinner.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) animate(stop <-chan struct{}) {
	frames := []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	cyan := color.New(color.FgCyan)
	if s.noColor {
		cyan.DisableColor()
	}

	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			cyan.Fprintf(s.w, "\r%c %s", frames[i%len(frames)], msg)
		}
	}
}

// WithSpinner runs fn behind a spinner and reports the outcome on its
// line when fn returns.
func WithSpinner(w io.Writer, message string, noColor bool, fn func() error) error {
	s := NewSpinner(w, SpinnerOptions{Message: message, NoColor: noColor})
	s.Start()
	err := fn()
	s.Stop()

	result := color.New(color.FgGreen, color.Bold)
	line := fmt.Sprintf("✓ %s", message)
	if err != nil {
		result = color.New(color.FgRed, color.Bold)
		line = fmt.Sprintf("✗ %s failed", message)
	}
	if noColor {
		result.DisableColor()
	}
	result.Fprintln(w, line)
	return err
}
