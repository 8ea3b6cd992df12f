package spin

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Spinner writes a progress indicator to stderr while a slow task
// runs. Output meant for the user should be written after Stop.
type Spinner struct {
	frames   []string
	message  string
	interval time.Duration

	mu      sync.Mutex
	running bool

	stop sync.Once
	done chan struct{}
}

func New(message string) *Spinner {
	message = strings.TrimSpace(message)
	message = strings.TrimRight(message, ".")
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message:  message,
		interval: time.Millisecond * 80,
		done:     make(chan struct{}),
	}
}

// Run starts the spinner, invokes fn and stops the spinner once fn
// returns. The error of fn is passed through.
func (s *Spinner) Run(fn func() error) error {
	s.Start()
	defer s.Stop()
	return fn()
}

func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.run()
}

func (s *Spinner) Stop() {
	s.stop.Do(func() {
		close(s.done)
		clearLine()
	})
}

func (s *Spinner) run() {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	for i := 0; ; i++ {
		select {
		case <-tick.C:
			frame := s.frames[i%len(s.frames)]
			if s.message != "" {
				fmt.Fprintf(os.Stderr, "\r%s %s...", frame, s.message)
			} else {
				fmt.Fprintf(os.Stderr, "\r%s", frame)
			}
		case <-s.done:
			return
		}
	}
}

func clearLine() {
	io.WriteString(os.Stderr, "\x1b[0G\x1b[2K\x1b[0G")
}
