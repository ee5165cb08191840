// Package tuitest runs the built browser inside a pseudo terminal and
// records what it draws.
package tuitest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

const (
	defaultWidth   = 120
	defaultHeight  = 32
	defaultTimeout = 10 * time.Second
	pollInterval   = 25 * time.Millisecond
)

// Step is one scripted interaction. The harness sleeps for Delay, then waits
// until WaitFor appears on screen (when set), then writes Input.
type Step struct {
	Delay   time.Duration
	WaitFor string
	Input   []byte
}

// Config describes the program to drive.
type Config struct {
	Command          []string
	Dir              string
	Env              []string
	Width            int
	Height           int
	Steps            []Step
	Timeout          time.Duration
	AllowedExitCodes []int
	AllowInterrupt   bool
}

// Recording is the captured terminal stream.
type Recording struct {
	Raw      []byte
	Frames   []Frame
	Duration time.Duration
}

// Contains reports whether text was drawn in any frame.
func (r *Recording) Contains(text string) bool {
	if r == nil {
		return false
	}
	return strings.Contains(stripANSI(string(r.Raw)), text)
}

// screen collects PTY output for both the waiters and the final recording.
type screen struct {
	mu  sync.Mutex
	raw []byte
}

func (s *screen) write(p []byte) {
	s.mu.Lock()
	s.raw = append(s.raw, p...)
	s.mu.Unlock()
}

func (s *screen) bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.raw...)
}

func (s *screen) waitFor(ctx context.Context, text string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if strings.Contains(stripANSI(string(s.bytes())), text) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("tuitest: %q never appeared: %w", text, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Run starts the command in a PTY, replays the steps and waits for exit.
func Run(ctx context.Context, cfg Config) (*Recording, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	width, height, timeout := cfg.Width, cfg.Height, cfg.Timeout
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = buildEnv(cfg.Env)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start program: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	scr := &screen{}
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		responder := newTerminalResponder(ptmx)
		buf := make([]byte, 4096)
		for {
			n, readErr := ptmx.Read(buf)
			if n > 0 {
				responder.Process(buf[:n])
				scr.write(buf[:n])
			}
			if readErr != nil {
				return
			}
		}
	}()

	start := time.Now()
	for i, step := range cfg.Steps {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tuitest: step %d: %w", i, ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if step.WaitFor != "" {
			if err := scr.waitFor(ctx, step.WaitFor); err != nil {
				return &Recording{Raw: scr.bytes(), Frames: parseFrames(scr.bytes())}, fmt.Errorf("step %d: %w", i, err)
			}
		}
		if len(step.Input) > 0 {
			if _, err := ptmx.Write(step.Input); err != nil {
				return nil, fmt.Errorf("tuitest: write input: %w", err)
			}
		}
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		if err != nil && !exitAllowed(err, cfg) {
			return nil, fmt.Errorf("tuitest: program exited with error: %w", err)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("tuitest: timeout waiting for program exit: %w", ctx.Err())
	}

	// Closing the PTY unblocks the reader so it can drain.
	_ = ptmx.Close()
	<-copyDone

	raw := scr.bytes()
	return &Recording{Raw: raw, Frames: parseFrames(raw), Duration: time.Since(start)}, nil
}

func exitAllowed(err error, cfg Config) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 0 {
			return true
		}
		for _, code := range cfg.AllowedExitCodes {
			if exitErr.ExitCode() == code {
				return true
			}
		}
	}
	return cfg.AllowInterrupt && strings.Contains(err.Error(), "signal: interrupt")
}

func buildEnv(extra []string) []string {
	env := append(os.Environ(), extra...)
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}

var (
	// KeyEnter sends a carriage return.
	KeyEnter = []byte{'\r'}
	// KeyCtrlC interrupts the program.
	KeyCtrlC = []byte{3}
	// KeyEsc closes overlays.
	KeyEsc = []byte{27}
	// KeyTab cycles forward.
	KeyTab = []byte{'\t'}
	// KeyLeft and KeyRight are the arrow keys in normal cursor mode.
	KeyLeft  = []byte("\x1b[D")
	KeyRight = []byte("\x1b[C")
)

// Keys returns s as typed input.
func Keys(s string) []byte { return []byte(s) }
