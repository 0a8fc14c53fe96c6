package sources

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

type CommandSource struct {
	name    string
	command string
	args    []string

	mu       sync.Mutex
	cmd      *exec.Cmd
	waitOnce sync.Once
	waitErr  error
}

func NewCommandSource(name string, command string, args ...string) *CommandSource {
	return &CommandSource{
		name:    name,
		command: command,
		args:    args,
	}
}

// Stream starts the command and returns its standard output.
// A source streams at most once.
func (s *CommandSource) Stream() (io.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return nil, fmt.Errorf("source %s already streaming", s.name)
	}

	cmd := exec.Command(s.command, s.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command %s: %w", s.command, err)
	}
	s.cmd = cmd

	return stdout, nil
}

// Wait reaps the process once its output has been fully consumed.
// It must not be called before reads from the stream have finished.
func (s *CommandSource) Wait() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()

	if cmd == nil {
		return errors.New("source not started")
	}
	s.waitOnce.Do(func() {
		s.waitErr = cmd.Wait()
	})
	return s.waitErr
}

func (s *CommandSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}
	return nil
}

func (s *CommandSource) Name() string {
	return s.name
}

// Pid returns the pid of the running command, or 0 before Stream.
func (s *CommandSource) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// String renders the command line, e.g. for status output.
func (s *CommandSource) String() string {
	return strings.Join(append([]string{s.command}, s.args...), " ")
}

// Run executes argv to completion, discarding its output.
func Run(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(string(out)); msg != "" {
				return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
			}
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
