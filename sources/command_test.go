package sources

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	switch args[1] {
	case "echo":
		for _, a := range args[2:] {
			fmt.Println(a)
		}
	case "fail":
		fmt.Fprintln(os.Stderr, "buffer is read-only")
		os.Exit(1)
	case "sleep":
		time.Sleep(time.Hour)
	}
	os.Exit(0)
}

func helperCommand(t *testing.T, mode string, args ...string) []string {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	return append([]string{os.Args[0], "-test.run=^TestHelperProcess$", "--", mode}, args...)
}

func TestCommandSourceStream(t *testing.T) {
	argv := helperCommand(t, "echo", "line 1", "line 2")
	src := NewCommandSource("helper", argv[0], argv[1:]...)

	if src.Pid() != 0 {
		t.Error("Pid should be 0 before Stream")
	}

	reader, err := src.Stream()
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if src.Pid() == 0 {
		t.Error("Pid should be set after Stream")
	}

	var lines []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Scanner error: %v", err)
	}
	if err := src.Wait(); err != nil {
		t.Errorf("Wait returned %v", err)
	}

	if strings.Join(lines, "|") != "line 1|line 2" {
		t.Errorf("Unexpected output %q", lines)
	}

	if _, err := src.Stream(); err == nil {
		t.Error("A source must not stream twice")
	}
}

func TestCommandSourceNotFound(t *testing.T) {
	src := NewCommandSource("missing", "/nonexistent/logrelay-tool")
	_, err := src.Stream()
	if err == nil {
		t.Fatal("Expected error for a missing command")
	}
	if !errors.Is(err, exec.ErrNotFound) && !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-found error, got %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close on a never-started source should succeed, got %v", err)
	}
	if err := src.Wait(); err == nil {
		t.Error("Wait on a never-started source should fail")
	}
}

func TestCommandSourceClose(t *testing.T) {
	argv := helperCommand(t, "sleep")
	src := NewCommandSource("helper", argv[0], argv[1:]...)

	reader, err := src.Stream()
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(reader)
		for scanner.Scan() {
		}
		src.Wait()
		close(done)
	}()

	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stream did not end after Close")
	}

	if err := src.Close(); err != nil {
		t.Errorf("Second Close should be harmless, got %v", err)
	}
}

func TestRun(t *testing.T) {
	if err := Run(helperCommand(t, "echo", "ignored")); err != nil {
		t.Errorf("Run failed: %v", err)
	}

	err := Run(helperCommand(t, "fail"))
	if err == nil {
		t.Fatal("Expected error from a failing command")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Errorf("Expected an exit error, got %T", err)
	}
	if !strings.Contains(err.Error(), "buffer is read-only") {
		t.Errorf("Expected stderr in the error, got %v", err)
	}

	if err := Run(nil); err == nil {
		t.Error("Expected error for an empty command")
	}
}
