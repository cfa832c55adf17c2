package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command is one invocation of an external tool.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command line for logging.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result holds the outcome of a single external tool run. ExitCode is -1
// when the process could not be started at all.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Failed reports whether the tool could not run or exited non-zero.
func (r Result) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Tail returns the last n non-empty lines of stderr, falling back to stdout.
func (r Result) Tail(n int) []string {
	text := strings.TrimSpace(r.Stderr)
	if text == "" {
		text = strings.TrimSpace(r.Stdout)
	}
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// Runner runs external tools. Tests replace it with a fake.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// execRunner runs commands with os/exec, capturing both streams. When tee is
// set, stderr is also mirrored to os.Stderr as the tool writes it.
type execRunner struct {
	tee bool
}

func (r execRunner) Run(ctx context.Context, c Command) Result {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if r.tee {
		cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	logger.Debugf("exec: %s", c)
	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = err
	}
	return res
}

// logFailure reports a failed tool run with the tail of its output.
func logFailure(what string, res Result) {
	if res.Err != nil {
		logger.Errorf("%s: %v", what, res.Err)
	} else {
		logger.Errorf("%s: exit code %d", what, res.ExitCode)
	}
	for _, line := range res.Tail(20) {
		logger.Errorf("  %s", line)
	}
}
