package ddc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// ExecRunner runs commands with os/exec. Stderr is folded into the error.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stdout.Bytes(), fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return stdout.Bytes(), &ExitError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}

	return stdout.Bytes(), nil
}

// ExitError is a failed invocation with whatever the tool printed on stderr.
type ExitError struct {
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

var (
	ErrNotInstalled = errors.New("ddccontrol not found in PATH")
	ErrPermission   = errors.New("permission denied on i2c device")
	ErrNoMonitor    = errors.New("no DDC/CI capable monitor on device")
	ErrNoValue      = errors.New("no brightness value in ddccontrol output")
)

// classify maps a runner failure (and any output the tool produced) onto
// one of the package's sentinel errors where possible.
func classify(err error, out []byte) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}

	text := strings.ToLower(err.Error() + "\n" + string(out))
	switch {
	case strings.Contains(text, "permission denied"):
		return fmt.Errorf("%w: %v", ErrPermission, err)
	case strings.Contains(text, "no monitor"),
		strings.Contains(text, "ddc/ci not supported"),
		strings.Contains(text, "no such file or directory"),
		strings.Contains(text, "unable to open"):
		return fmt.Errorf("%w: %v", ErrNoMonitor, err)
	}
	return err
}

// Reason returns a short human readable cause for err, suitable for a
// status line.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInstalled):
		return "ddccontrol is not installed"
	case errors.Is(err, ErrPermission):
		return "Permission denied (is the user in the i2c group?)"
	case errors.Is(err, ErrNoMonitor):
		return "No DDC/CI monitor found"
	case errors.Is(err, ErrNoValue):
		return "Monitor did not report brightness"
	case errors.Is(err, context.DeadlineExceeded):
		return "ddccontrol timed out"
	}
	return "ddccontrol failed"
}
