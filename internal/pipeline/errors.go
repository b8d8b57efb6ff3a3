package pipeline

import (
	"errors"
	"fmt"
	"os/exec"
)

var (
	ErrEmptyPipeline      = errors.New("empty pipeline")
	ErrSyntax             = errors.New("syntax error")
	ErrBackgroundPipeline = errors.New("background execution is only supported for a single command")
	ErrNotFound           = errors.New("command not found")
)

// SyntaxError reports malformed pipeline input.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string { return "syntax error: " + e.Msg }
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

func syntaxErrorf(format string, args ...any) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when the command lookup does not know a program.
// No process is created.
type NotFoundError struct {
	Program string
}

func (e *NotFoundError) Error() string { return e.Program + ": command not found" }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// SpawnError is returned when the OS refuses to start a process.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("%s: %v", e.Program, e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// RedirectError is returned when a redirect target cannot be opened, read or
// written.
type RedirectError struct {
	Redirect Redirect
	Err      error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("%s: %v", e.Redirect.Path, e.Err)
}
func (e *RedirectError) Unwrap() error { return e.Err }

// ExitCode extracts a process exit status from an error returned by
// Process.Wait or Process.Output. A nil error is status 0; errors that are
// not exit statuses map to -1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
