package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Mode selects how data moves between adjacent stages.
type Mode int

const (
	// Buffered runs stages one after another. Each stage's complete output
	// is held in memory and then written into the next stage. Output size
	// is bounded only by memory.
	Buffered Mode = iota
	// Streaming starts every stage up front and relays data between them
	// as it is produced.
	Streaming
)

func (m Mode) String() string {
	switch m {
	case Buffered:
		return "buffered"
	case Streaming:
		return "streaming"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a configured mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "buffered":
		return Buffered, nil
	case "streaming":
		return Streaming, nil
	default:
		return 0, fmt.Errorf("unknown pipeline mode: %q", s)
	}
}

// Executor turns a parsed stage chain into running processes.
type Executor struct {
	launcher *Launcher
	fs       afero.Fs
	mode     Mode
	log      *zap.Logger
}

// NewExecutor creates an executor. Redirect targets are opened through
// fsys. A nil logger disables logging.
func NewExecutor(l *Launcher, fsys afero.Fs, mode Mode, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{launcher: l, fs: fsys, mode: mode, log: log}
}

// Execute launches the chain rooted at root. It returns the terminal
// process when that process writes to the shell's stdout; the caller must
// Wait for it. When the terminal stage's output is redirected to a file the
// pipeline has already completed, the returned process is nil and a
// non-zero exit of that stage is returned as its *exec.ExitError.
//
// If any stage fails to launch the pipeline stops there and the error is
// returned.
func (e *Executor) Execute(ctx context.Context, root *Stage) (*Process, error) {
	if root == nil {
		return nil, ErrEmptyPipeline
	}
	if root.IsTerminal() && root.Redirect == nil {
		return e.launcher.Launch(ctx, root.Command, Inherit, Inherit)
	}
	if e.mode == Streaming {
		return e.executeStreaming(ctx, root)
	}
	return e.executeBuffered(ctx, root)
}

func (e *Executor) executeBuffered(ctx context.Context, root *Stage) (*Process, error) {
	var input []byte
	for s := root; s != nil; s = s.Next {
		if s.Redirect != nil && s.Redirect.Mode == Read {
			data, err := afero.ReadFile(e.fs, s.Redirect.Path)
			if err != nil {
				return nil, &RedirectError{Redirect: *s.Redirect, Err: err}
			}
			input = data
		}

		stdout := Pipe
		if s.IsTerminal() && !writesFile(s) {
			stdout = Inherit
		}
		p, err := e.launcher.Launch(ctx, s.Command, Pipe, stdout)
		if err != nil {
			return nil, err
		}
		p.feed(bytes.NewReader(input))
		if stdout == Inherit {
			return p, nil
		}

		out, err := p.Output()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: %w", s.Command.Program, err)
		}
		e.log.Debug("stage output buffered",
			zap.String("program", s.Command.Program),
			zap.Int("bytes", len(out)),
			zap.Int("status", ExitCode(err)))

		if writesFile(s) {
			if werr := e.writeFile(*s.Redirect, out); werr != nil {
				return nil, werr
			}
			if s.IsTerminal() {
				// err is nil or the stage's exit status.
				return nil, err
			}
			out = nil
		}
		input = out
	}
	return nil, nil
}

func (e *Executor) executeStreaming(ctx context.Context, root *Stage) (*Process, error) {
	var (
		launched []*Process
		prev     *Process
		// prevFile is set when prev's output goes to a file instead of
		// the next stage.
		prevFile afero.File
	)
	fail := func(err error) (*Process, error) {
		if prevFile != nil {
			prevFile.Close()
		}
		for _, p := range launched {
			p.abort()
		}
		return nil, err
	}

	for s := root; s != nil; s = s.Next {
		var in, out afero.File
		var err error
		if s.Redirect != nil {
			switch s.Redirect.Mode {
			case Read:
				in, err = e.fs.Open(s.Redirect.Path)
			case Write:
				out, err = e.fs.OpenFile(s.Redirect.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			}
			if err != nil {
				return fail(&RedirectError{Redirect: *s.Redirect, Err: err})
			}
		}

		stdout := Pipe
		if s.IsTerminal() && out == nil {
			stdout = Inherit
		}
		p, err := e.launcher.Launch(ctx, s.Command, Pipe, stdout)
		if err != nil {
			for _, f := range []afero.File{in, out} {
				if f != nil {
					f.Close()
				}
			}
			return fail(err)
		}
		launched = append(launched, p)

		switch {
		case prev != nil && prevFile != nil:
			p.drainFrom(prev, prevFile)
		case prev != nil && in != nil:
			p.drainFrom(prev, io.Discard)
		case prev != nil:
			p.drainFrom(prev, p.stdin)
		}
		switch {
		case in != nil:
			p.feed(in)
		case prev == nil || prevFile != nil:
			p.closeInput()
		}

		if s.IsTerminal() && out != nil {
			n, err, werr := drain(p, out)
			e.log.Debug("stage output written",
				zap.String("program", s.Command.Program),
				zap.String("path", s.Redirect.Path),
				zap.Int64("bytes", n))
			if err != nil {
				return nil, &RedirectError{Redirect: *s.Redirect, Err: err}
			}
			var exitErr *exec.ExitError
			if werr != nil && !errors.As(werr, &exitErr) {
				return nil, fmt.Errorf("%s: %w", s.Command.Program, werr)
			}
			return nil, werr
		}
		if stdout == Inherit {
			return p, nil
		}
		prev, prevFile = p, out
	}
	// Unreachable: the terminal stage either inherits stdout or writes a
	// file.
	return nil, nil
}

func (e *Executor) writeFile(r Redirect, data []byte) error {
	if err := afero.WriteFile(e.fs, r.Path, data, 0o644); err != nil {
		return &RedirectError{Redirect: r, Err: err}
	}
	e.log.Debug("stage output written", zap.String("path", r.Path), zap.Int("bytes", len(data)))
	return nil
}

func writesFile(s *Stage) bool {
	return s.Redirect != nil && s.Redirect.Mode == Write
}
