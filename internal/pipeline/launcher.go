package pipeline

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/nathantypanski/gash/internal/lookup"
)

// Endpoint selects how one standard stream of a launched process is wired.
type Endpoint int

const (
	// Inherit attaches the shell's own stream.
	Inherit Endpoint = iota
	// Pipe creates a fresh OS pipe that the caller feeds or drains.
	Pipe
	// Detached attaches /dev/null. Used for background jobs only.
	Detached
)

func (e Endpoint) String() string {
	switch e {
	case Inherit:
		return "inherit"
	case Pipe:
		return "pipe"
	case Detached:
		return "detached"
	default:
		return "endpoint(?)"
	}
}

// Launcher spawns the process for one stage.
type Launcher struct {
	lookup lookup.Lookup
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger
}

// NewLauncher creates a launcher that resolves programs with l and uses
// stdin/stdout/stderr as the shell's own streams. A nil logger disables
// logging.
func NewLauncher(l lookup.Lookup, stdin io.Reader, stdout, stderr io.Writer, log *zap.Logger) *Launcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Launcher{lookup: l, stdin: stdin, stdout: stdout, stderr: stderr, log: log}
}

// Launch starts c with the given stdin and stdout wiring. If the lookup does
// not know the program, Launch returns a *NotFoundError without touching the
// OS. If the OS refuses to start the process it returns a *SpawnError.
func (l *Launcher) Launch(ctx context.Context, c Command, stdin, stdout Endpoint) (*Process, error) {
	if !l.lookup.Exists(c.Program) {
		return nil, &NotFoundError{Program: c.Program}
	}

	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	p := &Process{Command: c, cmd: cmd, log: l.log}

	switch stdin {
	case Inherit:
		cmd.Stdin = l.stdin
	case Pipe:
		w, err := cmd.StdinPipe()
		if err != nil {
			return nil, &SpawnError{Program: c.Program, Err: err}
		}
		p.stdin = w
	}

	switch stdout {
	case Inherit:
		cmd.Stdout = l.stdout
	case Pipe:
		r, err := cmd.StdoutPipe()
		if err != nil {
			return nil, &SpawnError{Program: c.Program, Err: err}
		}
		p.stdout = r
	}

	if stdout != Detached {
		cmd.Stderr = l.stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Program: c.Program, Err: err}
	}
	l.log.Debug("process started",
		zap.Strings("argv", c.Argv()),
		zap.Int("pid", cmd.Process.Pid),
		zap.Stringer("stdin", stdin),
		zap.Stringer("stdout", stdout))
	return p, nil
}

// Process is a live child process.
type Process struct {
	Command Command

	cmd    *exec.Cmd
	stdin  io.WriteCloser // nil unless launched with a Pipe stdin
	stdout io.ReadCloser  // nil unless launched with a Pipe stdout
	log    *zap.Logger

	// feeders write into stdin; Wait joins them before reaping.
	feeders errgroup.Group
}

// Pid returns the OS process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Signal delivers sig to the live process.
func (p *Process) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

// Wait waits for any pending input to be written and for the process to
// exit. A non-zero exit status is returned as *exec.ExitError.
func (p *Process) Wait() error {
	ferr := p.feeders.Wait()
	err := p.cmd.Wait()
	if err == nil {
		err = ferr
	}
	return err
}

// Output drains the process's stdout completely, then waits for it. It is
// only valid for processes launched with a Pipe stdout.
func (p *Process) Output() ([]byte, error) {
	if p.stdout == nil {
		return nil, errors.New("process stdout is not a pipe")
	}
	out, rerr := io.ReadAll(p.stdout)
	werr := p.Wait()
	if werr != nil {
		return out, werr
	}
	return out, rerr
}

// feed copies r into stdin in the background, then closes stdin and r (if
// r is a Closer). A reader that stops early (head, grep -q) is not an error.
func (p *Process) feed(r io.Reader) {
	p.feeders.Go(func() error {
		n, err := io.Copy(p.stdin, r)
		cerr := p.stdin.Close()
		if c, ok := r.(io.Closer); ok {
			c.Close()
		}
		p.log.Debug("stdin fed", zap.String("program", p.Command.Program), zap.Int64("bytes", n))
		if err != nil && !isBrokenPipe(err) {
			return err
		}
		if cerr != nil && !isBrokenPipe(cerr) {
			return cerr
		}
		return nil
	})
}

// closeInput gives the process an empty stdin.
func (p *Process) closeInput() error {
	if p.stdin == nil {
		return nil
	}
	return p.stdin.Close()
}

// drainFrom streams src's stdout into w on p's feeders, so waiting for p
// also waits for src. src's exit status is not propagated; a pipeline's
// status is that of its last stage.
func (p *Process) drainFrom(src *Process, w io.Writer) {
	p.feeders.Go(func() error {
		n, err, werr := drain(src, w)
		p.log.Debug("relay finished",
			zap.String("from", src.Command.Program),
			zap.String("to", p.Command.Program),
			zap.Int64("bytes", n),
			zap.Int("from_status", ExitCode(werr)))
		if err != nil && !isBrokenPipe(err) {
			return err
		}
		var exitErr *exec.ExitError
		if werr != nil && !errors.As(werr, &exitErr) {
			return werr
		}
		return nil
	})
}

// drain copies src's stdout into w until EOF, closes w if it is a Closer,
// and reaps src. It returns the byte count, the copy error and the wait
// error.
func drain(src *Process, w io.Writer) (int64, error, error) {
	n, err := io.Copy(w, src.stdout)
	if c, ok := w.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	// Closing our read end unblocks a writer whose reader went away.
	src.stdout.Close()
	return n, err, src.Wait()
}

// abort kills the process and reaps it. Errors are ignored.
func (p *Process) abort() {
	p.closeInput()
	_ = p.cmd.Process.Kill()
	if p.stdout != nil {
		p.stdout.Close()
	}
	_ = p.Wait()
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE) || errors.Is(err, fs.ErrClosed)
}
