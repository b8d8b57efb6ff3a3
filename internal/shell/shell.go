// Package shell is the interactive loop: it reads lines, dispatches
// builtins, and hands everything else to the pipeline executor or the job
// registry.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/nathantypanski/gash/internal/audit"
	"github.com/nathantypanski/gash/internal/jobs"
	"github.com/nathantypanski/gash/internal/pipeline"
)

var errPrefix = color.New(color.FgRed, color.Bold)

// Options configures a Shell. Executor and Jobs are required.
type Options struct {
	Executor *pipeline.Executor
	Jobs     *jobs.Registry
	Audit    *audit.Logger // nil disables auditing

	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.Logger

	// HistorySize caps the in-memory history; 0 disables it.
	HistorySize int
	// KillSignal is sent to live jobs on exit.
	KillSignal os.Signal
	// Color enables colored diagnostics.
	Color bool
	// Chdir changes the working directory; defaults to os.Chdir.
	Chdir func(dir string) error
}

// Shell holds the state of one interactive session.
type Shell struct {
	exec  *pipeline.Executor
	jobs  *jobs.Registry
	audit *audit.Logger

	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger

	history     []string
	historySize int
	killSignal  os.Signal
	color       bool
	chdir       func(string) error

	status int
}

// New creates a shell.
func New(opts Options) *Shell {
	s := &Shell{
		exec:        opts.Executor,
		jobs:        opts.Jobs,
		audit:       opts.Audit,
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		log:         opts.Log,
		historySize: opts.HistorySize,
		killSignal:  opts.KillSignal,
		color:       opts.Color,
		chdir:       opts.Chdir,
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.killSignal == nil {
		s.killSignal = syscall.SIGTERM
	}
	if s.chdir == nil {
		s.chdir = os.Chdir
	}
	return s
}

// Status returns the exit status of the last command.
func (s *Shell) Status() int { return s.status }

// Run reads and executes lines from r until exit or end of input, and
// returns the status of the last command. Live jobs are sent the kill
// signal either way.
func (s *Shell) Run(ctx context.Context, r LineReader) int {
	for {
		line, err := r.ReadLine()
		switch {
		case errors.Is(err, io.EOF):
			s.shutdown()
			return s.status
		case errors.Is(err, ErrInterrupt):
			continue
		case err != nil:
			s.log.Warn("read line failed", zap.Error(err))
			s.shutdown()
			return s.status
		}
		if s.RunLine(ctx, line) {
			return s.status
		}
	}
}

// RunLine executes one line and reports whether the shell should exit.
func (s *Shell) RunLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	for _, j := range s.jobs.Sweep() {
		s.log.Debug("job done", zap.Int("job", j.ID), zap.String("program", j.Program), zap.Int("status", j.ExitCode()))
	}
	if line == "" {
		return false
	}

	name := strings.Fields(line)[0]
	if b, ok := builtins[name]; ok {
		if b.record {
			s.pushHistory(line)
		}
		return b.run(s, line)
	}

	s.pushHistory(line)
	s.execute(ctx, line)
	return false
}

func (s *Shell) execute(ctx context.Context, line string) {
	start := time.Now()
	rec := audit.Record{Line: line}

	p, err := pipeline.ParseLine(line)
	if err == nil {
		rec.Stages = p.Programs()
		if p.Background {
			rec.Background = true
			rec.Pid, err = s.background(ctx, p)
		} else {
			err = s.foreground(ctx, p)
		}
	}

	s.status = exitStatus(err)
	s.report(err)

	rec.ExitCode = s.status
	rec.Duration = time.Since(start)
	if !isExit(err) {
		rec.Err = err
	}
	s.logAudit(rec)
}

func (s *Shell) foreground(ctx context.Context, p *pipeline.Pipeline) error {
	proc, err := s.exec.Execute(ctx, p.Root)
	if err != nil || proc == nil {
		return err
	}
	return proc.Wait()
}

func (s *Shell) background(ctx context.Context, p *pipeline.Pipeline) (int, error) {
	j, err := s.jobs.Start(ctx, p.Root.Command)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(s.stdout, "%s %d\n", j.Program, j.Pid)
	return j.Pid, nil
}

// shutdown signals every live job. The signals have been sent when it
// returns, so the process may exit right away; the jobs are not waited for.
func (s *Shell) shutdown() {
	n := s.jobs.KillAll(s.killSignal)
	s.log.Debug("jobs signalled", zap.Int("count", n), zap.Stringer("signal", s.killSignal))
}

func (s *Shell) pushHistory(line string) {
	if s.historySize <= 0 {
		return
	}
	s.history = append(s.history, line)
	if over := len(s.history) - s.historySize; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
}

// report prints err for the user. Non-zero exit statuses are left to the
// command's own stderr.
func (s *Shell) report(err error) {
	if err == nil || isExit(err) {
		return
	}
	var nf *pipeline.NotFoundError
	if errors.As(err, &nf) {
		fmt.Fprintln(s.stderr, nf.Error())
		return
	}
	s.errorf("%v", err)
}

func (s *Shell) errorf(format string, args ...any) {
	prefix := "gash:"
	if s.color {
		prefix = errPrefix.Sprint(prefix)
	}
	fmt.Fprintf(s.stderr, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func (s *Shell) logAudit(rec audit.Record) {
	if s.audit == nil {
		return
	}
	rec.Cwd, _ = os.Getwd()
	if err := s.audit.Log(rec); err != nil {
		s.log.Warn("audit log failed", zap.Error(err))
	}
}

func isExit(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// exitStatus maps the outcome of a line to a shell status: the exit code,
// 128+n for a child killed by signal n, 127 for unknown programs and 2 for
// syntax errors.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		return 127
	case errors.Is(err, pipeline.ErrSyntax), errors.Is(err, pipeline.ErrBackgroundPipeline):
		return 2
	default:
		return 1
	}
}
