package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nathantypanski/gash/internal/audit"
	"github.com/nathantypanski/gash/internal/config"
	"github.com/nathantypanski/gash/internal/jobs"
	"github.com/nathantypanski/gash/internal/lookup"
	"github.com/nathantypanski/gash/internal/pipeline"
	"github.com/nathantypanski/gash/internal/shell"
)

// NewLogger builds the diagnostic logger. verbose forces debug level.
func NewLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.WarnLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Output != "" {
		zc.OutputPaths = []string{cfg.Output}
	}
	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// Env is the process environment a shell runs in.
type Env struct {
	Fs     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Color  bool
	Log    *zap.Logger
}

// NewShell wires a shell from cfg. A broken audit log is reported on
// stderr and the shell runs without it.
func NewShell(cfg *config.Config, env Env) (*shell.Shell, error) {
	l, err := lookup.ForMode(cfg.Lookup.Mode)
	if err != nil {
		return nil, err
	}
	mode, err := pipeline.ParseMode(cfg.Pipeline.Mode)
	if err != nil {
		return nil, err
	}

	launcher := pipeline.NewLauncher(lookup.NewCached(l), env.Stdin, env.Stdout, env.Stderr, env.Log)

	var logger *audit.Logger
	if cfg.Audit.Path != "" {
		logger, err = audit.NewLogger(env.Fs, cfg.Audit.Path)
		if err != nil {
			fmt.Fprintf(env.Stderr, "gash: audit: %v\n", err)
			logger = nil
		}
	}

	return shell.New(shell.Options{
		Executor:    pipeline.NewExecutor(launcher, env.Fs, mode, env.Log),
		Jobs:        jobs.NewRegistry(launcher, env.Log),
		Audit:       logger,
		Stdout:      env.Stdout,
		Stderr:      env.Stderr,
		Log:         env.Log,
		HistorySize: cfg.History.Size,
		KillSignal:  cfg.Jobs.Signal(),
		Color:       env.Color,
	}), nil
}

// RunCommand runs the lines of script (gash -c) and returns the last
// status.
func RunCommand(ctx context.Context, sh *shell.Shell, script string) int {
	return sh.Run(ctx, shell.NewScanReader(strings.NewReader(script)))
}

// RunInteractive reads lines from stdin until exit or end of input.
func RunInteractive(ctx context.Context, sh *shell.Shell, cfg *config.Config, stdin *os.File, stdout, stderr io.Writer) int {
	r, err := shell.NewReader(stdin, shell.ReaderConfig{
		Prompt:       cfg.Prompt,
		HistoryFile:  cfg.History.File,
		HistoryLimit: cfg.History.Size,
		Stdout:       stdout,
		Stderr:       stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "gash: %v\n", err)
		return 1
	}
	defer r.Close()
	return sh.Run(ctx, r)
}
