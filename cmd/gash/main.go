package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/nathantypanski/gash/internal/cli"
	"github.com/nathantypanski/gash/internal/config"
)

var version = "dev"

var (
	// Global flags
	command    string
	configPath string
	verbose    bool
	tailCount  int

	cfg    *config.Config
	logger *zap.Logger
	status int
)

var rootCmd = &cobra.Command{
	Use:           "gash",
	Short:         "gash - a small pipeline shell",
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger, err = cli.NewLogger(cfg.Log, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runShell,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the command audit log",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the audit log hash chain",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		status = cli.RunAuditVerify(cmd.OutOrStdout(), afero.NewOsFs(), cfg.Audit.Path)
	},
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent audit entries",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		status = cli.RunAuditTail(cmd.OutOrStdout(), afero.NewOsFs(), cfg.Audit.Path, tailCount)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/gash/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run one command line and exit")

	auditTailCmd.Flags().IntVarP(&tailCount, "lines", "n", 20, "number of entries")
	auditCmd.AddCommand(auditVerifyCmd, auditTailCmd)
	rootCmd.AddCommand(auditCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	// The shell survives ^C; the terminal delivers it to the foreground
	// children. Handled signals revert to the default in exec'd programs.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			logger.Debug("interrupt")
		}
	}()

	sh, err := cli.NewShell(cfg, cli.Env{
		Fs:     afero.NewOsFs(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Color:  term.IsTerminal(int(os.Stderr.Fd())),
		Log:    logger,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cmd.Flags().Changed("command") {
		status = cli.RunCommand(ctx, sh, command)
		return nil
	}
	status = cli.RunInteractive(ctx, sh, cfg, os.Stdin, os.Stdout, os.Stderr)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gash: %v\n", err)
		os.Exit(2)
	}
	os.Exit(status)
}
