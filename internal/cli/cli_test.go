package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/nathantypanski/gash/internal/config"
)

type env struct {
	Env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newEnv() *env {
	e := &env{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	e.Env = Env{
		Fs:     afero.NewMemMapFs(),
		Stdin:  strings.NewReader(""),
		Stdout: e.stdout,
		Stderr: e.stderr,
	}
	return e
}

func TestRunCommand(t *testing.T) {
	for _, mode := range []string{"buffered", "streaming"} {
		t.Run(mode, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Pipeline.Mode = mode
			e := newEnv()

			sh, err := NewShell(cfg, e.Env)
			require.NoError(t, err)
			status := RunCommand(context.Background(), sh, "echo hi | tr a-z A-Z")
			assert.Equal(t, 0, status)
			assert.Equal(t, "HI\n", e.stdout.String())
		})
	}
}

func TestRunCommandStatus(t *testing.T) {
	sh, err := NewShell(config.DefaultConfig(), newEnv().Env)
	require.NoError(t, err)
	assert.Equal(t, 1, RunCommand(context.Background(), sh, "false"))
	assert.Equal(t, 5, RunCommand(context.Background(), sh, "exit 5"))
}

func TestNewShellRejectsUnknownModes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Lookup.Mode = "hash"
	_, err := NewShell(cfg, newEnv().Env)
	assert.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.Pipeline.Mode = "parallel"
	_, err = NewShell(cfg, newEnv().Env)
	assert.Error(t, err)
}

func TestAuditCommands(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audit.Path = "/var/gash/audit.jsonl"
	e := newEnv()

	sh, err := NewShell(cfg, e.Env)
	require.NoError(t, err)
	RunCommand(context.Background(), sh, "echo one\necho two\necho three")

	var out bytes.Buffer
	assert.Equal(t, 0, RunAuditVerify(&out, e.Fs, cfg.Audit.Path))
	assert.Equal(t, "audit log integrity verified\n", out.String())

	out.Reset()
	assert.Equal(t, 0, RunAuditTail(&out, e.Fs, cfg.Audit.Path, 2))
	assert.NotContains(t, out.String(), `"echo one"`)
	assert.Contains(t, out.String(), `"line": "echo two"`)
	assert.Contains(t, out.String(), `"line": "echo three"`)
}

func TestAuditDisabled(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, RunAuditVerify(&out, afero.NewMemMapFs(), ""))
	assert.Contains(t, out.String(), "audit log disabled")

	out.Reset()
	assert.Equal(t, 1, RunAuditTail(&out, afero.NewMemMapFs(), "", 10))
}

func TestAuditVerifyMissingLog(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, RunAuditVerify(&out, afero.NewMemMapFs(), "/absent.jsonl"))
	assert.Contains(t, out.String(), "FAILED")
}

func TestNewLoggerLevels(t *testing.T) {
	log, err := NewLogger(config.LogConfig{Level: "warn", Output: "stderr"}, false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = NewLogger(config.LogConfig{Level: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
