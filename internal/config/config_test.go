package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "gash > ", cfg.Prompt)
	assert.Equal(t, 500, cfg.History.Size)
	assert.Empty(t, cfg.Audit.Path)
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
prompt: "$ "
pipeline:
  mode: streaming
jobs:
  kill_signal: sigkill
`), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "$ ", cfg.Prompt)
	assert.Equal(t, "streaming", cfg.Pipeline.Mode)
	assert.Equal(t, "KILL", cfg.Jobs.KillSignal)
	assert.Equal(t, unix.SIGKILL, cfg.Jobs.Signal())
	// Untouched sections keep their defaults.
	assert.Equal(t, 500, cfg.History.Size)
	assert.Equal(t, "path", cfg.Lookup.Mode)
}

func TestParseExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := Parse([]byte("audit:\n  path: ~/gash/audit.jsonl\n"), "test")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "gash", "audit.jsonl"), cfg.Audit.Path)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"pipeline mode": "pipeline:\n  mode: parallel\n",
		"lookup mode":   "lookup:\n  mode: hash\n",
		"kill signal":   "jobs:\n  kill_signal: STOP\n",
		"history size":  "history:\n  size: -1\n",
		"log level":     "log:\n  level: loud\n",
		"bad yaml":      "prompt: [unclosed\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data), "test")
			assert.Error(t, err)
		})
	}
}

func TestSignalDefault(t *testing.T) {
	assert.Equal(t, unix.SIGTERM, JobsConfig{}.Signal())
}
