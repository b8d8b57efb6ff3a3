package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// Config holds the global gash configuration.
type Config struct {
	Prompt   string         `yaml:"prompt"`
	History  HistoryConfig  `yaml:"history"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Audit    AuditConfig    `yaml:"audit"`
	Log      LogConfig      `yaml:"log"`
}

// HistoryConfig controls the in-memory history and the line editor's
// history file.
type HistoryConfig struct {
	Size int    `yaml:"size" validate:"gte=0"`
	File string `yaml:"file"`
}

// PipelineConfig selects how stage output is relayed.
type PipelineConfig struct {
	Mode string `yaml:"mode" validate:"omitempty,oneof=buffered streaming"`
}

// LookupConfig selects how program names are resolved.
type LookupConfig struct {
	Mode string `yaml:"mode" validate:"omitempty,oneof=path which"`
}

// JobsConfig controls background jobs.
type JobsConfig struct {
	// KillSignal is sent to every live job when the shell exits.
	KillSignal string `yaml:"kill_signal" validate:"omitempty,oneof=TERM KILL INT HUP"`
}

// AuditConfig controls the command audit log. An empty path disables it.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Output string `yaml:"output"`
}

var signals = map[string]unix.Signal{
	"TERM": unix.SIGTERM,
	"KILL": unix.SIGKILL,
	"INT":  unix.SIGINT,
	"HUP":  unix.SIGHUP,
}

// Signal returns the configured kill signal, SIGTERM by default.
func (j JobsConfig) Signal() unix.Signal {
	if sig, ok := signals[j.KillSignal]; ok {
		return sig
	}
	return unix.SIGTERM
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Prompt:   "gash > ",
		History:  HistoryConfig{Size: 500},
		Pipeline: PipelineConfig{Mode: "buffered"},
		Lookup:   LookupConfig{Mode: "path"},
		Jobs:     JobsConfig{KillSignal: "TERM"},
		Log:      LogConfig{Level: "warn", Output: "stderr"},
	}
}

// Load reads the config from the standard location (~/.config/gash/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	if _, err := os.UserHomeDir(); err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes YAML over the defaults and validates the result. path is
// used only in error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Jobs.KillSignal = strings.TrimPrefix(strings.ToUpper(cfg.Jobs.KillSignal), "SIG")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.History.File = expandHome(cfg.History.File)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	return cfg, nil
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gash", "config.yaml")
}
