package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/kballard/go-shellquote"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment override, e.g. TERMINAL_MCP_COLS.
const EnvPrefix = "TERMINAL_MCP"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Terminal TerminalConfig `toml:"terminal" yaml:"terminal"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Audit    AuditConfig    `toml:"audit" yaml:"audit"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`
}

type TerminalConfig struct {
	// Shell is the command run on the pty. It may carry arguments,
	// quoted the way a POSIX shell would split them.
	Shell         string            `toml:"shell" yaml:"shell"`
	Cols          int               `toml:"cols" yaml:"cols"`
	Rows          int               `toml:"rows" yaml:"rows"`
	WorkingDir    string            `toml:"working_dir" yaml:"working_dir"`
	Env           map[string]string `toml:"env" yaml:"env"`
	StartupWaitMs int               `toml:"startup_wait_ms" yaml:"startup_wait_ms"`
}

type ServerConfig struct {
	LogLevel       string `toml:"log_level" yaml:"log_level"`
	LogDevelopment bool   `toml:"log_development" yaml:"log_development"`
	// LogFile sends logs to a rotated file instead of stderr.
	LogFile string `toml:"log_file" yaml:"log_file"`
}

type AuditConfig struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Path       string `toml:"path" yaml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
}

type MetricsConfig struct {
	// Textfile is where metrics are written on exit, in the Prometheus
	// text exposition format.
	Textfile string `toml:"textfile" yaml:"textfile"`
}

func Default() Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	return Config{
		Terminal: TerminalConfig{
			Shell:         shell,
			Cols:          120,
			Rows:          40,
			StartupWaitMs: 300,
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
		Audit: AuditConfig{
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// Load reads a TOML or YAML file over the defaults. The format follows the
// file extension. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// envOverrides lists the settings that can come from the environment.
// Unset variables leave the current value alone.
type envOverrides struct {
	Shell           string
	Cols            int
	Rows            int
	Cwd             string
	Log             string
	AuditPath       string `split_words:"true"`
	MetricsTextfile string `split_words:"true"`
}

// ApplyEnv overlays TERMINAL_MCP_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	ov := envOverrides{
		Shell:           cfg.Terminal.Shell,
		Cols:            cfg.Terminal.Cols,
		Rows:            cfg.Terminal.Rows,
		Cwd:             cfg.Terminal.WorkingDir,
		Log:             cfg.Server.LogLevel,
		AuditPath:       cfg.Audit.Path,
		MetricsTextfile: cfg.Metrics.Textfile,
	}
	if err := envconfig.Process(EnvPrefix, &ov); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.Terminal.Shell = ov.Shell
	cfg.Terminal.Cols = ov.Cols
	cfg.Terminal.Rows = ov.Rows
	cfg.Terminal.WorkingDir = ov.Cwd
	cfg.Server.LogLevel = ov.Log
	if ov.AuditPath != cfg.Audit.Path {
		cfg.Audit.Path = ov.AuditPath
		cfg.Audit.Enabled = ov.AuditPath != ""
	}
	cfg.Metrics.Textfile = ov.MetricsTextfile
	return nil
}

func (c Config) Validate() error {
	t := c.Terminal
	if strings.TrimSpace(t.Shell) == "" {
		return fmt.Errorf("%w: terminal.shell is empty", ErrInvalid)
	}
	if _, _, err := t.Command(); err != nil {
		return err
	}
	if t.Cols <= 0 || t.Cols > 0xffff {
		return fmt.Errorf("%w: terminal.cols must be in 1..65535, got %d", ErrInvalid, t.Cols)
	}
	if t.Rows <= 0 || t.Rows > 0xffff {
		return fmt.Errorf("%w: terminal.rows must be in 1..65535, got %d", ErrInvalid, t.Rows)
	}
	if t.StartupWaitMs < 0 {
		return fmt.Errorf("%w: terminal.startup_wait_ms is negative", ErrInvalid)
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("%w: audit.enabled needs audit.path", ErrInvalid)
	}
	return nil
}

// Command splits Shell into the program and its arguments.
func (t TerminalConfig) Command() (string, []string, error) {
	words, err := shellquote.Split(t.Shell)
	if err != nil {
		return "", nil, fmt.Errorf("%w: terminal.shell: %v", ErrInvalid, err)
	}
	if len(words) == 0 {
		return "", nil, fmt.Errorf("%w: terminal.shell is empty", ErrInvalid)
	}
	return words[0], words[1:], nil
}
