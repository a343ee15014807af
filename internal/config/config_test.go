package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	cfg := Default()
	assert.Equal(t, "/bin/zsh", cfg.Terminal.Shell)
	assert.Equal(t, 120, cfg.Terminal.Cols)
	assert.Equal(t, 40, cfg.Terminal.Rows)
	assert.Equal(t, 300, cfg.Terminal.StartupWaitMs)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.False(t, cfg.Audit.Enabled)
	require.NoError(t, cfg.Validate())

	t.Setenv("SHELL", "")
	assert.Equal(t, "/bin/bash", Default().Terminal.Shell)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "rexterm.toml", `
[terminal]
shell = "/bin/sh -l"
cols = 80
rows = 24
working_dir = "/tmp"
startup_wait_ms = 50

[terminal.env]
LANG = "C.UTF-8"

[server]
log_level = "debug"

[audit]
enabled = true
path = "/tmp/audit.jsonl"

[metrics]
textfile = "/tmp/rexterm.prom"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh -l", cfg.Terminal.Shell)
	assert.Equal(t, 80, cfg.Terminal.Cols)
	assert.Equal(t, 24, cfg.Terminal.Rows)
	assert.Equal(t, "/tmp", cfg.Terminal.WorkingDir)
	assert.Equal(t, 50, cfg.Terminal.StartupWaitMs)
	assert.Equal(t, map[string]string{"LANG": "C.UTF-8"}, cfg.Terminal.Env)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "/tmp/audit.jsonl", cfg.Audit.Path)
	assert.Equal(t, 20, cfg.Audit.MaxSizeMB, "unset keys keep defaults")
	assert.Equal(t, "/tmp/rexterm.prom", cfg.Metrics.Textfile)

	name, args, err := cfg.Terminal.Command()
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", name)
	assert.Equal(t, []string{"-l"}, args)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "rexterm.yaml", `
terminal:
  shell: /bin/dash
  cols: 100
  env:
    FOO: bar
server:
  log_development: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/dash", cfg.Terminal.Shell)
	assert.Equal(t, 100, cfg.Terminal.Cols)
	assert.Equal(t, 40, cfg.Terminal.Rows)
	assert.Equal(t, "bar", cfg.Terminal.Env["FOO"])
	assert.True(t, cfg.Server.LogDevelopment)
	assert.Equal(t, "info", cfg.Server.LogLevel)
}

func TestLoadRejectsMalformedFiles(t *testing.T) {
	_, err := Load(writeFile(t, "bad.toml", "[terminal\ncols = 1"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yml", "terminal: [unclosed"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TERMINAL_MCP_SHELL", "/usr/bin/fish")
	t.Setenv("TERMINAL_MCP_COLS", "132")
	t.Setenv("TERMINAL_MCP_ROWS", "50")
	t.Setenv("TERMINAL_MCP_CWD", "/srv")
	t.Setenv("TERMINAL_MCP_LOG", "warn")
	t.Setenv("TERMINAL_MCP_AUDIT_PATH", "/var/log/rexterm.jsonl")
	t.Setenv("TERMINAL_MCP_METRICS_TEXTFILE", "/var/lib/node_exporter/rexterm.prom")

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, "/usr/bin/fish", cfg.Terminal.Shell)
	assert.Equal(t, 132, cfg.Terminal.Cols)
	assert.Equal(t, 50, cfg.Terminal.Rows)
	assert.Equal(t, "/srv", cfg.Terminal.WorkingDir)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "/var/log/rexterm.jsonl", cfg.Audit.Path)
	assert.Equal(t, "/var/lib/node_exporter/rexterm.prom", cfg.Metrics.Textfile)
}

func TestApplyEnvKeepsFileValuesWhenUnset(t *testing.T) {
	path := writeFile(t, "c.toml", "[terminal]\ncols = 90\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	t.Setenv("TERMINAL_MCP_ROWS", "30")

	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, 90, cfg.Terminal.Cols)
	assert.Equal(t, 30, cfg.Terminal.Rows)
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("TERMINAL_MCP_COLS", "wide")
	cfg := Default()
	assert.ErrorIs(t, ApplyEnv(&cfg), ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty shell", func(c *Config) { c.Terminal.Shell = "  " }},
		{"unbalanced quote", func(c *Config) { c.Terminal.Shell = `bash -c "echo` }},
		{"zero cols", func(c *Config) { c.Terminal.Cols = 0 }},
		{"zero rows", func(c *Config) { c.Terminal.Rows = 0 }},
		{"huge cols", func(c *Config) { c.Terminal.Cols = 70000 }},
		{"negative wait", func(c *Config) { c.Terminal.StartupWaitMs = -1 }},
		{"audit without path", func(c *Config) { c.Audit.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Terminal.Shell = "/bin/sh"
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
