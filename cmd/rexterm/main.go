package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/samiralibabic/rexterm/internal/audit"
	"github.com/samiralibabic/rexterm/internal/config"
	"github.com/samiralibabic/rexterm/internal/logging"
	"github.com/samiralibabic/rexterm/internal/metrics"
	"github.com/samiralibabic/rexterm/internal/server"
	"github.com/samiralibabic/rexterm/internal/terminal"
	"github.com/samiralibabic/rexterm/internal/tools"
)

func main() {
	var (
		cfgPath  string
		shell    string
		cols     int
		rows     int
		cwd      string
		logLevel string
	)
	flag.StringVar(&cfgPath, "config", "", "path to a TOML or YAML config file")
	flag.StringVar(&shell, "shell", "", "shell command to run on the pty")
	flag.IntVar(&cols, "cols", 0, "terminal width in columns")
	flag.IntVar(&rows, "rows", 0, "terminal height in rows")
	flag.StringVar(&cwd, "cwd", "", "working directory for the shell")
	flag.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		log.Fatalf("load environment: %v", err)
	}
	if shell != "" {
		cfg.Terminal.Shell = shell
	}
	if cols != 0 {
		cfg.Terminal.Cols = cols
	}
	if rows != 0 {
		cfg.Terminal.Rows = rows
	}
	if cwd != "" {
		cfg.Terminal.WorkingDir = cwd
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Server.LogLevel
	logCfg.Development = cfg.Server.LogDevelopment
	logCfg.File = cfg.Server.LogFile
	logger, closeLog, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}

	os.Exit(run(cfg, logger, closeLog))
}

func run(cfg config.Config, logger *zap.Logger, closeLog func() error) int {
	defer func() { _ = closeLog() }()

	name, args, err := cfg.Terminal.Command()
	if err != nil {
		logger.Error("parse shell command", zap.Error(err))
		return 1
	}
	term, err := terminal.New(terminal.Config{
		Shell:      name,
		Args:       args,
		Cols:       uint16(cfg.Terminal.Cols),
		Rows:       uint16(cfg.Terminal.Rows),
		WorkingDir: cfg.Terminal.WorkingDir,
		Env:        cfg.Terminal.Env,
	}, logger.Named("terminal"))
	if err != nil {
		logger.Error("start terminal", zap.Error(err))
		return 1
	}
	defer func() { _ = term.Close() }()

	// Let the shell print its first prompt before the first request.
	term.ProcessOutputWithTimeout(time.Duration(cfg.Terminal.StartupWaitMs) * time.Millisecond)

	m := metrics.New(cfg.Metrics.Textfile)
	defer func() {
		if err := m.Flush(); err != nil {
			logger.Warn("write metrics textfile", zap.Error(err))
		}
	}()

	al := audit.New(cfg.Audit.Enabled, cfg.Audit.Path, audit.Options{
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
	})
	defer func() { _ = al.Close() }()

	registry := tools.NewRegistry(term, tools.WithWriteObserver(m.AddBytesWritten))
	svc := server.NewService(registry,
		server.WithLogger(logger.Named("mcp")),
		server.WithAudit(al),
		server.WithMetrics(m),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("serving MCP on stdio",
		zap.String("shell", cfg.Terminal.Shell),
		zap.Int("cols", cfg.Terminal.Cols),
		zap.Int("rows", cfg.Terminal.Rows))

	done := make(chan error, 1)
	go func() {
		done <- server.RunStdio(ctx, svc, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("stdio server failed", zap.Error(err))
			return 1
		}
		logger.Info("stdin closed, shutting down")
	case <-ctx.Done():
		logger.Info("signal received, shutting down")
	}
	return 0
}
