package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/api"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/config"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/lock"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/log"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skills"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry"
)

// eventBacklog is how many telemetry events the service keeps for /events.
const eventBacklog = 256

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	listen := fs.String("listen", "", "Listen address (overrides server.listen and PORT)")
	logLevel := fs.String("log-level", "", "Log level (default info)")
	logFormat := fs.String("log-format", "", "Log format: text|json (default json)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: pai serve [--listen addr] [--log-level level] [--log-format text|json]")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		return 1
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	log.Setup(serveLogOptions(cfg, *logLevel, *logFormat))
	logger := log.WithComponent("main")

	maxUpload, err := config.ParseSize(cfg.Server.MaxUploadSize)
	if err != nil {
		logger.Error("invalid server.max_upload_size", "value", cfg.Server.MaxUploadSize, "error", err)
		return 1
	}

	registry, err := skills.Builtin()
	if err != nil {
		logger.Error("failed to build skill registry", "error", err)
		return 1
	}

	pidLock, err := lock.Acquire(cfg.Server.LockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", cfg.Server.LockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLock.Path())

	if cfg.Server.Secret == "" {
		logger.Warn("no shared secret configured; protected endpoints will refuse every request", "env", cfg.Server.SecretEnv)
	}

	hub := telemetry.NewHub(eventBacklog)
	sourceApp := cfg.Telemetry.SourceApp
	if sourceApp == "" || sourceApp == telemetry.SourceCLI {
		sourceApp = telemetry.SourceWeb
	}
	d := newDispatcher(cfg, registry, dispatcherOptions{
		sourceApp: sourceApp,
		sink:      telemetry.MultiSink{hub, telemetrySink(cfg)},
	})

	server := api.New(api.Config{
		Listen:        cfg.Server.Listen,
		Secret:        cfg.Server.Secret,
		MaxUploadSize: maxUpload,
	}, d, registry, hub, log.WithComponent("api"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("pai serve starting", "version", version, "listen", cfg.Server.Listen, "skills", len(registry.All()))
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("API server failed", "error", err)
		return 1
	}

	logger.Info("pai serve stopped")
	return 0
}

// serveLogOptions raises the CLI defaults (warn, text) to info and json for
// the long-running service. Explicit flags and non-default config win.
func serveLogOptions(cfg *config.Config, level, format string) log.Options {
	defaults := config.Defaults().Log
	if level == "" {
		level = cfg.Log.Level
		if level == defaults.Level {
			level = "info"
		}
	}
	if format == "" {
		format = cfg.Log.Format
		if format == defaults.Format {
			format = "json"
		}
	}
	return log.Options{Level: level, Format: format}
}
