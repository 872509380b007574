package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/config"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/contextdoc"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/dispatch"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/llm"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/log"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skills"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/webfetch"
)

// fetchTimeout bounds wisdom --url downloads.
const fetchTimeout = 30 * time.Second

// runSkill resolves name against the allow-list before anything touches the
// filesystem or network, then loads config and relays the skill's output.
func runSkill(name string, args []string) int {
	registry, err := skills.Builtin()
	if err != nil {
		printError(err)
		return 1
	}
	if _, err := registry.Resolve(name); err != nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage(os.Stderr)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		return 1
	}
	log.Setup(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	d := newDispatcher(cfg, registry, dispatcherOptions{
		sourceApp:   cfg.Telemetry.SourceApp,
		sink:        telemetrySink(cfg),
		diagnostics: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx, name, args, os.Stdout); err != nil {
		printError(err)
		return skill.ExitCode(err)
	}
	return 0
}

type dispatcherOptions struct {
	sourceApp   string
	sink        telemetry.Sink
	diagnostics io.Writer
}

// newDispatcher builds the skill environment once per process.
func newDispatcher(cfg *config.Config, registry *skill.Registry, opts dispatcherOptions) *dispatch.Dispatcher {
	env := &skill.Env{
		LLM: llm.New(llm.Options{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Timeout: cfg.LLM.Timeout,
			AppName: "pai",
		}),
		Docs:          contextdoc.New(cfg.Paths.ContextDir, cfg.PatternPath, log.WithComponent("context")),
		Fetcher:       webfetch.New(fetchTimeout),
		Logger:        log.WithComponent("skill"),
		Model:         cfg.LLM.Model,
		RouterModel:   cfg.Router.DefaultModel,
		RooConfigPath: cfg.Paths.RooConfig,
	}

	emitter := telemetry.NewEmitter(opts.sink, opts.sourceApp, cfg.Telemetry.Timeout, log.WithComponent("telemetry"))

	return dispatch.New(dispatch.Options{
		Registry:     registry,
		Env:          env,
		Emitter:      emitter,
		Credential:   dispatch.Credential{EnvVar: cfg.LLM.APIKeyEnv, Value: cfg.LLM.APIKey},
		SkillsDir:    cfg.Paths.SkillsDir,
		Interpreters: cfg.Skills.Interpreters,
		Timeout:      cfg.Skills.Timeout,
		Diagnostics:  opts.diagnostics,
	})
}

// telemetrySink returns the configured HTTP sink, or a no-op sink when no
// endpoint is set.
func telemetrySink(cfg *config.Config) telemetry.Sink {
	if cfg.Telemetry.Endpoint == "" {
		return telemetry.NopSink{}
	}
	return telemetry.NewHTTPSink(cfg.Telemetry.Endpoint, cfg.Telemetry.Timeout)
}
