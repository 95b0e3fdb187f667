package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/cli"
	"github.com/CodexForgeBR/ccg/internal/config"
	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/model"
	"github.com/CodexForgeBR/ccg/internal/notification"
	"github.com/CodexForgeBR/ccg/internal/prompt"
	"github.com/CodexForgeBR/ccg/internal/ratelimit"
	"github.com/CodexForgeBR/ccg/internal/router"
	"github.com/CodexForgeBR/ccg/internal/state"
	"github.com/CodexForgeBR/ccg/internal/tools"
)

// environment is everything a command needs, built once per invocation
// after flags are parsed.
type environment struct {
	cfg     *config.Config
	workDir string
	format  cli.Format

	// Set by wire.
	procs     *ai.ProcessTable
	executors map[string]jobs.Executor
	enabled   map[string]bool
	router    *router.Router
	registry  *jobs.Registry
	tools     *tools.Handler
}

// load resolves the final config: files, environment, then the flags the
// user actually set.
func (e *environment) load(cmd *cobra.Command, flagCfg *config.Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	global, project := config.DefaultPaths(wd)

	cfg, err := config.LoadWithPrecedence(global, project, flagCfg.ConfigFile,
		config.LoadEnv(os.LookupEnv), cli.CLIOverrides(cmd, flagCfg))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Output = flagCfg.Output
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := cli.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	logging.SetOutput(os.Stderr)
	logging.SetVerbose(cfg.Verbose)

	e.cfg = cfg
	e.workDir = wd
	e.format = format
	return nil
}

// binary is the CLI executable of provider after config overrides.
func (e *environment) binary(provider string) string {
	if b, ok := e.cfg.Backend(provider); ok && b.Binary != "" {
		return b.Binary
	}
	backend, _ := ai.BackendByName(provider)
	return backend.Binary()
}

// providerStates reports, per provider, whether it is enabled by config and
// whether its binary is installed. Claude cannot be disabled.
func (e *environment) providerStates() (enabled, available map[string]bool) {
	enabled = map[string]bool{
		model.Claude: true,
		model.Codex:  e.cfg.CodexEnabled,
		model.Gemini: e.cfg.GeminiEnabled,
	}
	available = make(map[string]bool, len(model.Providers))
	for _, p := range model.Providers {
		_, available[p] = ai.Locate(e.binary(p))
	}
	return enabled, available
}

// wire builds the executors, the job registry and the tool handler. An
// external provider whose binary is missing is treated as disabled so its
// work is routed to claude.
func (e *environment) wire() {
	if e.tools != nil {
		return
	}
	enabled, available := e.providerStates()
	e.procs = ai.NewProcessTable()
	e.executors = map[string]jobs.Executor{}
	e.enabled = map[string]bool{}

	for _, p := range model.Providers {
		if !enabled[p] {
			continue
		}
		if model.External(p) && !available[p] {
			logging.Debugf("%s CLI not found, routing its work to claude", p)
			continue
		}
		e.executors[p] = e.newExecutor(p)
		e.enabled[p] = true
	}

	e.router = &router.Router{CodexEnabled: e.enabled[model.Codex], GeminiEnabled: e.enabled[model.Gemini]}

	sender := &notification.Sender{
		Webhook: e.cfg.NotifyWebhook,
		Channel: e.cfg.NotifyChannel,
		ChatID:  e.cfg.NotifyChatID,
	}
	e.registry = jobs.New(jobs.Config{
		Executors:  e.executors,
		Procs:      e.procs,
		OnTerminal: sender.JobHook(filepath.Base(e.workDir)),
	})

	e.tools = tools.New(tools.Config{
		Jobs:               e.registry,
		Executors:          e.executors,
		Router:             e.router,
		WorkDir:            e.workDir,
		OpenStore:          state.NewOSStore,
		RalphMaxIterations: e.cfg.RalphMaxIterations,
		ContextThreshold:   e.cfg.AutopilotContextThreshold,
	})
}

func (e *environment) newExecutor(provider string) *ai.Executor {
	b, _ := e.cfg.Backend(provider)
	backend, _ := ai.BackendByName(provider)
	if claude, ok := backend.(*ai.ClaudeBackend); ok {
		claude.MaxTurns = e.cfg.ClaudeMaxTurns
	}

	retry := ai.RetryConfig{
		MaxRetries: b.RetryCount,
		Backoff:    ratelimit.Backoff{Initial: b.RetryDelay(), Max: b.RetryMaxDelay()},
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logging.Warnf("%s rate limited (retry %d in %s): %v", provider, attempt, delay.Round(time.Second), err)
		},
	}
	return ai.NewExecutor(backend, ai.Options{
		Binary:            b.Binary,
		Model:             b.Model,
		Timeout:           b.Timeout(),
		InactivityTimeout: b.InactivityTimeout(),
		Retry:             &retry,
		Templates:         prompt.Templates{Dir: e.cfg.TemplatesDir},
		Procs:             e.procs,
	})
}

// close stops every job started by this process.
func (e *environment) close() {
	if e.registry != nil {
		e.registry.Close()
	}
}

func (e *environment) store() (*state.Store, error) {
	return state.NewOSStore(e.workDir)
}

// render prints v in the selected output format.
func (e *environment) render(cmd *cobra.Command, v any) error {
	return cli.Render(cmd.OutOrStdout(), e.format, v)
}
