// Package cli provides flag binding, validation and output rendering for the
// ccg CLI.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/ccg/internal/config"
)

// BindFlags registers the global flags on cmd's persistent flag set. The
// flags write straight into cfg; CLIOverrides later turns the ones the user
// actually set into the top layer of the config chain.
func BindFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.PersistentFlags()

	// Models & binaries
	flags.StringVar(&cfg.Gemini.Model, "gemini-model", "", "Gemini model (default: gemini-3-pro-preview)")
	flags.StringVar(&cfg.Codex.Model, "codex-model", "", "Codex model (default: gpt-5.3-codex)")
	flags.StringVar(&cfg.Claude.Model, "claude-model", "", "Claude model (default: sonnet)")
	flags.StringVar(&cfg.Gemini.Binary, "gemini-binary", "", "Path to the gemini CLI")
	flags.StringVar(&cfg.Codex.Binary, "codex-binary", "", "Path to the codex CLI")
	flags.StringVar(&cfg.Claude.Binary, "claude-binary", "", "Path to the claude CLI")
	flags.IntVar(&cfg.ClaudeMaxTurns, "max-turns", 0, "Max agent turns per claude invocation (0: CLI default)")

	// Limits
	var timeout, inactivity int
	flags.IntVar(&timeout, "timeout", 300_000, "Per-call timeout in ms for every backend")
	flags.IntVar(&inactivity, "inactivity-timeout", 0, "Kill a backend after this many ms without output (0: off)")
	flags.IntVar(&cfg.RalphMaxIterations, "ralph-max-iterations", 10, "Default Ralph iteration limit")
	flags.IntVar(&cfg.AutopilotContextThreshold, "context-threshold", 80, "Context usage percent at which autopilot suggests /clear")

	// Providers
	var noCodex, noGemini bool
	flags.BoolVar(&noCodex, "no-codex", false, "Disable codex; its work is routed to claude")
	flags.BoolVar(&noGemini, "no-gemini", false, "Disable gemini; its work is routed to claude")

	// Files
	flags.StringVar(&cfg.ConfigFile, "config", "", "Path to additional config file")
	flags.StringVar(&cfg.TemplatesDir, "templates-dir", "", "Directory overriding the built-in role prompts")

	// Notifications
	flags.StringVar(&cfg.NotifyWebhook, "notify-webhook", "http://127.0.0.1:18789/webhook", "OpenClaw webhook URL")
	flags.StringVar(&cfg.NotifyChannel, "notify-channel", "telegram", "Notification channel")
	flags.StringVar(&cfg.NotifyChatID, "notify-chat-id", "", "Recipient chat ID (enables job notifications)")

	// Output
	flags.StringVarP(&cfg.Output, "output", "o", "json", "Output format: json or yaml")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Debug logging on stderr")
}

// ValidateFlags checks flag values after parsing.
func ValidateFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.ConfigFile != "" {
		if _, err := os.Stat(cfg.ConfigFile); err != nil {
			return fmt.Errorf("--config: %w", err)
		}
	}
	if cfg.TemplatesDir != "" {
		info, err := os.Stat(cfg.TemplatesDir)
		if err != nil {
			return fmt.Errorf("--templates-dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("--templates-dir: %s is not a directory", cfg.TemplatesDir)
		}
	}
	if _, err := ParseFormat(cfg.Output); err != nil {
		return fmt.Errorf("--output: %w", err)
	}

	flags := cmd.Flags()
	for _, name := range []string{"timeout", "inactivity-timeout", "max-turns", "ralph-max-iterations", "context-threshold"} {
		if !flags.Changed(name) {
			continue
		}
		if v, _ := flags.GetInt(name); v < 0 {
			return fmt.Errorf("--%s must not be negative, got: %d", name, v)
		}
	}
	if flags.Changed("context-threshold") && cfg.AutopilotContextThreshold > 100 {
		return fmt.Errorf("--context-threshold must be at most 100, got: %d", cfg.AutopilotContextThreshold)
	}
	return nil
}

// CLIOverrides returns the config keys of the flags explicitly set on cmd,
// so that defaults of unset flags never mask config files or environment.
func CLIOverrides(cmd *cobra.Command, cfg *config.Config) map[string]string {
	flags := cmd.Flags()
	overrides := make(map[string]string)

	stringFlags := map[string]struct {
		key string
		val string
	}{
		"gemini-model":   {"GEMINI_MODEL", cfg.Gemini.Model},
		"codex-model":    {"CODEX_MODEL", cfg.Codex.Model},
		"claude-model":   {"CLAUDE_MODEL", cfg.Claude.Model},
		"gemini-binary":  {"GEMINI_BINARY", cfg.Gemini.Binary},
		"codex-binary":   {"CODEX_BINARY", cfg.Codex.Binary},
		"claude-binary":  {"CLAUDE_BINARY", cfg.Claude.Binary},
		"templates-dir":  {"TEMPLATES_DIR", cfg.TemplatesDir},
		"notify-webhook": {"NOTIFY_WEBHOOK", cfg.NotifyWebhook},
		"notify-channel": {"NOTIFY_CHANNEL", cfg.NotifyChannel},
		"notify-chat-id": {"NOTIFY_CHAT_ID", cfg.NotifyChatID},
	}
	for flag, m := range stringFlags {
		if flags.Changed(flag) {
			overrides[m.key] = m.val
		}
	}

	intFlags := map[string]string{
		"max-turns":            "CLAUDE_MAX_TURNS",
		"ralph-max-iterations": "RALPH_MAX_ITERATIONS",
		"context-threshold":    "AUTOPILOT_CONTEXT_THRESHOLD",
	}
	for flag, key := range intFlags {
		if flags.Changed(flag) {
			v, _ := flags.GetInt(flag)
			overrides[key] = strconv.Itoa(v)
		}
	}

	// --timeout and --inactivity-timeout apply to every backend.
	for flag, suffix := range map[string]string{"timeout": "TIMEOUT", "inactivity-timeout": "INACTIVITY_TIMEOUT"} {
		if !flags.Changed(flag) {
			continue
		}
		v, _ := flags.GetInt(flag)
		for _, p := range []string{"GEMINI", "CODEX", "CLAUDE"} {
			overrides[p+"_"+suffix] = strconv.Itoa(v)
		}
	}

	if flags.Changed("verbose") {
		overrides["VERBOSE"] = strconv.FormatBool(cfg.Verbose)
	}

	// Negation flags
	if v, _ := flags.GetBool("no-codex"); v {
		overrides["CODEX_ENABLED"] = "false"
	}
	if v, _ := flags.GetBool("no-gemini"); v {
		overrides["GEMINI_ENABLED"] = "false"
	}
	return overrides
}
