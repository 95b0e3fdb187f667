// Package config defines the ccg configuration model and default values.
//
// Configuration is assembled from multiple sources with a strict precedence
// chain: built-in defaults < global config file < project config file <
// explicit config file < OH_MY_CCG_* environment < CLI flag overrides.
// Every source is reduced to whitelisted KEY=value pairs before it is
// applied, so a key means the same thing wherever it comes from.
package config

import (
	"fmt"
	"time"

	"github.com/CodexForgeBR/ccg/internal/model"
)

// EnvPrefix is prepended to a whitelisted key to form its environment
// variable name.
const EnvPrefix = "OH_MY_CCG_"

// backendKeys are the per-backend suffixes; each is prefixed with GEMINI_,
// CODEX_ or CLAUDE_.
var backendKeys = []string{
	"MODEL",
	"BINARY",
	"TIMEOUT",
	"RETRY_COUNT",
	"RETRY_DELAY",
	"RETRY_MAX_DELAY",
	"INACTIVITY_TIMEOUT",
}

var globalKeys = []string{
	"CODEX_ENABLED",
	"GEMINI_ENABLED",
	"CLAUDE_MAX_TURNS",
	"RALPH_MAX_ITERATIONS",
	"AUTOPILOT_CONTEXT_THRESHOLD",
	"TEMPLATES_DIR",
	"VERBOSE",
	"NOTIFY_WEBHOOK",
	"NOTIFY_CHANNEL",
	"NOTIFY_CHAT_ID",
}

// WhitelistedVars lists every configuration key that may appear in a config
// source. Keys not in this list are silently ignored during loading.
var WhitelistedVars = func() []string {
	var keys []string
	for _, p := range []string{"GEMINI", "CODEX", "CLAUDE"} {
		for _, k := range backendKeys {
			keys = append(keys, p+"_"+k)
		}
	}
	return append(keys, globalKeys...)
}()

// Backend holds the tunables of one model CLI. Durations are in
// milliseconds, as they are in the environment.
type Backend struct {
	Model               string
	Binary              string
	TimeoutMs           int
	RetryCount          int
	RetryDelayMs        int
	RetryMaxDelayMs     int
	InactivityTimeoutMs int
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (b Backend) Timeout() time.Duration           { return ms(b.TimeoutMs) }
func (b Backend) RetryDelay() time.Duration        { return ms(b.RetryDelayMs) }
func (b Backend) RetryMaxDelay() time.Duration     { return ms(b.RetryMaxDelayMs) }
func (b Backend) InactivityTimeout() time.Duration { return ms(b.InactivityTimeoutMs) }

// Config holds every configuration field for the ccg CLI.
type Config struct {
	Gemini Backend
	Codex  Backend
	Claude Backend

	// Disabled providers are routed back to claude.
	CodexEnabled  bool
	GeminiEnabled bool

	ClaudeMaxTurns            int
	RalphMaxIterations        int
	AutopilotContextThreshold int

	// TemplatesDir overrides the built-in role prompts when set.
	TemplatesDir string

	Verbose bool

	// Job notification settings. Notifications are off without a chat id.
	NotifyWebhook string
	NotifyChannel string
	NotifyChatID  string

	// CLI-only flags (not loaded from config sources).
	ConfigFile string
	Output     string
}

func defaultBackend() Backend {
	return Backend{
		TimeoutMs:       300_000,
		RetryCount:      3,
		RetryDelayMs:    5_000,
		RetryMaxDelayMs: 60_000,
	}
}

// NewDefaultConfig returns a Config populated with all built-in default values.
func NewDefaultConfig() *Config {
	return &Config{
		Gemini:                    defaultBackend(),
		Codex:                     defaultBackend(),
		Claude:                    defaultBackend(),
		CodexEnabled:              true,
		GeminiEnabled:             true,
		RalphMaxIterations:        10,
		AutopilotContextThreshold: 80,
		NotifyWebhook:             "http://127.0.0.1:18789/webhook",
		NotifyChannel:             "telegram",
		Output:                    "json",
	}
}

// Backend returns the tunables for provider, or false for an unknown one.
func (c *Config) Backend(provider string) (Backend, bool) {
	switch provider {
	case model.Gemini:
		return c.Gemini, true
	case model.Codex:
		return c.Codex, true
	case model.Claude:
		return c.Claude, true
	}
	return Backend{}, false
}

func (c *Config) backendPtr(prefix string) *Backend {
	switch prefix {
	case "GEMINI":
		return &c.Gemini
	case "CODEX":
		return &c.Codex
	case "CLAUDE":
		return &c.Claude
	}
	return nil
}

// Validate rejects models that belong to another provider and negative
// numeric settings.
func (c *Config) Validate() error {
	for _, p := range model.Providers {
		b, _ := c.Backend(p)
		if err := model.Validate(p, b.Model, p+" model"); err != nil {
			return err
		}
		for name, v := range map[string]int{
			"timeout":            b.TimeoutMs,
			"retry count":        b.RetryCount,
			"retry delay":        b.RetryDelayMs,
			"retry max delay":    b.RetryMaxDelayMs,
			"inactivity timeout": b.InactivityTimeoutMs,
		} {
			if v < 0 {
				return fmt.Errorf("%s %s must not be negative (got %d)", p, name, v)
			}
		}
	}
	if c.RalphMaxIterations < 0 {
		return fmt.Errorf("ralph max iterations must not be negative (got %d)", c.RalphMaxIterations)
	}
	if c.AutopilotContextThreshold < 0 || c.AutopilotContextThreshold > 100 {
		return fmt.Errorf("autopilot context threshold must be between 0 and 100 (got %d)", c.AutopilotContextThreshold)
	}
	return nil
}
