package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// whitelistSet is a precomputed lookup table for fast whitelist membership checks.
var whitelistSet map[string]bool

func init() {
	whitelistSet = make(map[string]bool, len(WhitelistedVars))
	for _, v := range WhitelistedVars {
		whitelistSet[v] = true
	}
}

// FileName is the config file looked up in the global and project
// directories.
const FileName = "config.toml"

// DefaultPaths returns the global (~/.oh-my-ccg/config.toml) and project
// (<workDir>/.oh-my-ccg/config.toml) config paths. The global path is empty
// when the home directory cannot be determined.
func DefaultPaths(workDir string) (global, project string) {
	if home, err := os.UserHomeDir(); err == nil {
		global = filepath.Join(home, ".oh-my-ccg", FileName)
	}
	return global, filepath.Join(workDir, ".oh-my-ccg", FileName)
}

// LoadFile parses a TOML config file and flattens it into whitelisted keys.
// Tables prefix their keys, so
//
//	[gemini]
//	retry_count = 5
//
// becomes GEMINI_RETRY_COUNT=5. Keys not present in WhitelistedVars and
// array values are silently ignored.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	result := make(map[string]string)
	flatten("", raw, result)
	return result, nil
}

func flatten(prefix string, table map[string]any, out map[string]string) {
	for k, v := range table {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any, []map[string]any:
		default:
			if whitelistSet[key] {
				out[key] = fmt.Sprint(val)
			}
		}
	}
}

// LoadEnv collects whitelisted keys from OH_MY_CCG_* variables through
// lookup, normally os.LookupEnv.
func LoadEnv(lookup func(string) (string, bool)) map[string]string {
	result := make(map[string]string)
	for _, key := range WhitelistedVars {
		if v, ok := lookup(EnvPrefix + key); ok {
			result[key] = strings.TrimSpace(v)
		}
	}
	return result
}

// LoadWithPrecedence assembles a Config by merging sources in order of
// increasing priority:
//
//  1. Built-in defaults
//  2. Global config file (globalPath)
//  3. Project config file (projectPath)
//  4. Explicit config file (explicitPath)
//  5. Environment (env, see LoadEnv)
//  6. CLI overrides (cliOverrides map)
//
// Any path that is empty is silently skipped, as is a missing global or
// project file. An explicit file must exist.
func LoadWithPrecedence(globalPath, projectPath, explicitPath string, env, cliOverrides map[string]string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, layer := range []struct {
		name     string
		path     string
		optional bool
	}{
		{"global", globalPath, true},
		{"project", projectPath, true},
		{"explicit", explicitPath, false},
	} {
		if layer.path == "" {
			continue
		}
		m, err := LoadFile(layer.path)
		if err != nil {
			if layer.optional && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%s config: %w", layer.name, err)
		}
		ApplyMapToConfig(cfg, m)
	}

	ApplyMapToConfig(cfg, env)
	ApplyMapToConfig(cfg, cliOverrides)
	cfg.ConfigFile = explicitPath

	return cfg, nil
}

// ApplyMapToConfig sets fields on cfg from the key-value pairs in m.
// Unknown keys are silently ignored. Numeric fields that fail to parse
// are silently ignored (the previous value is preserved).
func ApplyMapToConfig(cfg *Config, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := m[key]
		if prefix, field, ok := strings.Cut(key, "_"); ok {
			if b := cfg.backendPtr(prefix); b != nil && applyBackend(b, field, value) {
				continue
			}
		}
		switch key {
		case "CODEX_ENABLED":
			cfg.CodexEnabled = parseBool(value)
		case "GEMINI_ENABLED":
			cfg.GeminiEnabled = parseBool(value)
		case "CLAUDE_MAX_TURNS":
			setInt(&cfg.ClaudeMaxTurns, value)
		case "RALPH_MAX_ITERATIONS":
			setInt(&cfg.RalphMaxIterations, value)
		case "AUTOPILOT_CONTEXT_THRESHOLD":
			setInt(&cfg.AutopilotContextThreshold, value)
		case "TEMPLATES_DIR":
			cfg.TemplatesDir = value
		case "VERBOSE":
			cfg.Verbose = parseBool(value)
		case "NOTIFY_WEBHOOK":
			cfg.NotifyWebhook = value
		case "NOTIFY_CHANNEL":
			cfg.NotifyChannel = value
		case "NOTIFY_CHAT_ID":
			cfg.NotifyChatID = value
		}
	}
}

// applyBackend sets one per-backend field and reports whether field named
// one.
func applyBackend(b *Backend, field, value string) bool {
	switch field {
	case "MODEL":
		b.Model = value
	case "BINARY":
		b.Binary = value
	case "TIMEOUT":
		setInt(&b.TimeoutMs, value)
	case "RETRY_COUNT":
		setInt(&b.RetryCount, value)
	case "RETRY_DELAY":
		setInt(&b.RetryDelayMs, value)
	case "RETRY_MAX_DELAY":
		setInt(&b.RetryMaxDelayMs, value)
	case "INACTIVITY_TIMEOUT":
		setInt(&b.InactivityTimeoutMs, value)
	default:
		return false
	}
	return true
}

func setInt(dst *int, s string) {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		*dst = v
	}
}

// parseBool interprets a config string as a boolean.
// "true", "1", "yes" (case-insensitive) return true; everything else returns false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
