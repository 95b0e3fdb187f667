// Package tools is the tool surface exposed to the host assistant: model
// calls and background jobs, RPI and mode state, the orchestration modes
// and routing. Every tool takes a JSON object of arguments and returns a
// JSON-encodable value; failures become {"error": "..."}.
//
// Calls naming the same project directory are serialized, so concurrent
// requests cannot interleave their read-modify-write of a state document.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/CodexForgeBR/ccg/internal/jobs"
	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/router"
	"github.com/CodexForgeBR/ccg/internal/state"
)

// ErrUnknownTool is returned for names missing from Tools.
var ErrUnknownTool = errors.New("unknown tool")

// ErrorResult is what a failed call returns.
type ErrorResult struct {
	Error string `json:"error" yaml:"error"`
}

// Config wires a Handler.
type Config struct {
	// Jobs runs background requests. Executors run synchronous ones and
	// should be the same executors the registry was built with; a provider
	// missing from the map is treated as disabled.
	Jobs      *jobs.Registry
	Executors map[string]jobs.Executor
	Router    *router.Router

	// WorkDir is used when a call names no directory.
	WorkDir string
	// OpenStore returns the state store of a project directory. Defaults to
	// state.NewOSStore.
	OpenStore func(workDir string) (*state.Store, error)

	RalphMaxIterations int
	ContextThreshold   int
}

type handlerFunc func(ctx context.Context, raw json.RawMessage) (any, error)

// Handler dispatches tool calls.
type Handler struct {
	cfg   Config
	order []mcp.Tool
	table map[string]handlerFunc

	// locks holds one *sync.Mutex per absolute project directory.
	locks sync.Map
}

// New builds a handler with every tool registered.
func New(cfg Config) *Handler {
	if cfg.OpenStore == nil {
		cfg.OpenStore = state.NewOSStore
	}
	if cfg.Router == nil {
		cfg.Router = router.New()
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	h := &Handler{cfg: cfg, table: map[string]handlerFunc{}}
	h.registerJobTools()
	h.registerStateTools()
	h.registerModeTools()
	h.registerRouteTools()
	return h
}

func (h *Handler) register(def mcp.Tool, fn handlerFunc) {
	h.order = append(h.order, def)
	h.table[def.Name] = fn
}

// registerState registers a tool that reads or writes project state.
func (h *Handler) registerState(def mcp.Tool, fn handlerFunc) {
	h.register(def, h.serialized(fn))
}

// serialized holds the lock of the call's project directory while fn runs.
func (h *Handler) serialized(fn handlerFunc) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		l, _ := h.locks.LoadOrStore(h.lockKey(raw), &sync.Mutex{})
		mu := l.(*sync.Mutex)
		mu.Lock()
		defer mu.Unlock()
		return fn(ctx, raw)
	}
}

func (h *Handler) lockKey(raw json.RawMessage) string {
	var d dirArg
	// Malformed arguments are reported by bind.
	_ = json.Unmarshal(raw, &d)
	dir := d.WorkDir
	if dir == "" {
		dir = h.cfg.WorkDir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// Tools lists the registered tools in registration order.
func (h *Handler) Tools() []mcp.Tool {
	return h.order
}

// Register adds every tool to s.
func (h *Handler) Register(s *server.MCPServer) {
	for _, def := range h.order {
		name := def.Name
		s.AddTool(def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			raw, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			return h.Call(ctx, name, raw), nil
		})
	}
}

// Call runs the named tool and renders the outcome as a tool result: the
// value as indented JSON text, or an error result carrying ErrorResult.
func (h *Handler) Call(ctx context.Context, name string, args json.RawMessage) *mcp.CallToolResult {
	out, err := h.Invoke(ctx, name, args)
	if err != nil {
		text, _ := indent(ErrorResult{Error: err.Error()})
		return mcp.NewToolResultError(text)
	}
	text, err := indent(out)
	if err != nil {
		text, _ = indent(ErrorResult{Error: err.Error()})
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

// indent renders v as JSON with two-space indentation and without HTML
// escaping.
func indent(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Invoke runs the named tool and returns its error unconverted.
func (h *Handler) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	fn, ok := h.table[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	logging.Debugf("tool %s", name)
	return fn(ctx, args)
}

// bind decodes the raw arguments into A before calling fn. Missing or null
// arguments decode as the zero value.
func bind[A any](fn func(context.Context, A) (any, error)) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var a A
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			if err := json.Unmarshal(trimmed, &a); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		return fn(ctx, a)
	}
}

// dirArg is embedded by every tool that works on a project's state.
type dirArg struct {
	WorkDir string `json:"workDir"`
}

func (h *Handler) store(d dirArg) (*state.Store, error) {
	dir := d.WorkDir
	if dir == "" {
		dir = h.cfg.WorkDir
	}
	return h.cfg.OpenStore(dir)
}

// Success wraps the state returned by a mutating call.
type Success struct {
	Success bool `json:"success" yaml:"success"`
	State   any  `json:"state,omitempty" yaml:"state,omitempty"`
}

func success(s any) Success { return Success{Success: true, State: s} }
