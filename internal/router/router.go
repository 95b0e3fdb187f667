// Package router decides which model provider and role handle a task.
package router

import (
	"fmt"

	"github.com/CodexForgeBR/ccg/internal/model"
	"github.com/CodexForgeBR/ccg/internal/state"
)

// Route is one routing decision.
type Route struct {
	Provider string `json:"provider" yaml:"provider"`
	Role     string `json:"role" yaml:"role"`
	Reason   string `json:"reason" yaml:"reason"`
}

// Options describe the task being routed. An empty Domain means general.
type Options struct {
	Domain          string
	AgentRole       string
	CrossValidation bool
}

// Router routes tasks. A disabled external provider degrades to claude.
type Router struct {
	CodexEnabled  bool
	GeminiEnabled bool
}

// New returns a router with both external providers enabled.
func New() *Router {
	return &Router{CodexEnabled: true, GeminiEnabled: true}
}

func roleOr(role, fallback string) string {
	if role != "" {
		return role
	}
	return fallback
}

// RouteTask routes a single task: frontend goes to gemini, backend to codex,
// everything else stays with claude.
func (r *Router) RouteTask(opts Options) Route {
	switch {
	case opts.Domain == state.DomainFrontend && r.GeminiEnabled:
		role := roleOr(opts.AgentRole, "designer")
		return Route{Provider: model.Gemini, Role: role, Reason: fmt.Sprintf("Frontend domain routed to Gemini (%s)", role)}
	case opts.Domain == state.DomainBackend && r.CodexEnabled:
		role := roleOr(opts.AgentRole, "architect")
		return Route{Provider: model.Codex, Role: role, Reason: fmt.Sprintf("Backend domain routed to Codex (%s)", role)}
	}
	role := roleOr(opts.AgentRole, "executor")
	return Route{Provider: model.Claude, Role: role, Reason: fmt.Sprintf("General domain handled by Claude (%s)", role)}
}

// ParallelRoute returns the routes to run side by side. Cross-validation and
// fullstack tasks fan out to every enabled external provider; anything else
// gets its single best route. The result is never empty.
func (r *Router) ParallelRoute(opts Options) []Route {
	if !opts.CrossValidation && opts.Domain != state.DomainFullstack {
		return []Route{r.RouteTask(opts)}
	}

	var routes []Route
	for _, p := range model.CrossProviders(r.CodexEnabled, r.GeminiEnabled) {
		if p == model.Codex {
			routes = append(routes, Route{
				Provider: model.Codex,
				Role:     roleOr(opts.AgentRole, "architect"),
				Reason:   "Cross-validation: Codex for backend/logic perspective",
			})
		} else {
			routes = append(routes, Route{
				Provider: model.Gemini,
				Role:     roleOr(opts.AgentRole, "designer"),
				Reason:   "Cross-validation: Gemini for frontend/pattern perspective",
			})
		}
	}
	if len(routes) == 0 {
		routes = append(routes, Route{
			Provider: model.Claude,
			Role:     roleOr(opts.AgentRole, "executor"),
			Reason:   "Fallback: no external models available",
		})
	}
	return routes
}

type agentRoles struct {
	codex, gemini string
}

var agentTable = map[string]agentRoles{
	"analyst":       {codex: "analyst"},
	"planner":       {codex: "planner", gemini: "designer"},
	"architect":     {codex: "architect"},
	"verifier":      {codex: "code-reviewer"},
	"reviewer":      {codex: "code-reviewer", gemini: "designer"},
	"critic":        {codex: "critic"},
	"test-engineer": {codex: "test-engineer"},
	"designer":      {gemini: "designer"},
	"writer":        {gemini: "writer"},
}

// RouteForAgent returns the external routes configured for a named agent.
// Unknown agents and agents whose providers are all disabled get none.
func (r *Router) RouteForAgent(agent string) []Route {
	roles, ok := agentTable[agent]
	if !ok {
		return []Route{}
	}
	routes := []Route{}
	if roles.codex != "" && r.CodexEnabled {
		routes = append(routes, Route{
			Provider: model.Codex,
			Role:     roles.codex,
			Reason:   fmt.Sprintf("Agent %s routes to Codex as %s", agent, roles.codex),
		})
	}
	if roles.gemini != "" && r.GeminiEnabled {
		routes = append(routes, Route{
			Provider: model.Gemini,
			Role:     roles.gemini,
			Reason:   fmt.Sprintf("Agent %s routes to Gemini as %s", agent, roles.gemini),
		})
	}
	return routes
}

// AvailableProviders lists claude plus the enabled external providers.
func (r *Router) AvailableProviders() []string {
	return append([]string{model.Claude}, model.CrossProviders(r.CodexEnabled, r.GeminiEnabled)...)
}
