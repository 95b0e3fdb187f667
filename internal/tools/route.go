package tools

import (
	"context"
	"fmt"

	"github.com/CodexForgeBR/ccg/internal/modes"
	"github.com/CodexForgeBR/ccg/internal/router"
	"github.com/CodexForgeBR/ccg/internal/rpi"
	"github.com/CodexForgeBR/ccg/internal/state"
)

func (h *Handler) registerRouteTools() {
	h.register(tool("route_task",
		"Pick the provider and role for a task. cross_validation or the fullstack domain fans out to every enabled external provider.",
		enum("domain", "Task domain", []string{state.DomainFrontend, state.DomainBackend, state.DomainFullstack, state.DomainGeneral}),
		str("agent_role", "Role override"),
		boolean("cross_validation", "Route to all external providers"),
	), bind(h.routeTask))
	h.register(tool("route_agent",
		"Routes configured for a named agent",
		str("agent", "Agent name, e.g. team-frontend", required()),
	), bind(h.routeAgent))
	h.registerState(tool("status",
		"Active modes with the RPI, Ralph, Team and Autopilot summaries",
		workDir(),
	), bind(h.status))
}

type routeArgs struct {
	Domain          string `json:"domain"`
	AgentRole       string `json:"agent_role"`
	CrossValidation bool   `json:"cross_validation"`
}

// Routes is the result of the routing tools.
type Routes struct {
	Routes    []router.Route `json:"routes" yaml:"routes"`
	Available []string       `json:"available_providers" yaml:"available_providers"`
}

func (h *Handler) routeTask(_ context.Context, a routeArgs) (any, error) {
	if a.Domain != "" && !state.ValidDomain(a.Domain) {
		return nil, fmt.Errorf("invalid domain %q", a.Domain)
	}
	routes := h.cfg.Router.ParallelRoute(router.Options{
		Domain:          a.Domain,
		AgentRole:       a.AgentRole,
		CrossValidation: a.CrossValidation,
	})
	return Routes{Routes: routes, Available: h.cfg.Router.AvailableProviders()}, nil
}

type agentArgs struct {
	Agent string `json:"agent"`
}

func (h *Handler) routeAgent(_ context.Context, a agentArgs) (any, error) {
	if a.Agent == "" {
		return nil, fmt.Errorf("agent is required")
	}
	return Routes{Routes: h.cfg.Router.RouteForAgent(a.Agent), Available: h.cfg.Router.AvailableProviders()}, nil
}

// Overview is the result of the status tool. Summaries are omitted for
// modes that were never started.
type Overview struct {
	ActiveModes []string `json:"active_modes" yaml:"active_modes"`
	RPI         string   `json:"rpi" yaml:"rpi"`
	Ralph       string   `json:"ralph,omitempty" yaml:"ralph,omitempty"`
	Team        string   `json:"team,omitempty" yaml:"team,omitempty"`
	Autopilot   string   `json:"autopilot,omitempty" yaml:"autopilot,omitempty"`
}

func (h *Handler) status(_ context.Context, a dirArg) (any, error) {
	store, err := h.store(a)
	if err != nil {
		return nil, err
	}
	return BuildOverview(store, h.cfg.Router), nil
}

// BuildOverview collects the mode summaries of one project.
func BuildOverview(store *state.Store, r *router.Router) Overview {
	active := store.ActiveModes()
	if active == nil {
		active = []string{}
	}
	o := Overview{ActiveModes: active, RPI: rpi.NewEngine(store).Summary()}

	if ralph := modes.NewRalph(store); ralph.State() != nil {
		o.Ralph = ralph.Summary()
	}
	if team := modes.NewTeam(store, r); team.State() != nil {
		o.Team = teamSummary(team)
	}
	if ap := modes.NewAutopilot(store, nil); ap.State() != nil {
		o.Autopilot = ap.Summary()
	}
	return o
}

func teamSummary(t *modes.Team) string {
	s := t.State()
	p := t.Progress()
	status := "ACTIVE"
	if !s.Active {
		status = "INACTIVE"
	}
	return fmt.Sprintf("Team %s: %s\nTasks: %d/%d completed, %d in progress, %d pending, %d failed",
		s.TeamName, status, p.Completed, p.Total, p.InProgress, p.Pending, p.Failed)
}
