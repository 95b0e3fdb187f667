package tools

import (
	"context"
	"fmt"

	"github.com/CodexForgeBR/ccg/internal/rpi"
	"github.com/CodexForgeBR/ccg/internal/state"
)

func (h *Handler) registerStateTools() {
	h.registerState(tool("rpi_state_read",
		"Read current RPI state (phase, constraints, decisions, artifacts)",
		workDir(),
	), bind(h.rpiRead))

	h.registerState(tool("rpi_state_write",
		"Update RPI state through the phase engine. Illegal phase transitions are rejected.",
		workDir(),
		enum("action", "What to change", []string{"init", "transition", "constraint", "verify_constraint",
			"decision", "pbt", "artifact", "reset"}, required()),
		str("change_name", "init, transition to research: change name"),
		enum("phase", "transition: target phase", phases[1:]),
		str("reason", "transition: reason recorded in history"),
		enum("type", "constraint: hard or soft", []string{"hard", "soft"}),
		str("description", "constraint, pbt: description"),
		enum("source", "constraint: who found it", []string{"user", "codex", "gemini", "claude"}),
		str("id", "verify_constraint: constraint id"),
		str("key", "decision: key"),
		str("value", "decision: value"),
		str("name", "pbt: property name"),
		str("invariant", "pbt: invariant"),
		strs("related_constraints", "pbt: related constraint ids"),
		enum("kind", "artifact: artifact kind", []string{"proposal", "spec", "design", "tasks"}),
		str("path", "artifact: file path"),
	), bind(h.rpiWrite))

	h.registerState(tool("mode_state_read",
		"Read orchestration mode state (ralph, team, autopilot)",
		workDir(),
		enum("mode", "Mode", []string{state.ModeRalph, state.ModeTeam, state.ModeAutopilot}, required()),
	), bind(h.modeRead))

	h.registerState(tool("mode_state_write",
		"Shallow-merge fields into an orchestration mode document",
		workDir(),
		enum("mode", "Mode", []string{state.ModeRalph, state.ModeTeam, state.ModeAutopilot}, required()),
		obj("updates", "Fields to overwrite", required()),
	), bind(h.modeWrite))
}

func (h *Handler) rpiRead(_ context.Context, a dirArg) (any, error) {
	store, err := h.store(a)
	if err != nil {
		return nil, err
	}
	s := rpi.NewEngine(store).State()
	if s == nil {
		return nil, fmt.Errorf("no RPI state found")
	}
	return s, nil
}

type rpiWriteArgs struct {
	dirArg
	Action             string               `json:"action"`
	ChangeName         string               `json:"change_name"`
	Phase              state.Phase          `json:"phase"`
	Reason             string               `json:"reason"`
	Type               state.ConstraintType `json:"type"`
	Description        string               `json:"description"`
	Source             string               `json:"source"`
	ID                 string               `json:"id"`
	Key                string               `json:"key"`
	Value              string               `json:"value"`
	Name               string               `json:"name"`
	Invariant          string               `json:"invariant"`
	RelatedConstraints []string             `json:"related_constraints"`
	Kind               string               `json:"kind"`
	Path               string               `json:"path"`
}

func (h *Handler) rpiWrite(_ context.Context, a rpiWriteArgs) (any, error) {
	store, err := h.store(a.dirArg)
	if err != nil {
		return nil, err
	}
	e := rpi.NewEngine(store)

	switch a.Action {
	case "init":
		s, err := e.Init(a.ChangeName)
		if err != nil {
			return nil, err
		}
		return success(s), nil

	case "transition":
		if !rpi.ValidPhase(a.Phase) {
			return nil, fmt.Errorf("invalid phase %q", a.Phase)
		}
		var (
			s   *state.RPIState
			err error
		)
		if a.Phase == state.PhaseResearch {
			s, err = e.StartResearch(a.ChangeName)
		} else {
			reason := a.Reason
			if reason == "" {
				reason = "Transition to " + string(a.Phase)
			}
			s, err = e.Transition(a.Phase, reason)
		}
		if err != nil {
			return nil, err
		}
		return success(s), nil

	case "constraint":
		c, err := e.AddConstraint(rpi.ConstraintInput{Type: a.Type, Description: a.Description, Source: a.Source})
		if err != nil {
			return nil, err
		}
		return success(c), nil

	case "verify_constraint":
		if err := e.VerifyConstraint(a.ID); err != nil {
			return nil, err
		}

	case "decision":
		if a.Key == "" {
			return nil, fmt.Errorf("decision needs a key")
		}
		if err := e.RecordDecision(a.Key, a.Value); err != nil {
			return nil, err
		}

	case "pbt":
		p, err := e.AddPBTProperty(rpi.PBTInput{
			Name:               a.Name,
			Description:        a.Description,
			Invariant:          a.Invariant,
			RelatedConstraints: a.RelatedConstraints,
		})
		if err != nil {
			return nil, err
		}
		return success(p), nil

	case "artifact":
		if a.Path == "" {
			return nil, fmt.Errorf("artifact needs a path")
		}
		var err error
		switch a.Kind {
		case "proposal":
			err = e.SetProposal(a.Path)
		case "spec":
			err = e.AddSpec(a.Path)
		case "design":
			err = e.AddDesign(a.Path)
		case "tasks":
			err = e.SetTasks(a.Path)
		default:
			return nil, fmt.Errorf("invalid artifact kind %q", a.Kind)
		}
		if err != nil {
			return nil, err
		}

	case "reset":
		if err := e.Reset(); err != nil {
			return nil, err
		}
		return Success{Success: true}, nil

	default:
		return nil, fmt.Errorf("invalid action %q", a.Action)
	}
	return success(e.State()), nil
}

type modeArgs struct {
	dirArg
	Mode    string         `json:"mode"`
	Updates map[string]any `json:"updates"`
}

func validMode(m string) error {
	switch m {
	case state.ModeRalph, state.ModeTeam, state.ModeAutopilot:
		return nil
	case "":
		return fmt.Errorf("mode is required")
	}
	return fmt.Errorf("invalid mode %q: want ralph, team or autopilot", m)
}

func (h *Handler) modeRead(_ context.Context, a modeArgs) (any, error) {
	if err := validMode(a.Mode); err != nil {
		return nil, err
	}
	store, err := h.store(a.dirArg)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if !store.Read(state.ModeDoc(a.Mode), &doc) {
		return nil, fmt.Errorf("no %s state found", a.Mode)
	}
	return doc, nil
}

func (h *Handler) modeWrite(_ context.Context, a modeArgs) (any, error) {
	if err := validMode(a.Mode); err != nil {
		return nil, err
	}
	if a.Updates == nil {
		return nil, fmt.Errorf("updates is required")
	}
	store, err := h.store(a.dirArg)
	if err != nil {
		return nil, err
	}

	name := state.ModeDoc(a.Mode)
	var current map[string]any
	if store.Read(name, &current) {
		if v, set := a.Updates["variant"]; set && v != current["variant"] {
			return nil, fmt.Errorf("variant of an existing %s document cannot change", a.Mode)
		}
	}
	merged, err := store.Merge(name, a.Updates)
	if err != nil {
		return nil, err
	}
	return success(merged), nil
}
