package ai

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/prompt"
)

// Options tune an Executor. Zero values select the defaults.
type Options struct {
	Binary            string
	Model             string
	Timeout           time.Duration
	InactivityTimeout time.Duration
	Retry             *RetryConfig
	Templates         prompt.Templates
	Procs             *ProcessTable
}

// Executor runs requests against one backend, retrying rate limits and
// walking the backend's fallback chain.
type Executor struct {
	backend      Backend
	runner       ModelRunner
	templates    prompt.Templates
	defaultModel string
}

// NewExecutor builds the spawn → retry → fallback pipeline for backend.
func NewExecutor(backend Backend, opts Options) *Executor {
	retry := DefaultRetryConfig()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	spawner := &Spawner{
		Backend:           backend,
		Binary:            opts.Binary,
		Timeout:           opts.Timeout,
		InactivityTimeout: opts.InactivityTimeout,
		Procs:             opts.Procs,
	}
	return NewExecutorWithRunner(backend, &RetryRunner{Inner: spawner, RetryCfg: retry}, opts)
}

// NewExecutorWithRunner uses runner for each model attempt instead of a
// subprocess pipeline.
func NewExecutorWithRunner(backend Backend, runner ModelRunner, opts Options) *Executor {
	model := opts.Model
	if model == "" {
		model = backend.DefaultModel()
	}
	return &Executor{
		backend:      backend,
		runner:       runner,
		templates:    opts.Templates,
		defaultModel: model,
	}
}

func (e *Executor) Backend() Backend { return e.backend }

// DefaultModel is the model used when a request names none.
func (e *Executor) DefaultModel() string { return e.defaultModel }

// ResolveModel returns the first model a request will be run with.
func (e *Executor) ResolveModel(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	return e.defaultModel
}

// Chain returns the models tried for requested, in order. A model found in
// the fallback chain starts the walk at its position; an unknown model is
// tried first and followed by the whole chain.
func (e *Executor) Chain(requested string) []string {
	chain := e.backend.FallbackChain()
	if len(chain) == 0 {
		return []string{requested}
	}
	if i := slices.Index(chain, requested); i >= 0 {
		return slices.Clone(chain[i:])
	}
	return append([]string{requested}, chain...)
}

// Run executes req. When a fallback model answered, the result is marked
// with UsedFallback and FallbackModel.
func (e *Executor) Run(ctx context.Context, req Request) (*Result, error) {
	inv := Invocation{
		Prompt: e.templates.Build(prompt.Request{
			Backend: e.backend.Name(),
			Role:    req.Role,
			Prompt:  req.Prompt,
			Files:   req.Files,
			WorkDir: req.WorkDir,
		}),
		WorkDir: req.WorkDir,
		OnSpawn: req.OnSpawn,
	}

	models := e.Chain(e.ResolveModel(req))
	if len(e.backend.FallbackChain()) == 0 {
		content, err := e.runner.RunModel(ctx, inv, models[0])
		if err != nil {
			return nil, err
		}
		return &Result{Content: content, Model: models[0]}, nil
	}

	var lastErr error
	for i, model := range models {
		content, err := e.runner.RunModel(ctx, inv, model)
		if err == nil {
			res := &Result{Content: content, Model: model}
			if i > 0 {
				res.UsedFallback = true
				res.FallbackModel = model
			}
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var notFound *ModelNotFoundError
		var spawnErr *SpawnError
		switch {
		case errors.As(err, &notFound):
			logging.Debugf("%s: model %s not found, trying next in chain", e.backend.Name(), model)
		case errors.As(err, &spawnErr):
		default:
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("all models in fallback chain failed. last error: %w", lastErr)
}
