package jobs

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CodexForgeBR/ccg/internal/ai"
	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/signal"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	DefaultWaitTimeout = 5 * time.Minute
	MaxWaitTimeout     = time.Hour
)

// Executor runs one request; *ai.Executor implements it.
type Executor interface {
	Run(ctx context.Context, req ai.Request) (*ai.Result, error)
	ResolveModel(req ai.Request) string
}

// PollConfig is the geometric backoff used by Wait.
type PollConfig struct {
	Initial time.Duration
	Factor  float64
	Max     time.Duration
}

// DefaultPollConfig polls at 750ms, 1.125s, 1.6875s, then every 2s.
func DefaultPollConfig() PollConfig {
	return PollConfig{Initial: 500 * time.Millisecond, Factor: 1.5, Max: 2 * time.Second}
}

// Config wires a Registry. Only Executors is required.
type Config struct {
	Executors map[string]Executor
	Procs     *ai.ProcessTable
	Poll      PollConfig

	Now   func() time.Time
	NewID func() string

	// OnTerminal is called outside the registry goroutine whenever a job
	// enters a terminal state. A wait timeout followed by a late completion
	// produces two calls.
	OnTerminal func(Job)
}

type entry struct {
	job    Job
	cancel context.CancelFunc
	seq    int
}

// Registry owns every background job of the process.
type Registry struct {
	cfg  Config
	cmds chan func()
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	// Touched only by the loop goroutine.
	jobs map[string]*entry
	seq  int
}

// New starts a registry goroutine. Call Close to stop it.
func New(cfg Config) *Registry {
	if cfg.Procs == nil {
		cfg.Procs = ai.NewProcessTable()
	}
	if cfg.Poll == (PollConfig{}) {
		cfg.Poll = DefaultPollConfig()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString()[:8] }
	}

	r := &Registry{
		cfg:  cfg,
		cmds: make(chan func()),
		quit: make(chan struct{}),
		jobs: make(map[string]*entry),
	}
	go r.loop()
	return r
}

func (r *Registry) loop() {
	for {
		select {
		case cmd := <-r.cmds:
			cmd()
		case <-r.quit:
			return
		}
	}
}

// do runs fn on the registry goroutine and waits for it.
func (r *Registry) do(fn func()) error {
	done := make(chan struct{})
	select {
	case r.cmds <- func() { fn(); close(done) }:
	case <-r.quit:
		return ErrClosed
	}
	<-done
	return nil
}

// Providers lists the registered provider names.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.cfg.Executors))
	for name := range r.cfg.Executors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch registers a job for provider and starts it in the background.
// The returned snapshot is in spawned state.
func (r *Registry) Dispatch(provider string, req ai.Request) (Job, error) {
	exec, ok := r.cfg.Executors[provider]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var job Job
	err := r.do(func() {
		id := r.cfg.NewID()
		for r.jobs[id] != nil {
			id = r.cfg.NewID()
		}
		r.seq++
		e := &entry{
			job: Job{
				ID:        id,
				Provider:  provider,
				Status:    StatusSpawned,
				Model:     exec.ResolveModel(req),
				AgentRole: req.Role,
				SpawnedAt: r.cfg.Now().UTC(),
			},
			cancel: cancel,
			seq:    r.seq,
		}
		r.jobs[id] = e
		job = e.job
	})
	if err != nil {
		cancel()
		return Job{}, err
	}

	r.wg.Add(1)
	go r.run(ctx, cancel, job.ID, exec, req)
	logging.Debugf("job %s: dispatched to %s (%s)", job.ID, provider, job.Model)
	return job, nil
}

func (r *Registry) run(ctx context.Context, cancel context.CancelFunc, id string, exec Executor, req ai.Request) {
	defer r.wg.Done()
	defer cancel()

	_ = r.do(func() {
		if e := r.jobs[id]; e != nil && e.job.Status == StatusSpawned {
			e.job.Status = StatusRunning
		}
	})

	onSpawn := req.OnSpawn
	req.OnSpawn = func(pid int) {
		_ = r.do(func() {
			if e := r.jobs[id]; e != nil {
				e.job.PID = pid
			}
		})
		if onSpawn != nil {
			onSpawn(pid)
		}
	}

	res, runErr := exec.Run(ctx, req)

	var (
		final   Job
		applied bool
	)
	_ = r.do(func() {
		e := r.jobs[id]
		if e == nil || e.job.KilledByUser {
			return
		}
		now := r.cfg.Now().UTC()
		e.job.CompletedAt = &now
		if runErr != nil {
			e.job.Status = StatusFailed
			e.job.Error = runErr.Error()
		} else {
			e.job.Status = StatusCompleted
			e.job.Result = res.Content
			e.job.Error = ""
			e.job.UsedFallback = res.UsedFallback
			e.job.FallbackModel = res.FallbackModel
		}
		final, applied = e.job, true
	})
	if applied {
		logging.Debugf("job %s: %s", id, final.Status)
		r.notify(final)
	}
}

func (r *Registry) notify(job Job) {
	if r.cfg.OnTerminal != nil {
		r.cfg.OnTerminal(job)
	}
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (Job, error) {
	var (
		job   Job
		found bool
	)
	if err := r.do(func() {
		if e := r.jobs[id]; e != nil {
			job, found = e.job, true
		}
	}); err != nil {
		return Job{}, err
	}
	if !found {
		return Job{}, notFound(id)
	}
	return job, nil
}

// ClampWaitTimeout applies the default and the ceiling to a wait timeout.
func ClampWaitTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultWaitTimeout
	}
	return min(d, MaxWaitTimeout)
}

// Wait polls until the job is terminal or timeout elapses. On timeout the
// job is marked timeout; the execution itself keeps running and a later
// completion still replaces that status.
func (r *Registry) Wait(ctx context.Context, id string, timeout time.Duration) (Job, error) {
	timeout = ClampWaitTimeout(timeout)
	start := r.cfg.Now()
	delay := r.cfg.Poll.Initial

	for {
		job, err := r.Get(id)
		if err != nil {
			return Job{}, err
		}
		if job.Status.Terminal() {
			return job, nil
		}

		if r.cfg.Now().Sub(start) > timeout {
			return r.markTimeout(id, timeout)
		}

		delay = min(time.Duration(float64(delay)*r.cfg.Poll.Factor), r.cfg.Poll.Max)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Job{}, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Registry) markTimeout(id string, timeout time.Duration) (Job, error) {
	var (
		job     Job
		found   bool
		changed bool
	)
	if err := r.do(func() {
		e := r.jobs[id]
		if e == nil {
			return
		}
		found = true
		if e.job.Status.Active() {
			now := r.cfg.Now().UTC()
			e.job.Status = StatusTimeout
			e.job.Error = fmt.Sprintf("wait_for_job timed out after %dms", timeout.Milliseconds())
			e.job.CompletedAt = &now
			changed = true
		}
		job = e.job
	}); err != nil {
		return Job{}, err
	}
	if !found {
		return Job{}, notFound(id)
	}
	if changed {
		r.notify(job)
	}
	return job, nil
}

// Cancel kills an active job. The job is marked failed and killedByUser
// before the signal is sent, so the eventual exit of the process cannot
// overwrite it. Signal delivery failures are ignored.
func (r *Registry) Cancel(id, sigName string) (Job, error) {
	sig, name, err := signal.Parse(sigName)
	if err != nil {
		return Job{}, err
	}

	var (
		job    Job
		found  bool
		status Status
		cancel context.CancelFunc
	)
	if err := r.do(func() {
		e := r.jobs[id]
		if e == nil {
			return
		}
		found = true
		status = e.job.Status
		if !e.job.Status.Active() {
			return
		}
		now := r.cfg.Now().UTC()
		e.job.KilledByUser = true
		e.job.Status = StatusFailed
		e.job.Error = fmt.Sprintf("killed by user (signal: %s)", name)
		e.job.CompletedAt = &now
		job, cancel = e.job, e.cancel
	}); err != nil {
		return Job{}, err
	}

	if !found {
		return Job{}, notFound(id)
	}
	if cancel == nil {
		return Job{}, fmt.Errorf("%w: %s is %s", ErrJobTerminal, id, status)
	}

	if job.PID > 0 {
		if err := r.cfg.Procs.Signal(job.PID, sig); err != nil {
			logging.Debugf("job %s: %v", id, err)
		}
	}
	cancel()
	r.notify(job)
	return job, nil
}

// ClampListLimit applies the default and the ceiling to a list limit.
func ClampListLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

// List returns matching jobs, newest first, at most limit of them.
func (r *Registry) List(filter Filter, limit int) ([]Job, error) {
	limit = ClampListLimit(limit)

	var matched []*entry
	if err := r.do(func() {
		for _, e := range r.jobs {
			if filter.match(e.job.Status) {
				cp := *e
				matched = append(matched, &cp)
			}
		}
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(matched, func(a, b *entry) int {
		if c := b.job.SpawnedAt.Compare(a.job.SpawnedAt); c != 0 {
			return c
		}
		return b.seq - a.seq
	})

	out := make([]Job, 0, min(len(matched), limit))
	for _, e := range matched {
		if len(out) == limit {
			break
		}
		out = append(out, e.job)
	}
	return out, nil
}

// Close cancels every running job, waits for the executions to return and
// stops the registry goroutine.
func (r *Registry) Close() {
	r.once.Do(func() {
		_ = r.do(func() {
			for _, e := range r.jobs {
				if e.job.Status.Active() {
					e.cancel()
				}
			}
		})
		r.wg.Wait()
		close(r.quit)
	})
}
