package ai

import (
	"fmt"
	"os"
	"sync"
)

// ProcessTable tracks the pids of live model subprocesses so that a job can
// be signalled only while its process is still ours.
type ProcessTable struct {
	mu   sync.Mutex
	pids map[int]struct{}
}

func NewProcessTable() *ProcessTable {
	return &ProcessTable{pids: make(map[int]struct{})}
}

func (t *ProcessTable) Add(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pids[pid] = struct{}{}
}

func (t *ProcessTable) Remove(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pids, pid)
}

func (t *ProcessTable) Has(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pids[pid]
	return ok
}

func (t *ProcessTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pids)
}

// Signal sends sig to pid if it is tracked. Untracked pids are ignored so a
// recycled pid is never signalled.
func (t *ProcessTable) Signal(pid int, sig os.Signal) error {
	if !t.Has(pid) {
		return nil
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := p.Signal(sig); err != nil {
		return fmt.Errorf("signal process %d: %w", pid, err)
	}
	return nil
}
