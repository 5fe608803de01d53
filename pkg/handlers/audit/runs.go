package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
	auditsvc "github.com/de-tools/sql-sentry/pkg/services/audit"
)

// Run tracks one audit run through its lifecycle:
// pending -> running -> completed, or running -> failed when the target is
// unreachable. Completed runs keep their result until the process exits;
// nothing is persisted.
type Run struct {
	ID          string
	Profile     string
	State       domain.RunState
	StartedAt   time.Time
	CompletedAt time.Time
	Result      *auditsvc.RunResult
	Err         error

	cancel context.CancelFunc
}

// RunRegistry is the in-memory store of runs known to this process.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]*Run)}
}

func (r *RunRegistry) Create(profile string, cancel context.CancelFunc) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		Profile:   profile,
		State:     domain.RunPending,
		StartedAt: time.Now().UTC(),
		cancel:    cancel,
	}
	r.mu.Lock()
	r.runs[run.ID] = run
	r.mu.Unlock()
	return run
}

func (r *RunRegistry) SetRunning(id string) {
	r.update(id, func(run *Run) {
		run.State = domain.RunRunning
	})
}

func (r *RunRegistry) SetCompleted(id string, result *auditsvc.RunResult) {
	r.update(id, func(run *Run) {
		run.State = domain.RunCompleted
		run.Result = result
		run.CompletedAt = time.Now().UTC()
	})
}

func (r *RunRegistry) SetFailed(id string, err error) {
	r.update(id, func(run *Run) {
		run.State = domain.RunFailed
		run.Err = err
		run.CompletedAt = time.Now().UTC()
	})
}

// Cancel signals an in-flight run to stop issuing new rules. The run still
// completes with whatever summary was aggregable, marked partial.
func (r *RunRegistry) Cancel(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok || run.cancel == nil {
		return false
	}
	run.cancel()
	return true
}

// Snapshot returns a copy of the run's externally visible fields.
func (r *RunRegistry) Snapshot(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	snapshot := *run
	snapshot.cancel = nil
	return snapshot, true
}

func (r *RunRegistry) update(id string, fn func(*Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		fn(run)
	}
}
