package worker

import (
	"context"
	"sync"
)

// Registry tracks the cancel function of every in-flight run so the
// API layer can cancel a job by ID.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*runHandle
}

type runHandle struct {
	cancel   context.CancelFunc
	canceled bool
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*runHandle)}
}

// register attaches a cancel function to a job ID for the duration of
// its run.
func (r *Registry) register(jobID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[jobID] = &runHandle{cancel: cancel}
}

func (r *Registry) unregister(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, jobID)
}

// Cancel cancels a running job. It reports false when the job is not
// currently running.
func (r *Registry) Cancel(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.runs[jobID]
	if !ok {
		return false
	}
	h.canceled = true
	h.cancel()
	return true
}

// wasCanceled reports whether the job was stopped through Cancel as
// opposed to an ordinary context teardown.
func (r *Registry) wasCanceled(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.runs[jobID]
	return ok && h.canceled
}
