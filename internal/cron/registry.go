package cron

import (
	"context"
	"time"
)

// Job represents a scheduled task that runs inside the scheduler worker.
// Due decides whether the job fires on this tick; Run receives the tick time
// so every effect of one cycle shares the same clock reading.
type Job interface {
	Name() string
	Due(now time.Time) bool
	Run(ctx context.Context, now time.Time) error
}

// Registry tracks registered scheduler jobs.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the provided jobs.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		registry.jobs = append(registry.jobs, job)
	}
	return registry
}

// Register adds a job to the registry.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
