package cron

import (
	"context"
	"time"
)

// Job is one scheduled unit of work with its own cadence. Due is checked on
// every tick; a job with a zero interval runs every cycle.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Registry tracks registered jobs and the time each last ran.
type Registry struct {
	jobs    []Job
	lastRun map[string]time.Time
}

// NewRegistry builds a registry preloaded with the provided jobs.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{lastRun: map[string]time.Time{}}
	for _, job := range jobs {
		registry.Register(job)
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

// Due returns the jobs whose interval has elapsed since their last run, and
// marks them as run at now.
func (r *Registry) Due(now time.Time) []Job {
	due := []Job{}
	for _, job := range r.jobs {
		last, ran := r.lastRun[job.Name()]
		if ran && job.Interval() > 0 && now.Sub(last) < job.Interval() {
			continue
		}
		r.lastRun[job.Name()] = now
		due = append(due, job)
	}
	return due
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
