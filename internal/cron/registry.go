package cron

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Job is one unit of scheduled work run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Periodic jobs are skipped until Every has elapsed since their last run.
// Jobs without it run on every cycle.
type Periodic interface {
	Every() time.Duration
}

// Registry holds jobs in registration order. Names are unique since they
// key the metrics and the last-run bookkeeping.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{}
	for _, job := range jobs {
		if err := r.Add(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(job Job) error {
	if job == nil {
		return fmt.Errorf("cron: nil job")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron: job has no name")
	}
	if slices.ContainsFunc(r.jobs, func(j Job) bool { return j.Name() == name }) {
		return fmt.Errorf("cron: job %q registered twice", name)
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	return slices.Clone(r.jobs)
}

// Every throttles job to one run per interval. A nil job stays nil.
func Every(interval time.Duration, job Job) Job {
	if job == nil {
		return nil
	}
	return throttled{Job: job, interval: interval}
}

type throttled struct {
	Job
	interval time.Duration
}

func (t throttled) Every() time.Duration { return t.interval }
