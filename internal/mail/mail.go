// Package mail schedules and delivers outbound email.
//
// Workflows never send mail inline. They hand a Job to a Scheduler and
// move on; a Worker pops jobs and delivers them through a Sender. A
// failure anywhere on this path is logged and dropped, never surfaced to
// the request that scheduled the job.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Job is one email to send. It is serialised as JSON onto the queue.
type Job struct {
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	// Tag names the workflow that produced the job. Only used in logs.
	Tag string `json:"tag,omitempty"`
}

func (j Job) Validate() error {
	if len(j.To) == 0 {
		return errors.New("job has no recipient")
	}
	for _, to := range j.To {
		if strings.TrimSpace(to) == "" {
			return errors.New("job has an empty recipient")
		}
	}
	if j.Subject == "" {
		return errors.New("job has no subject")
	}
	return nil
}

// Scheduler accepts jobs for later delivery.
type Scheduler interface {
	Enqueue(ctx context.Context, job Job) error
}

// Sender delivers a single job.
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(ctx context.Context, job Job) error

func (f SchedulerFunc) Enqueue(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Discard is a Scheduler that drops every job. Handy for tools and tests
// that don't care about mail.
var Discard Scheduler = SchedulerFunc(func(context.Context, Job) error { return nil })

func errJob(op string, job Job, err error) error {
	return fmt.Errorf("%s %q to %v: %w", op, job.Subject, job.To, err)
}
