package mail

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultJobTimeout bounds one delivery attempt.
	DefaultJobTimeout = 30 * time.Second

	pollWait     = 5 * time.Second
	errorBackoff = 2 * time.Second
)

// Source is where a Worker takes jobs from. *Queue implements it.
type Source interface {
	Dequeue(ctx context.Context, wait time.Duration) (*Job, error)
}

// Worker drains a Source into a Sender, one job at a time. Each job gets
// one attempt; failures are logged and the job is dropped.
type Worker struct {
	source     Source
	sender     Sender
	logger     *zap.Logger
	jobTimeout time.Duration
	backoff    time.Duration
}

func NewWorker(source Source, sender Sender, logger *zap.Logger) *Worker {
	return &Worker{
		source:     source,
		sender:     sender,
		logger:     logger,
		jobTimeout: DefaultJobTimeout,
		backoff:    errorBackoff,
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("mail worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("mail worker stopped")
			return
		}

		job, err := w.source.Dequeue(ctx, pollWait)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to dequeue mail job", zap.Error(err))
			// Don't spin on a broken Redis connection.
			select {
			case <-ctx.Done():
			case <-time.After(w.backoff):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.process(ctx, *job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := w.sender.Send(ctx, job); err != nil {
		w.logger.Error("failed to send email",
			zap.String("tag", job.Tag),
			zap.Strings("to", job.To),
			zap.String("subject", job.Subject),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("email sent",
		zap.String("tag", job.Tag),
		zap.Strings("to", job.To),
		zap.Duration("took", time.Since(start)),
	)
}
