package agent

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner drives periodic sync passes on a cron schedule. A pass that leaves
// failed items behind is retried with exponential backoff (1s, 2s, 4s) before
// yielding to the next scheduled tick. Being offline is not retried; the queue
// simply waits for connectivity.
type Runner struct {
	queue    *Queue
	schedule string
	cron     *cron.Cron
}

func NewRunner(queue *Queue, schedule string) *Runner {
	return &Runner{
		queue:    queue,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the sync job and starts the scheduler.
func (r *Runner) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		if err := r.SyncWithRetry(ctx); err != nil {
			logrus.WithError(err).Warn("scheduled sync pass failed")
		}
	})
	if err != nil {
		return errors.Wrap(err, "registering sync schedule")
	}

	r.cron.Start()
	logrus.WithField("schedule", r.schedule).Info("agent sync scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

// SyncWithRetry runs TriggerSync and, when items failed during the pass,
// retries up to three more passes with exponential backoff so transient
// server errors resolve without waiting for the next tick.
func (r *Runner) SyncWithRetry(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 4 * time.Second
	bo.MaxElapsedTime = 10 * time.Second

	return backoff.Retry(func() error {
		if err := r.queue.TriggerSync(ctx); err != nil {
			if errors.Is(err, ErrOffline) {
				return backoff.Permanent(err)
			}
			return err
		}
		if progress := r.queue.Progress(); progress.Failed > 0 {
			return errors.Errorf("%d of %d items failed to replay", progress.Failed, progress.Total)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}
