// Package maintenance runs background housekeeping jobs against the
// shopping data, currently purging purchased items past the configured
// retention window.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PurchasedPurger removes purchased items last touched before the cutoff.
type PurchasedPurger interface {
	PurgePurchasedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor schedules periodic cleanup of purchased shopping items.
type Janitor struct {
	cron      *cron.Cron
	purger    PurchasedPurger
	retention time.Duration
	schedule  string
	log       *logrus.Logger
}

func NewJanitor(purger PurchasedPurger, retention time.Duration, schedule string, log *logrus.Logger) *Janitor {
	return &Janitor{
		cron:      cron.New(cron.WithSeconds()),
		purger:    purger,
		retention: retention,
		schedule:  schedule,
		log:       log,
	}
}

// Start registers the purge job and starts the scheduler. A zero or
// negative retention disables the janitor entirely.
func (j *Janitor) Start() error {
	if j.retention <= 0 {
		j.log.Info("purchased-item purge disabled, no retention configured")
		return nil
	}

	_, err := j.cron.AddFunc(j.schedule, j.runPurge)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.log.WithFields(logrus.Fields{
		"schedule":  j.schedule,
		"retention": j.retention.String(),
	}).Info("purchased-item purge scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.retention)
	removed, err := j.purger.PurgePurchasedBefore(ctx, cutoff)
	if err != nil {
		j.log.WithError(err).Error("purchased-item purge failed")
		return
	}
	if removed > 0 {
		j.log.WithField("removed", removed).Info("purged old purchased items")
	}
}
