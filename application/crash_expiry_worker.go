package application

import (
	"context"
	"fmt"

	"casino/domain/interfaces"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultExpiryBatchSize bounds how many sessions one sweep resolves
const DefaultExpiryBatchSize = 100

// CrashExpiryWorker periodically resolves abandoned crash sessions as losses
type CrashExpiryWorker struct {
	reaper    interfaces.CrashReaper
	schedule  string
	batchSize int
}

// NewCrashExpiryWorker creates a worker that sweeps on a cron schedule such as "@every 30s"
func NewCrashExpiryWorker(reaper interfaces.CrashReaper, schedule string, batchSize int) *CrashExpiryWorker {
	if batchSize <= 0 {
		batchSize = DefaultExpiryBatchSize
	}
	return &CrashExpiryWorker{
		reaper:    reaper,
		schedule:  schedule,
		batchSize: batchSize,
	}
}

// Start schedules the sweep and returns a stop function that waits for a
// running sweep to finish. Overlapping sweeps are skipped.
func (w *CrashExpiryWorker) Start(ctx context.Context) (func(), error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(w.schedule, func() { w.Sweep(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid crash reaper schedule %q: %w", w.schedule, err)
	}
	c.Start()

	log.WithField("schedule", w.schedule).Info("Crash expiry worker started")

	return func() {
		<-c.Stop().Done()
		log.Info("Crash expiry worker stopped")
	}, nil
}

// Sweep resolves expired sessions until none are left or the batch is used up
func (w *CrashExpiryWorker) Sweep(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	expired, err := w.reaper.ExpireCrashSessions(ctx, w.batchSize)
	if err != nil {
		log.WithError(err).WithField("expired", expired).Error("Crash expiry sweep failed")
	}
	return expired
}
