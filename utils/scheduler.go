package utils

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"lms/logger"
)

// Reconciler is the part of the engine the scheduler drives.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// runReconcile sweeps every course once. Changed rows mean some write
// path left an enrollment stamp out of step with its progress rows.
func runReconcile(r Reconciler, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	changed, err := r.ReconcileAll(ctx)
	if err != nil {
		logger.Log.Error("completion reconcile failed", "error", err)
		return
	}
	logger.Log.Info("completion reconcile done", "changed", changed, "took", time.Since(start).String())
}

// InitializeReconcileScheduler starts the completion sweep on spec. An empty
// spec disables it and returns nil.
func InitializeReconcileScheduler(r Reconciler, spec string) (*cron.Cron, error) {
	if spec == "" {
		logger.Log.Info("completion reconcile disabled")
		return nil, nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, func() { runReconcile(r, 10*time.Minute) }); err != nil {
		return nil, errors.Wrapf(err, "invalid RECONCILE_CRON %q", spec)
	}
	c.Start()

	logger.Log.Info("completion reconcile scheduled", "spec", spec)
	return c, nil
}
