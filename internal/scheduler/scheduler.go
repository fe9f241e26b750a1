package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/workflow"
	"github.com/robfig/cron/v3"
)

// Run starts the background cron that sweeps for assets past their end-of-life
// date on the given spec (standard 5-field cron). It returns the started cron
// so the caller can Stop it on shutdown.
func Run(svc *workflow.Service, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := svc.SweepEOL(ctx, time.Now()); err != nil {
			slog.Error("eol sweep failed", "err", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("eol sweep scheduled", "spec", spec)
	return c, nil
}
