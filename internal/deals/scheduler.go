package deals

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobIDs maps job names to their cron entry IDs for management
var jobIDs = make(map[string]cron.EntryID)

// StartScheduler runs the periodic deal recompute. Ingestion itself is
// never timer-driven; this job only re-derives discount flags from data
// that is already in the catalog.
func StartScheduler(service *Service, spec string) *cron.Cron {
	c := cron.New()

	id, err := c.AddFunc(spec, func() {
		logrus.Info("Running scheduled deal recompute")
		if _, err := service.RecomputeAll(context.Background()); err != nil {
			logrus.WithError(err).Error("Scheduled deal recompute failed")
		}
	})
	if err != nil {
		logrus.WithError(err).Fatal("Invalid cron expression")
	}
	jobIDs["dealRecompute"] = id

	c.Start()
	logrus.WithField("spec", spec).Info("Scheduler started for deal recompute")
	return c
}
