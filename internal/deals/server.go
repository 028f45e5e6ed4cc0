package deals

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"priceradar/internal/db"
	"priceradar/internal/events"
	"priceradar/internal/models"
	"priceradar/internal/store"
	"priceradar/pkg/config"
)

// Start runs the deal recompute service: the cron sweep plus, when events
// are enabled, targeted recomputes driven by price-change messages.
func Start(cfg *config.Config) {
	dbConn := db.Setup(cfg)
	service := NewService(store.NewGormStore(dbConn))

	StartScheduler(service, cfg.DealCronSpec)

	if cfg.EventsEnabled {
		events.SetupConsumer(cfg.KafkaBrokers, cfg.KafkaPricesTopic, handlePriceChange(service))
	}
}

func handlePriceChange(service *Service) func([]byte) {
	return func(data []byte) {
		var change models.PriceChange
		if err := json.Unmarshal(data, &change); err != nil {
			logrus.WithError(err).Error("Error unmarshaling price change")
			return
		}
		if err := service.RecomputeProduct(context.Background(), change.ProductID); err != nil {
			logrus.WithError(err).WithField("product_id", change.ProductID).Error("Failed to recompute deal")
		}
	}
}
