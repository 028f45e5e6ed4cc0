package main

import (
	"priceradar/internal/deals"
	"priceradar/internal/web"
	"priceradar/pkg/config"
	"priceradar/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration once; the pipeline never reads the environment.
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Start services in separate goroutines
	go web.Start(cfg)
	go deals.Start(cfg)

	logrus.Info("Application started")

	// Keep the application running
	select {}
}
