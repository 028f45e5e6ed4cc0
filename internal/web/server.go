// Package web exposes the admin HTTP surface that triggers ingestion runs
// and reads deal state. It is a thin layer over the function-level pipeline
// API.
package web

import (
	"fmt"
	"net"
	"strconv"

	"github.com/labstack/echo/v4"

	"priceradar/internal/db"
	"priceradar/internal/deals"
	"priceradar/internal/events"
	"priceradar/internal/feeds"
	"priceradar/internal/ingest"
	"priceradar/internal/store"
	"priceradar/pkg/config"

	"github.com/sirupsen/logrus"
)

// Start wires the pipeline together and serves the admin HTTP API.
func Start(cfg *config.Config) {
	dbConn := db.Setup(cfg)
	st := store.NewGormStore(dbConn)

	var publisher ingest.ChangePublisher
	if cfg.EventsEnabled {
		producer := events.SetupProducer(cfg.KafkaBrokers)
		publisher = events.NewPublisher(producer, cfg.KafkaPricesTopic)
	}

	service := ingest.NewService(st, publisher)
	dealService := deals.NewService(st)
	fetcher := feeds.NewFetcher(service, cfg)

	e := echo.New()
	registerHandlers(e, service, dealService, fetcher, cfg)

	basePort, _ := strconv.Atoi(cfg.HTTPPort)
	if basePort == 0 {
		basePort = 8080
	}
	port := findAvailablePort(basePort, "Admin HTTP")
	logrus.WithField("port", port).Info("Starting admin HTTP server")
	if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
		logrus.Fatalf("Admin HTTP server failed: %v", err)
	}
}

func findAvailablePort(basePort int, serviceName string) int {
	port := basePort
	maxAttempts := 10

	for attempt := 0; attempt < maxAttempts; attempt++ {
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			logrus.WithFields(logrus.Fields{
				"service": serviceName,
				"port":    port,
			}).Info("Found available port")
			return port
		}
		logrus.WithFields(logrus.Fields{
			"service": serviceName,
			"port":    port,
		}).Warn("Port in use, trying next port")
		port++
	}
	logrus.WithFields(logrus.Fields{
		"service": serviceName,
		"port":    port,
	}).Warn("Failed to find available port, using default")
	return port
}
