// Package db provides database connection and management functionality
package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"priceradar/internal/models"
	"priceradar/pkg/config"

	"github.com/sirupsen/logrus"
)

// Setup initializes the PostgreSQL database connection and runs migrations.
// Returns a configured *gorm.DB instance or exits on fatal errors.
func Setup(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.Listing{},
		&models.PricePoint{},
	); err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database schema")
	}

	logrus.Info("Database initialized successfully")
	return db
}
