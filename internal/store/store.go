// Package store defines the persistent-store contract the ingestion
// pipeline runs against, plus the gorm-backed implementation used in
// production and an in-memory implementation used in tests.
package store

import (
	"context"

	"priceradar/internal/models"
)

// Store is the generic persistence contract for the pipeline. Lookups
// return (nil, nil) when no record matches; only real storage failures
// surface as errors.
type Store interface {
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	FindProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteDemoProducts(ctx context.Context) (int64, error)

	FindListings(ctx context.Context, productID string) ([]models.Listing, error)
	CreateListing(ctx context.Context, l *models.Listing) error
	UpdateListing(ctx context.Context, l *models.Listing) error
	DeleteListings(ctx context.Context, productID string) (int64, error)

	FindHistory(ctx context.Context, productID string) ([]models.PricePoint, error)
	ReplaceHistory(ctx context.Context, productID string, points []models.PricePoint) error
}
