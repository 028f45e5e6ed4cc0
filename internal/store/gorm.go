package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"priceradar/internal/models"
)

// GormStore persists pipeline entities through gorm/PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an initialized gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).First(&p, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) FindProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Save(p).Error
}

// DeleteDemoProducts removes synthetic demo products together with their
// listings and history.
func (s *GormStore) DeleteDemoProducts(ctx context.Context) (int64, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_demo = ?", true).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Where("product_id IN ?", ids).Delete(&models.Listing{}).Error; err != nil {
		return 0, err
	}
	if err := s.db.WithContext(ctx).Where("product_id IN ?", ids).Delete(&models.PricePoint{}).Error; err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Product{})
	if res.Error != nil {
		return 0, res.Error
	}
	logrus.WithField("count", res.RowsAffected).Info("Deleted demo products")
	return res.RowsAffected, nil
}

func (s *GormStore) FindListings(ctx context.Context, productID string) ([]models.Listing, error) {
	var listings []models.Listing
	if err := s.db.WithContext(ctx).Where("product_id = ?", productID).Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *GormStore) CreateListing(ctx context.Context, l *models.Listing) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *GormStore) UpdateListing(ctx context.Context, l *models.Listing) error {
	return s.db.WithContext(ctx).Save(l).Error
}

func (s *GormStore) DeleteListings(ctx context.Context, productID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.Listing{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) FindHistory(ctx context.Context, productID string) ([]models.PricePoint, error) {
	var points []models.PricePoint
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("date").
		Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// ReplaceHistory swaps a product's entire price series in one transaction.
// Curated imports replace history rather than append so the series always
// matches the current catalog snapshot.
func (s *GormStore) ReplaceHistory(ctx context.Context, productID string, points []models.PricePoint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.PricePoint{}).Error; err != nil {
			return err
		}
		for i := range points {
			points[i].ProductID = productID
			points[i].ID = 0
		}
		if len(points) == 0 {
			return nil
		}
		return tx.Create(&points).Error
	})
}
