package deals

import (
	"context"

	"github.com/sirupsen/logrus"

	"priceradar/internal/models"
	"priceradar/internal/store"
)

// Service recomputes deal flags over already-ingested data.
type Service struct {
	store store.Store
}

// NewService builds a deal recompute service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// ProductDeal is the deal state of one product.
type ProductDeal struct {
	ProductID       string `json:"productId"`
	DiscountPercent *int   `json:"discountPercent"`
	IsGreatDeal     bool   `json:"isGreatDeal"`
}

// DealForProduct computes the current deal state of one product without
// persisting anything.
func (s *Service) DealForProduct(ctx context.Context, productID string) (*ProductDeal, error) {
	listings, err := s.store.FindListings(ctx, productID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.FindHistory(ctx, productID)
	if err != nil {
		return nil, err
	}
	discount := DiscountForProduct(listings, history)
	return &ProductDeal{
		ProductID:       productID,
		DiscountPercent: discount,
		IsGreatDeal:     IsGreatDeal(discount),
	}, nil
}

// RecomputeProduct refreshes one product's persisted deal flags. Used when
// a price-change event arrives for it.
func (s *Service) RecomputeProduct(ctx context.Context, productID string) error {
	product, err := s.store.FindProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return nil
	}
	deal, err := s.DealForProduct(ctx, productID)
	if err != nil {
		return err
	}
	return s.applyDeal(ctx, product, deal)
}

// RecomputeAll walks every product and refreshes its persisted deal flags.
// One product's failure never aborts the sweep.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	products, err := s.store.FindProducts(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range products {
		deal, err := s.DealForProduct(ctx, products[i].ID)
		if err != nil {
			logrus.WithError(err).WithField("product_id", products[i].ID).Error("Failed to compute deal")
			continue
		}
		if err := s.applyDeal(ctx, &products[i], deal); err != nil {
			logrus.WithError(err).WithField("product_id", products[i].ID).Error("Failed to update deal flags")
			continue
		}
		updated++
	}
	logrus.WithField("count", updated).Info("Deal recompute finished")
	return updated, nil
}

func (s *Service) applyDeal(ctx context.Context, product *models.Product, deal *ProductDeal) error {
	same := product.IsGreatDeal == deal.IsGreatDeal &&
		intPtrEqual(product.DiscountPercent, deal.DiscountPercent)
	if same {
		return nil
	}
	product.DiscountPercent = deal.DiscountPercent
	product.IsGreatDeal = deal.IsGreatDeal
	return s.store.UpdateProduct(ctx, product)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
