// Package deals computes discount analytics over ingested listings and
// price history, downstream of the ingestion pipeline.
package deals

import (
	"math"

	"priceradar/internal/models"
)

const (
	// MinHistoryPoints is how many valid history points a product needs
	// before a discount is considered meaningful.
	MinHistoryPoints = 3
	// MaxDiscountPercent caps the computed discount; bad feed data must not
	// produce nonsensical "99% off" claims.
	MaxDiscountPercent = 90
	// GreatDealThreshold is the minimum discount surfaced to users as a
	// great deal.
	GreatDealThreshold = 15
)

// ComputeDiscountPercent returns the rounded discount of the current price
// against the historical average, or nil when the average is missing or not
// positive. Negative results mean the product got more expensive. Pure
// function.
func ComputeDiscountPercent(currentPrice float64, avgHistoricalPrice *float64) *int {
	if avgHistoricalPrice == nil || *avgHistoricalPrice <= 0 {
		return nil
	}
	discount := int(math.Round((*avgHistoricalPrice - currentPrice) / *avgHistoricalPrice * 100))
	if discount > MaxDiscountPercent {
		discount = MaxDiscountPercent
	}
	return &discount
}

// IsGreatDeal reports whether a discount clears the consumer-facing
// threshold.
func IsGreatDeal(discountPercent *int) bool {
	return discountPercent != nil && *discountPercent >= GreatDealThreshold
}

// BestCurrentPrice returns the lowest valid positive listing price, or
// false when no listing has one.
func BestCurrentPrice(listings []models.Listing) (float64, bool) {
	best := 0.0
	found := false
	for _, l := range listings {
		if l.Price <= 0 || math.IsNaN(l.Price) || math.IsInf(l.Price, 0) {
			continue
		}
		if !found || l.Price < best {
			best = l.Price
			found = true
		}
	}
	return best, found
}

// AverageHistoricalPrice returns the mean of all valid history points, or
// nil when fewer than MinHistoryPoints are valid.
func AverageHistoricalPrice(points []models.PricePoint) *float64 {
	sum := 0.0
	valid := 0
	for _, p := range points {
		if p.Price <= 0 {
			continue
		}
		sum += p.Price
		valid++
	}
	if valid < MinHistoryPoints {
		return nil
	}
	avg := sum / float64(valid)
	return &avg
}

// DiscountForProduct combines listings and history into the product's
// discount, or nil when not computable.
func DiscountForProduct(listings []models.Listing, history []models.PricePoint) *int {
	current, ok := BestCurrentPrice(listings)
	if !ok {
		return nil
	}
	return ComputeDiscountPercent(current, AverageHistoricalPrice(history))
}
