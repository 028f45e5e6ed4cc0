package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"priceradar/internal/models"
)

// NormalizeProducts decodes a JSON product payload that is either a bare
// array of product objects or wrapped as {"products": [...]}. Malformed
// JSON is a structural error.
func NormalizeProducts(raw []byte) ([]models.ProductInput, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, ErrEmptyFile
	}

	if strings.HasPrefix(trimmed, "[") {
		var products []models.ProductInput
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, fmt.Errorf("malformed product payload: %w", err)
		}
		return products, nil
	}

	var wrapper struct {
		Products []models.ProductInput `json:"products"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("malformed product payload: %w", err)
	}
	return wrapper.Products, nil
}

// searchAPIProduct is the wire shape of the external product-search
// provider. It is mapped to the pipeline's strict types immediately at this
// boundary; nothing downstream sees the raw payload.
type searchAPIProduct struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Thumbnail   string `json:"thumbnail"`
	GTIN        string `json:"gtin"`
	Offers      []struct {
		Merchant     string  `json:"merchant"`
		Link         string  `json:"link"`
		Price        float64 `json:"price"`
		Currency     string  `json:"currency"`
		Availability string  `json:"availability"`
		Provider     string  `json:"provider"`
		Program      string  `json:"program"`
	} `json:"offers"`
}

// ParseSearchJSON converts an external product-search response into
// provider-neutral records, one per offer.
func ParseSearchJSON(raw []byte) (*ParseResult, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, ErrEmptyFile
	}

	var products []searchAPIProduct
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, fmt.Errorf("malformed search payload: %w", err)
		}
	} else {
		var wrapper struct {
			Products []searchAPIProduct `json:"products"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("malformed search payload: %w", err)
		}
		products = wrapper.Products
	}

	result := &ParseResult{}
	for i, p := range products {
		result.TotalDataRows++
		if strings.TrimSpace(p.Title) == "" {
			result.addSkip(i+1, models.SkipMissingName, "empty product title")
			continue
		}
		if len(p.Offers) == 0 {
			// Product without offers still upserts the product itself.
			result.Rows = append(result.Rows, models.NormalizedRecord{
				Row:      i + 1,
				Name:     strings.TrimSpace(p.Title),
				Category: p.Category,
				ImageURL: p.Thumbnail,
				GTIN:     p.GTIN,
				InStock:  true,
			})
			continue
		}
		for _, offer := range p.Offers {
			if offer.Price <= 0 || math.IsNaN(offer.Price) || math.IsInf(offer.Price, 0) {
				result.addSkip(i+1, models.SkipInvalidPrice, fmt.Sprintf("non-positive price %v", offer.Price))
				continue
			}
			currency := strings.ToUpper(strings.TrimSpace(offer.Currency))
			if currency == "" {
				result.addSkip(i+1, models.SkipInvalidCurrency, "missing currency")
				continue
			}
			result.Rows = append(result.Rows, models.NormalizedRecord{
				Row:       i + 1,
				Name:      strings.TrimSpace(p.Title),
				StoreName: offer.Merchant,
				URL:       offer.Link,
				Price:     offer.Price,
				Currency:  currency,
				Category:  p.Category,
				ImageURL:  p.Thumbnail,
				GTIN:      p.GTIN,
				InStock:   MapAvailability(offer.Availability),
				Provider:  offer.Provider,
				Program:   offer.Program,
			})
		}
	}
	return result, nil
}
