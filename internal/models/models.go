package models

import (
	"time"

	"gorm.io/datatypes"
)

// Product is a canonical item offered by one or more stores.
type Product struct {
	ID              string         `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"uniqueIndex;not null" json:"name"`
	DisplayName     string         `json:"displayName"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	Brand           string         `json:"brand"`
	ImageURL        string         `json:"imageUrl"`
	ThumbnailURL    string         `json:"thumbnailUrl"`
	Images          datatypes.JSON `gorm:"type:jsonb" json:"images"`
	IsDemo          bool           `gorm:"default:false" json:"isDemo"`
	IsGreatDeal     bool           `gorm:"default:false" json:"isGreatDeal"`
	DiscountPercent *int           `json:"discountPercent"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Listing is one store's priced offer for a Product. Listings are owned by
// their product and removed with it.
type Listing struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ProductID    string         `gorm:"index:idx_listing_product;not null" json:"productId"`
	Product      *Product       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StoreName    string         `gorm:"not null" json:"storeName"`
	URL          string         `json:"url"`
	Price        float64        `json:"price"`
	PriceCents   int32          `json:"priceCents"`
	Currency     string         `json:"currency"`
	ShippingCost float64        `json:"shippingCost"`
	DeliveryDays int            `json:"deliveryDays"`
	FastDelivery bool           `json:"fastDelivery"`
	InStock      bool           `gorm:"default:true" json:"inStock"`
	Rating       *float64       `json:"rating"`
	ReviewCount  *int           `json:"reviewCount"`
	Tags         datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	Source       string         `json:"source"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// PricePoint is one entry of a product's price history.
type PricePoint struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID string    `gorm:"index:idx_price_point_product;not null" json:"productId"`
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	StoreName string    `json:"storeName"`
}

// Listing source tags.
const (
	SourceManual    = "manual"
	SourceSheet     = "sheet"
	SourceAffiliate = "affiliate"
)

// NormalizedRecord is the provider-neutral row every parser emits. The
// pipeline only ever operates on this shape; provider payloads are mapped
// into it at the I/O boundary.
type NormalizedRecord struct {
	// Row is the record's position in the source file, so downstream
	// failures can reference the original row even after the parser has
	// skipped earlier ones.
	Row       int     `json:"-"`
	Name      string  `json:"name"`
	StoreName string  `json:"storeName"`
	URL       string  `json:"url"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Category  string  `json:"category,omitempty"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	GTIN      string  `json:"gtin,omitempty"`
	InStock   bool    `json:"inStock"`
	Provider  string  `json:"provider,omitempty"`
	Program   string  `json:"program,omitempty"`
}

// ListingInput is one store offer inside a ProductInput payload.
type ListingInput struct {
	StoreName    string  `json:"storeName" validate:"required"`
	URL          string  `json:"url"`
	Price        float64 `json:"price" validate:"gte=0"`
	Currency     string  `json:"currency"`
	ShippingCost float64 `json:"shippingCost"`
	DeliveryDays int     `json:"deliveryDays"`
	FastDelivery bool    `json:"fastDelivery"`
	InStock      *bool   `json:"inStock"`
}

// HistoryInput is one historical price point in a curated import payload.
type HistoryInput struct {
	Date      string  `json:"date"`
	Price     float64 `json:"price" validate:"gte=0"`
	Currency  string  `json:"currency"`
	StoreName string  `json:"storeName"`
}

// ProductInput is a manually entered or provider-supplied product payload.
type ProductInput struct {
	ID          string         `json:"id"`
	Name        string         `json:"name" validate:"required"`
	DisplayName string         `json:"displayName"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Brand       string         `json:"brand"`
	ImageURL    string         `json:"imageUrl"`
	Listings    []ListingInput `json:"listings" validate:"dive"`
	History     []HistoryInput `json:"history" validate:"dive"`
}

// SkipReason classifies why a source row was not ingested.
type SkipReason string

const (
	SkipMissingName         SkipReason = "missing_name"
	SkipMissingAffiliateURL SkipReason = "missing_affiliate_url"
	SkipMissingAnyURL       SkipReason = "missing_any_url"
	SkipInvalidPrice        SkipReason = "invalid_price"
	SkipInvalidCurrency     SkipReason = "invalid_currency"
	SkipInvalidRow          SkipReason = "invalid_row"
	SkipDedupedDuplicate    SkipReason = "deduped_duplicate"
	SkipOther               SkipReason = "other"
)

// MaxSkipSamples bounds how many skipped-row examples a run retains for
// operator diagnostics.
const MaxSkipSamples = 20

// SkipSample is one retained example of a skipped row.
type SkipSample struct {
	Row     int        `json:"row"`
	Reason  SkipReason `json:"reason"`
	Message string     `json:"message"`
}

// RowError records a per-record downstream failure that did not abort the run.
type RowError struct {
	RowNumber int    `json:"rowNumber"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
}

// ImportSummary is the structured result of one ingestion run. It is always
// returned to the caller, even when the run was only partially successful,
// and is never persisted.
type ImportSummary struct {
	ProductsCreated      int                `json:"productsCreated"`
	ProductsMatched      int                `json:"productsMatched"`
	ListingsCreated      int                `json:"listingsCreated"`
	ListingsUpdated      int                `json:"listingsUpdated"`
	ProductOnlyRows      int                `json:"productOnlyRows"`
	ListingRows          int                `json:"listingRows"`
	SkippedMissingFields int                `json:"skippedMissingFields"`
	BlockedListings      int                `json:"blockedListings"`
	FailedRows           int                `json:"failedRows"`
	Batches              int                `json:"batches"`
	Skips                map[SkipReason]int `json:"skips,omitempty"`
	SkipSamples          []SkipSample       `json:"skipSamples,omitempty"`
	Errors               []RowError         `json:"errors,omitempty"`
}

// AddSkip counts a skipped row and keeps a bounded sample for diagnostics.
func (s *ImportSummary) AddSkip(row int, reason SkipReason, message string) {
	if s.Skips == nil {
		s.Skips = make(map[SkipReason]int)
	}
	s.Skips[reason]++
	s.SkippedMissingFields++
	if len(s.SkipSamples) < MaxSkipSamples {
		s.SkipSamples = append(s.SkipSamples, SkipSample{Row: row, Reason: reason, Message: message})
	}
}

// AddError records a per-row downstream failure.
func (s *ImportSummary) AddError(row int, code, message string) {
	s.FailedRows++
	s.Errors = append(s.Errors, RowError{RowNumber: row, Message: message, Code: code})
}

// PriceChange is the event published after a run for every listing whose
// price moved.
type PriceChange struct {
	ProductID string  `json:"productId"`
	StoreName string  `json:"storeName"`
	URL       string  `json:"url"`
	OldPrice  float64 `json:"oldPrice"`
	NewPrice  float64 `json:"newPrice"`
	Currency  string  `json:"currency"`
}
