package ingest

import (
	"net/url"
	"strings"

	"priceradar/internal/models"
)

// ListingKey identifies a listing for dedup purposes: one product, one
// store (case-insensitive), one exact URL. The same key on a later run must
// update the existing listing, never create a second one.
type ListingKey struct {
	ProductID string
	Store     string
	URL       string
}

// NewListingKey builds the dedup key, folding store-name case so the
// application and the storage layer agree on what "same store" means.
func NewListingKey(productID, storeName, rawURL string) ListingKey {
	return ListingKey{
		ProductID: productID,
		Store:     strings.ToLower(strings.TrimSpace(storeName)),
		URL:       strings.TrimSpace(rawURL),
	}
}

// KeyForListing derives the dedup key of a persisted listing.
func KeyForListing(l *models.Listing) ListingKey {
	return NewListingKey(l.ProductID, l.StoreName, l.URL)
}

// MatchListing finds the persisted listing with the same dedup key, or nil.
func MatchListing(existing []models.Listing, key ListingKey) *models.Listing {
	for i := range existing {
		if KeyForListing(&existing[i]) == key {
			return &existing[i]
		}
	}
	return nil
}

// IsBlockedListing reports whether a listing's store name or URL matches a
// blocked retailer domain. Blocked listings are rejected outright so
// contractually disallowed sources never reach the catalog.
func IsBlockedListing(storeName, rawURL string, blockedDomains []string) bool {
	if len(blockedDomains) == 0 {
		return false
	}
	store := strings.ToLower(storeName)
	host := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}
	for _, domain := range blockedDomains {
		d := strings.ToLower(strings.TrimSpace(domain))
		if d == "" {
			continue
		}
		if strings.Contains(host, d) || strings.Contains(store, d) {
			return true
		}
	}
	return false
}

// ValidListingURL reports whether the URL is syntactically usable for a
// click-through listing.
func ValidListingURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
