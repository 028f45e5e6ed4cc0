package ingest

import "strings"

// StoreInfo is the canonical identity of a known store.
type StoreInfo struct {
	Name    string
	Country string
	LogoURL string
}

// storeRegistry maps known store IDs to their canonical display name,
// default shipping country and logo. Keys are the identifiers the affiliate
// networks use.
var storeRegistry = map[string]StoreInfo{
	"emag":        {Name: "eMAG", Country: "RO", LogoURL: "https://cdn.priceradar.ro/logos/emag.png"},
	"altex":       {Name: "Altex", Country: "RO", LogoURL: "https://cdn.priceradar.ro/logos/altex.png"},
	"flanco":      {Name: "Flanco", Country: "RO", LogoURL: "https://cdn.priceradar.ro/logos/flanco.png"},
	"pcgarage":    {Name: "PC Garage", Country: "RO", LogoURL: "https://cdn.priceradar.ro/logos/pcgarage.png"},
	"evomag":      {Name: "evoMAG", Country: "RO", LogoURL: "https://cdn.priceradar.ro/logos/evomag.png"},
	"cel":         {Name: "CEL.ro", Country: "RO", LogoURL: "https://cdn.priceradar.ro/logos/cel.png"},
	"quickmobile": {Name: "QuickMobile", Country: "RO", LogoURL: "https://cdn.priceradar.ro/logos/quickmobile.png"},
	"vexio":       {Name: "Vexio", Country: "RO", LogoURL: "https://cdn.priceradar.ro/logos/vexio.png"},
}

// NormalizeStore resolves a raw store identifier or free-text store name to
// canonical store info. Unknown identifiers pass the caller-supplied name
// through unchanged with the default country.
func NormalizeStore(rawID, defaultCountry string) StoreInfo {
	key := strings.ToLower(strings.TrimSpace(rawID))
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, ".ro", "")
	if info, ok := storeRegistry[key]; ok {
		return info
	}
	return StoreInfo{Name: strings.TrimSpace(rawID), Country: defaultCountry}
}

// brandKeywords are matched against product names when no explicit brand is
// supplied. Order matters for names mentioning several brands.
var brandKeywords = []string{
	"Apple", "Samsung", "Xiaomi", "Huawei", "Lenovo", "Asus", "Acer", "Dell",
	"HP", "LG", "Sony", "Philips", "Bosch", "Dyson", "Garmin", "Logitech",
	"Canon", "Nikon", "OnePlus", "Google", "Motorola", "Nokia",
}

// DetectBrand returns the explicit brand when present, otherwise infers one
// from the product name, defaulting to "Unknown".
func DetectBrand(productName, explicitBrand string) string {
	if b := strings.TrimSpace(explicitBrand); b != "" {
		return b
	}
	lower := strings.ToLower(productName)
	for _, brand := range brandKeywords {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand
		}
	}
	// "iPhone" and "MacBook" rarely spell out the brand.
	if strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad") || strings.Contains(lower, "macbook") {
		return "Apple"
	}
	return "Unknown"
}
