package ingest

import "strings"

// CategoryRule maps keyword hits in product text onto one canonical
// category slug. Rules are evaluated in order; the first confident match
// wins.
type CategoryRule struct {
	Category string
	Keywords []string
}

// categoryRules is the ordered canonical taxonomy. More specific
// categories come first so that e.g. a smartwatch is not classified as a
// phone accessory.
var categoryRules = []CategoryRule{
	{Category: "Smartwatches", Keywords: []string{"smartwatch", "smart watch", "apple watch", "galaxy watch", "amazfit", "fitbit"}},
	{Category: "Headphones", Keywords: []string{"headphones", "earbuds", "airpods", "casti", "headset", "earphones"}},
	{Category: "Tablets", Keywords: []string{"tablet", "ipad", "galaxy tab", "tableta"}},
	{Category: "Laptops", Keywords: []string{"laptop", "notebook", "macbook", "ultrabook", "chromebook"}},
	{Category: "Phones", Keywords: []string{"phone", "iphone", "galaxy s", "smartphone", "telefon", "pixel", "xiaomi redmi"}},
	{Category: "TVs", Keywords: []string{"televizor", " tv ", "smart tv", "oled", "qled"}},
	{Category: "Monitors", Keywords: []string{"monitor", "display", "ecran"}},
	{Category: "Gaming", Keywords: []string{"playstation", "xbox", "nintendo", "consola", "gaming console", "ps5", "ps4"}},
	{Category: "Appliances", Keywords: []string{"frigider", "masina de spalat", "aspirator", "espressor", "cuptor", "refrigerator", "washing machine", "vacuum"}},
	{Category: "Cameras", Keywords: []string{"camera foto", "dslr", "mirrorless", "gopro"}},
}

// negativeKeywords excludes accessory listings from a category whose
// keywords they mention. A title matching a category keyword AND one of its
// negative keywords is an accessory, not the product itself.
var negativeKeywords = map[string][]string{
	"Phones":       {"case", "cover", "husa", "charger", "incarcator", "folie", "screen protector", "cable", "cablu", "holder", "suport"},
	"Laptops":      {"bag", "geanta", "sleeve", "husa", "charger", "incarcator", "stand", "cooler", "cooling pad", "skin"},
	"Tablets":      {"case", "cover", "husa", "folie", "pen", "stylus", "keyboard"},
	"TVs":          {"mount", "suport", "bracket", "remote", "telecomanda", "cable", "cablu"},
	"Smartwatches": {"strap", "bratara", "curea", "band", "charger", "folie"},
	"Headphones":   {"case", "husa", "ear tips", "cushion", "cable", "adapter"},
	"Gaming":       {"controller skin", "thumb grip", "stand", "charging dock"},
	"Cameras":      {"bag", "tripod", "trepied", "lens cap", "card", "strap"},
}

// CategoryInput carries everything category inference may look at for one
// product.
type CategoryInput struct {
	Title                string
	Description          string
	CampaignName         string
	ExplicitCategorySlug string
	FeedCategory         string
}

// InferCategorySlug returns the canonical category slug for a product, or
// "" when no confident match exists. An explicit, already-assigned slug is
// trusted and returned unchanged, which makes the function idempotent and
// safe for bulk re-inference runs. The function is pure: same input, same
// output.
func InferCategorySlug(input CategoryInput) string {
	if explicit := strings.TrimSpace(input.ExplicitCategorySlug); explicit != "" {
		return explicit
	}

	haystack := strings.ToLower(strings.Join([]string{
		input.Title,
		input.Description,
		input.CampaignName,
		input.FeedCategory,
	}, " "))
	if strings.TrimSpace(haystack) == "" {
		return ""
	}
	// Pad so boundary-sensitive keywords like " tv " can match at the edges.
	haystack = " " + haystack + " "

	for _, rule := range categoryRules {
		if !containsAny(haystack, rule.Keywords) {
			continue
		}
		// An excluded rule falls through: later rules still get their chance.
		if containsAny(haystack, negativeKeywords[rule.Category]) {
			continue
		}
		return rule.Category
	}
	return ""
}

func containsAny(haystack string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
