// Package ingest implements the product/listing ingestion pipeline: feed
// parsers, category inference, store normalization, dedup and the batch
// orchestrator.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"priceradar/internal/models"
)

// ErrEmptyFile is returned when a feed file contains no content at all.
var ErrEmptyFile = errors.New("empty feed file")

// HeaderError reports required columns missing from a CSV header row. It is
// a structural failure: no rows are parsed.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseResult is the complete outcome of parsing one feed file. Row-level
// problems never abort the parse; they are counted and sampled here.
type ParseResult struct {
	Rows                 []models.NormalizedRecord
	TotalDataRows        int
	SkippedMissingFields int
	Skips                map[models.SkipReason]int
	SkipSamples          []models.SkipSample
}

func (r *ParseResult) addSkip(row int, reason models.SkipReason, message string) {
	if r.Skips == nil {
		r.Skips = make(map[models.SkipReason]int)
	}
	r.Skips[reason]++
	r.SkippedMissingFields++
	if len(r.SkipSamples) < models.MaxSkipSamples {
		r.SkipSamples = append(r.SkipSamples, models.SkipSample{Row: row, Reason: reason, Message: message})
	}
}

// Dialect describes how one CSV feed format maps its columns onto the
// provider-neutral record. Column aliases are matched case-insensitively.
type Dialect struct {
	Name             string
	NameColumns      []string
	AffiliateColumns []string
	URLColumns       []string
	PriceColumns     []string
	CurrencyColumns  []string
	CategoryColumns  []string
	ImageColumns     []string
	GTINColumns      []string
	StockColumns     []string
	StoreColumns     []string
	// Required lists the header aliases groups that must resolve for the
	// file to be parseable at all.
	Required [][]string
}

// AffiliateDialect covers the comma-delimited exports of the affiliate
// networks. The affiliate deeplink takes priority over the plain product
// URL.
var AffiliateDialect = Dialect{
	Name:             "affiliate",
	NameColumns:      []string{"product_name", "name", "title"},
	AffiliateColumns: []string{"affiliate_url", "aff_link", "deeplink"},
	URLColumns:       []string{"product_url", "url", "link"},
	PriceColumns:     []string{"price", "product_price", "sale_price"},
	CurrencyColumns:  []string{"currency", "currency_code"},
	CategoryColumns:  []string{"category", "category_name"},
	ImageColumns:     []string{"image_url", "image", "picture"},
	GTINColumns:      []string{"gtin", "ean", "barcode"},
	StockColumns:     []string{"availability", "stock", "in_stock"},
	StoreColumns:     []string{"store", "store_name", "advertiser", "merchant"},
	Required: [][]string{
		{"product_name", "name", "title"},
		{"price", "product_price", "sale_price"},
	},
}

// SheetDialect covers the curated Google-Sheets CSV export.
var SheetDialect = Dialect{
	Name:            "sheet",
	NameColumns:     []string{"name", "product_name"},
	URLColumns:      []string{"url", "product_url", "link"},
	PriceColumns:    []string{"price"},
	CurrencyColumns: []string{"currency"},
	CategoryColumns: []string{"category"},
	ImageColumns:    []string{"image_url", "image"},
	GTINColumns:     []string{"gtin", "ean"},
	StockColumns:    []string{"availability", "in_stock"},
	StoreColumns:    []string{"store", "store_name"},
	Required: [][]string{
		{"name", "product_name"},
		{"price"},
	},
}

// ParseCSV parses an affiliate network CSV export.
func ParseCSV(content string) (*ParseResult, error) {
	return ParseCSVDialect(content, AffiliateDialect)
}

// ParseSheetCSV parses the curated sheet CSV export.
func ParseSheetCSV(content string) (*ParseResult, error) {
	return ParseCSVDialect(content, SheetDialect)
}

// ParseCSVDialect parses a CSV feed with the given dialect. Structural
// problems (empty file, unusable header) return an error; row-level
// problems are recorded in the result and never abort the parse.
func ParseCSVDialect(content string, dialect Dialect) (*ParseResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	columns := indexColumns(header)

	var missing []string
	for _, aliases := range dialect.Required {
		if _, ok := findColumn(columns, aliases); !ok {
			missing = append(missing, aliases[0])
		}
	}
	if len(missing) > 0 {
		return nil, &HeaderError{Missing: missing}
	}

	result := &ParseResult{}
	seen := make(map[string]bool)
	rowNum := 1 // header was row 1

	for {
		rowNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalDataRows++
			result.addSkip(rowNum, models.SkipInvalidRow, err.Error())
			continue
		}
		result.TotalDataRows++

		name := strings.TrimSpace(cell(row, columns, dialect.NameColumns))
		if name == "" {
			result.addSkip(rowNum, models.SkipMissingName, "empty product name")
			continue
		}

		// Affiliate deeplink takes priority over the plain product URL.
		url := strings.TrimSpace(cell(row, columns, dialect.AffiliateColumns))
		if url == "" {
			url = strings.TrimSpace(cell(row, columns, dialect.URLColumns))
		}
		if url == "" {
			// The affiliate reason only applies when the header actually
			// carries an affiliate column whose cell is empty.
			reason := models.SkipMissingAnyURL
			if _, ok := findColumn(columns, dialect.AffiliateColumns); ok {
				reason = models.SkipMissingAffiliateURL
			}
			result.addSkip(rowNum, reason, "no usable URL")
			continue
		}

		price, err := parsePrice(cell(row, columns, dialect.PriceColumns))
		if err != nil {
			result.addSkip(rowNum, models.SkipInvalidPrice, err.Error())
			continue
		}

		currency := strings.ToUpper(strings.TrimSpace(cell(row, columns, dialect.CurrencyColumns)))
		if currency == "" {
			result.addSkip(rowNum, models.SkipInvalidCurrency, "missing currency")
			continue
		}

		store := strings.TrimSpace(cell(row, columns, dialect.StoreColumns))
		dedupKey := name + "\x00" + strings.ToLower(store) + "\x00" + url
		if seen[dedupKey] {
			result.addSkip(rowNum, models.SkipDedupedDuplicate, "duplicate row in feed")
			continue
		}
		seen[dedupKey] = true

		result.Rows = append(result.Rows, models.NormalizedRecord{
			Row:       rowNum,
			Name:      name,
			StoreName: store,
			URL:       url,
			Price:     price,
			Currency:  currency,
			Category:  strings.TrimSpace(cell(row, columns, dialect.CategoryColumns)),
			ImageURL:  strings.TrimSpace(cell(row, columns, dialect.ImageColumns)),
			GTIN:      strings.TrimSpace(cell(row, columns, dialect.GTINColumns)),
			InStock:   MapAvailability(cell(row, columns, dialect.StockColumns)),
		})
	}

	return result, nil
}

// parsePrice parses a feed price cell. Feeds disagree on decimal
// separators, so a lone comma is treated as a decimal point.
func parsePrice(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, errors.New("empty price")
	}
	if strings.Count(cleaned, ",") == 1 && !strings.Contains(cleaned, ".") {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q", raw)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("non-positive price %q", raw)
	}
	return price, nil
}

// outOfStockSynonyms are the availability spellings that explicitly signal
// an unavailable offer. Anything not matching defaults to in stock.
var outOfStockSynonyms = []string{
	"out of stock",
	"outofstock",
	"oos",
	"sold out",
	"unavailable",
	"not available",
	"indisponibil",
	"stoc epuizat",
	"0",
	"false",
	"no",
}

// MapAvailability normalizes free-text feed availability to a boolean
// in-stock flag. Unknown text is treated optimistically as in stock.
func MapAvailability(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return true
	}
	for _, synonym := range outOfStockSynonyms {
		if normalized == synonym {
			return false
		}
	}
	return true
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, exists := columns[key]; !exists {
			columns[key] = i
		}
	}
	return columns
}

func findColumn(columns map[string]int, aliases []string) (int, bool) {
	for _, alias := range aliases {
		if idx, ok := columns[alias]; ok {
			return idx, true
		}
	}
	return 0, false
}

func cell(row []string, columns map[string]int, aliases []string) string {
	idx, ok := findColumn(columns, aliases)
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
