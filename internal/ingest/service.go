package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"priceradar/internal/models"
	"priceradar/internal/store"
)

// batchSize bounds how many records one processing chunk covers, to keep
// memory and transaction size predictable for very large feeds.
const batchSize = 100

// ChangePublisher receives listing price changes after a run. Publishing is
// best effort: failures are logged and never fail the run.
type ChangePublisher interface {
	PublishPriceChanges(ctx context.Context, changes []models.PriceChange) error
}

// ImportOptions carries per-run settings for the orchestrator.
type ImportOptions struct {
	// Source tags created/updated listings: manual, sheet or affiliate.
	Source string
	// DefaultCountry applies to stores the registry does not know.
	DefaultCountry string
	// StartRow is the source row number of the first record, used for error
	// messages when records do not carry their own row number.
	StartRow int
	// ValidateURLs rejects listings whose URL is not syntactically usable.
	ValidateURLs bool
	// ReplaceListings deletes a product's existing listings before
	// recreating them from the batch (full-catalog reseed).
	ReplaceListings bool
	// BlockedStoreDomains rejects listings from disallowed retailers.
	BlockedStoreDomains []string
}

// IngestResult is the slim summary of the simple product-ingest path.
type IngestResult struct {
	Count      int      `json:"count"`
	ProductIDs []string `json:"productIds"`
}

// Service drives ingestion batches end to end against the persistent store.
type Service struct {
	store     store.Store
	publisher ChangePublisher
	validate  *validator.Validate
}

// NewService builds the orchestrator. publisher may be nil to disable
// price-change events.
func NewService(st store.Store, publisher ChangePublisher) *Service {
	return &Service{
		store:     st,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// ImportFeed ingests a batch of provider-neutral records. Records are
// processed sequentially so later rows observe products created by earlier
// rows in the same run; one bad row never aborts the batch. The summary is
// always returned, even when every row failed.
func (s *Service) ImportFeed(ctx context.Context, records []models.NormalizedRecord, opts ImportOptions) *models.ImportSummary {
	summary := &models.ImportSummary{}
	if opts.StartRow == 0 {
		opts.StartRow = 2 // row 1 is the feed header
	}

	// Products matched or created earlier in this run, keyed by exact name.
	seen := make(map[string]*models.Product)
	var changes []models.PriceChange

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		summary.Batches++

		for i := start; i < end; i++ {
			record := records[i]
			rowNum := record.Row
			if rowNum == 0 {
				rowNum = opts.StartRow + i
			}

			if IsBlockedListing(record.StoreName, record.URL, opts.BlockedStoreDomains) {
				summary.BlockedListings++
				logrus.WithFields(logrus.Fields{
					"row":   rowNum,
					"store": record.StoreName,
				}).Warn("Rejected listing from blocked store")
				continue
			}

			change, err := s.ingestRecord(ctx, record, opts, seen, summary)
			if err != nil {
				logrus.WithError(err).WithField("row", rowNum).Error("Failed to ingest record")
				summary.AddError(rowNum, storageErrorCode(err), err.Error())
				continue
			}
			if change != nil {
				changes = append(changes, *change)
			}
		}
	}

	s.publishChanges(ctx, changes)

	logrus.WithFields(logrus.Fields{
		"products_created": summary.ProductsCreated,
		"products_matched": summary.ProductsMatched,
		"listings_created": summary.ListingsCreated,
		"listings_updated": summary.ListingsUpdated,
		"failed_rows":      summary.FailedRows,
		"source":           opts.Source,
	}).Info("Import run finished")
	return summary
}

// ingestRecord upserts one record's product and, when it has a usable URL,
// its listing. Returns a price change when an existing listing's price
// moved.
func (s *Service) ingestRecord(ctx context.Context, record models.NormalizedRecord, opts ImportOptions, seen map[string]*models.Product, summary *models.ImportSummary) (*models.PriceChange, error) {
	name := strings.TrimSpace(record.Name)
	if name == "" {
		return nil, fmt.Errorf("record has no product name")
	}

	product, err := s.upsertProductByName(ctx, name, record, opts, seen, summary)
	if err != nil {
		return nil, err
	}

	hasURL := record.URL != "" && (!opts.ValidateURLs || ValidListingURL(record.URL))
	if !hasURL {
		// A listing without a resolvable URL cannot be matched or clicked
		// through; the product upsert above still counts.
		summary.ProductOnlyRows++
		return nil, nil
	}
	summary.ListingRows++

	storeInfo := NormalizeStore(record.StoreName, opts.DefaultCountry)
	existing, err := s.store.FindListings(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	key := NewListingKey(product.ID, storeInfo.Name, record.URL)
	if matched := MatchListing(existing, key); matched != nil {
		var change *models.PriceChange
		if matched.Price != record.Price {
			change = &models.PriceChange{
				ProductID: product.ID,
				StoreName: matched.StoreName,
				URL:       matched.URL,
				OldPrice:  matched.Price,
				NewPrice:  record.Price,
				Currency:  record.Currency,
			}
		}
		matched.Price = record.Price
		matched.PriceCents = PriceCents(record.Price)
		matched.Currency = record.Currency
		matched.InStock = record.InStock
		matched.Source = opts.Source
		matched.Tags = providerTags(record)
		if err := s.store.UpdateListing(ctx, matched); err != nil {
			return nil, err
		}
		summary.ListingsUpdated++
		return change, nil
	}

	listing := &models.Listing{
		ProductID:  product.ID,
		StoreName:  storeInfo.Name,
		URL:        record.URL,
		Price:      record.Price,
		PriceCents: PriceCents(record.Price),
		Currency:   record.Currency,
		InStock:    record.InStock,
		Source:     opts.Source,
		Tags:       providerTags(record),
	}
	if err := s.store.CreateListing(ctx, listing); err != nil {
		return nil, err
	}
	summary.ListingsCreated++
	return nil, nil
}

// upsertProductByName finds a product by exact name or creates it. Name
// matching is deliberately exact: near-duplicate names from different feeds
// create separate products, which is an accepted limitation for the current
// catalog size.
func (s *Service) upsertProductByName(ctx context.Context, name string, record models.NormalizedRecord, opts ImportOptions, seen map[string]*models.Product, summary *models.ImportSummary) (*models.Product, error) {
	if product, ok := seen[name]; ok {
		return product, nil
	}

	product, err := s.store.FindProductByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if product != nil {
		updated := false
		if product.Category == "" {
			if slug := InferCategorySlug(CategoryInput{Title: name, FeedCategory: record.Category}); slug != "" {
				product.Category = slug
				updated = true
			}
		}
		if product.ImageURL == "" && record.ImageURL != "" {
			product.ImageURL = record.ImageURL
			updated = true
		}
		if updated {
			if err := s.store.UpdateProduct(ctx, product); err != nil {
				return nil, err
			}
		}
		summary.ProductsMatched++
		seen[name] = product
		return product, nil
	}

	product = &models.Product{
		ID:          uuid.NewString(),
		Name:        name,
		DisplayName: name,
		Category:    InferCategorySlug(CategoryInput{Title: name, FeedCategory: record.Category}),
		Brand:       DetectBrand(name, ""),
		ImageURL:    record.ImageURL,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	summary.ProductsCreated++
	seen[name] = product
	return product, nil
}

// ImportProducts ingests rich product payloads (manual admin entry or
// curated seed imports), including nested listings and history.
func (s *Service) ImportProducts(ctx context.Context, inputs []models.ProductInput, opts ImportOptions) (*models.ImportSummary, []string) {
	summary := &models.ImportSummary{}
	if opts.StartRow == 0 {
		opts.StartRow = 1
	}
	if opts.Source == "" {
		opts.Source = models.SourceManual
	}

	var productIDs []string
	var changes []models.PriceChange

	for i, input := range inputs {
		rowNum := opts.StartRow + i

		if err := s.validate.Struct(&input); err != nil {
			summary.AddSkip(rowNum, models.SkipInvalidRow, err.Error())
			continue
		}

		product, created, err := s.upsertProductInput(ctx, input)
		if err != nil {
			logrus.WithError(err).WithField("row", rowNum).Error("Failed to upsert product")
			summary.AddError(rowNum, storageErrorCode(err), err.Error())
			continue
		}
		if created {
			summary.ProductsCreated++
		} else {
			summary.ProductsMatched++
		}
		productIDs = append(productIDs, product.ID)

		if opts.ReplaceListings {
			if _, err := s.store.DeleteListings(ctx, product.ID); err != nil {
				summary.AddError(rowNum, storageErrorCode(err), err.Error())
				continue
			}
		}

		rowChanges, err := s.ingestInputListings(ctx, product, input.Listings, opts, summary)
		if err != nil {
			summary.AddError(rowNum, storageErrorCode(err), err.Error())
			continue
		}
		changes = append(changes, rowChanges...)

		if len(input.History) > 0 {
			if err := s.store.ReplaceHistory(ctx, product.ID, historyPoints(input.History)); err != nil {
				summary.AddError(rowNum, storageErrorCode(err), err.Error())
			}
		}
	}

	s.publishChanges(ctx, changes)
	return summary, productIDs
}

// IngestProducts is the simple ingestion path: upsert products and return
// how many were processed along with their IDs.
func (s *Service) IngestProducts(ctx context.Context, inputs []models.ProductInput, opts ImportOptions) *IngestResult {
	_, ids := s.ImportProducts(ctx, inputs, opts)
	return &IngestResult{Count: len(ids), ProductIDs: ids}
}

func (s *Service) upsertProductInput(ctx context.Context, input models.ProductInput) (*models.Product, bool, error) {
	var product *models.Product
	var err error

	if input.ID != "" {
		product, err = s.store.FindProductByID(ctx, input.ID)
	} else {
		product, err = s.store.FindProductByName(ctx, input.Name)
	}
	if err != nil {
		return nil, false, err
	}

	category := InferCategorySlug(CategoryInput{
		Title:                input.Name,
		Description:          input.Description,
		ExplicitCategorySlug: input.Category,
	})
	brand := DetectBrand(input.Name, input.Brand)

	if product != nil {
		product.DisplayName = displayName(input)
		product.Description = input.Description
		if category != "" {
			product.Category = category
		}
		if brand != "Unknown" || product.Brand == "" {
			product.Brand = brand
		}
		if input.ImageURL != "" {
			product.ImageURL = input.ImageURL
		}
		return product, false, s.store.UpdateProduct(ctx, product)
	}

	product = &models.Product{
		ID:          input.ID,
		Name:        input.Name,
		DisplayName: displayName(input),
		Description: input.Description,
		Category:    category,
		Brand:       brand,
		ImageURL:    input.ImageURL,
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	return product, true, s.store.CreateProduct(ctx, product)
}

func (s *Service) ingestInputListings(ctx context.Context, product *models.Product, inputs []models.ListingInput, opts ImportOptions, summary *models.ImportSummary) ([]models.PriceChange, error) {
	if len(inputs) == 0 {
		summary.ProductOnlyRows++
		return nil, nil
	}

	existing, err := s.store.FindListings(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	var changes []models.PriceChange
	for _, in := range inputs {
		if IsBlockedListing(in.StoreName, in.URL, opts.BlockedStoreDomains) {
			summary.BlockedListings++
			continue
		}
		if in.URL == "" || (opts.ValidateURLs && !ValidListingURL(in.URL)) {
			summary.ProductOnlyRows++
			continue
		}
		summary.ListingRows++

		storeInfo := NormalizeStore(in.StoreName, opts.DefaultCountry)
		inStock := true
		if in.InStock != nil {
			inStock = *in.InStock
		}

		key := NewListingKey(product.ID, storeInfo.Name, in.URL)
		if matched := MatchListing(existing, key); matched != nil {
			if matched.Price != in.Price {
				changes = append(changes, models.PriceChange{
					ProductID: product.ID,
					StoreName: matched.StoreName,
					URL:       matched.URL,
					OldPrice:  matched.Price,
					NewPrice:  in.Price,
					Currency:  in.Currency,
				})
			}
			matched.Price = in.Price
			matched.PriceCents = PriceCents(in.Price)
			matched.Currency = in.Currency
			matched.ShippingCost = in.ShippingCost
			matched.DeliveryDays = in.DeliveryDays
			matched.FastDelivery = in.FastDelivery
			matched.InStock = inStock
			matched.Source = opts.Source
			if err := s.store.UpdateListing(ctx, matched); err != nil {
				return changes, err
			}
			summary.ListingsUpdated++
			continue
		}

		listing := &models.Listing{
			ProductID:    product.ID,
			StoreName:    storeInfo.Name,
			URL:          in.URL,
			Price:        in.Price,
			PriceCents:   PriceCents(in.Price),
			Currency:     in.Currency,
			ShippingCost: in.ShippingCost,
			DeliveryDays: in.DeliveryDays,
			FastDelivery: in.FastDelivery,
			InStock:      inStock,
			Source:       opts.Source,
		}
		if err := s.store.CreateListing(ctx, listing); err != nil {
			return changes, err
		}
		summary.ListingsCreated++
	}
	return changes, nil
}

// ReinferCategories runs category inference over every uncategorized
// product. Safe to re-run: inference never overrides an assigned category.
func (s *Service) ReinferCategories(ctx context.Context) (int, error) {
	products, err := s.store.FindProducts(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range products {
		p := &products[i]
		slug := InferCategorySlug(CategoryInput{
			Title:                p.Name,
			Description:          p.Description,
			ExplicitCategorySlug: p.Category,
		})
		if slug == p.Category || slug == "" {
			continue
		}
		p.Category = slug
		if err := s.store.UpdateProduct(ctx, p); err != nil {
			logrus.WithError(err).WithField("product_id", p.ID).Error("Failed to update category")
			continue
		}
		updated++
	}
	logrus.WithField("updated", updated).Info("Category re-inference finished")
	return updated, nil
}

// CleanupDemoProducts removes synthetic demo products with their listings
// and history.
func (s *Service) CleanupDemoProducts(ctx context.Context) (int64, error) {
	return s.store.DeleteDemoProducts(ctx)
}

func (s *Service) publishChanges(ctx context.Context, changes []models.PriceChange) {
	if s.publisher == nil || len(changes) == 0 {
		return
	}
	if err := s.publisher.PublishPriceChanges(ctx, changes); err != nil {
		logrus.WithError(err).Error("Failed to publish price changes")
	}
}

// PriceCents converts a price to integer cents, clamped so extreme feed
// values never overflow a 32-bit column.
func PriceCents(price float64) int32 {
	cents := math.Round(price * 100)
	if cents >= math.MaxInt32 {
		return math.MaxInt32
	}
	if cents <= 0 {
		return 0
	}
	return int32(cents)
}

func providerTags(record models.NormalizedRecord) datatypes.JSON {
	if record.Provider == "" && record.Program == "" {
		return nil
	}
	return datatypes.JSON(fmt.Sprintf(`{"provider":%q,"program":%q}`, record.Provider, record.Program))
}

func displayName(input models.ProductInput) string {
	if input.DisplayName != "" {
		return input.DisplayName
	}
	return input.Name
}

func historyPoints(inputs []models.HistoryInput) []models.PricePoint {
	var points []models.PricePoint
	for _, h := range inputs {
		if h.Price <= 0 {
			continue
		}
		points = append(points, models.PricePoint{
			Date:      parseHistoryDate(h.Date),
			Price:     h.Price,
			Currency:  h.Currency,
			StoreName: h.StoreName,
		})
	}
	return points
}

// parseHistoryDate accepts exact dates and month-granularity values.
func parseHistoryDate(raw string) time.Time {
	for _, layout := range []string{"2006-01-02", "2006-01", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}

func storageErrorCode(err error) string {
	if err == nil {
		return ""
	}
	return "storage_error"
}
