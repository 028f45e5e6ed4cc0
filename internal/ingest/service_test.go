package ingest

import (
	"context"
	"math"
	"testing"

	"priceradar/internal/models"
	"priceradar/internal/store"
)

const widgetCSV = "product_name,affiliate_url,price,currency,store\n" +
	"Widget X,https://emag.ro/widget-x,10.00,RON,eMAG\n" +
	"Widget X,https://altex.ro/widget-x,12.00,RON,Altex\n"

func importWidgetCSV(t *testing.T, service *Service) *models.ImportSummary {
	t.Helper()
	result, err := ParseCSV(widgetCSV)
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}
	return service.ImportFeed(context.Background(), result.Rows, ImportOptions{
		Source:         models.SourceAffiliate,
		DefaultCountry: "RO",
		ValidateURLs:   true,
	})
}

func TestImportFeedEndToEnd(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)

	summary := importWidgetCSV(t, service)
	if summary.ProductsCreated != 1 || summary.ProductsMatched != 0 {
		t.Errorf("first run products: created=%d matched=%d, want 1/0",
			summary.ProductsCreated, summary.ProductsMatched)
	}
	if summary.ListingsCreated != 2 || summary.ListingsUpdated != 0 {
		t.Errorf("first run listings: created=%d updated=%d, want 2/0",
			summary.ListingsCreated, summary.ListingsUpdated)
	}
	if summary.FailedRows != 0 {
		t.Errorf("FailedRows = %d, want 0: %+v", summary.FailedRows, summary.Errors)
	}

	product, err := st.FindProductByName(context.Background(), "Widget X")
	if err != nil || product == nil {
		t.Fatalf("product not persisted: %v", err)
	}
	listings, _ := st.FindListings(context.Background(), product.ID)
	if len(listings) != 2 {
		t.Fatalf("persisted listings = %d, want 2", len(listings))
	}
}

func TestImportFeedIdempotence(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)

	importWidgetCSV(t, service)
	second := importWidgetCSV(t, service)

	if second.ProductsCreated != 0 || second.ProductsMatched != 1 {
		t.Errorf("second run products: created=%d matched=%d, want 0/1",
			second.ProductsCreated, second.ProductsMatched)
	}
	if second.ListingsCreated != 0 || second.ListingsUpdated != 2 {
		t.Errorf("second run listings: created=%d updated=%d, want 0/2",
			second.ListingsCreated, second.ListingsUpdated)
	}

	product, _ := st.FindProductByName(context.Background(), "Widget X")
	listings, _ := st.FindListings(context.Background(), product.ID)
	if len(listings) != 2 {
		t.Fatalf("net listings after re-run = %d, want 2", len(listings))
	}
}

func TestImportFeedProductOnlyRows(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)

	records := []models.NormalizedRecord{
		{Name: "Widget Y", StoreName: "eMAG", Price: 10, Currency: "RON"}, // no URL
		{Name: "Widget Y", StoreName: "Altex", URL: "https://altex.ro/y", Price: 11, Currency: "RON"},
	}
	summary := service.ImportFeed(context.Background(), records, ImportOptions{
		Source: models.SourceAffiliate, ValidateURLs: true,
	})

	if summary.ProductOnlyRows != 1 || summary.ListingRows != 1 {
		t.Errorf("productOnly=%d listingRows=%d, want 1/1", summary.ProductOnlyRows, summary.ListingRows)
	}
	if summary.ProductsCreated != 1 || summary.ListingsCreated != 1 {
		t.Errorf("created products=%d listings=%d, want 1/1", summary.ProductsCreated, summary.ListingsCreated)
	}
}

func TestImportFeedBlockedStore(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)

	records := []models.NormalizedRecord{
		{Name: "Widget Z", StoreName: "BadShop", URL: "https://badshop.example/z", Price: 5, Currency: "RON"},
	}
	summary := service.ImportFeed(context.Background(), records, ImportOptions{
		Source:              models.SourceAffiliate,
		BlockedStoreDomains: []string{"badshop.example"},
	})

	if summary.BlockedListings != 1 {
		t.Errorf("BlockedListings = %d, want 1", summary.BlockedListings)
	}
	if summary.ProductsCreated != 0 || summary.ListingsCreated != 0 {
		t.Errorf("blocked row must not create anything: %+v", summary)
	}
}

func TestImportFeedUpdatesListingPrice(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)
	ctx := context.Background()

	records := []models.NormalizedRecord{
		{Name: "Widget P", StoreName: "eMAG", URL: "https://emag.ro/p", Price: 100, Currency: "RON", InStock: true},
	}
	service.ImportFeed(ctx, records, ImportOptions{Source: models.SourceAffiliate})

	records[0].Price = 80
	records[0].InStock = false
	summary := service.ImportFeed(ctx, records, ImportOptions{Source: models.SourceAffiliate})
	if summary.ListingsUpdated != 1 {
		t.Fatalf("ListingsUpdated = %d, want 1", summary.ListingsUpdated)
	}

	product, _ := st.FindProductByName(ctx, "Widget P")
	listings, _ := st.FindListings(ctx, product.ID)
	if len(listings) != 1 {
		t.Fatalf("listings = %d, want 1 (updated in place)", len(listings))
	}
	if listings[0].Price != 80 || listings[0].PriceCents != 8000 {
		t.Errorf("price not updated: %v / %d cents", listings[0].Price, listings[0].PriceCents)
	}
	if listings[0].InStock {
		t.Error("stock flag not updated")
	}
}

func TestImportFeedOneBadRowDoesNotAbort(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)

	records := []models.NormalizedRecord{
		{Name: "", StoreName: "eMAG", URL: "https://emag.ro/a", Price: 1, Currency: "RON"},
		{Name: "Good Product", StoreName: "eMAG", URL: "https://emag.ro/b", Price: 2, Currency: "RON"},
	}
	summary := service.ImportFeed(context.Background(), records, ImportOptions{StartRow: 2})

	if summary.FailedRows != 1 {
		t.Fatalf("FailedRows = %d, want 1", summary.FailedRows)
	}
	if summary.Errors[0].RowNumber != 2 {
		t.Errorf("error row = %d, want 2", summary.Errors[0].RowNumber)
	}
	if summary.ProductsCreated != 1 {
		t.Errorf("good row not processed: %+v", summary)
	}
}

func TestImportFeedErrorRowsReferenceSourceFile(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)

	// Source rows 2 and 4 were dropped by the parser; the surviving records
	// carry their original positions, and a downstream failure must report
	// those, not the index in the filtered slice.
	records := []models.NormalizedRecord{
		{Row: 3, Name: "Good Product", StoreName: "eMAG", URL: "https://emag.ro/g", Price: 10, Currency: "RON"},
		{Row: 5, Name: "", StoreName: "eMAG", URL: "https://emag.ro/b", Price: 12, Currency: "RON"},
	}
	summary := service.ImportFeed(context.Background(), records, ImportOptions{StartRow: 2})

	if summary.FailedRows != 1 {
		t.Fatalf("FailedRows = %d, want 1", summary.FailedRows)
	}
	if summary.Errors[0].RowNumber != 5 {
		t.Errorf("error row = %d, want source row 5", summary.Errors[0].RowNumber)
	}
}

func TestImportProductsByExplicitID(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)
	ctx := context.Background()

	inputs := []models.ProductInput{{
		ID:       "prod-1",
		Name:     "Samsung Galaxy S24",
		Category: "Phones",
		Listings: []models.ListingInput{
			{StoreName: "emag", URL: "https://emag.ro/s24", Price: 3999, Currency: "RON"},
		},
		History: []models.HistoryInput{
			{Date: "2026-06", Price: 4500, Currency: "RON"},
			{Date: "2026-07", Price: 4400, Currency: "RON"},
			{Date: "2026-08", Price: 4300, Currency: "RON"},
		},
	}}

	summary, ids := service.ImportProducts(ctx, inputs, ImportOptions{})
	if summary.ProductsCreated != 1 || len(ids) != 1 || ids[0] != "prod-1" {
		t.Fatalf("first import: %+v ids=%v", summary, ids)
	}

	// Same explicit ID on a later run updates, never re-creates.
	summary, ids = service.ImportProducts(ctx, inputs, ImportOptions{})
	if summary.ProductsCreated != 0 || summary.ProductsMatched != 1 {
		t.Errorf("second import: created=%d matched=%d, want 0/1",
			summary.ProductsCreated, summary.ProductsMatched)
	}
	if len(ids) != 1 || ids[0] != "prod-1" {
		t.Errorf("ids = %v, want [prod-1]", ids)
	}

	product, _ := st.FindProductByID(ctx, "prod-1")
	if product.Category != "Phones" {
		t.Errorf("Category = %q, want Phones", product.Category)
	}
	// Store name normalized through the registry.
	listings, _ := st.FindListings(ctx, "prod-1")
	if len(listings) != 1 || listings[0].StoreName != "eMAG" {
		t.Errorf("listings = %+v, want one eMAG listing", listings)
	}
	history, _ := st.FindHistory(ctx, "prod-1")
	if len(history) != 3 {
		t.Errorf("history points = %d, want 3 (replaced, not appended)", len(history))
	}
}

func TestImportProductsReseedReplacesListings(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)
	ctx := context.Background()

	first := []models.ProductInput{{
		ID:   "prod-2",
		Name: "Widget R",
		Listings: []models.ListingInput{
			{StoreName: "eMAG", URL: "https://emag.ro/r", Price: 10, Currency: "RON"},
			{StoreName: "Altex", URL: "https://altex.ro/r", Price: 11, Currency: "RON"},
		},
	}}
	service.ImportProducts(ctx, first, ImportOptions{})

	reseed := []models.ProductInput{{
		ID:   "prod-2",
		Name: "Widget R",
		Listings: []models.ListingInput{
			{StoreName: "Flanco", URL: "https://flanco.ro/r", Price: 9, Currency: "RON"},
		},
	}}
	service.ImportProducts(ctx, reseed, ImportOptions{ReplaceListings: true})

	listings, _ := st.FindListings(ctx, "prod-2")
	if len(listings) != 1 || listings[0].StoreName != "Flanco" {
		t.Errorf("reseed kept stale listings: %+v", listings)
	}
}

func TestImportProductsValidation(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)

	inputs := []models.ProductInput{
		{Name: ""}, // invalid: name required
		{Name: "Valid Product"},
	}
	summary, ids := service.ImportProducts(context.Background(), inputs, ImportOptions{})
	if summary.Skips[models.SkipInvalidRow] != 1 {
		t.Errorf("invalid_row skips = %d, want 1", summary.Skips[models.SkipInvalidRow])
	}
	if len(ids) != 1 {
		t.Errorf("ids = %v, want one", ids)
	}
}

func TestIngestProducts(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)

	result := service.IngestProducts(context.Background(), []models.ProductInput{
		{Name: "A"}, {Name: "B"},
	}, ImportOptions{})
	if result.Count != 2 || len(result.ProductIDs) != 2 {
		t.Errorf("IngestProducts = %+v, want count 2", result)
	}
}

func TestReinferCategoriesIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)
	ctx := context.Background()

	st.CreateProduct(ctx, &models.Product{ID: "p1", Name: "Dell XPS 13 laptop"})
	st.CreateProduct(ctx, &models.Product{ID: "p2", Name: "Garden hose 20m"})
	st.CreateProduct(ctx, &models.Product{ID: "p3", Name: "Some gadget", Category: "Phones"})

	updated, err := service.ReinferCategories(ctx)
	if err != nil {
		t.Fatalf("ReinferCategories returned error: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	p1, _ := st.FindProductByID(ctx, "p1")
	if p1.Category != "Laptops" {
		t.Errorf("p1 category = %q, want Laptops", p1.Category)
	}
	p2, _ := st.FindProductByID(ctx, "p2")
	if p2.Category != "" {
		t.Errorf("p2 category = %q, want uncategorized", p2.Category)
	}
	p3, _ := st.FindProductByID(ctx, "p3")
	if p3.Category != "Phones" {
		t.Errorf("p3 category = %q, want untouched Phones", p3.Category)
	}

	// Second sweep changes nothing.
	updated, _ = service.ReinferCategories(ctx)
	if updated != 0 {
		t.Errorf("second sweep updated = %d, want 0", updated)
	}
}

func TestCleanupDemoProducts(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewService(st, nil)
	ctx := context.Background()

	st.CreateProduct(ctx, &models.Product{ID: "demo", Name: "Demo Product", IsDemo: true})
	st.CreateListing(ctx, &models.Listing{ProductID: "demo", StoreName: "eMAG", URL: "https://emag.ro/demo"})
	st.CreateProduct(ctx, &models.Product{ID: "real", Name: "Real Product"})

	deleted, err := service.CleanupDemoProducts(ctx)
	if err != nil {
		t.Fatalf("CleanupDemoProducts returned error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if p, _ := st.FindProductByID(ctx, "demo"); p != nil {
		t.Error("demo product still present")
	}
	if listings, _ := st.FindListings(ctx, "demo"); len(listings) != 0 {
		t.Error("demo listings still present")
	}
	if p, _ := st.FindProductByID(ctx, "real"); p == nil {
		t.Error("real product was deleted")
	}
}

func TestPriceCentsClamp(t *testing.T) {
	tests := []struct {
		price float64
		want  int32
	}{
		{10.00, 1000},
		{12.34, 1234},
		{0, 0},
		{-3, 0},
		{21474836.48, math.MaxInt32},
		{99999999999, math.MaxInt32},
	}
	for _, tt := range tests {
		if got := PriceCents(tt.price); got != tt.want {
			t.Errorf("PriceCents(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}
