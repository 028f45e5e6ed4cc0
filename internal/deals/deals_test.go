package deals

import (
	"testing"

	"priceradar/internal/models"
)

func f(v float64) *float64 { return &v }

func TestComputeDiscountPercent(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		avg     *float64
		want    *int
	}{
		{"plain discount", 80, f(100), intPtr(20)},
		{"no change", 100, f(100), intPtr(0)},
		{"price increase", 120, f(100), intPtr(-20)},
		{"nil average", 100, nil, nil},
		{"zero average", 100, f(0), nil},
		{"negative average", 100, f(-10), nil},
		{"clamped to 90", 5, f(100), intPtr(90)},
		{"rounding", 66.6, f(100), intPtr(33)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscountPercent(tt.current, tt.avg)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ComputeDiscountPercent(%v, %v) = %v, want %v", tt.current, tt.avg, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ComputeDiscountPercent(%v, %v) = %d, want %d", tt.current, tt.avg, *got, *tt.want)
			}
		})
	}
}

func TestIsGreatDeal(t *testing.T) {
	if IsGreatDeal(nil) {
		t.Error("nil discount must not be a great deal")
	}
	if IsGreatDeal(intPtr(14)) {
		t.Error("14 percent is below the threshold")
	}
	if !IsGreatDeal(intPtr(15)) {
		t.Error("15 percent must be a great deal")
	}
}

func TestBestCurrentPrice(t *testing.T) {
	listings := []models.Listing{
		{Price: 120},
		{Price: 0},
		{Price: 99.5},
		{Price: -4},
	}
	best, ok := BestCurrentPrice(listings)
	if !ok || best != 99.5 {
		t.Errorf("BestCurrentPrice = %v/%v, want 99.5/true", best, ok)
	}

	if _, ok := BestCurrentPrice([]models.Listing{{Price: 0}}); ok {
		t.Error("no valid price must report false")
	}
	if _, ok := BestCurrentPrice(nil); ok {
		t.Error("empty listings must report false")
	}
}

func TestAverageHistoricalPrice(t *testing.T) {
	points := []models.PricePoint{
		{Price: 100}, {Price: 110}, {Price: 120}, {Price: 0},
	}
	avg := AverageHistoricalPrice(points)
	if avg == nil || *avg != 110 {
		t.Fatalf("AverageHistoricalPrice = %v, want 110", avg)
	}

	// Fewer than three valid points is not meaningful.
	if got := AverageHistoricalPrice(points[:2]); got != nil {
		t.Errorf("two points produced average %v", *got)
	}
	if got := AverageHistoricalPrice(nil); got != nil {
		t.Errorf("empty history produced average %v", *got)
	}
}

func TestDiscountForProduct(t *testing.T) {
	listings := []models.Listing{{Price: 80}, {Price: 95}}
	history := []models.PricePoint{{Price: 100}, {Price: 100}, {Price: 100}}

	got := DiscountForProduct(listings, history)
	if got == nil || *got != 20 {
		t.Fatalf("DiscountForProduct = %v, want 20", got)
	}

	if got := DiscountForProduct(nil, history); got != nil {
		t.Errorf("no listings produced discount %v", *got)
	}
	if got := DiscountForProduct(listings, history[:2]); got != nil {
		t.Errorf("short history produced discount %v", *got)
	}
}

func intPtr(v int) *int { return &v }
