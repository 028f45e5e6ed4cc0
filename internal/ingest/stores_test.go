package ingest

import "testing"

func TestNormalizeStore(t *testing.T) {
	tests := []struct {
		raw         string
		wantName    string
		wantCountry string
	}{
		{"emag", "eMAG", "RO"},
		{"eMAG", "eMAG", "RO"},
		{"emag.ro", "eMAG", "RO"},
		{"PC Garage", "PC Garage", "RO"},
		{"altex", "Altex", "RO"},
		{"Some Unknown Shop", "Some Unknown Shop", "DE"},
	}
	for _, tt := range tests {
		got := NormalizeStore(tt.raw, "DE")
		if got.Name != tt.wantName {
			t.Errorf("NormalizeStore(%q).Name = %q, want %q", tt.raw, got.Name, tt.wantName)
		}
		if got.Country != tt.wantCountry {
			t.Errorf("NormalizeStore(%q).Country = %q, want %q", tt.raw, got.Country, tt.wantCountry)
		}
	}
}

func TestNormalizeStoreKnownStoresHaveLogos(t *testing.T) {
	if info := NormalizeStore("emag", "RO"); info.LogoURL == "" {
		t.Error("known store has no logo URL")
	}
	if info := NormalizeStore("No Such Store", "RO"); info.LogoURL != "" {
		t.Errorf("unknown store got logo %q", info.LogoURL)
	}
}

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		want     string
	}{
		{"Samsung Galaxy S24", "", "Samsung"},
		{"iPhone 15 Pro Max", "", "Apple"},
		{"MacBook Air 13", "", "Apple"},
		{"Laptop ASUS VivoBook", "", "Asus"},
		{"Mystery Gadget 3000", "", "Unknown"},
		{"Samsung Galaxy S24", "Samsung Electronics", "Samsung Electronics"},
		{"", "", "Unknown"},
	}
	for _, tt := range tests {
		if got := DetectBrand(tt.name, tt.explicit); got != tt.want {
			t.Errorf("DetectBrand(%q, %q) = %q, want %q", tt.name, tt.explicit, got, tt.want)
		}
	}
}
