package importer

import (
	"testing"

	"tour_sales_backend/internal/models"

	"github.com/shopspring/decimal"
)

func testCatalog() []models.Tour {
	return []models.Tour{
		{ID: 1, Name: "Xcaret"},
		{ID: 2, Name: "Tulum"},
		{ID: 3, Name: "Xel Ha"},
		{ID: 4, Name: "Chichén Itzá"},
	}
}

func TestProductResolverDirect(t *testing.T) {
	r := NewProductResolver(testCatalog(), DefaultAliases().Products)

	tests := []struct {
		raw    string
		wantID int64
	}{
		{"Xcaret", 1},
		{"  XCARET  ", 1},
		{"tulum", 2},
		{"Chichen Itza", 4},
	}
	for _, tt := range tests {
		tour, ok := r.Resolve(tt.raw)
		if !ok {
			t.Errorf("Resolve(%q) failed, want tour %d", tt.raw, tt.wantID)
			continue
		}
		if tour.ID != tt.wantID {
			t.Errorf("Resolve(%q) = tour %d, want %d", tt.raw, tour.ID, tt.wantID)
		}
	}
}

func TestProductResolverSpellingVariants(t *testing.T) {
	r := NewProductResolver(testCatalog(), DefaultAliases().Products)

	tests := []struct {
		raw    string
		wantID int64
	}{
		{"Xcarte", 1},
		{"Tulun", 2},
		{"Xelha", 3},
		{"chichenitza", 4},
	}
	for _, tt := range tests {
		tour, ok := r.Resolve(tt.raw)
		if !ok {
			t.Errorf("Resolve(%q) failed, want tour %d", tt.raw, tt.wantID)
			continue
		}
		if tour.ID != tt.wantID {
			t.Errorf("Resolve(%q) = tour %d, want %d", tt.raw, tour.ID, tt.wantID)
		}
	}
}

func TestProductResolverUnknown(t *testing.T) {
	r := NewProductResolver(testCatalog(), DefaultAliases().Products)
	if _, ok := r.Resolve("Coba Ruins"); ok {
		t.Error("expected unknown product to fail resolution")
	}
}

func TestParseProductCellSingle(t *testing.T) {
	items := ParseProductCell("Tulum")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Name != "Tulum" || items[0].Price != nil {
		t.Errorf("unexpected item %+v", items[0])
	}
}

func TestParseProductCellMultiWithPrices(t *testing.T) {
	items := ParseProductCell("Xcaret: 1700, Tulum: $850.50")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "Xcaret" || items[0].Price == nil || !items[0].Price.Equal(decimal.NewFromInt(1700)) {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].Name != "Tulum" || items[1].Price == nil || !items[1].Price.Equal(decimal.NewFromFloat(850.50)) {
		t.Errorf("unexpected second item %+v", items[1])
	}
}

func TestParseProductCellQuotedComma(t *testing.T) {
	items := ParseProductCell(`"Snorkel, Reef Tour": 500, Tulum: 850`)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Name != "Snorkel, Reef Tour" {
		t.Errorf("quoted comma split incorrectly: %q", items[0].Name)
	}
}

func TestParseProductCellColonInName(t *testing.T) {
	// The last colon only splits when its suffix parses as money.
	items := ParseProductCell("Combo: Xcaret y Tulum")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Name != "Combo: Xcaret y Tulum" || items[0].Price != nil {
		t.Errorf("unexpected item %+v", items[0])
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"1700", "1700", false},
		{"$1,700.50", "1700.5", false},
		{" $ 850 ", "850", false},
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMoney(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMoney(%q) expected error, got %s", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMoney(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseMoney(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}
