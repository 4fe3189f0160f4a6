package match

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/utasoy/market-reconciler/internal/domain"
)

func TestEngineMatchesByBarcode(t *testing.T) {
	internal := []domain.InternalRow{
		{SKU: "BOSCH-1", Barcode: "8699000011223", Brand: "BOSCH", ProductName: "Bosch Akulu Matkap"},
	}
	mp := []domain.MarketplaceRow{
		{Idx: 0, Barcode: "8699000011223", SKU: "X", ProductName: "Farkli Baslik"},
	}

	results := NewEngine(internal).Match(mp)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Kind != domain.MatchBarcode {
		t.Errorf("Kind = %q, want Barkod", results[0].Kind)
	}
	if results[0].Internal == nil || results[0].Internal.SKU != "BOSCH-1" {
		t.Errorf("Internal = %v, want BOSCH-1", results[0].Internal)
	}
}

func TestEngineMatchesBySKUWhenBarcodeMissing(t *testing.T) {
	internal := []domain.InternalRow{
		{SKU: "MAKITA-99", Barcode: "YOK", Brand: "MAKITA", ProductName: "Makita Testere"},
	}
	mp := []domain.MarketplaceRow{
		{Idx: 0, Barcode: "", SKU: "MAKITA-99", ProductName: "Baska Bir Isim"},
	}
	results := NewEngine(internal).Match(mp)
	if results[0].Kind != domain.MatchSKU {
		t.Errorf("Kind = %q, want SKU", results[0].Kind)
	}
}

func TestEngineHybridSameBrandFusionMatch(t *testing.T) {
	internal := []domain.InternalRow{
		{SKU: "BOSCH-200", Barcode: "YOK", Brand: "BOSCH", ProductName: "Bosch GSB 18V-55 Akulu Darbeli Matkap Vidalama"},
	}
	mp := []domain.MarketplaceRow{
		{Idx: 0, Barcode: "", SKU: "OTHERSKU", Brand: "BOSCH", ProductName: "Bosch GSB 18V 55 Akulu Darbeli Matkap Vidalama Makinesi"},
	}
	results := NewEngine(internal).Match(mp)
	if results[0].Kind.IsUnmatched() {
		t.Fatalf("expected a fusion match, got %q", results[0].Kind)
	}
	if results[0].Score == nil {
		t.Error("expected a score to be set for a fusion match")
	}
}

func TestEngineBrandConflictRejectsMatch(t *testing.T) {
	internal := []domain.InternalRow{
		{SKU: "MAKITA-1", Barcode: "YOK", Brand: "MAKITA", ProductName: "Makita 18V Akulu Darbeli Matkap Vidalama Seti"},
	}
	mp := []domain.MarketplaceRow{
		{Idx: 0, Barcode: "", SKU: "X", Brand: "BOSCH", ProductName: "Bosch 12V Akulu Darbeli Matkap Vidalama Seti"},
	}
	results := NewEngine(internal).Match(mp)
	if results[0].Kind != domain.MatchNoneBrandConflict {
		t.Errorf("Kind = %q, want %q", results[0].Kind, domain.MatchNoneBrandConflict)
	}
}

func TestEngineNoCandidatesYieldsNoMatch(t *testing.T) {
	results := NewEngine(nil).Match([]domain.MarketplaceRow{
		{Idx: 0, SKU: "A", ProductName: "Herhangi bir urun", Price: decimal.NewFromInt(10)},
	})
	if results[0].Kind != domain.MatchNone {
		t.Errorf("Kind = %q, want Eşleşmedi", results[0].Kind)
	}
}
