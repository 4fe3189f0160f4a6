package consolidate

import (
	"testing"

	"github.com/utasoy/market-reconciler/internal/config"
	"github.com/utasoy/market-reconciler/internal/fx"
)

func TestInternalSumsAcrossDepots(t *testing.T) {
	files := []SourceFile{
		{
			Filename: "depo1.csv", Label: "+",
			Rows: []RawRecord{
				{"sku": "BOSCH-100", "barcode": "869000001", "brand": "bosch", "stock": "10", "selling_price": "199,90"},
			},
		},
		{
			Filename: "depo2.csv", Label: "+",
			Rows: []RawRecord{
				{"sku": "BOSCH-100", "barcode": "869000001", "brand": "bosch", "stock": "5", "selling_price": "189,90"},
			},
		},
	}

	rows, meta := Internal(files, nil, 0)
	if meta["depo1.csv"] != 1 || meta["depo2.csv"] != 1 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.ComputedStock != 15 {
		t.Errorf("ComputedStock = %d, want 15", r.ComputedStock)
	}
	if r.FinalStock != 15 {
		t.Errorf("FinalStock = %d, want 15 (no safety threshold)", r.FinalStock)
	}
	if r.ReadyPrice.String() != "199.9" {
		t.Errorf("ReadyPrice = %s, want max(199.90,189.90)=199.9", r.ReadyPrice)
	}
}

func TestInternalReturnsWithdrawal(t *testing.T) {
	files := []SourceFile{
		{Filename: "iade.csv", Label: "-", Rows: []RawRecord{
			{"sku": "X1", "barcode": "1", "stock": "3"},
		}},
	}
	rows, _ := Internal(files, nil, 0)
	if rows[0].ComputedStock != -3 {
		t.Errorf("ComputedStock = %d, want -3", rows[0].ComputedStock)
	}
}

func TestInternalSafetyThresholdOnlyTrimsAboveIt(t *testing.T) {
	files := []SourceFile{
		{Filename: "a.csv", Label: "+", Rows: []RawRecord{
			{"sku": "LOW", "barcode": "1", "stock": "3"},
			{"sku": "HIGH", "barcode": "2", "stock": "50"},
		}},
	}
	thr := 10
	rows, _ := Internal(files, &thr, 5)

	byBarcode := map[string]int{}
	for _, r := range rows {
		byBarcode[r.Barcode] = r.FinalStock
	}
	if byBarcode["1"] != 3 {
		t.Errorf("low-stock row FinalStock = %d, want unchanged 3", byBarcode["1"])
	}
	if byBarcode["2"] != 45 {
		t.Errorf("high-stock row FinalStock = %d, want 50-5=45", byBarcode["2"])
	}
}

func TestInternalKeepsFirstNonEmptyName(t *testing.T) {
	files := []SourceFile{
		{Filename: "depo1.csv", Label: "+", Rows: []RawRecord{
			{"sku": "BOSCH-100", "barcode": "869000001", "stock": "10"},
		}},
		{Filename: "depo2.csv", Label: "+", Rows: []RawRecord{
			{"sku": "BOSCH-100", "barcode": "869000001", "stock": "5", "product_name": "Bosch Matkap"},
		}},
	}
	rows, _ := Internal(files, nil, 0)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ProductName != "Bosch Matkap" {
		t.Errorf("ProductName = %q, want %q (first non-empty across depots)", rows[0].ProductName, "Bosch Matkap")
	}
}

func TestSupplierGroupsByBarcodeThenMatchCode(t *testing.T) {
	files := []SourceFile{
		{Filename: "s1.csv", Rows: []RawRecord{
			{"sku": "BOSCH-1", "barcode": "900", "stock": "10", "cost": "100", "currency": "TRY"},
			{"sku": "BOSCH-1", "barcode": "900", "stock": "5", "cost": "90", "currency": "TRY"},
			{"sku": "MAKITA-2", "stock": "7", "cost": "50", "currency": "TRY"},
		}},
	}
	rows, _ := Supplier(files, fx.NewProvider(config.FXConfig{BaseCurrency: "TRY", RequestTimeout: 5}).Current())

	var withBarcode, withoutBarcode int
	for _, r := range rows {
		if r.Barcode == "900" {
			withBarcode++
			if r.TotalStock != 15 {
				t.Errorf("TotalStock = %d, want 15", r.TotalStock)
			}
			if r.Cost.String() != "90" {
				t.Errorf("Cost = %s, want min(100,90)=90", r.Cost)
			}
		}
		if r.Barcode == "YOK" {
			withoutBarcode++
		}
	}
	if withBarcode != 1 || withoutBarcode != 1 {
		t.Fatalf("expected 1 barcode group and 1 match-code group, got %d/%d", withBarcode, withoutBarcode)
	}
}
