package report

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/utasoy/market-reconciler/internal/domain"
	"github.com/utasoy/market-reconciler/internal/job"
)

func TestWriteProducesWorkbook(t *testing.T) {
	matched := []domain.MatchedRow{
		{
			Idx: 0, Barcode: "111", SKU: "SKU-1", ProductName: "Bosch Matkap",
			KaynakKod: "SKU-1", NihaiMarka: "BOSCH",
			SatisFiyati: decimal.NewFromInt(150), FiyatDurumu: "Maliyet", Durum: "Maliyet",
		},
		{
			Idx: 1, Barcode: "222", SKU: "SKU-2", ProductName: "Bilinmeyen Ürün",
			KaynakKod: domain.BarcodeMissing, Eslestirme: domain.MatchNone, Durum: "Eşleşmedi",
		},
	}
	internalRows := []domain.InternalRow{
		{SKU: "SKU-1", Barcode: "111", FinalStock: 5, ReadyPrice: decimal.NewFromInt(100)},
		{SKU: "SKU-9", Barcode: "999", FinalStock: 2, ReadyPrice: decimal.NewFromInt(40)},
	}
	supplierRows := []domain.SupplierRow{
		{SKU: "SKU-1", Barcode: "111", TotalStock: 10, Cost: decimal.NewFromInt(80)},
	}
	marketRows := []domain.MarketplaceRow{
		{Idx: 0, Barcode: "111", SKU: "SKU-1", ProductName: "Bosch Matkap", Price: decimal.NewFromInt(140)},
		{Idx: 1, Barcode: "222", SKU: "SKU-2", ProductName: "Bilinmeyen Ürün", Price: decimal.NewFromInt(50)},
	}
	meta := job.RunMeta{TotalMarketplaceRows: 2, MatchedCount: 1, UnmatchedCount: 1}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := Write(path, matched, internalRows, supplierRows, marketRows, meta, job.OriginalFormatInput{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func TestWriteWithOriginalFormatSheet(t *testing.T) {
	matched := []domain.MatchedRow{
		{
			Idx: 0, Barcode: "111", SKU: "SKU-1", ProductName: "Bosch Matkap",
			KaynakKod: "SKU-1", SatisFiyati: decimal.NewFromInt(175), GonderilecekStok: 8,
		},
	}
	internalRows := []domain.InternalRow{{SKU: "SKU-1", Barcode: "111", FinalStock: 8}}
	marketRows := []domain.MarketplaceRow{{Idx: 0, Barcode: "111", SKU: "SKU-1", ProductName: "Bosch Matkap", Price: decimal.NewFromInt(140)}}
	meta := job.RunMeta{TotalMarketplaceRows: 1, MatchedCount: 1}

	orig := job.OriginalFormatInput{
		Include: true,
		Rows: []map[string]string{
			{"Ürün Kodu": "SKU-1", "Fiyat": "140", "Stok": "5", "Açıklama": "Bosch Matkap"},
		},
		SKUHeader:   "Ürün Kodu",
		PriceHeader: "Fiyat",
		StockHeader: "Stok",
	}

	path := filepath.Join(t.TempDir(), "report_orig.xlsx")
	if err := Write(path, matched, internalRows, nil, marketRows, meta, orig); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetUploadFormat)
	if err != nil {
		t.Fatalf("GetRows(%q) error = %v", sheetUploadFormat, err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (header + 1 data row)", len(rows))
	}
	header := rows[0]
	data := rows[1]
	byHeader := map[string]string{}
	for i, h := range header {
		byHeader[h] = data[i]
	}
	if byHeader["Fiyat"] != "175.00" {
		t.Errorf("Fiyat = %q, want 175.00 (overlaid from matched row)", byHeader["Fiyat"])
	}
	if byHeader["Stok"] != "8" {
		t.Errorf("Stok = %q, want 8 (overlaid from matched row)", byHeader["Stok"])
	}
	if byHeader["Açıklama"] != "Bosch Matkap" {
		t.Errorf("Açıklama = %q, want untouched original column", byHeader["Açıklama"])
	}
}

func TestSortMatched(t *testing.T) {
	hi := 90.0
	lo := 40.0
	rows := []domain.MatchedRow{
		{SKU: "text-low", Eslestirme: domain.MatchFusionHighText, AlgoritmaSkoru: &lo},
		{SKU: "sku-match", Eslestirme: domain.MatchSKU},
		{SKU: "text-high", Eslestirme: domain.MatchFusionGoldenCode, AlgoritmaSkoru: &hi},
		{SKU: "barcode-match", Eslestirme: domain.MatchBarcode},
	}
	sortMatched(rows)

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.SKU
	}
	want := []string{"barcode-match", "sku-match", "text-high", "text-low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortMatched() order = %v, want %v", got, want)
		}
	}
}

func TestMissingFromMarketplace(t *testing.T) {
	internalRows := []domain.InternalRow{
		{SKU: "A"}, {SKU: "B"}, {SKU: "C"},
	}
	matched := []domain.MatchedRow{
		{KaynakKod: "A"},
		{KaynakKod: domain.BarcodeMissing},
	}
	missing := missingFromMarketplace(internalRows, matched)
	if len(missing) != 2 {
		t.Fatalf("len(missing) = %d, want 2", len(missing))
	}
	skus := map[string]bool{missing[0].SKU: true, missing[1].SKU: true}
	if !skus["B"] || !skus["C"] {
		t.Errorf("missing = %+v, want B and C", missing)
	}
}
