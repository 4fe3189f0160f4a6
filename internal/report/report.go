// Package report writes the reconciliation run's auditable output
// workbook: a summary sheet with the legal disclaimer and glossary,
// followed by matched, unmatched, internal-only and raw data sheets,
// in the fixed order operators have learned to navigate.
package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/utasoy/market-reconciler/internal/domain"
	"github.com/utasoy/market-reconciler/internal/job"
)

const (
	sheetSummary      = "1. Genel Özet"
	sheetMatched      = "2. Eşleşenler (Yeşil)"
	sheetUnmatched    = "3. Eşleşmeyenler (Kırmızı)"
	sheetMissingInMP  = "4. Bizde Var MP Yok"
	sheetMarketRaw    = "5. Pazaryeri Ham"
	sheetInternalRaw  = "6. İç Stok Ham"
	sheetSupplierRaw  = "7. Tedarikçi Ham"
	sheetUploadFormat = "OPSİYONEL - Yükleme Formatı"
)

// Write builds a workbook from matched rows plus the run's internal,
// supplier and raw marketplace data, and saves it to path. marketRows
// is the untouched marketplace input, used for the raw audit sheet.
// orig optionally adds an extra sheet that overlays the run's computed
// prices/stock onto the operator's own original upload.
func Write(path string, matched []domain.MatchedRow, internalRows []domain.InternalRow, supplierRows []domain.SupplierRow, marketRows []domain.MarketplaceRow, meta job.RunMeta, orig job.OriginalFormatInput) error {
	f := excelize.NewFile()
	defer f.Close()

	matchedRows, unmatchedRows := splitMatched(matched)
	sortMatched(matchedRows)
	missingInMP := missingFromMarketplace(internalRows, matched)

	if err := writeSummarySheet(f, meta, len(matchedRows), len(unmatchedRows)); err != nil {
		return err
	}
	if err := writeMatchedSheet(f, sheetMatched, matchedRows); err != nil {
		return err
	}
	if err := writeMatchedSheet(f, sheetUnmatched, unmatchedRows); err != nil {
		return err
	}
	if len(missingInMP) > 0 {
		if err := writeInternalSheet(f, sheetMissingInMP, missingInMP); err != nil {
			return err
		}
	}
	if err := writeMarketplaceRawSheet(f, sheetMarketRaw, marketRows); err != nil {
		return err
	}
	if err := writeInternalSheet(f, sheetInternalRaw, internalRows); err != nil {
		return err
	}
	if len(supplierRows) > 0 {
		if err := writeSupplierSheet(f, sheetSupplierRaw, supplierRows); err != nil {
			return err
		}
	}
	if orig.Include && len(orig.Rows) > 0 {
		if err := writeUploadFormatSheet(f, sheetUploadFormat, orig, matchedRows); err != nil {
			return err
		}
	}

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save workbook: %w", err)
	}
	return nil
}

// missingFromMarketplace returns internal catalog rows whose SKU never
// appears as a matched row's source code — items stocked internally
// but absent from the marketplace listing entirely.
func missingFromMarketplace(internalRows []domain.InternalRow, matched []domain.MatchedRow) []domain.InternalRow {
	seen := make(map[string]bool, len(matched))
	for _, m := range matched {
		if m.KaynakKod != domain.BarcodeMissing {
			seen[m.KaynakKod] = true
		}
	}
	var missing []domain.InternalRow
	for _, row := range internalRows {
		if !seen[row.SKU] {
			missing = append(missing, row)
		}
	}
	return missing
}

func splitMatched(rows []domain.MatchedRow) (matched, unmatched []domain.MatchedRow) {
	for _, r := range rows {
		if r.KaynakKod != domain.BarcodeMissing {
			matched = append(matched, r)
		} else {
			unmatched = append(unmatched, r)
		}
	}
	return
}

// sortMatched orders rows Barkod first, then SKU, then every fusion/
// text match tier by descending Algoritma_Skoru — the precedence the
// original reconciliation's sort_key established.
func sortMatched(rows []domain.MatchedRow) {
	tier := func(r domain.MatchedRow) int {
		switch r.Eslestirme {
		case domain.MatchBarcode:
			return 0
		case domain.MatchSKU:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := tier(rows[i]), tier(rows[j])
		if ti != tj {
			return ti < tj
		}
		if ti != 2 {
			return false
		}
		si, sj := 0.0, 0.0
		if rows[i].AlgoritmaSkoru != nil {
			si = *rows[i].AlgoritmaSkoru
		}
		if rows[j].AlgoritmaSkoru != nil {
			sj = *rows[j].AlgoritmaSkoru
		}
		return si > sj
	})
}

func writeSummarySheet(f *excelize.File, meta job.RunMeta, matchedCount, unmatchedCount int) error {
	idx, err := f.NewSheet(sheetSummary)
	if err != nil {
		return fmt.Errorf("report: create summary sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	rows := [][]string{
		{"Kategori", "Açıklama", "Değer"},
		{"!!! YASAL UYARI !!!", "SORUMLULUK REDDİ", "Bu yazılım karar destek amaçlıdır. Stokçu, fiyat ve stok güncellemelerinde %100 doğruluk garantisi vermez. Lütfen yükleme yapmadan önce verileri kontrol ediniz."},
		{"BİLGİLENDİRME", "Doğruluk Payı", "Rapordaki \"Algoritma Skoru\" (0-100) eşleşme güvenini temsil eder. Düşük puanlı ürünleri manuel kontrol ediniz."},
		{" ", " ", " "},
		{"İSTATİSTİK", "Yüklenen Pazaryeri Listesi (Adet)", fmt.Sprintf("%d", meta.TotalMarketplaceRows)},
		{"İSTATİSTİK", "BAŞARILI EŞLEŞME (Yeşil Sayfa)", fmt.Sprintf("%d", matchedCount)},
		{"İSTATİSTİK", "EŞLEŞMEYEN (Kırmızı Sayfa)", fmt.Sprintf("%d", unmatchedCount)},
		{" ", " ", " "},
		{"SÖZLÜK", "MP_ (Prefix)", "Pazaryeri (Marketplace) dosyasından gelen orijinal veriler."},
		{"SÖZLÜK", "Ic_ (Prefix)", "Sizin yüklediğiniz İç Stok (Depo) verileri."},
		{"SÖZLÜK", "Ted_ (Prefix)", "Tedarikçi listelerinden gelen veriler."},
		{"SÖZLÜK", "Satis_Fiyati", "Hesaplanan yeni satış fiyatı."},
		{"SÖZLÜK", "Gonderilecek_Stok", "Pazaryerine gönderilecek nihai stok miktarı."},
		{"SÖZLÜK", "Algoritma Skoru", "Ürün isim ve özellik benzerlik oranı (100 = Tam Eşleşme)."},
	}
	if meta.FXUpdatedAt != "" {
		rows = append(rows, []string{"DÖVİZ", "Son Kur Güncelleme", meta.FXUpdatedAt})
	}

	for r, row := range rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			f.SetCellValue(sheetSummary, cell, val)
		}
	}
	return nil
}

var matchedHeader = []string{
	"Barkod", "SKU", "Urun_Adi", "Eski_Fiyat", "Eski_Stok", "MP_Marka",
	"Eslestirme", "Algoritma_Skoru", "Kaynak_Kod", "Ic_Stok", "Ted_Stok",
	"Maliyet", "Nihai_Marka", "Satis_Fiyati", "Fiyat_Durumu", "Gonderilecek_Stok", "Durum",
}

func writeMatchedSheet(f *excelize.File, name string, rows []domain.MatchedRow) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("report: create sheet %s: %w", name, err)
	}
	for c, h := range matchedHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		f.SetCellValue(name, cell, h)
	}
	for r, row := range rows {
		rowNum := r + 2
		score := ""
		if row.AlgoritmaSkoru != nil {
			score = fmt.Sprintf("%.2f", *row.AlgoritmaSkoru)
		}
		values := []interface{}{
			row.Barcode, row.SKU, row.ProductName, row.OldPrice.StringFixed(2), row.OldStock, row.MarketBrand,
			string(row.Eslestirme), score, row.KaynakKod, row.InternalStock, row.SupplierStock,
			row.Cost.StringFixed(2), row.NihaiMarka, row.SatisFiyati.StringFixed(2), row.FiyatDurumu, row.GonderilecekStok, row.Durum,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			f.SetCellValue(name, cell, v)
		}
	}
	return nil
}

var marketplaceHeader = []string{"MP_Barkod", "MP_SKU", "MP_Urun_Adi", "MP_Eski_Stok", "MP_Fiyat", "MP_Marka"}

func writeMarketplaceRawSheet(f *excelize.File, name string, rows []domain.MarketplaceRow) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("report: create sheet %s: %w", name, err)
	}
	for c, h := range marketplaceHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		f.SetCellValue(name, cell, h)
	}
	for r, row := range rows {
		rowNum := r + 2
		values := []interface{}{row.Barcode, row.SKU, row.ProductName, row.OldStock, row.Price.StringFixed(2), row.Brand}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			f.SetCellValue(name, cell, v)
		}
	}
	return nil
}

var internalHeader = []string{"SKU", "Barkod", "Marka", "Urun_Adi", "Hesaplanan_Stok", "Nihai_Stok", "Ic_Hazir_Fiyat"}

func writeInternalSheet(f *excelize.File, name string, rows []domain.InternalRow) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("report: create sheet %s: %w", name, err)
	}
	for c, h := range internalHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		f.SetCellValue(name, cell, h)
	}
	for r, row := range rows {
		rowNum := r + 2
		values := []interface{}{row.SKU, row.Barcode, row.Brand, row.ProductName, row.ComputedStock, row.FinalStock, row.ReadyPrice.StringFixed(2)}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			f.SetCellValue(name, cell, v)
		}
	}
	return nil
}

var supplierHeader = []string{"SKU", "Barkod", "Marka", "Urun_Adi", "Toplam_Tedarikci_Stok", "Maliyet", "Ted_Hazir_Fiyat"}

func writeSupplierSheet(f *excelize.File, name string, rows []domain.SupplierRow) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("report: create sheet %s: %w", name, err)
	}
	for c, h := range supplierHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		f.SetCellValue(name, cell, h)
	}
	for r, row := range rows {
		rowNum := r + 2
		values := []interface{}{row.SKU, row.Barcode, row.Brand, row.ProductName, row.TotalStock, row.Cost.StringFixed(2), row.ReadyPrice.StringFixed(2)}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			f.SetCellValue(name, cell, v)
		}
	}
	return nil
}

// skuLookup holds the final computed price/stock for one SKU, taken
// from the first matched row that carries it — mirroring the
// original's drop_duplicates(keep="first") before building the lookup.
type skuLookup struct {
	price string
	stock int
}

// writeUploadFormatSheet rewrites orig.Rows — the operator's own
// marketplace export, before any template projection — with the run's
// computed Satis_Fiyati/Gonderilecek_Stok layered onto matching SKUs,
// leaving every other original column untouched. Rows whose SKU has no
// matched outcome keep their original price/stock.
func writeUploadFormatSheet(f *excelize.File, name string, orig job.OriginalFormatInput, matchedRows []domain.MatchedRow) error {
	lookup := map[string]skuLookup{}
	for _, row := range matchedRows {
		if _, ok := lookup[row.SKU]; ok {
			continue
		}
		lookup[row.SKU] = skuLookup{price: row.SatisFiyati.StringFixed(2), stock: row.GonderilecekStok}
	}

	headerSet := map[string]bool{}
	for _, row := range orig.Rows {
		for h := range row {
			headerSet[h] = true
		}
	}
	headers := make([]string, 0, len(headerSet))
	for h := range headerSet {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("report: create sheet %s: %w", name, err)
	}
	for c, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		f.SetCellValue(name, cell, h)
	}
	for r, row := range orig.Rows {
		rowNum := r + 2
		sku := row[orig.SKUHeader]
		if found, ok := lookup[sku]; ok {
			if orig.PriceHeader != "" {
				row[orig.PriceHeader] = found.price
			}
			if orig.StockHeader != "" {
				row[orig.StockHeader] = fmt.Sprintf("%d", found.stock)
			}
		}
		for c, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			f.SetCellValue(name, cell, row[h])
		}
	}
	return nil
}
