// Package consolidate merges per-file, per-warehouse internal and
// supplier depot rows into single net-stock records, keyed by SKU,
// barcode and match code so multiple depots of the same physical
// product sum rather than overwrite each other.
package consolidate

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utasoy/market-reconciler/internal/domain"
	"github.com/utasoy/market-reconciler/internal/fx"
	"github.com/utasoy/market-reconciler/internal/template"
	"github.com/utasoy/market-reconciler/internal/valueparse"
)

const (
	noBarcodeSentinel = "_barkod_yok_"
	noSKUSentinel      = "KOD_YOK"
)

// RawRecord is one row read from a file, keyed on the template's
// canonical column names rather than the file's own header text.
type RawRecord map[string]string

// SourceFile is one uploaded internal/supplier depot export, already
// projected through its template's column mapping.
type SourceFile struct {
	Filename string
	Label    string // "+" adds to stock, "-" subtracts (internal depots only)
	Rows     []RawRecord
}

// FileMeta reports how many rows each source file contributed.
type FileMeta map[string]int

type internalAccumulator struct {
	sku       string
	matchCode string
	barcode   string
	brand     string
	name      string
	readyPrice decimal.Decimal
	stock     int
}

// Internal merges internal depot files into net InternalRow records.
//
// When safetyThreshold is non-nil, any net stock above the threshold
// has safetyAmount subtracted from it (stock at or below the
// threshold is left untouched), matching the "only trim the healthy
// tail" semantics of the original safety-stock pass.
func Internal(files []SourceFile, safetyThreshold *int, safetyAmount int) ([]domain.InternalRow, FileMeta) {
	meta := FileMeta{}
	acc := map[string]*internalAccumulator{}
	var order []string

	for _, f := range files {
		meta[f.Filename] = len(f.Rows)
		sign := 1
		if f.Label == "-" {
			sign = -1
		}

		for _, row := range f.Rows {
			sku := orDefault(row["sku"], noSKUSentinel)
			matchCode := valueparse.GenerateMatchCode(sku)
			barcode := orDefault(row["barcode"], noBarcodeSentinel)
			brand := strings.ToUpper(orDefault(row["brand"], domain.BrandUnknown))
			name := row["product_name"]
			qty := valueparse.ParseStockQuantity(row["stock"])
			if sign < 0 {
				qty = abs(qty) * -1
			}
			price := valueparse.ParsePrice(row["selling_price"])

			key := sku + "\x00" + barcode + "\x00" + matchCode
			a, ok := acc[key]
			if !ok {
				a = &internalAccumulator{
					sku: sku, matchCode: matchCode, barcode: barcode,
					brand: brand, name: name, readyPrice: price,
				}
				acc[key] = a
				order = append(order, key)
			}
			a.stock += qty
			if price.GreaterThan(a.readyPrice) {
				a.readyPrice = price
			}
			if a.name == "" && name != "" {
				a.name = name
			}
		}
	}

	out := make([]domain.InternalRow, 0, len(order))
	for _, key := range order {
		a := acc[key]
		finalStock := a.stock
		if safetyThreshold != nil && a.stock > *safetyThreshold {
			finalStock = a.stock - safetyAmount
		}
		barcode := a.barcode
		if barcode == noBarcodeSentinel {
			barcode = domain.BarcodeMissing
		}
		out = append(out, domain.InternalRow{
			SKU:           a.sku,
			Barcode:       barcode,
			MatchCode:     a.matchCode,
			ComputedStock: a.stock,
			FinalStock:    finalStock,
			Brand:         a.brand,
			ProductName:   a.name,
			ReadyPrice:    a.readyPrice,
		})
	}
	return out, meta
}

type supplierAccumulator struct {
	sku        string
	matchCode  string
	barcode    string
	brand      string
	name       string
	readyPrice decimal.Decimal
	cost       decimal.Decimal
	stock      int
	costSet    bool
}

// Supplier merges supplier depot files into net SupplierRow records.
// Rows that carry a real barcode are grouped by barcode; rows without
// one fall back to grouping by match code, mirroring how suppliers
// inconsistently publish barcodes across SKUs of the same product.
func Supplier(files []SourceFile, rates *fx.Table) ([]domain.SupplierRow, FileMeta) {
	meta := FileMeta{}
	byBarcode := map[string]*supplierAccumulator{}
	bySKUCode := map[string]*supplierAccumulator{}
	var barcodeOrder, skuOrder []string

	for _, f := range files {
		meta[f.Filename] = len(f.Rows)

		for _, row := range f.Rows {
			sku := orDefault(row["sku"], noSKUSentinel)
			matchCode := valueparse.GenerateMatchCode(sku)
			barcode := orDefault(row["barcode"], noBarcodeSentinel)
			brand := strings.ToUpper(orDefault(row["brand"], domain.BrandUnknown))
			name := row["product_name"]
			qty := valueparse.ParseStockQuantity(row["stock"])
			if qty < 0 {
				qty = 0
			}
			cost := valueparse.ParsePrice(row["cost"])
			readyPrice := valueparse.ParsePrice(row["selling_price"])

			currency := row["currency_column"]
			if currency == "" {
				currency = row["currency"]
			}
			if currency == "" {
				currency = "TRY"
			}
			costBase := convertToBase(cost, currency, rates)

			var target map[string]*supplierAccumulator
			var order *[]string
			var key string
			if barcode != noBarcodeSentinel {
				target, order, key = byBarcode, &barcodeOrder, barcode
			} else {
				target, order, key = bySKUCode, &skuOrder, matchCode
			}

			a, ok := target[key]
			if !ok {
				a = &supplierAccumulator{sku: sku, matchCode: matchCode, barcode: barcode, brand: brand, name: name}
				target[key] = a
				*order = append(*order, key)
			}
			a.stock += qty
			if readyPrice.GreaterThan(a.readyPrice) {
				a.readyPrice = readyPrice
			}
			if !a.costSet || costBase.LessThan(a.cost) {
				a.cost = costBase
				a.costSet = true
			}
		}
	}

	out := make([]domain.SupplierRow, 0, len(barcodeOrder)+len(skuOrder))
	for _, key := range barcodeOrder {
		out = append(out, toSupplierRow(byBarcode[key], key))
	}
	for _, key := range skuOrder {
		a := bySKUCode[key]
		out = append(out, toSupplierRow(a, domain.BarcodeMissing))
	}
	return out, meta
}

func toSupplierRow(a *supplierAccumulator, barcode string) domain.SupplierRow {
	return domain.SupplierRow{
		SKU:         a.sku,
		Barcode:     barcode,
		MatchCode:   a.matchCode,
		TotalStock:  a.stock,
		Cost:        a.cost,
		ReadyPrice:  a.readyPrice,
		ProductName: a.name,
		Brand:       a.brand,
	}
}

func convertToBase(amount decimal.Decimal, currency string, rates *fx.Table) decimal.Decimal {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if rates == nil || currency == "" || currency == rates.Base {
		return amount
	}
	rate, ok := rates.Rate(currency)
	if !ok {
		return decimal.Zero
	}
	return amount.Mul(rate)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Project turns a raw file (read via its template mapping) into the
// canonical RawRecord rows consumed by Internal/Supplier, given the
// template's field->header mapping and the file's already-cleaned
// header->value rows.
func Project(rows []map[string]string, mapping template.Mapping, fields []string) []RawRecord {
	out := make([]RawRecord, 0, len(rows))
	for _, row := range rows {
		rec := RawRecord{}
		for _, field := range fields {
			header, ok := mapping[field]
			if !ok {
				continue
			}
			rec[field] = row[header]
		}
		out = append(out, rec)
	}
	return out
}
