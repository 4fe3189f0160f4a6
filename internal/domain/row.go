// Package domain holds the canonical row shapes shared by the
// consolidator, matcher, pricing engine and report writer.
package domain

import "github.com/shopspring/decimal"

// Unmatched sentinel values used across the pipeline.
const (
	SKUMissing    = "KOD_YOK"
	BarcodeMissing = "YOK"
	BrandUnknown  = "TANIMSIZ"
)

// BrandSentinels are the values treated as "no brand" anywhere one is read.
var BrandSentinels = map[string]bool{
	"TANIMSIZ": true,
	"YOK":      true,
	"NAN":      true,
	"NONE":     true,
	"DIĞER":    true,
	"DIGER":    true,
	"NULL":     true,
}

// InternalRow is a consolidated internal-depot record, keyed by
// (SKU, Barcode, MatchCode).
type InternalRow struct {
	SKU            string // Anahtar_Kod
	Barcode        string // Barkod
	MatchCode      string // match_code
	ComputedStock  int    // Hesaplanan_Stok
	FinalStock     int    // Nihai_Stok
	Brand          string // Marka
	ProductName    string // Ic_Urun_Adi
	ReadyPrice      decimal.Decimal // Ic_Hazir_Fiyat

	// normalized forms cached for matching, populated by the matcher
	BarcodeNorm string
	SKUNorm     string
	NameNorm    string
}

// SupplierRow is a consolidated supplier record, same key shape as InternalRow.
type SupplierRow struct {
	SKU         string
	Barcode     string
	MatchCode   string
	TotalStock  int             // Toplam_Tedarikci_Stok
	Cost        decimal.Decimal // Maliyet (base currency)
	ReadyPrice  decimal.Decimal // Ted_Hazir_Fiyat
	ProductName string          // Ted_Urun_Adi
	Brand       string          // Marka
}

// MarketplaceRow is a single row parsed from the marketplace file via its template.
type MarketplaceRow struct {
	Idx         int
	Barcode     string // MP_Barkod
	SKU         string // MP_SKU
	ProductName string // MP_Urun_Adi
	OldStock    int    // MP_Eski_Stok
	Price       decimal.Decimal // MP_Fiyat
	Brand       string          // MP_Marka

	BarcodeNorm string // bk_norm
	SKUNorm     string // sku_norm
	NameNorm    string
}

// MatchKind is the closed set of match outcomes, in precedence order.
type MatchKind string

const (
	MatchBarcode                MatchKind = "Barkod"
	MatchSKU                    MatchKind = "SKU"
	MatchFusionBrandCodeNumeric MatchKind = "Füzyon (Marka Farklı ama Kod ve Sayılar Aynı)"
	MatchFusionGoldenCode       MatchKind = "Füzyon (Altın Kod)"
	MatchFusionSafeBrand        MatchKind = "Füzyon (Güvenli Marka)"
	MatchFusionBrandNumeric     MatchKind = "Füzyon (Marka + Sayısal Eşleşme)"
	MatchFusionStrongNumeric    MatchKind = "Füzyon (Güçlü Sayısal Benzerlik)"
	MatchFusionHighText         MatchKind = "Füzyon (Yüksek Metin Benzerliği)"
	MatchNone                   MatchKind = "Eşleşmedi"
	MatchNoneBrandConflict      MatchKind = "Eşleşmedi (Marka Çatışması)"
	MatchNoneSetCountConflict   MatchKind = "Eşleşmedi (Set Sayısı Farkı)"
)

// IsFusion reports whether the kind is one of the "Füzyon" text-match outcomes.
func (k MatchKind) IsFusion() bool {
	switch k {
	case MatchFusionBrandCodeNumeric, MatchFusionGoldenCode, MatchFusionSafeBrand,
		MatchFusionBrandNumeric, MatchFusionStrongNumeric, MatchFusionHighText:
		return true
	}
	return false
}

// IsUnmatched reports whether the kind is one of the "Eşleşmedi" outcomes.
func (k MatchKind) IsUnmatched() bool {
	switch k {
	case MatchNone, MatchNoneBrandConflict, MatchNoneSetCountConflict:
		return true
	}
	return false
}

// MatchedRow is a marketplace row joined with its internal/supplier
// attributes and final pricing/stock decision. It is the row shape the
// report writer consumes.
type MatchedRow struct {
	Idx          int
	Barcode      string // Barkod (ex-MP_Barkod)
	SKU          string // SKU (ex-MP_SKU)
	ProductName  string // Urun_Adi (ex-MP_Urun_Adi)
	OldPrice     decimal.Decimal // Eski_Fiyat
	OldStock     int             // Eski_Stok
	MarketBrand  string          // MP_Marka

	Eslestirme       MatchKind
	AlgoritmaSkoru   *float64 // only set for Füzyon kinds

	KaynakKod   string // Kaynak_Kod; "YOK" when unmatched
	InternalStock int  // Ic_Stok (Nihai_Stok of matched internal row)
	SupplierStock int  // Ted_Stok
	Cost          decimal.Decimal // Maliyet
	InternalReadyPrice decimal.Decimal
	SupplierReadyPrice decimal.Decimal
	InternalBrand      string // marka
	SupplierBrand      string // marka_ted
	NihaiMarka         string

	SatisFiyati    decimal.Decimal
	FiyatDurumu    string
	GonderilecekStok int
	Durum          string
}
