package job

import (
	"context"
	"fmt"

	"github.com/utasoy/market-reconciler/internal/domain"
	"github.com/utasoy/market-reconciler/internal/fx"
	"github.com/utasoy/market-reconciler/internal/match"
	"github.com/utasoy/market-reconciler/internal/pricing"
	"github.com/utasoy/market-reconciler/internal/rules"
	"github.com/utasoy/market-reconciler/pkg/logger"
)

// MatchingInput bundles everything ProcessMarketplace needs to run a
// full reconciliation pass for one job.
type MatchingInput struct {
	JobID          string
	Internal       []domain.InternalRow
	Supplier       []domain.SupplierRow
	Marketplace    []domain.MarketplaceRow
	Pricing        pricing.Strategy
	StockStrat     pricing.StockStrategy
	OrphanStrat    pricing.OrphanStrategy
	FX             *fx.Table
	OriginalFormat OriginalFormatInput
}

// OriginalFormatInput carries the raw, pre-template-projection
// marketplace rows and the template's column names, so the optional
// upload-format sheet can overlay updated prices/stock onto the
// operator's own export instead of the canonical-mapped table.
type OriginalFormatInput struct {
	Include     bool
	Rows        []map[string]string
	SKUHeader   string
	PriceHeader string
	StockHeader string
}

// Orchestrator drives the five-stage pipeline (load, exact match,
// hybrid match, pricing, write) and reports progress through a Store,
// mirroring the original job's 5/15/40/60/95/100 percent checkpoints.
type Orchestrator struct {
	store *Store
	// Writer produces the final downloadable artifact; kept as a
	// narrow func type so this package has no direct report dependency.
	Writer func(ctx context.Context, jobID string, rows []domain.MatchedRow, in MatchingInput, meta RunMeta) (string, error)
}

// RunMeta carries the summary figures the report writer's disclaimer
// and statistics sheet needs.
type RunMeta struct {
	TotalMarketplaceRows int
	MatchedCount         int
	UnmatchedCount       int
	FXUpdatedAt          string
}

// NewOrchestrator builds an Orchestrator backed by store.
func NewOrchestrator(store *Store) *Orchestrator {
	return &Orchestrator{store: store}
}

// ProcessMarketplace runs the full matching+pricing pipeline in the
// calling goroutine; callers that want it backgrounded should launch
// it with `go`, as the internal/api /process_marketplace handler does.
func (o *Orchestrator) ProcessMarketplace(ctx context.Context, in MatchingInput) {
	jobID := in.JobID

	o.mustUpdate(jobID, "running", 5, "Adım 1/5: Veri Setleri Yükleniyor...")

	supplierByMatchCode := make(map[string]domain.SupplierRow, len(in.Supplier))
	for _, s := range in.Supplier {
		if _, exists := supplierByMatchCode[s.MatchCode]; !exists {
			supplierByMatchCode[s.MatchCode] = s
		}
	}

	o.mustUpdate(jobID, "running", 15, "Adım 2/5: Barkod ve SKU Taraması Yapılıyor...")
	engine := match.NewEngine(in.Internal)

	o.mustUpdate(jobID, "running", 40, "Adım 3/5: Akıllı Eşleştirme Motoru (İsim Analizi)...")
	results := engine.Match(in.Marketplace)

	o.mustUpdate(jobID, "running", 60, "Adım 4/5: Akıllı Fiyat Hesaplama ve Kur Analizi...")
	parsedRules := rules.Parse(in.Pricing.NaturalLanguage)

	mpByIdx := make(map[int]domain.MarketplaceRow, len(in.Marketplace))
	for _, mp := range in.Marketplace {
		mpByIdx[mp.Idx] = mp
	}

	matched := make([]domain.MatchedRow, 0, len(results))
	matchedCount := 0
	for _, res := range results {
		mp := mpByIdx[res.MarketplaceIdx]
		row := buildMatchedRow(mp, res, supplierByMatchCode)

		rowInput := pricing.RowInput{
			MarketplacePrice: mp.Price,
			Brand:            row.NihaiMarka,
			ProductName:      row.ProductName,
			SKU:              mp.SKU,
			Barcode:          mp.Barcode,
			InternalPrice:    row.InternalReadyPrice,
			SupplierPrice:    row.SupplierReadyPrice,
			Cost:             row.Cost,
		}
		outcome := pricing.Calc(rowInput, in.Pricing, parsedRules, in.FX)
		row.SatisFiyati = outcome.Price
		row.FiyatDurumu = outcome.Status

		row.GonderilecekStok = pricing.CalcStock(row.InternalStock, row.SupplierStock, in.StockStrat, in.OrphanStrat, res.Kind.IsUnmatched())

		if res.Kind.IsUnmatched() {
			row.Durum = "Eşleşmedi"
		} else {
			row.Durum = outcome.Status
		}

		if row.KaynakKod != domain.BarcodeMissing {
			matchedCount++
		}
		matched = append(matched, row)
	}

	o.mustUpdate(jobID, "running", 95, "Adım 5/5: Rapor Oluşturuluyor...")

	meta := RunMeta{
		TotalMarketplaceRows: len(in.Marketplace),
		MatchedCount:         matchedCount,
		UnmatchedCount:       len(in.Marketplace) - matchedCount,
	}
	if in.FX != nil {
		meta.FXUpdatedAt = in.FX.UpdatedAt
	}

	if o.Writer == nil {
		_ = o.store.Fail(jobID, fmt.Errorf("job: no report writer configured"))
		return
	}

	resultFile, err := o.Writer(ctx, jobID, matched, in, meta)
	if err != nil {
		logger.Log.Error().Err(err).Str("job_id", jobID).Msg("report write failed")
		_ = o.store.Fail(jobID, err)
		return
	}

	if err := o.store.Complete(jobID, resultFile); err != nil {
		logger.Log.Error().Err(err).Str("job_id", jobID).Msg("could not persist job completion")
	}
}

func buildMatchedRow(mp domain.MarketplaceRow, res match.Result, supplierByMatchCode map[string]domain.SupplierRow) domain.MatchedRow {
	row := domain.MatchedRow{
		Idx:         mp.Idx,
		Barcode:     mp.Barcode,
		SKU:         mp.SKU,
		ProductName: mp.ProductName,
		OldPrice:    mp.Price,
		OldStock:    mp.OldStock,
		MarketBrand: mp.Brand,
		Eslestirme:  res.Kind,
		AlgoritmaSkoru: res.Score,
		KaynakKod:   domain.BarcodeMissing,
	}

	if res.Internal != nil {
		row.KaynakKod = res.Internal.SKU
		row.InternalStock = res.Internal.FinalStock
		row.InternalReadyPrice = res.Internal.ReadyPrice
		row.InternalBrand = res.Internal.Brand

		matchCode := res.Internal.MatchCode
		if sup, ok := supplierByMatchCode[matchCode]; ok {
			row.SupplierStock = sup.TotalStock
			row.Cost = sup.Cost
			row.SupplierReadyPrice = sup.ReadyPrice
			row.SupplierBrand = sup.Brand
		} else {
			row.SupplierBrand = domain.BrandUnknown
		}
	} else {
		row.InternalBrand = domain.BrandUnknown
		row.SupplierBrand = domain.BrandUnknown
	}

	row.NihaiMarka = resolveBrand(row.InternalBrand, row.SupplierBrand, mp.Brand)
	return row
}

// resolveBrand prefers the internal catalog's brand, then the
// supplier's, and finally the marketplace's own brand column, skipping
// any value listed in domain.BrandSentinels.
func resolveBrand(internalBrand, supplierBrand, mpBrand string) string {
	if !domain.BrandSentinels[internalBrand] {
		return internalBrand
	}
	if !domain.BrandSentinels[supplierBrand] {
		return supplierBrand
	}
	return mpBrand
}

func (o *Orchestrator) mustUpdate(jobID, status string, progress int, message string) {
	if err := o.store.Update(jobID, status, progress, message); err != nil {
		logger.Log.Warn().Err(err).Str("job_id", jobID).Msg("could not persist job progress")
	}
}
