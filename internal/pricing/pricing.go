// Package pricing turns a matched row plus an operator-chosen pricing
// strategy and NLP rule set into a final sale price, a human-readable
// status note, and the stock quantity to publish.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utasoy/market-reconciler/internal/fx"
	"github.com/utasoy/market-reconciler/internal/rules"
)

// BaseSource selects which column feeds the pricing calculation
// before any multiplier/addition/NLP rule is applied. It is a tagged
// variant, not a subtype, because the calculation needs no source-
// specific behavior beyond picking a column and a note.
type BaseSource string

const (
	SourceInternal BaseSource = "internal"
	SourceSupplier BaseSource = "supplier"
	SourceCost     BaseSource = "cost"
)

// Method is the overall pricing method requested by the operator.
type Method string

const (
	MethodCalculated Method = "calculated"
	MethodReadyList  Method = "ready_list"
	MethodStockOnly  Method = "stock_only"
)

// Strategy is the full operator-configured pricing policy for one run.
//
// DefaultMultiplier and VATRate are pointers because an operator can
// legitimately request a zero value (e.g. vat_rate=0) — nil means the
// field was never supplied, mirroring dict.get(key, default) semantics
// rather than Go's zero-value-means-unset default.
type Strategy struct {
	Method            Method
	Source            BaseSource
	DefaultMultiplier *decimal.Decimal
	DefaultAddition   decimal.Decimal
	AddVAT            bool
	VATRate           *decimal.Decimal
	NaturalLanguage   string
	SmartFreeze       bool
	FreezeSKUs        map[string]bool
	FreezeBarcodes    map[string]bool
}

// RowInput is every field calc needs from a matched row, independent
// of domain.MatchedRow so this package has no upward dependency.
type RowInput struct {
	MarketplacePrice decimal.Decimal
	Brand            string
	ProductName      string
	SKU              string
	Barcode          string
	InternalPrice    decimal.Decimal
	SupplierPrice    decimal.Decimal
	Cost             decimal.Decimal
}

// Outcome is the resolved sale price and the Turkish status note shown
// in the report.
type Outcome struct {
	Price  decimal.Decimal
	Status string
}

// Calc resolves the sale price for one row, grounded one-to-one on the
// original calc_p pricing function: frozen SKUs/barcodes short-circuit
// first, then a base price is chosen per Strategy.Source, NLP rules
// are applied in file order, VAT is layered on last, and smart-freeze
// vetoes any price drop.
func Calc(row RowInput, strat Strategy, parsedRules []rules.Rule, table *fx.Table) Outcome {
	current := row.MarketplacePrice
	brandUpper := strings.ToUpper(row.Brand)
	nameUpper := strings.ToUpper(row.ProductName)

	if strat.FreezeSKUs[row.SKU] || strat.FreezeBarcodes[row.Barcode] {
		return Outcome{Price: current, Status: "Manuel Dondurma"}
	}

	var basePrice decimal.Decimal
	var note string

	switch strat.Method {
	case MethodStockOnly:
		basePrice = current
		note = "Pazaryeri Fiyatı"
	default:
		switch strat.Source {
		case SourceInternal:
			basePrice = row.InternalPrice
			note = "İç Liste"
		case SourceSupplier:
			basePrice = row.SupplierPrice
			note = "Ted. Liste"
		case SourceCost:
			basePrice = row.Cost
			note = "Maliyet"
		}
	}

	if !basePrice.IsPositive() && strat.Method != MethodStockOnly && strat.Source != SourceCost {
		if current.IsPositive() {
			return Outcome{Price: current, Status: "Kaynak Fiyat Yok"}
		}
		return Outcome{Price: decimal.Zero, Status: "Fiyat Yok"}
	}

	var candidate decimal.Decimal
	switch strat.Method {
	case MethodStockOnly, MethodReadyList:
		candidate = basePrice
	default:
		if basePrice.IsPositive() {
			mult := decimal.NewFromFloat(1.5)
			if strat.DefaultMultiplier != nil {
				mult = *strat.DefaultMultiplier
			}
			candidate = basePrice.Mul(mult).Add(strat.DefaultAddition)
		} else {
			note = "Maliyet Yok"
		}
	}

	hasFixRule := false
	for _, r := range parsedRules {
		if r.Action == rules.ActionFixPrice {
			hasFixRule = true
			break
		}
	}

	if candidate.IsPositive() || hasFixRule {
		for _, r := range parsedRules {
			if !ruleTargets(r, brandUpper, nameUpper, row.SKU) {
				continue
			}
			candidate, note = applyRule(r, candidate, basePrice, note, table)
		}
	}

	if candidate.IsPositive() && strat.AddVAT {
		rate := decimal.NewFromInt(20)
		if strat.VATRate != nil {
			rate = *strat.VATRate
		}
		candidate = candidate.Mul(decimal.NewFromInt(1).Add(rate.Div(decimal.NewFromInt(100))))
	}

	if !candidate.IsPositive() {
		if current.IsPositive() {
			return Outcome{Price: current, Status: "Fiyat Korundu"}
		}
		return Outcome{Price: decimal.Zero, Status: note}
	}

	final := candidate.Round(2)

	if strat.SmartFreeze && current.IsPositive() && final.LessThan(current) {
		return Outcome{Price: current, Status: "Donduruldu (Düşüş Engellendi)"}
	}

	if final.Equal(current) {
		return Outcome{Price: current, Status: "Değişim Yok"}
	}
	return Outcome{Price: final, Status: note}
}

func ruleTargets(r rules.Rule, brandUpper, nameUpper, sku string) bool {
	switch {
	case r.Target == "ALL_PRODUCTS":
		return true
	case strings.Contains(brandUpper, r.Target):
		return true
	case strings.Contains(nameUpper, r.Target):
		return true
	case strings.Contains(strings.ToUpper(sku), r.Target):
		return true
	}
	return false
}

func applyRule(r rules.Rule, candidate, basePrice decimal.Decimal, note string, table *fx.Table) (decimal.Decimal, string) {
	switch r.Action {
	case rules.ActionFXConversion:
		if r.HasOldRate && r.OldRate.IsPositive() {
			curr := r.Currency
			if curr == "" {
				curr = "USD"
			}
			rate := decimal.NewFromInt(1)
			if table != nil {
				if rt, ok := table.Rate(curr); ok {
					rate = rt
				}
			}
			candidate = candidate.Div(r.OldRate).Mul(rate)
			note = note + " + Kur Farkı (" + curr + ")"
		}
	case rules.ActionFXIndex:
		curr := r.Currency
		if curr == "" {
			curr = "USD"
		}
		rate := decimal.NewFromInt(1)
		if table != nil {
			if rt, ok := table.Rate(curr); ok {
				rate = rt
			}
		}
		candidate = basePrice.Mul(rate)
		note = "Döviz Endeksli (" + curr + ")"
	case rules.ActionMultiplier:
		if r.Value.GreaterThan(decimal.NewFromInt(1)) || r.Value.LessThan(decimal.NewFromInt(1)) {
			candidate = candidate.Mul(r.Value)
		} else {
			candidate = candidate.Add(r.Value)
		}
		note = note + " + NLP (" + r.Target + ")"
	case rules.ActionFixPrice:
		val := r.Value
		if r.Currency != "" && r.Currency != "TRY" && table != nil {
			if rt, ok := table.Rate(r.Currency); ok {
				val = val.Mul(rt)
			}
		}
		candidate = val
		note = "Sabit Fiyat (" + r.Target + ")"
	}
	return candidate, note
}

// StockStrategy selects which side's stock becomes the published
// quantity.
type StockStrategy string

const (
	StockInternal StockStrategy = "internal"
	StockSupplier StockStrategy = "supplier"
	StockMin      StockStrategy = "min"
)

// OrphanStrategy controls what an unmatched marketplace row publishes.
type OrphanStrategy string

const (
	OrphanZero OrphanStrategy = "zero"
	OrphanKeep OrphanStrategy = "keep"
)

// CalcStock resolves the stock quantity to publish for a row, grounded
// on calc_s: unmatched rows under OrphanZero always publish zero,
// otherwise the strategy's chosen side (or the min of both) is
// published, floored at zero.
func CalcStock(internalStock, supplierStock int, strat StockStrategy, orphan OrphanStrategy, isUnmatched bool) int {
	if orphan == OrphanZero && isUnmatched {
		return 0
	}
	var res int
	switch strat {
	case StockInternal:
		res = internalStock
	case StockSupplier:
		res = supplierStock
	default:
		res = internalStock
		if supplierStock < res {
			res = supplierStock
		}
	}
	if res < 0 {
		return 0
	}
	return res
}
