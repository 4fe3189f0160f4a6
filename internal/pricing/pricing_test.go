package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/utasoy/market-reconciler/internal/rules"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCalcMarkupFromCost(t *testing.T) {
	out := Calc(RowInput{
		MarketplacePrice: dec("100"),
		Cost:             dec("100"),
	}, Strategy{
		Method:            MethodCalculated,
		Source:            SourceCost,
		DefaultMultiplier: decPtr("1.5"),
	}, nil, nil)

	if !out.Price.Equal(dec("150")) {
		t.Errorf("Price = %s, want 150", out.Price)
	}
	if out.Status != "Maliyet" {
		t.Errorf("Status = %q, want Maliyet", out.Status)
	}
}

func TestCalcFreezeOverridesEverything(t *testing.T) {
	out := Calc(RowInput{
		MarketplacePrice: dec("77"),
		SKU:              "FROZEN-1",
		Cost:             dec("10"),
	}, Strategy{
		Method:            MethodCalculated,
		Source:            SourceCost,
		DefaultMultiplier: decPtr("3"),
		FreezeSKUs:        map[string]bool{"FROZEN-1": true},
	}, nil, nil)

	if !out.Price.Equal(dec("77")) || out.Status != "Manuel Dondurma" {
		t.Errorf("got %+v, want frozen at 77", out)
	}
}

func TestCalcSmartFreezeBlocksPriceDrop(t *testing.T) {
	out := Calc(RowInput{
		MarketplacePrice: dec("200"),
		Cost:             dec("50"),
	}, Strategy{
		Method:            MethodCalculated,
		Source:            SourceCost,
		DefaultMultiplier: decPtr("1.5"),
		SmartFreeze:       true,
	}, nil, nil)

	if !out.Price.Equal(dec("200")) || out.Status != "Donduruldu (Düşüş Engellendi)" {
		t.Errorf("got %+v, want price held at 200", out)
	}
}

func TestCalcNLPPercentageHike(t *testing.T) {
	r := rules.Parse("BOSCH FIYATLARA %10 ZAM YAP")
	out := Calc(RowInput{
		MarketplacePrice: dec("0"),
		Brand:            "BOSCH",
		Cost:             dec("100"),
	}, Strategy{
		Method:            MethodCalculated,
		Source:            SourceCost,
		DefaultMultiplier: decPtr("1"),
	}, r, nil)

	if !out.Price.Equal(dec("110")) {
		t.Errorf("Price = %s, want 110 (100 * 1.1)", out.Price)
	}
}

func TestCalcExplicitZeroVATRateIsHonored(t *testing.T) {
	out := Calc(RowInput{
		MarketplacePrice: dec("0"),
		Cost:             dec("100"),
	}, Strategy{
		Method:            MethodCalculated,
		Source:            SourceCost,
		DefaultMultiplier: decPtr("1"),
		AddVAT:            true,
		VATRate:           decPtr("0"),
	}, nil, nil)

	if !out.Price.Equal(dec("100")) {
		t.Errorf("Price = %s, want 100 (explicit vat_rate=0 must not fall back to 20%%)", out.Price)
	}
}

func TestCalcStockMinStrategy(t *testing.T) {
	if got := CalcStock(10, 4, StockMin, OrphanKeep, false); got != 4 {
		t.Errorf("CalcStock = %d, want 4", got)
	}
}

func TestCalcStockOrphanZero(t *testing.T) {
	if got := CalcStock(10, 4, StockMin, OrphanZero, true); got != 0 {
		t.Errorf("CalcStock = %d, want 0 for unmatched orphan", got)
	}
}

func TestCalcStockNeverNegative(t *testing.T) {
	if got := CalcStock(-5, -1, StockInternal, OrphanKeep, false); got != 0 {
		t.Errorf("CalcStock = %d, want 0 (floored)", got)
	}
}
