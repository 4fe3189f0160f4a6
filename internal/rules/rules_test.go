package rules

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseHikePercent(t *testing.T) {
	rs := Parse("BOSCH FIYATLARINA %10 ZAM YAP")
	if len(rs) != 1 {
		t.Fatalf("got %d rules, want 1", len(rs))
	}
	r := rs[0]
	if r.Target != "BOSCH" {
		t.Errorf("Target = %q, want BOSCH", r.Target)
	}
	if r.Action != ActionMultiplier {
		t.Errorf("Action = %q, want multiplier", r.Action)
	}
	if !r.Value.Equal(mustDecimal("1.1")) {
		t.Errorf("Value = %s, want 1.1", r.Value)
	}
}

func TestParseDiscountAbsolute(t *testing.T) {
	rs := Parse("TUM URUNLERDE 5 INDIRIM YAP")
	r := rs[0]
	if r.Target != "ALL_PRODUCTS" {
		t.Errorf("Target = %q, want ALL_PRODUCTS", r.Target)
	}
	if !r.Value.Equal(mustDecimal("-5")) {
		t.Errorf("Value = %s, want -5", r.Value)
	}
}

func TestParseFixPrice(t *testing.T) {
	rs := Parse("MAKITA 199 TL OLSUN")
	r := rs[0]
	if r.Action != ActionFixPrice {
		t.Errorf("Action = %q, want fix_price", r.Action)
	}
	if r.Currency != "TRY" {
		t.Errorf("Currency = %q, want TRY", r.Currency)
	}
	if !r.Value.Equal(mustDecimal("199")) {
		t.Errorf("Value = %s, want 199", r.Value)
	}
}

func TestParseFXConversion(t *testing.T) {
	rs := Parse("DEWALT ESKI_KUR=32,50 USD KURA GUNCELLE")
	r := rs[0]
	if r.Action != ActionFXConversion {
		t.Errorf("Action = %q, want fx_conversion", r.Action)
	}
	if !r.HasOldRate || !r.OldRate.Equal(mustDecimal("32.50")) {
		t.Errorf("OldRate = %v (has=%v), want 32.50", r.OldRate, r.HasOldRate)
	}
}

func TestParseBlankLinesSkipped(t *testing.T) {
	rs := Parse("BOSCH ZAM\n\n   \nMAKITA INDIRIM")
	if len(rs) != 2 {
		t.Fatalf("got %d rules, want 2", len(rs))
	}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
