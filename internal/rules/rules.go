// Package rules parses the pricing operator's free-form, line-oriented
// natural language instructions into structured Rule values the
// pricing engine can apply deterministically.
package rules

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Action is the closed set of pricing operations a Rule can request.
type Action string

const (
	ActionMultiplier   Action = "multiplier"
	ActionFixPrice     Action = "fix_price"
	ActionFXConversion Action = "fx_conversion"
	ActionFXIndex      Action = "fx_index"
)

// Rule is one parsed line of pricing instruction.
type Rule struct {
	Target   string // brand/model token, or ALL_PRODUCTS
	Action   Action
	Value    decimal.Decimal
	Currency string // "" when the line named no currency; USD for fx actions
	OldRate  decimal.Decimal
	HasOldRate bool
	RawText  string
}

const targetUnknown = "TANIMSIZ"

var allProductsMarkers = []string{"TUM", "HEPSI", "GENEL", "HERKES", "BUTUN", "TÜM", "BÜTÜN"}

var continuationWords = map[string]bool{
	"FORM": true, "EXTRA": true, "POWER": true, "PLUS": true, "DECKER": true, "LI": true,
}

var oldRatePattern = regexp.MustCompile(`ESKI_KUR\s*=\s*(\d+[.,]?\d*)`)
var numberPattern = regexp.MustCompile(`\d+[.,]?\d*`)

var hikeWords = []string{"ZAM", "ARTIS", "EKLE", "YUKSELT"}
var discountWords = []string{"INDIRIM", "ISKONTO", "DUS", "AZALT"}
var fixWords = []string{"OLSUN", "SABITLE", "YAP", "FIKSE", "AYARLA"}
var fxIndexTriggerWords = []string{"KURA", "KURU", "DOVIZ", "ENDEKS"}
var fxIndexActionWords = []string{"ESITLE", "CEVIR", "YAP", "GUNCELLE"}

// Parse splits text into lines and parses each non-blank one into a
// Rule, skipping blank lines silently.
func Parse(text string) []Rule {
	if text == "" {
		return nil
	}
	var out []Rule
	for _, raw := range strings.Split(text, "\n") {
		line := strings.ToUpper(strings.TrimSpace(raw))
		if line == "" {
			continue
		}
		out = append(out, parseLine(line))
	}
	return out
}

func parseLine(line string) Rule {
	r := Rule{
		Target:  detectTarget(line),
		Action:  ActionMultiplier,
		Value:   decimal.Zero,
		RawText: line,
	}

	if m := oldRatePattern.FindStringSubmatch(line); m != nil {
		if d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ".")); err == nil {
			r.OldRate = d
			r.HasOldRate = true
		}
	}

	cleanLine := oldRatePattern.ReplaceAllString(line, "")
	r.Value = extractValue(cleanLine, r.Target)

	r.Currency = detectCurrency(line)

	switch {
	case r.HasOldRate && r.OldRate.IsPositive():
		r.Action = ActionFXConversion
		if r.Currency == "" {
			r.Currency = "USD"
		}
	case containsAny(line, fxIndexTriggerWords) && containsAny(line, fxIndexActionWords):
		r.Action = ActionFXIndex
		if r.Currency == "" {
			r.Currency = "USD"
		}
	case containsAny(line, hikeWords):
		r.Action = ActionMultiplier
		if strings.Contains(line, "%") || strings.Contains(line, "YUZDE") {
			r.Value = decimal.NewFromInt(1).Add(r.Value.Div(decimal.NewFromInt(100)))
		}
	case containsAny(line, discountWords):
		r.Action = ActionMultiplier
		if strings.Contains(line, "%") || strings.Contains(line, "YUZDE") {
			r.Value = decimal.NewFromInt(1).Sub(r.Value.Div(decimal.NewFromInt(100)))
		} else {
			r.Value = r.Value.Neg()
		}
	case containsAny(line, fixWords):
		r.Action = ActionFixPrice
	}

	return r
}

func detectTarget(line string) string {
	for _, marker := range allProductsMarkers {
		if strings.Contains(line, marker) {
			return "ALL_PRODUCTS"
		}
	}
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return targetUnknown
	}
	target := parts[0]
	if len(parts) > 1 && continuationWords[parts[1]] {
		target = parts[0] + " " + parts[1]
	}
	return target
}

func extractValue(cleanLine, target string) decimal.Decimal {
	for _, numStr := range numberPattern.FindAllString(cleanLine, -1) {
		if strings.Contains(target, numStr) {
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(numStr, ",", "."))
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

func detectCurrency(line string) string {
	switch {
	case strings.Contains(line, "USD") || strings.Contains(line, "DOLAR"):
		return "USD"
	case strings.Contains(line, "EUR") || strings.Contains(line, "EURO"):
		return "EUR"
	case strings.Contains(line, "TRY") || strings.Contains(line, "TL"):
		return "TRY"
	}
	return ""
}

func containsAny(line string, words []string) bool {
	for _, w := range words {
		if strings.Contains(line, w) {
			return true
		}
	}
	return false
}
