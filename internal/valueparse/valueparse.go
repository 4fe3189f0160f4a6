// Package valueparse turns the ragged strings found in marketplace and
// supplier exports into the stock quantities, prices and normalized
// identifiers the rest of the pipeline operates on.
package valueparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanColumnName collapses NBSP/tab/newline runs to a single space,
// trims and lowercases a header cell read from an uploaded file.
func CleanColumnName(col string) string {
	if col == "" {
		return ""
	}
	s := strings.NewReplacer(" ", " ", "\t", " ", "\n", " ").Replace(col)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

var negativeStockKeywords = []string{
	"yok", "tükendi", "mevcut değil", "kalmadı", "gelince", "temin", "sorunuz", "stokta yok",
}

var stockDigits = regexp.MustCompile(`\d+`)

// ParseStockQuantity extracts a non-negative integer stock count from a
// free-form cell, treating any Turkish "out of stock" phrasing as zero.
func ParseStockQuantity(raw string) int {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "nan" || s == "none" {
		return 0
	}
	for _, kw := range negativeStockKeywords {
		if strings.Contains(s, kw) {
			return 0
		}
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " ", "")

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := int(f)
		if v < 0 {
			return 0
		}
		return v
	}
	if m := stockDigits.FindString(s); m != "" {
		v, _ := strconv.Atoi(m)
		return v
	}
	return 0
}

var priceStrip = regexp.MustCompile(`[^\d.,]`)

// ParsePrice extracts an arbitrary-precision price from a free-form
// cell, handling both "1.234,56" and "1,234.56" thousands/decimal
// conventions by comparing the rightmost comma and dot positions.
func ParsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero
	}
	switch strings.ToLower(s) {
	case "nan", "none", "0":
		return decimal.Zero
	}
	s = priceStrip.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var (
	unitToken        = regexp.MustCompile(`(\d+)\s+(mm|cm|mt|m|gr|kg|w|v|lt|ml|bar|adet|pcs|set)\b`)
	replacementOrder = []string{"watt", "volt", "amper", "siyah", "beyaz", "kirmizi", "mavi", "sari", "yesil", "turuncu", "takim", "cift"}
	replacementValue = map[string]string{
		"watt": "w", "volt": "v", "amper": "amp",
		"siyah": "", "beyaz": "", "kirmizi": "", "mavi": "", "sari": "", "yesil": "", "turuncu": "",
		"takim": "set", "cift": "set",
	}
)

// NormalizeUnits lowercases text, glues a quantity to its unit ("10 mm"
// -> "10mm"), shortens a few unit words ("watt" -> "w", "volt" -> "v",
// "amper" -> "amp"), maps "takim"/"cift" to "set" and strips color words
// that do not affect product identity.
func NormalizeUnits(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = unitToken.ReplaceAllString(text, "$1$2")
	for _, word := range replacementOrder {
		re := regexp.MustCompile(`\b` + word + `\b`)
		text = re.ReplaceAllString(text, replacementValue[word])
	}
	return text
}

var turkishFold = strings.NewReplacer(
	"ı", "i", "ğ", "g", "ü", "u", "ş", "s", "ö", "o", "ç", "c",
)

var nonAlphaNumeric = regexp.MustCompile(`[^a-z0-9]`)

// StrictNormalize folds Turkish diacritics, runs NormalizeUnits and
// then strips everything but lowercase letters and digits, producing
// the tight key used for exact-text identity comparisons.
func StrictNormalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = turkishFold.Replace(text)
	text = NormalizeUnits(text)
	return nonAlphaNumeric.ReplaceAllString(text, "")
}

var matchCodePrefixes = []string{"CETA", "IZELTAS", "BOSCH", "MAKITA", "DEWALT", "KNIPEX", "CERPA", "ELTA", "RTR", "ATTLAS"}

var nonAlphaNumericUpper = regexp.MustCompile(`[^A-Z0-9]`)

// GenerateMatchCode strips a single known brand prefix (and any
// separator following it) from a supplier/internal product code, then
// removes every remaining non-alphanumeric character. It is the join
// key bridging internal and supplier catalogs across vendor-specific
// code dialects. Codes that are empty or cannot be derived return the
// KOD_YOK sentinel.
func GenerateMatchCode(code string) string {
	if strings.TrimSpace(code) == "" {
		return "KOD_YOK"
	}
	s := strings.ToUpper(strings.TrimSpace(code))
	for _, prefix := range matchCodePrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimLeft(s[len(prefix):], "-. \t")
			break
		}
	}
	s = nonAlphaNumericUpper.ReplaceAllString(s, "")
	if s == "" {
		return "KOD_YOK"
	}
	return s
}
