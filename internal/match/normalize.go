package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/utasoy/market-reconciler/internal/domain"
	"github.com/utasoy/market-reconciler/internal/valueparse"
)

var botPrefixPattern = regexp.MustCompile(`\b(rm_|tyc_|hbv|akn_|frkn)\w*`)

var turkishTitleFold = strings.NewReplacer(
	"ğ", "g", "ü", "u", "ş", "s", "ı", "i", "ö", "o", "ç", "c",
	"â", "a", "ê", "e", "î", "i", "ô", "o", "û", "u",
)

var noiseWords = []string{
	"orijinal", "ithal", "yerli", "uretim", "yeni", "kampanya", "kargo", "bedava", "firsati", "garantili",
}

var nonAlphaNumericSpace = regexp.MustCompile(`[^a-z0-9\s]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeText is the matcher's text-similarity normalizer: it folds
// Turkish diacritics, strips known export-platform SKU-prefix noise
// and marketing filler words, and collapses whitespace, but (unlike
// StrictNormalize) keeps a single space between tokens so downstream
// Jaccard/identity-code extraction can still split on words.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = botPrefixPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "frkn", "")
	text = turkishTitleFold.Replace(text)
	text = valueparse.NormalizeUnits(text)
	for _, w := range noiseWords {
		text = strings.ReplaceAll(text, w, "")
	}
	text = nonAlphaNumericSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

var turkishBrandFold = strings.NewReplacer(
	"İ", "I", "Ğ", "G", "Ü", "U", "Ş", "S", "Ö", "O", "Ç", "C",
)

// NormalizeBrand canonicalizes a raw brand cell into one of the
// catalog's known spellings, collapsing the handful of brands that
// appear under multiple house-style spellings across marketplaces.
func NormalizeBrand(raw string) string {
	if raw == "" || domain.BrandSentinels[strings.ToUpper(raw)] {
		return domain.BrandUnknown
	}
	b := turkishBrandFold.Replace(strings.ToUpper(raw))
	switch {
	case strings.Contains(b, "CETA"):
		return "CETA FORM"
	case strings.Contains(b, "IZEL") || b == "IZ":
		return "IZELTAS"
	case strings.Contains(b, "CER") && strings.Contains(b, "PA"):
		return "CERPA"
	case strings.Contains(b, "UNI") && strings.Contains(b, "T"):
		return "UNIT"
	case strings.Contains(b, "BLACK") && strings.Contains(b, "DECKER"):
		return "BLACK&DECKER"
	}
	return strings.TrimSpace(b)
}

// ExtractBrandFromTitle scans a product title for the longest known
// brand name appearing as a whole word, falling back to a narrow
// IZELTAS heuristic and finally TANIMSIZ.
func ExtractBrandFromTitle(title string) string {
	upper := strings.ReplaceAll(strings.ToUpper(title), "İ", "I")

	brands := make([]string, 0, len(KnownBrands))
	for b := range KnownBrands {
		brands = append(brands, b)
	}
	sort.Slice(brands, func(i, j int) bool { return len(brands[i]) > len(brands[j]) })

	for _, b := range brands {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(b) + `\b`)
		if re.MatchString(upper) {
			return b
		}
	}
	if strings.Contains(upper, "IZEL") {
		return "IZELTAS"
	}
	return domain.BrandUnknown
}

// DetectBrandSmart prefers an explicit, already-meaningful brand
// column over title-mining, since a populated brand field is a
// stronger signal than guessing from free text.
func DetectBrandSmart(brandColumn, title string) string {
	b := NormalizeBrand(brandColumn)
	if b != domain.BrandUnknown && len(b) > 2 {
		return b
	}
	return ExtractBrandFromTitle(title)
}

func containsSubstr(a, b string) bool {
	return strings.Contains(a, b)
}

func stringInSlice(s string, list []string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var numberToken = regexp.MustCompile(`\b\d+[a-z]*\b`)

// GetNumbers extracts the set of number-leading tokens ("10mm", "220")
// appearing in already-normalized text, used to compare product specs
// across candidates.
func GetNumbers(normalizedText string) map[string]bool {
	out := map[string]bool{}
	for _, m := range numberToken.FindAllString(normalizedText, -1) {
		out[m] = true
	}
	return out
}

// ExtractIdentityCodes pulls alphanumeric model/part codes (and bare
// alphabetic codes of 4+ letters not already a known brand) out of a
// raw title, after running it through NormalizeText.
func ExtractIdentityCodes(title string) map[string]bool {
	normalized := strings.ToUpper(NormalizeText(title))
	codes := map[string]bool{}
	for _, tok := range strings.Fields(normalized) {
		if len(tok) < 3 {
			continue
		}
		if BannedIdentityCodeTokens[tok] {
			continue
		}
		hasDigit, hasAlpha := false, false
		for _, r := range tok {
			switch {
			case r >= '0' && r <= '9':
				hasDigit = true
			case r >= 'A' && r <= 'Z':
				hasAlpha = true
			}
		}
		if hasDigit && hasAlpha {
			codes[tok] = true
			continue
		}
		if hasAlpha && !hasDigit && len(tok) >= 4 && !KnownBrands[tok] {
			codes[tok] = true
		}
	}
	return codes
}

var setCountPattern = regexp.MustCompile(`(\d+)\s*(parca|prc|set|li)`)

// CheckSetCountConflict reports whether two titles both name a piece
// count (e.g. "108 parça" vs "45 parça") and those counts disagree —
// a strong signal the listings are different-sized kits of the same
// product line, not the same SKU.
func CheckSetCountConflict(t1, t2 string) bool {
	m1 := setCountPattern.FindStringSubmatch(turkishTitleFold.Replace(strings.ToLower(t1)))
	m2 := setCountPattern.FindStringSubmatch(turkishTitleFold.Replace(strings.ToLower(t2)))
	if m1 == nil || m2 == nil {
		return false
	}
	return m1[1] != m2[1]
}

// CalculateHybridScore blends the TF-IDF cosine similarity with a
// whole-word Jaccard score, weighting the cosine score higher since it
// tolerates partial-word overlap that exact tokens miss.
func CalculateHybridScore(vectorScore float64, rowText, candText string) float64 {
	norm1 := NormalizeText(rowText)
	norm2 := NormalizeText(candText)
	tokens1 := strings.Fields(norm1)
	tokens2 := strings.Fields(norm2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}

	set1 := map[string]bool{}
	for _, t := range tokens1 {
		set1[t] = true
	}
	set2 := map[string]bool{}
	for _, t := range tokens2 {
		set2[t] = true
	}

	inter := 0
	for t := range set1 {
		if set2[t] {
			inter++
		}
	}
	union := len(set1)
	for t := range set2 {
		if !set1[t] {
			union++
		}
	}
	var jaccard float64
	if union > 0 {
		jaccard = float64(inter) / float64(union)
	}

	score := vectorScore*0.6 + jaccard*0.4
	if score > 1.0 {
		return 1.0
	}
	return score
}
