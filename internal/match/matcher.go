// Package match implements the three-stage reconciliation engine:
// exact barcode match, exact SKU match, then a TF-IDF/Jaccard hybrid
// text match arbitrated by brand-conflict and identity-code rules.
package match

import (
	"strings"

	"github.com/utasoy/market-reconciler/internal/domain"
	"github.com/utasoy/market-reconciler/internal/match/tfidf"
	"github.com/utasoy/market-reconciler/internal/valueparse"
)

const (
	thresholdTrusted = 0.35
	thresholdHigh    = 0.75
	thresholdNumeric = 0.50
	minVectorScore    = 0.15
)

// Result is the outcome of matching one marketplace row: either a
// resolved internal candidate or one of the "Eşleşmedi" outcomes.
type Result struct {
	MarketplaceIdx int
	Kind           domain.MatchKind
	Score          *float64 // set only for fusion (text) outcomes
	Internal       *domain.InternalRow
}

// Engine runs the full three-stage match over one marketplace batch
// against one consolidated internal catalog.
type Engine struct {
	internal []domain.InternalRow
}

// NewEngine prepares an Engine, pre-computing the normalized barcode,
// SKU and name keys every stage needs.
func NewEngine(internal []domain.InternalRow) *Engine {
	prepped := make([]domain.InternalRow, len(internal))
	for i, row := range internal {
		row.BarcodeNorm = valueparse.StrictNormalize(row.Barcode)
		row.SKUNorm = valueparse.StrictNormalize(row.SKU)
		prepped[i] = row
	}
	return &Engine{internal: prepped}
}

// Match runs all three stages over mp, returning one Result per row in
// input order.
func (e *Engine) Match(mp []domain.MarketplaceRow) []Result {
	prepped := make([]domain.MarketplaceRow, len(mp))
	for i, row := range mp {
		row.BarcodeNorm = valueparse.StrictNormalize(row.Barcode)
		row.SKUNorm = valueparse.StrictNormalize(row.SKU)
		prepped[i] = row
	}

	results := make(map[int]Result, len(prepped))

	byBarcode := map[string]domain.InternalRow{}
	for _, row := range e.internal {
		if len(row.BarcodeNorm) > 4 {
			if _, exists := byBarcode[row.BarcodeNorm]; !exists {
				byBarcode[row.BarcodeNorm] = row
			}
		}
	}
	for _, row := range prepped {
		if len(row.BarcodeNorm) <= 4 {
			continue
		}
		if cand, ok := byBarcode[row.BarcodeNorm]; ok {
			c := cand
			results[row.Idx] = Result{MarketplaceIdx: row.Idx, Kind: domain.MatchBarcode, Internal: &c}
		}
	}

	bySKU := map[string]domain.InternalRow{}
	for _, row := range e.internal {
		if len(row.SKUNorm) > 2 {
			if _, exists := bySKU[row.SKUNorm]; !exists {
				bySKU[row.SKUNorm] = row
			}
		}
	}
	for _, row := range prepped {
		if _, done := results[row.Idx]; done {
			continue
		}
		if len(row.SKUNorm) <= 2 {
			continue
		}
		if cand, ok := bySKU[row.SKUNorm]; ok {
			c := cand
			results[row.Idx] = Result{MarketplaceIdx: row.Idx, Kind: domain.MatchSKU, Internal: &c}
		}
	}

	var remaining []domain.MarketplaceRow
	for _, row := range prepped {
		if _, done := results[row.Idx]; !done {
			remaining = append(remaining, row)
		}
	}

	if len(remaining) > 0 && len(e.internal) > 0 {
		for idx, r := range e.runHybrid(remaining) {
			results[idx] = r
		}
	}

	out := make([]Result, len(prepped))
	for i, row := range prepped {
		if r, ok := results[row.Idx]; ok {
			out[i] = r
		} else {
			out[i] = Result{MarketplaceIdx: row.Idx, Kind: domain.MatchNone}
		}
	}
	return out
}

// runHybrid is the TF-IDF + rule-based fusion stage, grounded one-to-one
// on UniversalSmartMatcher.run_engine.
func (e *Engine) runHybrid(mp []domain.MarketplaceRow) map[int]Result {
	type validInternal struct {
		row      domain.InternalRow
		normName string
	}
	var validInt []validInternal
	for _, row := range e.internal {
		n := NormalizeText(row.ProductName)
		if len(n) > 3 {
			validInt = append(validInt, validInternal{row, n})
		}
	}

	type validMPRow struct {
		row      domain.MarketplaceRow
		normName string
	}
	var validMP []validMPRow
	for _, row := range mp {
		n := NormalizeText(row.ProductName)
		if len(n) > 3 {
			validMP = append(validMP, validMPRow{row, n})
		}
	}

	results := map[int]Result{}
	if len(validInt) == 0 || len(validMP) == 0 {
		return results
	}

	vec := tfidf.New(3, 4)
	corpus := make([]string, 0, len(validInt)+len(validMP))
	for _, v := range validInt {
		corpus = append(corpus, v.normName)
	}
	for _, v := range validMP {
		corpus = append(corpus, v.normName)
	}
	vec.Fit(corpus)

	intVectors := make([]tfidf.Vector, len(validInt))
	for i, v := range validInt {
		intVectors[i] = vec.Transform(v.normName)
	}

	for _, v := range validMP {
		mpVec := vec.Transform(v.normName)

		bestIdx := -1
		bestScore := -1.0
		for i, iv := range intVectors {
			s := tfidf.CosineSimilarity(mpVec, iv)
			if s > bestScore {
				bestScore = s
				bestIdx = i
			}
		}

		if bestIdx < 0 || bestScore < minVectorScore {
			results[v.row.Idx] = Result{MarketplaceIdx: v.row.Idx, Kind: domain.MatchNone}
			continue
		}

		cand := validInt[bestIdx]
		results[v.row.Idx] = decide(v.row, cand.row, bestScore)
	}
	return results
}

func decide(mpRow domain.MarketplaceRow, cand domain.InternalRow, vectorScore float64) Result {
	mpBrand := DetectBrandSmart(mpRow.Brand, mpRow.ProductName)
	intBrand := DetectBrandSmart(cand.Brand, cand.ProductName)
	brandConflict := isBrandConflict(mpBrand, intBrand)
	brandsMatch := mpBrand == intBrand && mpBrand != domain.BrandUnknown

	mpNormForNums := NormalizeText(mpRow.ProductName)
	intNormForNums := NormalizeText(cand.ProductName)
	numsMP := GetNumbers(mpNormForNums)
	numsInt := GetNumbers(intNormForNums)
	numericMatch := false
	if len(numsMP) > 0 && len(numsInt) > 0 {
		if isSubset(numsMP, numsInt) || isSubset(numsInt, numsMP) {
			numericMatch = true
		}
	}

	codesMP := ExtractIdentityCodes(mpRow.ProductName)
	codesInt := ExtractIdentityCodes(cand.ProductName)
	hasStrongCodeMatch := false
	longest := ""
	for c := range codesMP {
		if codesInt[c] && len(c) > len(longest) {
			longest = c
		}
	}
	if longest != "" && len(longest) >= 3 {
		hasStrongCodeMatch = true
	}
	if !hasStrongCodeMatch {
		n1 := strings.ReplaceAll(mpNormForNums, " ", "")
		for code := range codesInt {
			if len(code) > 3 && strings.Contains(n1, strings.ToLower(code)) {
				hasStrongCodeMatch = true
				break
			}
		}
	}

	setConflict := CheckSetCountConflict(mpRow.ProductName, cand.ProductName)
	hybrid := CalculateHybridScore(vectorScore, mpRow.ProductName, cand.ProductName)
	score := hybrid * 100

	var kind domain.MatchKind
	switch {
	case brandConflict:
		if hasStrongCodeMatch && !setConflict && numericMatch {
			kind = domain.MatchFusionBrandCodeNumeric
		} else {
			kind = domain.MatchNoneBrandConflict
		}
	case setConflict:
		kind = domain.MatchNoneSetCountConflict
	case hasStrongCodeMatch:
		kind = domain.MatchFusionGoldenCode
	case brandsMatch:
		switch {
		case hybrid > thresholdTrusted:
			kind = domain.MatchFusionSafeBrand
		case numericMatch && hybrid > 0.25:
			kind = domain.MatchFusionBrandNumeric
		default:
			kind = domain.MatchNone
		}
	default:
		switch {
		case numericMatch && hybrid > thresholdNumeric:
			kind = domain.MatchFusionStrongNumeric
		case hybrid > thresholdHigh:
			kind = domain.MatchFusionHighText
		default:
			kind = domain.MatchNone
		}
	}

	res := Result{MarketplaceIdx: mpRow.Idx, Kind: kind}
	if kind.IsFusion() {
		c := cand
		res.Internal = &c
		res.Score = &score
	}
	return res
}

func isSubset(a, b map[string]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
