package match

import "github.com/utasoy/market-reconciler/internal/domain"

// KnownBrands is the fixed catalog of brand names the matcher can
// recognize directly from a product title when no brand column is
// populated.
var KnownBrands = map[string]bool{
	"BOSCH": true, "MAKITA": true, "DEWALT": true, "MILWAUKEE": true, "STANLEY": true,
	"BLACK&DECKER": true, "CETA FORM": true, "IZELTAS": true, "KNIPEX": true, "PROXXON": true,
	"WERA": true, "WIHA": true, "ATTLAS": true, "RTRMAX": true, "CATPOWER": true, "EINHELL": true,
	"KARCHER": true, "LOCTITE": true, "DBK": true, "KLPRO": true, "MAX EXTRA": true, "ROTA": true,
	"GLOBE": true, "YKAR": true, "CERMAX": true, "INGCO": true, "TOTAL": true, "RODEX": true,
	"CRAFT": true, "MAGMAWELD": true, "ASKAYNAK": true, "CERPA": true, "ALTAS": true, "ALTAŞ": true,
	"WOLFCRAFT": true, "UNI-T": true, "UNIT": true, "AEG": true, "ELTA": true, "MASTECH": true,
	"LUTION": true, "LUTIAN": true, "MYTOL": true, "CORAH": true, "HITACHI": true, "HIKOKI": true,
	"PIECESS": true, "ZOBO": true, "DURACELL": true, "GP": true, "VARTA": true, "OSRAM": true,
	"PHILIPS": true, "RAPID": true, "CHATTEL": true, "TODRILL": true, "RUBI": true, "KRISTAL": true,
	"MIKASSO": true, "KLEIN": true, "DREMEL": true, "RYOBI": true, "METABO": true, "HILTI": true,
	"STAYER": true, "VIRAX": true, "ROTHENBERGER": true, "RIDGID": true, "REMS": true,
}

// BannedIdentityCodeTokens are generic words never treated as a
// product identity code even though they survive normalization.
var BannedIdentityCodeTokens = map[string]bool{
	"SET": true, "ADET": true, "PARCA": true, "TAKIM": true, "CANTALI": true,
	"KUTULU": true, "PRO": true, "PLUS": true, "MAX": true,
}

// BrandConflicts lists brand pairs that, in this catalog, are never
// the same physical product despite similar product text — mostly
// hand-tool brands resold under house labels by competing importers.
var BrandConflicts = map[string][]string{
	"CETA FORM": {"IZELTAS", "CERPA", "ALTAS", "KNIPEX", "ELTA"},
	"IZELTAS":   {"CETA FORM", "CERPA", "ALTAS", "KNIPEX"},
	"CERPA":     {"CETA FORM", "IZELTAS", "KNIPEX", "ALTAS"},
	"BOSCH":     {"MAKITA", "DEWALT", "MILWAUKEE", "EINHELL", "RTRMAX", "DBK", "AEG", "HITACHI"},
	"MAKITA":    {"BOSCH", "DEWALT", "MILWAUKEE", "EINHELL", "RTRMAX", "DBK", "AEG", "HITACHI"},
	"RTRMAX":    {"BOSCH", "MAKITA", "DEWALT", "EINHELL", "CATPOWER", "AEG", "HITACHI", "ATTLAS", "CHATTEL", "INGCO"},
	"INGCO":     {"TOTAL", "RTRMAX", "ATTLAS", "CATPOWER"},
	"KNIPEX":    {"IZELTAS", "CETA FORM", "CERPA"},
	"MILWAUKEE": {"DEWALT", "MAKITA", "BOSCH"},
	"HITACHI":   {"MAKITA", "BOSCH", "DEWALT", "RTRMAX"},
}

func isBrandConflict(b1, b2 string) bool {
	if b1 == domain.BrandUnknown || b2 == domain.BrandUnknown {
		return false
	}
	if b1 == b2 {
		return false
	}
	if containsSubstr(b1, b2) || containsSubstr(b2, b1) {
		return false
	}
	if conflicts, ok := BrandConflicts[b1]; ok && stringInSlice(b2, conflicts) {
		return true
	}
	if conflicts, ok := BrandConflicts[b2]; ok && stringInSlice(b1, conflicts) {
		return true
	}
	return KnownBrands[b1] && KnownBrands[b2]
}
