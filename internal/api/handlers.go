package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/utasoy/market-reconciler/internal/consolidate"
	"github.com/utasoy/market-reconciler/internal/domain"
	"github.com/utasoy/market-reconciler/internal/fx"
	"github.com/utasoy/market-reconciler/internal/ingest"
	"github.com/utasoy/market-reconciler/internal/job"
	"github.com/utasoy/market-reconciler/internal/pricing"
	"github.com/utasoy/market-reconciler/internal/rules"
	"github.com/utasoy/market-reconciler/internal/template"
)

// Deps bundles every service the HTTP layer needs. It has no behavior
// of its own, just the wiring cmd/server assembles once at startup.
type Deps struct {
	Templates    template.Store
	Jobs         *job.Store
	FX           *fx.Provider
	Orchestrator *job.Orchestrator
	results      *resultStore
}

func (d *Deps) store() *resultStore {
	if d.results == nil {
		d.results = newResultStore()
	}
	return d.results
}

func getRates(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		table := d.FX.Current()
		rates := map[string]string{}
		for cur, rate := range table.Rates {
			rates[cur] = rate.String()
		}
		c.JSON(http.StatusOK, gin.H{"rates": rates, "last_update": table.UpdatedAt})
	}
}

func refreshRates(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := d.FX.Refresh(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"hata": "Kur alınamadı."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"mesaj": fmt.Sprintf("Kurlar güncellendi. (%s)", d.FX.Current().UpdatedAt)})
	}
}

func handleTemplates(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			var body struct {
				TemplateName string            `json:"template_name"`
				Config       map[string]string `json:"config"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"hata": err.Error()})
				return
			}
			if err := d.Templates.Save(body.TemplateName, template.Mapping(body.Config)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"mesaj": "Kaydedildi"})
			return
		}

		names, err := d.Templates.List()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": names})
	}
}

func templateOps(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if c.Request.Method == http.MethodDelete {
			if err := d.Templates.Save(name, template.Mapping{}); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"mesaj": "Silindi"})
			return
		}

		mapping, err := d.Templates.Load(name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
			return
		}
		if len(mapping) == 0 {
			c.JSON(http.StatusNotFound, gin.H{})
			return
		}
		c.JSON(http.StatusOK, gin.H{"config": mapping})
	}
}

func exportAllTemplates(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := d.Templates.List()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
			return
		}
		out := map[string]template.Mapping{}
		for _, name := range names {
			mapping, err := d.Templates.Load(name)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
				return
			}
			out[name] = mapping
		}
		c.JSON(http.StatusOK, gin.H{"templates": out})
	}
}

func importAllTemplates(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Templates map[string]template.Mapping `json:"templates"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"hata": err.Error()})
			return
		}
		for name, mapping := range body.Templates {
			if err := d.Templates.Save(name, mapping); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"mesaj": fmt.Sprintf("%d şablon içe aktarıldı", len(body.Templates))})
	}
}

func resetTemplates(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := d.Templates.List()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
			return
		}
		for _, name := range names {
			if err := d.Templates.Save(name, template.Mapping{}); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"mesaj": "Tüm şablonlar sıfırlandı"})
	}
}

// Canonical fields a template may map, matched against what
// consolidate.Internal/Supplier and the marketplace row builder read.
var (
	internalFields    = []string{"barcode", "sku", "brand", "product_name", "stock", "selling_price"}
	supplierFields    = []string{"barcode", "sku", "brand", "product_name", "stock", "cost", "selling_price", "currency", "currency_column"}
	marketplaceFields = []string{"barcode", "sku", "brand", "product_name", "stock", "selling_price"}
)

func calculateStock(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"hata": err.Error()})
			return
		}

		templateNames := strings.Split(c.PostForm("template_names"), ",")
		labels := strings.Split(c.PostForm("labels"), ",")

		var threshold *int
		amount := 0
		if v := c.PostForm("security_threshold"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				threshold = &n
			}
			if a, err := strconv.Atoi(c.PostForm("security_amount")); err == nil {
				amount = a
			}
		}

		files := form.File["files"]
		sourceFiles := make([]consolidate.SourceFile, 0, len(files))
		for i, fh := range files {
			rows, err := loadTemplatedFile(d, fh, pick(templateNames, i), internalFields)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
				return
			}
			label := pick(labels, i)
			if label == "" {
				label = "+"
			}
			sourceFiles = append(sourceFiles, consolidate.SourceFile{Filename: fh.Filename, Label: label, Rows: rows})
		}

		rows, meta := consolidate.Internal(sourceFiles, threshold, amount)
		key := d.store().putInternal(rows, meta)
		c.JSON(http.StatusOK, gin.H{"result_key": key})
	}
}

func consolidateSuppliers(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"hata": err.Error()})
			return
		}
		templateNames := strings.Split(c.PostForm("template_names"), ",")

		files := form.File["files"]
		sourceFiles := make([]consolidate.SourceFile, 0, len(files))
		for i, fh := range files {
			rows, err := loadTemplatedFile(d, fh, pick(templateNames, i), supplierFields)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
				return
			}
			sourceFiles = append(sourceFiles, consolidate.SourceFile{Filename: fh.Filename, Rows: rows})
		}

		rows, meta := consolidate.Supplier(sourceFiles, d.FX.Current())
		key := d.store().putSupplier(rows, meta)
		c.JSON(http.StatusOK, gin.H{"result_key": key})
	}
}

// readUploadedFile reads an uploaded multipart file into raw,
// header-keyed rows, before any template projection.
func readUploadedFile(fh *multipart.FileHeader) ([]map[string]string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("dosya açılamadı: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("dosya okunamadı: %w", err)
	}
	return ingest.ReadFile(fh.Filename, data)
}

// loadTemplatedFile reads an uploaded multipart file and projects it
// through the named template's column mapping into canonical rows.
func loadTemplatedFile(d *Deps, fh *multipart.FileHeader, templateName string, fields []string) ([]consolidate.RawRecord, error) {
	mapping, err := d.Templates.Load(templateName)
	if err != nil {
		return nil, fmt.Errorf("şablon yüklenemedi: %w", err)
	}

	raw, err := readUploadedFile(fh)
	if err != nil {
		return nil, err
	}
	return consolidate.Project(raw, mapping, fields), nil
}

func pick(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}

func processMarketplace(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		internalRows, ok := d.store().getInternal(c.PostForm("internal_stock_key"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"hata": "internal_stock_key bulunamadı"})
			return
		}
		supplierRows, _ := d.store().getSupplier(c.PostForm("supplier_stock_key"))

		mpFile, err := c.FormFile("marketplace_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"hata": "marketplace_file gerekli"})
			return
		}
		marketRows, rawMarketRows, mapping, err := loadMarketplaceFile(d, mpFile, c.PostForm("template_name"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
			return
		}

		strat, stockStrat, orphanStrat := buildStrategy(c)

		var origFormat job.OriginalFormatInput
		if c.PostForm("include_original_format") == "true" {
			origFormat = job.OriginalFormatInput{
				Include:     true,
				Rows:        rawMarketRows,
				SKUHeader:   mapping["sku"],
				PriceHeader: mapping["selling_price"],
				StockHeader: mapping["stock"],
			}
		}

		jobID := time.Now().Format("20060102T150405.000000000")
		in := job.MatchingInput{
			JobID:          jobID,
			Internal:       internalRows,
			Supplier:       supplierRows,
			Marketplace:    marketRows,
			Pricing:        strat,
			StockStrat:     stockStrat,
			OrphanStrat:    orphanStrat,
			FX:             d.FX.Current(),
			OriginalFormat: origFormat,
		}

		go d.Orchestrator.ProcessMarketplace(context.Background(), in)

		c.JSON(http.StatusOK, gin.H{"job_id": jobID})
	}
}

func buildStrategy(c *gin.Context) (pricing.Strategy, pricing.StockStrategy, pricing.OrphanStrategy) {
	strat := pricing.Strategy{
		NaturalLanguage: c.PostForm("price_rules_text"),
	}

	switch c.PostForm("price_source_selection") {
	case "stock_only":
		strat.Method = pricing.MethodStockOnly
	case "calculated":
		strat.Method = pricing.MethodCalculated
		strat.Source = pricing.SourceCost
	case "supplier":
		strat.Method = pricing.MethodReadyList
		strat.Source = pricing.SourceSupplier
	case "internal":
		strat.Method = pricing.MethodReadyList
		strat.Source = pricing.SourceInternal
	case "cost":
		strat.Method = pricing.MethodReadyList
		strat.Source = pricing.SourceCost
	}

	if c.PostForm("add_vat") == "true" {
		strat.AddVAT = true
		if v, ok := c.GetPostForm("vat_rate"); ok {
			if rate, err := decimal.NewFromString(v); err == nil {
				strat.VATRate = &rate
			}
		}
	}
	strat.SmartFreeze = c.PostForm("smart_freeze") == "true"
	if v, ok := c.GetPostForm("default_multiplier"); ok {
		if m, err := decimal.NewFromString(v); err == nil {
			strat.DefaultMultiplier = &m
		}
	}

	if raw := c.PostForm("freeze_config_json"); raw != "" {
		var cfg struct {
			SKUs     []string `json:"skus"`
			Barcodes []string `json:"barcodes"`
		}
		if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
			if len(cfg.SKUs) > 0 {
				strat.FreezeSKUs = make(map[string]bool, len(cfg.SKUs))
				for _, sku := range cfg.SKUs {
					strat.FreezeSKUs[sku] = true
				}
			}
			if len(cfg.Barcodes) > 0 {
				strat.FreezeBarcodes = make(map[string]bool, len(cfg.Barcodes))
				for _, barcode := range cfg.Barcodes {
					strat.FreezeBarcodes[barcode] = true
				}
			}
		}
	}

	stockStrat := pricing.StockStrategy(c.PostForm("stock_strategy"))
	if stockStrat == "" {
		stockStrat = pricing.StockMin
	}
	orphanStrat := pricing.OrphanStrategy(c.PostForm("orphan_strategy"))
	if orphanStrat == "" {
		orphanStrat = pricing.OrphanZero
	}
	return strat, stockStrat, orphanStrat
}

func jobStatus(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := d.Jobs.Get(c.Param("job_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func downloadResult(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := d.Jobs.Get(c.Param("job_id"))
		if err != nil || st.ResultFile == "" {
			c.String(http.StatusNotFound, "Dosya yok")
			return
		}
		name := fmt.Sprintf("Stokcu_Raporu_%s.xlsx", time.Now().Format("1504"))
		c.FileAttachment(st.ResultFile, name)
	}
}

func downloadFreezeTemplate() gin.HandlerFunc {
	return func(c *gin.Context) {
		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		f.SetCellValue(sheet, "A1", "Barkod")
		f.SetCellValue(sheet, "B1", "SKU")
		f.SetCellValue(sheet, "A2", "8690000000000")
		f.SetCellValue(sheet, "B2", "ORNEK-KOD-123")

		c.Header("Content-Disposition", `attachment; filename="ornek_fiyat_dondurma_sablonu.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if _, err := f.WriteTo(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"hata": err.Error()})
		}
	}
}

// loadMarketplaceFile projects an uploaded marketplace file through its
// template mapping into domain.MarketplaceRow values, and also returns
// the untouched raw rows plus the template's mapping, so callers can
// rebuild the operator's original upload for the optional upload-format
// sheet.
func loadMarketplaceFile(d *Deps, fh *multipart.FileHeader, templateName string) ([]domain.MarketplaceRow, []map[string]string, template.Mapping, error) {
	mapping, err := d.Templates.Load(templateName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("şablon yüklenemedi: %w", err)
	}

	raw, err := readUploadedFile(fh)
	if err != nil {
		return nil, nil, nil, err
	}
	projected := consolidate.Project(raw, mapping, marketplaceFields)

	rows := make([]domain.MarketplaceRow, 0, len(projected))
	for i, rec := range projected {
		rows = append(rows, domain.MarketplaceRow{
			Idx:         i,
			Barcode:     orDefault(rec["barcode"], domain.BarcodeMissing),
			SKU:         orDefault(rec["sku"], domain.SKUMissing),
			ProductName: rec["product_name"],
			Brand:       strings.ToUpper(orDefault(rec["brand"], domain.BrandUnknown)),
			Price:       mustPrice(rec["selling_price"]),
			OldStock:    mustInt(rec["stock"]),
		})
	}
	return rows, raw, mapping, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func mustPrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func mustInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

type nlpPreviewRow struct {
	Urun     string `json:"urun"`
	Eski     string `json:"eski"`
	Yeni     string `json:"yeni"`
	Kurallar string `json:"kurallar"`
}

// simulateNLP previews a pricing rule set against the first 200 rows of
// an uploaded file, without touching any job state, so an operator can
// sanity-check a rule's wording before running a full reconciliation.
func simulateNLP(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dosya yok"})
			return
		}

		projected, err := loadTemplatedFile(d, fh, c.PostForm("template_name"), []string{"current_price", "product_name", "brand", "sku"})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		parsedRules := rules.Parse(c.PostForm("rules"))

		scanLimit := len(projected)
		if scanLimit > 200 {
			scanLimit = 200
		}

		var preview []nlpPreviewRow
		for _, rec := range projected[:scanLimit] {
			currentPrice := mustPrice(rec["current_price"])
			name := strings.ToUpper(rec["product_name"])
			brand := strings.ToUpper(rec["brand"])
			sku := strings.ToUpper(rec["sku"])

			matchedAny := false
			var descriptions []string
			candidate := currentPrice
			table := d.FX.Current()
			for _, r := range parsedRules {
				if !ruleTargets(r, brand, name, sku) {
					continue
				}
				matchedAny = true
				before := candidate
				candidate = applyRulePreview(r, candidate, currentPrice, table)
				descriptions = append(descriptions, describeRule(r, before, candidate))
			}

			if !matchedAny {
				continue
			}
			preview = append(preview, nlpPreviewRow{
				Urun:     fmt.Sprintf("%s - %s", sku, name),
				Eski:     currentPrice.StringFixed(2),
				Yeni:     candidate.Round(2).StringFixed(2),
				Kurallar: strings.Join(descriptions, ", "),
			})
			if len(preview) >= 10 {
				break
			}
		}

		c.JSON(http.StatusOK, gin.H{"preview": preview})
	}
}

// ruleTargets mirrors pricing.ruleTargets; duplicated here (rather than
// exported from pricing) since the preview path has no fx.Table or
// RowInput to build a full pricing.Calc call around.
func ruleTargets(r rules.Rule, brandUpper, nameUpper, sku string) bool {
	switch {
	case r.Target == "ALL_PRODUCTS":
		return true
	case strings.Contains(brandUpper, r.Target):
		return true
	case strings.Contains(nameUpper, r.Target):
		return true
	case strings.Contains(sku, r.Target):
		return true
	}
	return false
}

// applyRulePreview mirrors pricing.applyRule's candidate math so the
// preview matches what the real reconciliation run would compute.
func applyRulePreview(r rules.Rule, candidate, basePrice decimal.Decimal, table *fx.Table) decimal.Decimal {
	switch r.Action {
	case rules.ActionFXConversion:
		if r.HasOldRate && r.OldRate.IsPositive() {
			curr := orDefault(r.Currency, "USD")
			rate := decimal.NewFromInt(1)
			if table != nil {
				if rt, ok := table.Rate(curr); ok {
					rate = rt
				}
			}
			return candidate.Div(r.OldRate).Mul(rate)
		}
		return candidate
	case rules.ActionFXIndex:
		curr := orDefault(r.Currency, "USD")
		rate := decimal.NewFromInt(1)
		if table != nil {
			if rt, ok := table.Rate(curr); ok {
				rate = rt
			}
		}
		return basePrice.Mul(rate)
	case rules.ActionMultiplier:
		if r.Value.GreaterThan(decimal.NewFromInt(1)) || r.Value.LessThan(decimal.NewFromInt(1)) {
			return candidate.Mul(r.Value)
		}
		return candidate.Add(r.Value)
	case rules.ActionFixPrice:
		val := r.Value
		if r.Currency != "" && r.Currency != "TRY" && table != nil {
			if rt, ok := table.Rate(r.Currency); ok {
				val = val.Mul(rt)
			}
		}
		return val
	}
	return candidate
}

func describeRule(r rules.Rule, before, after decimal.Decimal) string {
	switch r.Action {
	case rules.ActionMultiplier:
		if after.GreaterThan(before) {
			return fmt.Sprintf("Yüzde Zam veya Ekleme (%s -> %s)", before.StringFixed(2), after.StringFixed(2))
		}
		return fmt.Sprintf("İndirim veya Düşme (%s -> %s)", before.StringFixed(2), after.StringFixed(2))
	case rules.ActionFixPrice:
		return fmt.Sprintf("Sabit Fiyat: %s %s", r.Value.StringFixed(2), orDefault(r.Currency, "TRY"))
	case rules.ActionFXIndex:
		return fmt.Sprintf("Döviz Endeksleme (%s): %s -> %s", orDefault(r.Currency, "USD"), before.StringFixed(2), after.StringFixed(2))
	case rules.ActionFXConversion:
		return fmt.Sprintf("Kur Farkı Uygulaması: %s -> %s", before.StringFixed(2), after.StringFixed(2))
	}
	return ""
}
