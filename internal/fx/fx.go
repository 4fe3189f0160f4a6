// Package fx keeps an in-memory table of TCMB exchange rates, refreshed
// over HTTP on demand or on a timer, and readable without locking from
// any number of pricing goroutines.
package fx

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utasoy/market-reconciler/internal/config"
	"github.com/utasoy/market-reconciler/pkg/logger"
)

// Table is an immutable snapshot of exchange rates against BaseCurrency.
type Table struct {
	Base       string
	Rates      map[string]decimal.Decimal
	UpdatedAt  string
}

// Rate returns the rate for currency, or (1, true) when currency is the
// base currency, or (0, false) when no rate is known.
func (t *Table) Rate(currency string) (decimal.Decimal, bool) {
	if currency == "" || currency == t.Base {
		return decimal.NewFromInt(1), true
	}
	r, ok := t.Rates[currency]
	return r, ok
}

// Provider exposes the current Table via an atomic pointer so readers
// never block on a refresh in flight.
type Provider struct {
	cfg     config.FXConfig
	client  *http.Client
	current atomic.Pointer[Table]
}

const notYetUpdated = "Henüz Güncellenmedi"

// NewProvider builds a Provider seeded with a 1:1 identity table for
// the base currency; callers should call Refresh before relying on
// foreign-currency rates.
func NewProvider(cfg config.FXConfig) *Provider {
	p := &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
	}
	p.current.Store(&Table{
		Base:      cfg.BaseCurrency,
		Rates:     map[string]decimal.Decimal{cfg.BaseCurrency: decimal.NewFromInt(1)},
		UpdatedAt: notYetUpdated,
	})
	return p
}

// Current returns the most recently refreshed table.
func (p *Provider) Current() *Table {
	return p.current.Load()
}

type tcmbDoc struct {
	XMLName    xml.Name `xml:"Tarih_Date"`
	Currencies []struct {
		Code            string `xml:"CurrencyCode,attr"`
		ForexSelling    string `xml:"ForexSelling"`
		BanknoteSelling string `xml:"BanknoteSelling"`
	} `xml:"Currency"`
}

var trackedCurrencies = []string{"USD", "EUR"}

// Refresh fetches the TCMB daily rate feed and swaps in a new Table on
// success. The previous table is left in place on any failure so
// pricing keeps working off the last good rates.
func (p *Provider) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("fx: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; market-reconciler/1.0)")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fx: fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fx: tcmb responded %d", resp.StatusCode)
	}

	var doc tcmbDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("fx: decode feed: %w", err)
	}

	rates := map[string]decimal.Decimal{p.cfg.BaseCurrency: decimal.NewFromInt(1)}
	for _, want := range trackedCurrencies {
		for _, c := range doc.Currencies {
			if c.Code != want {
				continue
			}
			raw := c.ForexSelling
			if raw == "" {
				raw = c.BanknoteSelling
			}
			if raw == "" {
				continue
			}
			d, derr := decimal.NewFromString(normalizeDecimalComma(raw))
			if derr != nil {
				continue
			}
			rates[want] = d
		}
	}

	if _, ok := rates["USD"]; !ok {
		return fmt.Errorf("fx: USD rate missing from feed")
	}

	p.current.Store(&Table{
		Base:      p.cfg.BaseCurrency,
		Rates:     rates,
		UpdatedAt: time.Now().Format("02-01-2006 15:04"),
	})
	logger.Log.Info().
		Str("usd", rates["USD"].String()).
		Str("eur", rates["EUR"].String()).
		Msg("fx rates refreshed")
	return nil
}

// RunPeriodic refreshes on cfg.RefreshInterval until ctx is cancelled,
// logging but not propagating refresh errors so a transient TCMB
// outage never takes the process down.
func (p *Provider) RunPeriodic(ctx context.Context) {
	interval := time.Duration(p.cfg.RefreshInterval) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				logger.Log.Warn().Err(err).Msg("fx refresh failed, keeping previous rates")
			}
		}
	}
}

func normalizeDecimalComma(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, '.')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
