package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/utasoy/market-reconciler/internal/config"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<Tarih_Date>
  <Currency CurrencyCode="USD">
    <ForexSelling>34,1234</ForexSelling>
  </Currency>
  <Currency CurrencyCode="EUR">
    <BanknoteSelling>37,5678</BanknoteSelling>
  </Currency>
</Tarih_Date>`

func TestProviderRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	cfg := config.FXConfig{
		SourceURL:      srv.URL,
		RequestTimeout: 5,
		BaseCurrency:   "TRY",
	}
	p := NewProvider(cfg)

	if _, ok := p.Current().Rate("USD"); ok {
		t.Fatal("expected no USD rate before refresh")
	}

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	usd, ok := p.Current().Rate("USD")
	if !ok || usd.String() != "34.1234" {
		t.Errorf("USD rate = %v, ok=%v, want 34.1234", usd, ok)
	}
	eur, ok := p.Current().Rate("EUR")
	if !ok || eur.String() != "37.5678" {
		t.Errorf("EUR rate = %v, ok=%v, want 37.5678", eur, ok)
	}
	if v, _ := p.Current().Rate("TRY"); v.String() != "1" {
		t.Errorf("base rate = %s, want 1", v.String())
	}
}

func TestProviderRefreshKeepsStaleOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.FXConfig{SourceURL: srv.URL, RequestTimeout: 5, BaseCurrency: "TRY"}
	p := NewProvider(cfg)

	if err := p.Refresh(context.Background()); err == nil {
		t.Fatal("expected error from 500 response")
	}
	if _, ok := p.Current().Rate("USD"); ok {
		t.Fatal("expected table to remain at identity seed after failed refresh")
	}
}
