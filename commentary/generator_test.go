package commentary

import (
	"strings"
	"testing"
	"time"

	"sdrflow/models"
)

func metric(v float64) *float64 { return &v }

func outright(ccy, bucket, tenor string, rate, dv01 float64) models.StructuredTrade {
	return models.StructuredTrade{
		TradeTime:   time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC),
		Structure:   models.StructureOutright,
		StartBucket: bucket,
		Currency:    ccy,
		Tenors:      []string{tenor},
		Rates:       []float64{rate},
		DV01s:       []float64{dv01},
	}
}

func TestForCurrencyNoData(t *testing.T) {
	g := NewGenerator()

	report := g.ForCurrency(nil, "usd")
	if report.Currency != "USD" {
		t.Errorf("currency: got %q", report.Currency)
	}
	want := "^^USD SDR deals today^^\n\nNo structured data available for commentary"
	if report.Text != want {
		t.Errorf("text: got %q, want %q", report.Text, want)
	}
	if report.TradeCount != 0 {
		t.Errorf("trade count: got %d", report.TradeCount)
	}
}

func TestForCurrencyNoMatchingTrades(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{outright("USD", "Spot", "5Y", 0.04, 25000)}

	report := g.ForCurrency(trades, "EUR")
	want := "^^EUR SDR deals today^^\n\nNo EUR trades found"
	if report.Text != want {
		t.Errorf("text: got %q, want %q", report.Text, want)
	}
}

func TestForCurrencyOutrights(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{outright("USD", "Spot", "5Y", 0.04, 25000)}

	report := g.ForCurrency(trades, "USD")
	want := "^^USD SDR deals today^^\n\n^^USD Outrights^^\nSpot - 5Y traded 25k DV01 (Rate: 0.0400)"
	if report.Text != want {
		t.Errorf("text: got %q, want %q", report.Text, want)
	}
	if report.TradeCount != 1 {
		t.Errorf("trade count: got %d", report.TradeCount)
	}
}

func TestOutrightRateRangeUsesEnDash(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{
		outright("USD", "Spot", "5Y", 0.0400, 25000),
		outright("USD", "Spot", "5Y", 0.0410, 30000),
	}

	report := g.ForCurrency(trades, "USD")
	if !strings.Contains(report.Text, "Spot - 5Y traded 55k DV01 (Rate range: 0.0400–0.0410)") {
		t.Errorf("missing rate range line:\n%s", report.Text)
	}
}

func TestOutrightZeroDV01GroupDropped(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{outright("USD", "Spot", "5Y", 0.04, 400)}

	report := g.ForCurrency(trades, "USD")
	if !strings.Contains(report.Text, "^^USD Outrights^^") {
		t.Errorf("section banner missing:\n%s", report.Text)
	}
	if strings.Contains(report.Text, "traded") {
		t.Errorf("sub-1k outright group must be dropped:\n%s", report.Text)
	}
}

func TestOutrightUFRORateExcluded(t *testing.T) {
	g := NewGenerator()
	tr := outright("USD", "Spot", "5Y", 0.04, 25000)
	tr.OtherPayTypes = "UFRO"

	report := g.ForCurrency([]models.StructuredTrade{tr}, "USD")
	if !strings.Contains(report.Text, "Spot - 5Y traded 25k DV01") {
		t.Errorf("missing outright line:\n%s", report.Text)
	}
	if strings.Contains(report.Text, "Rate") {
		t.Errorf("UFRO rates must not appear in the range:\n%s", report.Text)
	}
}

func TestSpreadSection(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{{
		Structure:   models.StructureSpread,
		StartBucket: "Spot",
		Currency:    "USD",
		Tenors:      []string{"2Y", "10Y"},
		Rates:       []float64{0.0300, 0.0360},
		DV01s:       []float64{50000, 49000},
		MetricBps:   metric(60.0),
	}}

	report := g.ForCurrency(trades, "USD")
	if !strings.Contains(report.Text, "^^USD Spreads^^") {
		t.Errorf("section banner missing:\n%s", report.Text)
	}
	// Labels use a plain string sort, so "10Y" precedes "2Y".
	if !strings.Contains(report.Text, "^^10Y vs 2Y^^") {
		t.Errorf("label banner missing:\n%s", report.Text)
	}
	if !strings.Contains(report.Text, "Spot - 10Y vs 2Y traded 50k DV01 (Rate: 60.0 bps)") {
		t.Errorf("missing spread line:\n%s", report.Text)
	}
}

func TestSpreadSubThousandRendersAsLessThan1k(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{{
		Structure:   models.StructureSpread,
		StartBucket: "Spot",
		Currency:    "USD",
		Tenors:      []string{"2Y", "5Y"},
		Rates:       []float64{0.0300, 0.0340},
		DV01s:       []float64{400, 400},
		MetricBps:   metric(40.0),
	}}

	report := g.ForCurrency(trades, "USD")
	if !strings.Contains(report.Text, "Spot - 2Y vs 5Y traded <1k DV01 (Rate: 40.0 bps)") {
		t.Errorf("missing <1k spread line:\n%s", report.Text)
	}
}

func TestButterflySection(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{{
		Structure:   models.StructureButterfly,
		StartBucket: "Spot",
		Currency:    "USD",
		Tenors:      []string{"2Y", "5Y", "10Y"},
		Rates:       []float64{0.0300, 0.0340, 0.0360},
		DV01s:       []float64{1000, 2000, 1000},
		MetricBps:   metric(0.2),
	}}

	report := g.ForCurrency(trades, "USD")
	if !strings.Contains(report.Text, "^^USD Butterflies^^") {
		t.Errorf("section banner missing:\n%s", report.Text)
	}
	if !strings.Contains(report.Text, "^^2Y vs 5Y vs 10Y^^") {
		t.Errorf("label banner missing:\n%s", report.Text)
	}
	// Butterfly DV01 totals take the belly (largest leg).
	if !strings.Contains(report.Text, "Spot - 2Y vs 5Y vs 10Y traded 2k DV01 (Rate: 0.2 bps)") {
		t.Errorf("missing butterfly line:\n%s", report.Text)
	}
}

func TestForCurrencyIdempotent(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{
		outright("USD", "Spot", "5Y", 0.04, 25000),
		{
			Structure:   models.StructureSpread,
			StartBucket: "Spot",
			Currency:    "USD",
			Tenors:      []string{"2Y", "10Y"},
			Rates:       []float64{0.0300, 0.0360},
			DV01s:       []float64{50000, 49000},
			MetricBps:   metric(60.0),
		},
	}

	first := g.ForCurrency(trades, "USD")
	second := g.ForCurrency(trades, "USD")
	if first.Text != second.Text {
		t.Error("reports for identical input must be byte-identical")
	}
}

func TestCombined(t *testing.T) {
	g := NewGenerator()
	trades := []models.StructuredTrade{
		outright("USD", "Spot", "5Y", 0.04, 25000),
		outright("EUR", "Spot", "10Y", 0.03, 30000),
	}

	combined := g.Combined(trades, []string{"USD", "EUR", "JPY"})
	separator := "\n\n" + strings.Repeat("=", 80) + "\n\n"
	if got := strings.Count(combined, separator); got != 1 {
		t.Errorf("expected 1 separator between 2 reports, got %d", got)
	}
	if strings.Contains(combined, "JPY") {
		t.Errorf("currencies with no trades must be omitted:\n%s", combined)
	}

	// A single non-empty report needs no separator.
	only := g.Combined(trades[:1], []string{"USD", "EUR"})
	if strings.Contains(only, "=") {
		t.Errorf("unexpected separator:\n%s", only)
	}
}
