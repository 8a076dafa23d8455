package processor

import (
	"math"
	"testing"
	"time"

	"sdrflow/models"
)

func leg(id int, tenor string, rate, dv01 float64) models.NormalizedTrade {
	return models.NormalizedTrade{
		ID:            id,
		TradeTime:     date(2025, 8, 15).Add(10 * time.Hour),
		EffectiveDate: date(2025, 8, 18),
		Currency:      "USD",
		Tenor:         tenor,
		Rate:          rate,
		DV01:          dv01,
		Bucket:        "Spot",
	}
}

func detect(t *testing.T, legs ...models.NormalizedTrade) []models.StructuredTrade {
	t.Helper()
	d := NewDetector(date(2025, 8, 15))
	return d.Detect([]Group{{Key: "g", Trades: legs}})
}

func TestTenorSortKey(t *testing.T) {
	cases := []struct {
		tenor string
		want  float64
	}{
		{"2Y", 2},
		{"10Y", 10},
		{"30Y", 30},
		{"6M", 60}, // literal suffix replacement, not a month fraction
		{"9M", 90},
	}
	for _, c := range cases {
		if got := TenorSortKey(c.tenor); got != c.want {
			t.Errorf("TenorSortKey(%q) = %v, want %v", c.tenor, got, c.want)
		}
	}
	if got := TenorSortKey("Unknown"); !math.IsInf(got, 1) {
		t.Errorf("TenorSortKey(Unknown) = %v, want +Inf", got)
	}
}

func TestDetectButterfly(t *testing.T) {
	out := detect(t,
		leg(0, "2Y", 0.0300, 1000),
		leg(1, "5Y", 0.0340, 2000),
		leg(2, "10Y", 0.0360, 1000),
	)
	if len(out) != 1 {
		t.Fatalf("expected 1 structure, got %d", len(out))
	}

	fly := out[0]
	if fly.Structure != models.StructureButterfly {
		t.Fatalf("structure: got %s, want Butterfly", fly.Structure)
	}
	if got := models.JoinTenors(fly.Tenors); got != "2Y, 5Y, 10Y" {
		t.Errorf("tenors: got %q", got)
	}
	if fly.MetricBps == nil || *fly.MetricBps != 0.2 {
		t.Errorf("metric: got %v, want 0.2", fly.MetricBps)
	}
	if len(fly.LegIDs) != 3 {
		t.Errorf("leg ids: got %v", fly.LegIDs)
	}
}

func TestDetectSpread(t *testing.T) {
	out := detect(t,
		leg(0, "10Y", 0.0360, 980),
		leg(1, "2Y", 0.0300, 1000),
	)
	if len(out) != 1 {
		t.Fatalf("expected 1 structure, got %d", len(out))
	}

	sp := out[0]
	if sp.Structure != models.StructureSpread {
		t.Fatalf("structure: got %s, want Spread", sp.Structure)
	}
	// Legs come out tenor-sorted regardless of input order.
	if got := models.JoinTenors(sp.Tenors); got != "2Y, 10Y" {
		t.Errorf("tenors: got %q", got)
	}
	if sp.MetricBps == nil || *sp.MetricBps != 0.6 {
		t.Errorf("metric: got %v, want 0.6", sp.MetricBps)
	}
}

func TestDetectSpreadRejectsZeroDV01(t *testing.T) {
	out := detect(t,
		leg(0, "2Y", 0.0300, 0),
		leg(1, "10Y", 0.0360, 1000),
	)
	if len(out) != 2 {
		t.Fatalf("expected 2 structures, got %d", len(out))
	}
	for _, st := range out {
		if st.Structure == models.StructureSpread {
			t.Error("zero-DV01 pair must not classify as a spread")
		}
	}
}

func TestDetectSpreadNeutralityBounds(t *testing.T) {
	// 1060/1000 exceeds the 5% tolerance.
	out := detect(t,
		leg(0, "2Y", 0.0300, 1060),
		leg(1, "10Y", 0.0360, 1000),
	)
	for _, st := range out {
		if st.Structure == models.StructureSpread {
			t.Fatal("out-of-tolerance pair must not classify as a spread")
		}
	}

	// 1050/1000 is exactly on the boundary and qualifies.
	out = detect(t,
		leg(0, "2Y", 0.0300, 1050),
		leg(1, "10Y", 0.0360, 1000),
	)
	if len(out) != 1 || out[0].Structure != models.StructureSpread {
		t.Fatalf("boundary pair: got %+v", out)
	}
}

func TestDetectUnwindVersusOutright(t *testing.T) {
	live := leg(0, "5Y", 0.0340, 4000)
	live.EffectiveDate = date(2024, 8, 15)
	forward := leg(1, "5Y", 0.0340, 4000)
	forward.EffectiveDate = date(2026, 2, 16)

	out := detect(t, live)
	if len(out) != 1 || out[0].Structure != models.StructureUnwind {
		t.Fatalf("live swap: got %+v", out)
	}

	out = detect(t, forward)
	if len(out) != 1 || out[0].Structure != models.StructureOutright {
		t.Fatalf("forward swap: got %+v", out)
	}
}

func TestDetectPartitionsGroup(t *testing.T) {
	// A butterfly trio plus a matching pair plus a leftover: every leg is
	// consumed by exactly one structure.
	out := detect(t,
		leg(0, "2Y", 0.0300, 1000),
		leg(1, "5Y", 0.0340, 2000),
		leg(2, "10Y", 0.0360, 1000),
		leg(3, "3Y", 0.0310, 5000),
		leg(4, "7Y", 0.0350, 5000),
		leg(5, "30Y", 0.0365, 12000),
	)

	counts := map[models.Structure]int{}
	seen := map[int]bool{}
	for _, st := range out {
		counts[st.Structure]++
		for _, id := range st.LegIDs {
			if seen[id] {
				t.Errorf("leg %d consumed twice", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 6 {
		t.Errorf("expected all 6 legs consumed, got %d", len(seen))
	}
	if counts[models.StructureButterfly] != 1 || counts[models.StructureSpread] != 1 || counts[models.StructureOutright] != 1 {
		t.Errorf("unexpected structure counts: %v", counts)
	}
}

func TestDetectGreedyFirstMatch(t *testing.T) {
	// Legs 0 and 1 pair first and consume each other, leaving 2 and 3 to
	// pair up even though 0+3 / 1+2 would also have been valid.
	out := detect(t,
		leg(0, "2Y", 0.0300, 1000),
		leg(1, "10Y", 0.0360, 1000),
		leg(2, "2Y", 0.0305, 1000),
		leg(3, "10Y", 0.0365, 1000),
	)
	if len(out) != 2 {
		t.Fatalf("expected 2 spreads, got %d structures", len(out))
	}
	if got := out[0].LegIDs; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("first spread legs: got %v, want [0 1]", got)
	}
	if got := out[1].LegIDs; len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("second spread legs: got %v, want [2 3]", got)
	}
}

func TestConsolidatePayTypes(t *testing.T) {
	a := leg(0, "2Y", 0.03, 1000)
	a.OtherPayType = "UPFRONT"
	b := leg(1, "10Y", 0.036, 1000)
	b.OtherPayType = "ufro"

	if got := consolidatePayTypes([]models.NormalizedTrade{a, b}); got != "UFRO" {
		t.Errorf("UFRO leg must mark the structure UFRO, got %q", got)
	}

	b.OtherPayType = "OTHER"
	if got := consolidatePayTypes([]models.NormalizedTrade{a, b}); got != "UPFRONT, OTHER" {
		t.Errorf("joined tags: got %q", got)
	}
}
