package commentary

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"sdrflow/logger"
	"sdrflow/models"
	"sdrflow/processor"
)

// Generator renders the per-currency market commentary from a structured
// trade list. It is a pure single-pass aggregation: the same input yields
// byte-identical text.
type Generator struct {
	log *logger.Log
}

func NewGenerator() *Generator {
	return &Generator{log: logger.GetLogger()}
}

// formatDV01 renders a DV01 total in thousands, or "" when it rounds to
// zero. Callers decide whether a zero total skips the line (outrights) or
// renders as "<1k" (spreads and butterflies) — the asymmetry is part of the
// report contract.
func formatDV01(v float64) string {
	rounded := int(math.Round(v / 1000.0))
	if rounded > 0 {
		return fmt.Sprintf("%dk", rounded)
	}
	return ""
}

func isUFRO(tag string) bool {
	return strings.ToUpper(strings.TrimSpace(tag)) == "UFRO"
}

// rateRange renders the min–max rate suffix at 4 decimals, collapsing to a
// single value when all rates are equal.
func rateRange(rates []float64) string {
	if len(rates) == 0 {
		return ""
	}
	min, max := rates[0], rates[0]
	for _, r := range rates[1:] {
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	if min != max {
		return fmt.Sprintf(" (Rate range: %.4f–%.4f)", min, max)
	}
	return fmt.Sprintf(" (Rate: %.4f)", min)
}

// bpsRange is rateRange for structure metrics: 1 decimal, "bps" suffix.
func bpsRange(vals []float64) string {
	if len(vals) == 0 {
		return ""
	}
	min, max := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min != max {
		return fmt.Sprintf(" (Rate range: %.1f–%.1f bps)", min, max)
	}
	return fmt.Sprintf(" (Rate: %.1f bps)", min)
}

// ForCurrency renders the commentary for one currency. A currency with no
// trades still gets its header plus a "no trades" line.
func (g *Generator) ForCurrency(trades []models.StructuredTrade, currency string) models.CommentaryReport {
	ccy := strings.ToUpper(currency)

	if len(trades) == 0 {
		return models.CommentaryReport{
			Currency: ccy,
			Text:     fmt.Sprintf("^^%s SDR deals today^^\n\nNo structured data available for commentary", ccy),
		}
	}

	var filtered []models.StructuredTrade
	for _, t := range trades {
		if t.Currency == ccy {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return models.CommentaryReport{
			Currency: ccy,
			Text:     fmt.Sprintf("^^%s SDR deals today^^\n\nNo %s trades found", ccy, ccy),
		}
	}

	out := []string{fmt.Sprintf("^^%s SDR deals today^^", ccy)}
	out = append(out, g.outrightSection(filtered, ccy)...)
	out = append(out, g.spreadSection(filtered, ccy)...)
	out = append(out, g.butterflySection(filtered, ccy)...)

	return models.CommentaryReport{
		Currency:   ccy,
		Text:       strings.Join(out, "\n"),
		TradeCount: len(filtered),
	}
}

// outrightSection groups outrights and unwinds by "{bucket} - {tenor}",
// ordered by ascending expiration with missing expirations last. Groups
// whose DV01 rounds to zero thousands are dropped entirely.
func (g *Generator) outrightSection(trades []models.StructuredTrade, ccy string) []string {
	var rows []models.StructuredTrade
	for _, t := range trades {
		if t.Structure == models.StructureOutright || t.Structure == models.StructureUnwind {
			rows = append(rows, t)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	// Missing expirations sort last.
	sort.SliceStable(rows, func(i, j int) bool {
		ei, ej := rows[i].Expiration, rows[j].Expiration
		if ei == nil {
			return false
		}
		if ej == nil {
			return true
		}
		return ei.Before(*ej)
	})

	groups := make(map[string][]models.StructuredTrade)
	var order []string
	for _, t := range rows {
		key := fmt.Sprintf("%s - %s", t.StartBucket, models.JoinTenors(t.Tenors))
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	out := []string{fmt.Sprintf("\n^^%s Outrights^^", ccy)}
	for _, label := range order {
		group := groups[label]

		total := 0.0
		for _, t := range group {
			if len(t.DV01s) > 0 {
				total += t.DV01s[0]
			}
		}
		formatted := formatDV01(total)
		if formatted == "" {
			continue
		}

		var rates []float64
		for _, t := range group {
			if isUFRO(t.OtherPayTypes) || len(t.Rates) == 0 {
				continue
			}
			rates = append(rates, t.Rates[0])
		}
		out = append(out, fmt.Sprintf("%s traded %s DV01%s", label, formatted, rateRange(rates)))
	}
	return out
}

type structureGroupKey struct {
	label  string
	bucket string
}

// spreadSection groups spreads first by the alphabetically-sorted tenor
// pair (raw string sort), then by start bucket. DV01 totals take only the
// first leg of each trade; totals that round to zero render as "<1k".
func (g *Generator) spreadSection(trades []models.StructuredTrade, ccy string) []string {
	groups := make(map[structureGroupKey][]models.StructuredTrade)
	var order []structureGroupKey
	for _, t := range trades {
		if t.Structure != models.StructureSpread {
			continue
		}
		tenors := append([]string(nil), t.Tenors...)
		sort.Strings(tenors)
		key := structureGroupKey{
			label:  fmt.Sprintf("%s vs %s", tenors[0], tenors[1]),
			bucket: t.StartBucket,
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}
	if len(order) == 0 {
		return nil
	}

	out := []string{fmt.Sprintf("\n^^%s Spreads^^", ccy)}
	for _, label := range orderedLabels(order) {
		out = append(out, fmt.Sprintf("\n^^%s^^", label))
		for _, key := range order {
			if key.label != label {
				continue
			}
			rows := groups[key]

			total := 0.0
			for _, t := range rows {
				if len(t.DV01s) > 0 {
					total += t.DV01s[0]
				}
			}
			formatted := formatDV01(total)
			if formatted == "" {
				formatted = "<1k"
			}

			out = append(out, fmt.Sprintf("%s - %s traded %s DV01%s",
				key.bucket, label, formatted, bpsRange(metricValues(rows))))
		}
	}
	return out
}

// butterflySection groups butterflies by the tenor-key-sorted triplet label
// then by start bucket. DV01 totals take the largest leg of each trade.
func (g *Generator) butterflySection(trades []models.StructuredTrade, ccy string) []string {
	groups := make(map[structureGroupKey][]models.StructuredTrade)
	var order []structureGroupKey
	for _, t := range trades {
		if t.Structure != models.StructureButterfly {
			continue
		}
		tenors := append([]string(nil), t.Tenors...)
		sort.SliceStable(tenors, func(i, j int) bool {
			return processor.TenorSortKey(tenors[i]) < processor.TenorSortKey(tenors[j])
		})
		key := structureGroupKey{
			label:  fmt.Sprintf("%s vs %s vs %s", tenors[0], tenors[1], tenors[2]),
			bucket: t.StartBucket,
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}
	if len(order) == 0 {
		return nil
	}

	out := []string{fmt.Sprintf("\n^^%s Butterflies^^", ccy)}
	for _, label := range orderedLabels(order) {
		out = append(out, fmt.Sprintf("\n^^%s^^", label))
		for _, key := range order {
			if key.label != label {
				continue
			}
			rows := groups[key]

			total := 0.0
			for _, t := range rows {
				max := 0.0
				for i, v := range t.DV01s {
					if i == 0 || v > max {
						max = v
					}
				}
				total += max
			}
			formatted := formatDV01(total)
			if formatted == "" {
				formatted = "<1k"
			}

			out = append(out, fmt.Sprintf("%s - %s traded %s DV01%s",
				key.bucket, label, formatted, bpsRange(metricValues(rows))))
		}
	}
	return out
}

// metricValues collects the metric of every non-UFRO trade that has one.
func metricValues(rows []models.StructuredTrade) []float64 {
	var vals []float64
	for _, t := range rows {
		if t.MetricBps == nil || isUFRO(t.OtherPayTypes) {
			continue
		}
		vals = append(vals, *t.MetricBps)
	}
	return vals
}

// orderedLabels returns the distinct structure labels sorted alphabetically.
func orderedLabels(keys []structureGroupKey) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, k := range keys {
		if _, ok := seen[k.label]; ok {
			continue
		}
		seen[k.label] = struct{}{}
		labels = append(labels, k.label)
	}
	sort.Strings(labels)
	return labels
}

// Combined renders every currency's report and joins the non-empty ones
// with an 80-character rule.
func (g *Generator) Combined(trades []models.StructuredTrade, currencies []string) string {
	var parts []string
	for _, ccy := range currencies {
		report := g.ForCurrency(trades, ccy)
		if report.TradeCount == 0 {
			continue
		}
		parts = append(parts, report.Text)
	}
	g.log.WithComponent("commentary").WithFields(logger.Fields{
		"currencies": len(currencies),
		"included":   len(parts),
	}).Debug("combined commentary assembled")
	return strings.Join(parts, "\n\n"+strings.Repeat("=", 80)+"\n\n")
}
