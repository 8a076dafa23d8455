package processor

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"sdrflow/logger"
	"sdrflow/models"
)

// DV01-neutrality tolerance for spread and butterfly matching.
const (
	neutralityLow  = 0.95
	neutralityHigh = 1.05
)

// Detector classifies each group of simultaneously-booked trades into
// butterflies, spreads, unwinds and outrights. Matching is greedy and
// order-dependent: combinations are enumerated in group (input) order and
// the first valid one consumes its legs, which can preclude a different
// valid combination later in the same group. That first-match semantics is
// the contract, not an accident.
//
// Enumeration cost is O(n³) per group for butterflies plus O(n²) for
// spreads. Groups are same-minute/same-start/same-currency so n stays
// small, but this does not scale to large n.
type Detector struct {
	today time.Time
	log   *logger.Log
}

func NewDetector(today time.Time) *Detector {
	return &Detector{today: today, log: logger.GetLogger()}
}

// TenorSortKey converts a tenor label to its ordering key: the numeric year
// count for "{n}Y" labels, +Inf for unparseable labels. Month labels go
// through a literal suffix-strip that concatenates the digits ("6M" sorts
// as 60, not 0.5). That quirk is load-bearing for group-internal ordering
// and downstream label construction; do not correct it.
func TenorSortKey(tenor string) float64 {
	s := strings.Trim(tenor, "Y")
	s = strings.ReplaceAll(s, "M", "0")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

// sortLegs returns the legs ordered by ascending tenor sort key. The sort is
// stable so equal keys keep enumeration order.
func sortLegs(legs []models.NormalizedTrade) []models.NormalizedTrade {
	sorted := make([]models.NormalizedTrade, len(legs))
	copy(sorted, legs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return TenorSortKey(sorted[i].Tenor) < TenorSortKey(sorted[j].Tenor)
	})
	return sorted
}

func distinctTenors(legs []models.NormalizedTrade) int {
	seen := make(map[string]struct{}, len(legs))
	for _, l := range legs {
		seen[l.Tenor] = struct{}{}
	}
	return len(seen)
}

// validSpread reports whether two tenor-sorted legs are a DV01-neutral
// curve trade: two distinct tenors, no zero risk, leg risks within 5% of
// each other.
func validSpread(legs []models.NormalizedTrade) bool {
	if len(legs) != 2 || distinctTenors(legs) != 2 {
		return false
	}
	if legs[0].DV01 == 0 || legs[1].DV01 == 0 {
		return false
	}
	ratio := legs[0].DV01 / legs[1].DV01
	return neutralityLow <= ratio && ratio <= neutralityHigh
}

// validButterfly reports whether three tenor-sorted legs are a DV01-neutral
// curvature trade: three distinct tenors, no zero risk, and with risks
// sorted ascending [w0,w1,w2], w0≈w1 and 2·w0≈w2 within 5%.
func validButterfly(legs []models.NormalizedTrade) bool {
	if len(legs) != 3 || distinctTenors(legs) != 3 {
		return false
	}
	wings := make([]float64, 0, 3)
	for _, l := range legs {
		if l.DV01 == 0 {
			return false
		}
		wings = append(wings, l.DV01)
	}
	sort.Float64s(wings)
	r1 := wings[0] / wings[1]
	r2 := wings[0] * 2 / wings[2]
	return neutralityLow <= r1 && r1 <= neutralityHigh &&
		neutralityLow <= r2 && r2 <= neutralityHigh
}

// consolidatePayTypes collapses the legs' other-payment tags: any UFRO leg
// marks the whole structure UFRO, otherwise the tags are comma-joined.
func consolidatePayTypes(legs []models.NormalizedTrade) string {
	tags := make([]string, 0, len(legs))
	for _, l := range legs {
		if strings.EqualFold(strings.TrimSpace(l.OtherPayType), "UFRO") {
			return "UFRO"
		}
		tags = append(tags, l.OtherPayType)
	}
	return strings.Join(tags, ", ")
}

// buildStructure assembles the output record from tenor-sorted legs. The
// first leg in enumeration order supplies the structure-level fields.
func buildStructure(kind models.Structure, legs []models.NormalizedTrade, first models.NormalizedTrade) models.StructuredTrade {
	st := models.StructuredTrade{
		TradeTime:     first.TradeTime,
		Structure:     kind,
		StartBucket:   first.Bucket,
		Currency:      first.Currency,
		PackagePrice:  first.PackagePrice,
		OtherPayTypes: consolidatePayTypes(legs),
	}
	for _, l := range legs {
		st.Tenors = append(st.Tenors, l.Tenor)
		st.Rates = append(st.Rates, l.Rate)
		st.Notionals = append(st.Notionals, l.Notional)
		st.DV01s = append(st.DV01s, l.DV01)
		st.LegIDs = append(st.LegIDs, l.ID)
	}
	st.MetricBps = ComputeMetric(kind, st.Rates)
	if first.HasExpiration {
		exp := first.Expiration
		st.Expiration = &exp
	}
	return st
}

// Detect runs the greedy butterfly → spread → remainder passes over every
// group and returns the structured trades. Each raw trade id is consumed by
// exactly one structure.
func (d *Detector) Detect(groups []Group) []models.StructuredTrade {
	var out []models.StructuredTrade
	for _, g := range groups {
		out = append(out, d.detectGroup(g)...)
	}
	return out
}

func (d *Detector) detectGroup(g Group) []models.StructuredTrade {
	recs := g.Trades
	used := make(map[int]bool, len(recs))
	var out []models.StructuredTrade

	// Butterfly pass: every 3-combination in group order.
	for i := 0; i < len(recs); i++ {
		for j := i + 1; j < len(recs); j++ {
			for k := j + 1; k < len(recs); k++ {
				if used[recs[i].ID] || used[recs[j].ID] || used[recs[k].ID] {
					continue
				}
				legs := sortLegs([]models.NormalizedTrade{recs[i], recs[j], recs[k]})
				if !validButterfly(legs) {
					continue
				}
				out = append(out, buildStructure(models.StructureButterfly, legs, recs[i]))
				used[recs[i].ID] = true
				used[recs[j].ID] = true
				used[recs[k].ID] = true
			}
		}
	}

	// Spread pass: every 2-combination of the leftovers in group order.
	unused := make([]models.NormalizedTrade, 0, len(recs))
	for _, r := range recs {
		if !used[r.ID] {
			unused = append(unused, r)
		}
	}
	for i := 0; i < len(unused); i++ {
		for j := i + 1; j < len(unused); j++ {
			if used[unused[i].ID] || used[unused[j].ID] {
				continue
			}
			legs := sortLegs([]models.NormalizedTrade{unused[i], unused[j]})
			if !validSpread(legs) {
				continue
			}
			out = append(out, buildStructure(models.StructureSpread, legs, unused[i]))
			used[unused[i].ID] = true
			used[unused[j].ID] = true
		}
	}

	// Remainder: single trades are unwinds when the swap is already live,
	// outrights otherwise.
	for _, r := range recs {
		if used[r.ID] {
			continue
		}
		kind := models.StructureOutright
		if !r.EffectiveDate.IsZero() && r.EffectiveDate.Before(d.today) {
			kind = models.StructureUnwind
		}
		out = append(out, buildStructure(kind, []models.NormalizedTrade{r}, r))
		used[r.ID] = true
	}

	d.log.WithComponent("detector").WithFields(logger.Fields{
		"group_key":  g.Key,
		"group_size": len(recs),
		"structures": len(out),
	}).Debug("group classified")

	return out
}
