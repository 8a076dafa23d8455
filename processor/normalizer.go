package processor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sdrflow/logger"
	"sdrflow/models"
)

// Normalizer cleans raw feed fields and derives the per-trade tenor label,
// effective bucket and group key. Bad fields coerce to typed fallbacks and
// are logged; normalization never fails a run.
type Normalizer struct {
	log *logger.Log
}

func NewNormalizer() *Normalizer {
	return &Normalizer{log: logger.GetLogger()}
}

var (
	tenorYearRe   = regexp.MustCompile(`(\d+)Y`)
	tenorYearRRe  = regexp.MustCompile(`(\d+)YR`)
	timestampFmts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

const daysPerMonth = 30.4375

// CleanNumeric strips feed formatting (thousands separators, leading plus,
// dollar and percent signs) and parses the remainder. Empty or unparseable
// values become 0.0 with a warning.
func (n *Normalizer) CleanNumeric(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "%", "")

	if s == "" || strings.EqualFold(s, "nan") {
		return 0.0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		n.log.WithComponent("normalizer").WithFields(logger.Fields{
			"raw_value": raw,
		}).Warn("could not convert value to float, returning 0.0")
		return 0.0
	}
	return v
}

// parseTimestamp parses a feed timestamp, trying the formats the SDR ticker
// emits. The second return is false when nothing matched.
func parseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampFmts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractTenor derives the tenor label for a trade: an explicit "{n}Y" or
// "{n}YR" hint in the underlier name wins, then the effective/expiration
// date distance, then "Unknown".
func (n *Normalizer) ExtractTenor(underlier string, effective, expiration time.Time) string {
	upper := strings.ToUpper(underlier)
	if m := tenorYearRe.FindStringSubmatch(upper); m != nil {
		return m[1] + "Y"
	}
	if m := tenorYearRRe.FindStringSubmatch(upper); m != nil {
		return m[1] + "Y"
	}

	if effective.IsZero() || expiration.IsZero() {
		return "Unknown"
	}

	years := expiration.Sub(effective).Hours() / 24 / 365.25
	if years < 1.0 {
		months := int(math.Round(years * 12))
		return fmt.Sprintf("%dM", months)
	}
	return fmt.Sprintf("%dY", int(math.Round(years)))
}

// IMMCode returns the quarterly roll code (H/M/U/Z plus the year's last
// digit) when the date is a third Wednesday of Mar/Jun/Sep/Dec, else "".
func IMMCode(d time.Time) string {
	var code string
	switch d.Month() {
	case time.March:
		code = "H"
	case time.June:
		code = "M"
	case time.September:
		code = "U"
	case time.December:
		code = "Z"
	default:
		return ""
	}
	if d.Day() < 15 || d.Day() > 21 || d.Weekday() != time.Wednesday {
		return ""
	}
	return fmt.Sprintf("%s%d", code, d.Year()%10)
}

// EffectiveBucket converts a start date to its market-convention label:
// Spot, IMM code, 6M/9M/1Y month buckets, 1Y..10Y year buckets, or the ISO
// date itself when nothing applies.
func EffectiveBucket(start, today time.Time) string {
	if start.IsZero() {
		return "Unknown"
	}

	deltaDays := int(start.Sub(today).Hours() / 24)

	if deltaDays >= -5 && deltaDays <= 5 {
		return "Spot"
	}

	if code := IMMCode(start); code != "" {
		return code
	}

	monthsDelta := math.Round(float64(deltaDays) / daysPerMonth)
	if math.Abs(monthsDelta-6) <= 1 {
		return "6M"
	}
	if math.Abs(monthsDelta-9) <= 1 {
		return "9M"
	}
	if math.Abs(monthsDelta-12) <= 1 {
		return "1Y"
	}

	relYears := float64(deltaDays) / 365.25
	for y := 1; y <= 10; y++ {
		if math.Abs(relYears-float64(y)) <= 0.2 {
			return fmt.Sprintf("%dY", y)
		}
	}

	return start.Format("2006-01-02")
}

// Normalize cleans every raw trade and derives its labels. Trades without a
// currency are dropped, as the upstream feed ships unattributable rows.
func (n *Normalizer) Normalize(raw []models.RawTrade, today time.Time) []models.NormalizedTrade {
	log := n.log.WithComponent("normalizer")
	out := make([]models.NormalizedTrade, 0, len(raw))

	for _, r := range raw {
		currency := strings.TrimSpace(r.Currency)
		if currency == "" {
			log.WithFields(logger.Fields{"trade_id": r.ID}).Warn("dropping trade with unknown currency")
			continue
		}

		tradeTime, ok := parseTimestamp(r.TradeTime)
		if !ok {
			log.WithFields(logger.Fields{"trade_id": r.ID, "raw_value": r.TradeTime}).Warn("unparseable trade time")
		}
		tradeTime = tradeTime.Truncate(time.Minute)

		effective, ok := parseTimestamp(r.EffectiveDate)
		if !ok {
			log.WithFields(logger.Fields{"trade_id": r.ID, "raw_value": r.EffectiveDate}).Warn("unparseable effective date")
		}

		expiration, hasExpiration := parseTimestamp(r.ExpirationDate)

		nt := models.NormalizedTrade{
			ID:            r.ID,
			TradeTime:     tradeTime,
			EffectiveDate: effective,
			Expiration:    expiration,
			HasExpiration: hasExpiration,
			Currency:      currency,
			Rate:          n.CleanNumeric(r.Rate),
			Notional:      n.CleanNumeric(r.Notional),
			DV01:          n.CleanNumeric(r.DV01),
			Tenor:         n.ExtractTenor(r.UnderlierName, effective, expiration),
			Bucket:        EffectiveBucket(effective, today),
			OtherPayType:  r.OtherPayType,
			PackagePrice:  r.PackagePrice,
		}
		nt.GroupKey = groupKey(nt)
		out = append(out, nt)
	}

	return out
}

// groupKey is an exact composite: trades must match to the minute, the day
// and the currency to be considered one package. No tolerance.
func groupKey(t models.NormalizedTrade) string {
	effective := ""
	if !t.EffectiveDate.IsZero() {
		effective = t.EffectiveDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s|%s|%s", t.TradeTime.Format("2006-01-02 15:04:05"), effective, t.Currency)
}
