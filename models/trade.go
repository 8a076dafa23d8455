package models

import (
	"strconv"
	"strings"
	"time"
)

// Structure identifies the market structure a set of legs was classified as.
type Structure string

const (
	StructureOutright  Structure = "Outright"
	StructureUnwind    Structure = "Unwind"
	StructureSpread    Structure = "Spread"
	StructureButterfly Structure = "Butterfly"
)

// RawTrade represents a single SDR ticker row as ingested. Numeric and date
// fields are kept as the raw feed strings; cleaning happens in the processor.
type RawTrade struct {
	ID             int    `json:"id"`
	TradeTime      string `json:"trade_time"`
	EffectiveDate  string `json:"effective_date"`
	ExpirationDate string `json:"expiration_date"`
	Currency       string `json:"currency"`
	Rate           string `json:"rate"`
	Notional       string `json:"notional"`
	DV01           string `json:"dv01"`
	UnderlierName  string `json:"underlier_name"`
	OtherPayType   string `json:"other_pay_type"`
	PackagePrice   string `json:"package_price"`
}

// NormalizedTrade is the cleaned, per-run view of a RawTrade. It is owned by
// a single analysis run and discarded afterwards.
type NormalizedTrade struct {
	ID            int
	TradeTime     time.Time // floored to the minute
	EffectiveDate time.Time // zero when unparseable
	Expiration    time.Time
	HasExpiration bool
	Currency      string
	Rate          float64
	Notional      float64
	DV01          float64
	Tenor         string // "5Y", "3M" or "Unknown"
	Bucket        string // market-convention start label
	OtherPayType  string
	PackagePrice  string
	GroupKey      string
}

// StructuredTrade is the classified output record. Leg lists are ordered by
// ascending tenor for spreads and butterflies and are single-element for
// outrights and unwinds.
type StructuredTrade struct {
	TradeTime     time.Time  `json:"trade_time"`
	Structure     Structure  `json:"structure"`
	StartBucket   string     `json:"start_bucket"`
	Currency      string     `json:"currency"`
	Tenors        []string   `json:"tenors"`
	Rates         []float64  `json:"rates"`
	Notionals     []float64  `json:"notionals"`
	DV01s         []float64  `json:"dv01s"`
	PackagePrice  string     `json:"package_price,omitempty"`
	OtherPayTypes string     `json:"other_pay_types,omitempty"`
	MetricBps     *float64   `json:"metric_bps"`
	Expiration    *time.Time `json:"expiration"`

	// LegIDs are the raw trade ids consumed by this structure. Within a
	// group every raw id belongs to exactly one structure.
	LegIDs []int `json:"-"`
}

// CommentaryReport is the rendered per-currency commentary text.
type CommentaryReport struct {
	Currency   string `json:"currency"`
	Text       string `json:"text"`
	TradeCount int    `json:"trade_count"`
}

// FormatFloat renders a float the way the structured output file expects:
// shortest representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// JoinFloats renders a leg list as a comma-separated field.
func JoinFloats(vs []float64) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, FormatFloat(v))
	}
	return strings.Join(parts, ", ")
}

// JoinTenors renders the tenor leg list as a comma-separated field.
func JoinTenors(ts []string) string {
	return strings.Join(ts, ", ")
}
