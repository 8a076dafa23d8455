package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"sdrflow/logger"
	"sdrflow/models"
)

// CSVReader loads raw SDR trade rows from the ingestion file. Column lookup
// is header-based so upstream column reordering does not break ingestion;
// optional columns may be absent entirely.
type CSVReader struct {
	path string
	log  *logger.Log
}

func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path, log: logger.GetLogger()}
}

// Feed column names, as written by the upstream ticker export.
const (
	colTradeTime     = "Trade Time"
	colEffectiveDate = "Effective Date"
	colExpiration    = "Expiration Date"
	colCurrency      = "Currency"
	colRates         = "Rates"
	colNotionals     = "Notionals"
	colDV01          = "Dv01"
	colUnderlier     = "UPI Underlier Name"
	colOtherPayType  = "Other Payment Type"
	colPackagePrice  = "Package Price"
)

// Read loads every row of the input file as a RawTrade. Row ids are the
// zero-based feed positions; short or long rows are tolerated, a missing
// file or unreadable header is not.
func (r *CSVReader) Read() ([]models.RawTrade, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", r.path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colTradeTime]; !ok {
		return nil, fmt.Errorf("input file %s has no %q column", r.path, colTradeTime)
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var trades []models.RawTrade
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.log.WithComponent("reader").WithError(err).Warn("skipping malformed csv row")
			continue
		}
		trades = append(trades, models.RawTrade{
			ID:             len(trades),
			TradeTime:      field(row, colTradeTime),
			EffectiveDate:  field(row, colEffectiveDate),
			ExpirationDate: field(row, colExpiration),
			Currency:       field(row, colCurrency),
			Rate:           field(row, colRates),
			Notional:       field(row, colNotionals),
			DV01:           field(row, colDV01),
			UnderlierName:  field(row, colUnderlier),
			OtherPayType:   field(row, colOtherPayType),
			PackagePrice:   field(row, colPackagePrice),
		})
	}

	r.log.WithComponent("reader").WithFields(logger.Fields{
		"file":   r.path,
		"trades": len(trades),
	}).Info("loaded raw trades")
	logger.IncrementTradesRead(len(trades))

	return trades, nil
}
