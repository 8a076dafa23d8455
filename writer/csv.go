package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"sdrflow/logger"
	"sdrflow/models"
)

// structuredHeader is the column set of the structured output file,
// matching what downstream storage consumers expect.
var structuredHeader = []string{
	"Trade Time", "Structure", "Start Date", "Currency",
	"Tenors", "Rates", "Notionals", "DV01s",
	"Package Price", "Other Pay Types", "Metric (bps)", "Expiration",
}

// CSVWriter persists the structured trade list as CSV.
type CSVWriter struct {
	log *logger.Log
}

func NewCSVWriter() *CSVWriter {
	return &CSVWriter{log: logger.GetLogger()}
}

// Write renders all structured trades to path, replacing any previous file.
func (w *CSVWriter) Write(path string, trades []models.StructuredTrade) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create structured output file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(structuredHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, t := range trades {
		metric := ""
		if t.MetricBps != nil {
			metric = models.FormatFloat(*t.MetricBps)
		}
		expiration := ""
		if t.Expiration != nil {
			expiration = t.Expiration.Format("2006-01-02")
		}
		row := []string{
			t.TradeTime.Format("2006-01-02 15:04:05"),
			string(t.Structure),
			t.StartBucket,
			t.Currency,
			models.JoinTenors(t.Tenors),
			models.JoinFloats(t.Rates),
			models.JoinFloats(t.Notionals),
			models.JoinFloats(t.DV01s),
			t.PackagePrice,
			t.OtherPayTypes,
			metric,
			expiration,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write structured row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush structured output: %w", err)
	}

	w.log.WithComponent("csv_writer").WithFields(logger.Fields{
		"file":   path,
		"trades": len(trades),
	}).Info("saved structured output")
	return nil
}
