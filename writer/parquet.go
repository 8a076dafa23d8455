package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	parquetwriter "github.com/xitongsys/parquet-go/writer"

	"sdrflow/logger"
	"sdrflow/models"
)

// ParquetRecord is the columnar shape of one structured trade. Leg lists
// are flattened to comma-separated fields, mirroring the CSV layout.
type ParquetRecord struct {
	TradeTime     string  `parquet:"name=trade_time, type=BYTE_ARRAY, convertedtype=UTF8"`
	Structure     string  `parquet:"name=structure, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartBucket   string  `parquet:"name=start_bucket, type=BYTE_ARRAY, convertedtype=UTF8"`
	Currency      string  `parquet:"name=currency, type=BYTE_ARRAY, convertedtype=UTF8"`
	Tenors        string  `parquet:"name=tenors, type=BYTE_ARRAY, convertedtype=UTF8"`
	Rates         string  `parquet:"name=rates, type=BYTE_ARRAY, convertedtype=UTF8"`
	Notionals     string  `parquet:"name=notionals, type=BYTE_ARRAY, convertedtype=UTF8"`
	DV01s         string  `parquet:"name=dv01s, type=BYTE_ARRAY, convertedtype=UTF8"`
	PackagePrice  string  `parquet:"name=package_price, type=BYTE_ARRAY, convertedtype=UTF8"`
	OtherPayTypes string  `parquet:"name=other_pay_types, type=BYTE_ARRAY, convertedtype=UTF8"`
	MetricBps     float64 `parquet:"name=metric_bps, type=DOUBLE"`
	HasMetric     bool    `parquet:"name=has_metric, type=BOOLEAN"`
	Expiration    string  `parquet:"name=expiration, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ParquetWriter persists the structured trade list as a Parquet archive.
type ParquetWriter struct {
	log *logger.Log
}

func NewParquetWriter() *ParquetWriter {
	return &ParquetWriter{log: logger.GetLogger()}
}

// Write renders all structured trades to path, replacing any previous file.
func (w *ParquetWriter) Write(path string, trades []models.StructuredTrade) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := parquetwriter.NewParquetWriter(fw, new(ParquetRecord), 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, t := range trades {
		rec := ParquetRecord{
			TradeTime:     t.TradeTime.Format("2006-01-02 15:04:05"),
			Structure:     string(t.Structure),
			StartBucket:   t.StartBucket,
			Currency:      t.Currency,
			Tenors:        models.JoinTenors(t.Tenors),
			Rates:         models.JoinFloats(t.Rates),
			Notionals:     models.JoinFloats(t.Notionals),
			DV01s:         models.JoinFloats(t.DV01s),
			PackagePrice:  t.PackagePrice,
			OtherPayTypes: t.OtherPayTypes,
		}
		if t.MetricBps != nil {
			rec.MetricBps = *t.MetricBps
			rec.HasMetric = true
		}
		if t.Expiration != nil {
			rec.Expiration = t.Expiration.Format("2006-01-02")
		}
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	w.log.WithComponent("parquet_writer").WithFields(logger.Fields{
		"file":   path,
		"trades": len(trades),
	}).Info("saved parquet archive")
	return nil
}
