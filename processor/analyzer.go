package processor

import (
	"context"
	"time"

	"github.com/google/uuid"

	appconfig "sdrflow/config"
	"sdrflow/logger"
	"sdrflow/models"
)

// Analyzer runs one full classification pass: normalize → group → detect.
// It holds no state between runs; every Run builds fresh working sets, so
// concurrent or repeated runs never observe each other.
type Analyzer struct {
	config     *appconfig.Config
	normalizer *Normalizer
	log        *logger.Log
}

func NewAnalyzer(cfg *appconfig.Config) *Analyzer {
	return &Analyzer{
		config:     cfg,
		normalizer: NewNormalizer(),
		log:        logger.GetLogger(),
	}
}

// Run classifies the raw trades into structured trades. Bad trade data never
// fails a run; only context cancellation returns an error.
func (a *Analyzer) Run(ctx context.Context, raw []models.RawTrade) ([]models.StructuredTrade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	today := a.config.ReferenceDate()
	start := time.Now()

	log := a.log.WithComponent("analyzer").WithFields(logger.Fields{"run_id": runID})
	log.WithFields(logger.Fields{
		"trades":         len(raw),
		"reference_date": today.Format("2006-01-02"),
	}).Info("starting analysis run")

	normalized := a.normalizer.Normalize(raw, today)
	groups := GroupTrades(normalized)
	structured := NewDetector(today).Detect(groups)

	duration := time.Since(start)
	logger.IncrementStructuresDetected(len(structured))
	logger.LogPerformanceEntry(log, "analyzer", "run", duration, logger.Fields{
		"trades":     len(raw),
		"normalized": len(normalized),
		"groups":     len(groups),
		"structures": len(structured),
	})
	a.log.LogMetric("analyzer", "trades_normalized", len(normalized), "counter", logger.Fields{"run_id": runID})
	a.log.LogMetric("analyzer", "groups_formed", len(groups), "counter", logger.Fields{"run_id": runID})
	a.log.LogMetric("analyzer", "structures_detected", len(structured), "counter", logger.Fields{"run_id": runID})

	log.WithFields(logger.Fields{"structures": len(structured)}).Info("analysis run completed")
	return structured, nil
}
