package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"sdrflow/commentary"
	"sdrflow/config"
	"sdrflow/logger"
	"sdrflow/models"
	"sdrflow/processor"
	"sdrflow/reader"
	"sdrflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	inputPath := flag.String("input", "", "Override input.file from the configuration")
	outputDir := flag.String("output", "", "Override output.dir from the configuration")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Input.File = *inputPath
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Sdrflow.Name,
		"version":     cfg.Sdrflow.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting sdrflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
	}()

	if cfg.Metrics.CloudWatch {
		logger.InitCloudWatch(cfg.Storage.S3.Region, cfg.Metrics.Namespace, cfg.Metrics.Dashboard)
	}
	if strings.ToLower(cfg.Logging.Level) == "report" && cfg.Metrics.ReportInterval > 0 {
		logger.StartReport(ctx, log, cfg.Metrics.ReportInterval)
	}

	raw, err := reader.NewCSVReader(cfg.Input.File).Read()
	if err != nil {
		log.WithError(err).Error("failed to read input file")
		os.Exit(1)
	}

	analyzer := processor.NewAnalyzer(cfg)
	structured, err := analyzer.Run(ctx, raw)
	if err != nil {
		log.WithError(err).Error("analysis failed")
		os.Exit(1)
	}

	var artifacts []string
	failed := false

	if cfg.Output.Formats.CSV {
		path := filepath.Join(cfg.Output.Dir, cfg.Output.StructuredFile)
		if err := writer.NewCSVWriter().Write(path, structured); err != nil {
			log.WithError(err).Error("failed to write structured csv")
			failed = true
		} else {
			artifacts = append(artifacts, path)
		}
	}
	if cfg.Output.Formats.Parquet {
		name := strings.TrimSuffix(cfg.Output.StructuredFile, filepath.Ext(cfg.Output.StructuredFile)) + ".parquet"
		path := filepath.Join(cfg.Output.Dir, name)
		if err := writer.NewParquetWriter().Write(path, structured); err != nil {
			log.WithError(err).Error("failed to write structured parquet")
			failed = true
		} else {
			artifacts = append(artifacts, path)
		}
	}

	gen := commentary.NewGenerator()
	reports := make([]models.CommentaryReport, 0, len(cfg.Analysis.Currencies))
	for _, ccy := range cfg.Analysis.Currencies {
		reports = append(reports, gen.ForCurrency(structured, ccy))
	}

	cw := writer.NewCommentaryWriter(cfg.Output.Dir)
	artifacts = append(artifacts, cw.WriteReports(reports)...)

	combinedPath, err := cw.WriteCombined(cfg.Output.CombinedFile, gen.Combined(structured, cfg.Analysis.Currencies))
	if err != nil {
		log.WithError(err).Error("failed to write combined commentary")
		failed = true
	} else {
		artifacts = append(artifacts, combinedPath)
	}

	if cfg.Storage.S3.Enabled {
		uploader, err := writer.NewS3Uploader(cfg)
		if err != nil {
			log.WithError(err).Error("failed to create S3 uploader")
			failed = true
		} else {
			uploaded := uploader.Upload(ctx, artifacts)
			log.WithFields(logger.Fields{"uploaded": uploaded, "total": len(artifacts)}).Info("artifact upload complete")
		}
	}

	log.WithFields(logger.Fields{
		"trades":     len(raw),
		"structures": len(structured),
		"artifacts":  len(artifacts),
	}).Info("sdrflow run complete")

	if failed {
		os.Exit(1)
	}
}
