package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sdrflow/logger"
	"sdrflow/models"
)

// CommentaryWriter emits the per-currency commentary files and the combined
// report. One currency's write failure never blocks the others.
type CommentaryWriter struct {
	dir string
	log *logger.Log
}

func NewCommentaryWriter(dir string) *CommentaryWriter {
	return &CommentaryWriter{dir: dir, log: logger.GetLogger()}
}

// WriteReports writes each report to "{ccy}_commentary.txt" in the output
// directory and returns the paths that were written successfully.
func (w *CommentaryWriter) WriteReports(reports []models.CommentaryReport) []string {
	log := w.log.WithComponent("commentary_writer")

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		log.WithError(err).Error("failed to create output directory")
		return nil
	}

	var written []string
	for _, report := range reports {
		path := filepath.Join(w.dir, fmt.Sprintf("%s_commentary.txt", strings.ToLower(report.Currency)))
		if err := writeText(path, report.Text); err != nil {
			log.WithError(err).WithFields(logger.Fields{"currency": report.Currency}).Error("failed to write commentary file")
			continue
		}
		log.WithFields(logger.Fields{"currency": report.Currency, "file": path}).Info("generated commentary")
		written = append(written, path)
	}

	logger.IncrementCommentariesWritten(len(written))
	return written
}

// WriteCombined writes the combined multi-currency report and returns its
// path.
func (w *CommentaryWriter) WriteCombined(filename, text string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(w.dir, filename)
	if err := writeText(path, text); err != nil {
		return "", err
	}
	w.log.WithComponent("commentary_writer").WithFields(logger.Fields{"file": path}).Info("generated combined commentary")
	return path, nil
}

func writeText(path, text string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
