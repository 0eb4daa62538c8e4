package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"dictumflow/internal/models"
)

// CSVLedger appends classification results to a CSV file. The file is created
// with a header row on first append; existing records are never rewritten.
type CSVLedger struct {
	path      string
	processed map[string]struct{}
	logger    *zap.Logger
}

// NewCSVLedger opens (or lazily creates on first append) the ledger at path
// and materializes the set of references already present.
func NewCSVLedger(path string, logger *zap.Logger) (*CSVLedger, error) {
	l := &CSVLedger{
		path:      path,
		processed: make(map[string]struct{}),
		logger:    logger,
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	defer f.Close()

	var existing []models.ClassificationResult
	if err := gocsv.UnmarshalFile(f, &existing); err != nil {
		return nil, fmt.Errorf("failed to read existing ledger %s: %w", path, err)
	}
	for _, r := range existing {
		l.processed[r.Reference] = struct{}{}
	}
	logger.Info("Loaded existing ledger.",
		zap.String("path", path),
		zap.Int("processedCount", len(l.processed)))
	return l, nil
}

// HasProcessed reports whether reference already has a ledger record.
func (l *CSVLedger) HasProcessed(reference string) bool {
	_, ok := l.processed[reference]
	return ok
}

// Append writes one result record. The header row is written only when the
// file does not exist yet.
func (l *CSVLedger) Append(_ context.Context, result models.ClassificationResult) error {
	_, statErr := os.Stat(l.path)
	writeHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger %s for append: %w", l.path, err)
	}
	defer f.Close()

	rows := []models.ClassificationResult{result}
	if writeHeader {
		err = gocsv.Marshal(&rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(&rows, f)
	}
	if err != nil {
		return fmt.Errorf("failed to append to ledger %s: %w", l.path, err)
	}

	l.processed[result.Reference] = struct{}{}
	l.logger.Info("Saved result.",
		zap.String("reference", result.Reference),
		zap.String("category", string(result.Category)))
	return nil
}

// Path returns the ledger file location, for post-run archiving.
func (l *CSVLedger) Path() string {
	return l.path
}
