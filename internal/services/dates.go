package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"dictumflow/internal/dutchdate"
)

// Date columns produced by the scraper.
var dateColumns = []string{
	"datum_aanhangig",
	"datum_vaststelling",
	"datum_advies",
	"datum_publicatie",
}

// NormalizeDateColumns rewrites the CSV at path, adding a "<col>_formatted"
// column with the dd-mm-yyyy form next to each scraper date column.
// Unparseable values are left empty. All other columns pass through
// untouched, which is why this works on raw csv records rather than a fixed
// schema. Returns the number of values normalized.
func NormalizeDateColumns(path string, logger *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	records, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%s has no header row", path)
	}

	header := records[0]
	columnIndex := make(map[string]int, len(header))
	for i, name := range header {
		columnIndex[name] = i
	}

	// Add missing _formatted columns to the header and pad every row to the
	// new width.
	for _, col := range dateColumns {
		if _, ok := columnIndex[col]; !ok {
			continue
		}
		formatted := col + "_formatted"
		if _, ok := columnIndex[formatted]; !ok {
			columnIndex[formatted] = len(header)
			header = append(header, formatted)
		}
	}
	records[0] = header
	for i := 1; i < len(records); i++ {
		for len(records[i]) < len(header) {
			records[i] = append(records[i], "")
		}
	}

	var normalized int
	for i := 1; i < len(records); i++ {
		for _, col := range dateColumns {
			src, ok := columnIndex[col]
			if !ok {
				continue
			}
			dst := columnIndex[col+"_formatted"]
			value, ok := dutchdate.Normalize(records[i][src])
			if !ok {
				continue
			}
			records[i][dst] = value
			normalized++
		}
	}

	// Write to a temp file first so an interrupted rewrite cannot destroy
	// the input.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	w := csv.NewWriter(tmp)
	writeErr := w.WriteAll(records)
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write %s: %w", path, writeErr)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}

	logger.Info("Normalized date columns.",
		zap.String("path", path),
		zap.Int("normalizedValues", normalized),
		zap.Int("rows", len(records)-1))
	return normalized, nil
}
