// Package source loads scraped advice records for classification.
package source

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"dictumflow/internal/models"
)

// LoadAdvices reads the scraped CSV at path into advice records, preserving
// file order. Rows with missing or empty content are kept: the engine turns
// them into explicit empty-content results rather than dropping them.
func LoadAdvices(path string) ([]models.Advice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	defer f.Close()

	var advices []models.Advice
	if err := gocsv.UnmarshalFile(f, &advices); err != nil {
		return nil, fmt.Errorf("failed to parse input %s: %w", path, err)
	}
	return advices, nil
}
