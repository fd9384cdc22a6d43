// -----------------------------------------------------------------------
// Output Writer - Persists processed records for one input file
// -----------------------------------------------------------------------

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/models"
)

// Writer persists the successful records of one processed input file as CSV
// into the job's output folder, named processed_<original-stem>.csv.
type Writer struct {
	logger arbor.ILogger
}

// NewWriter creates an output writer
func NewWriter(logger arbor.ILogger) *Writer {
	return &Writer{logger: logger}
}

// Write persists records under outputFolder, creating the folder if needed
func (w *Writer) Write(ctx context.Context, outputFolder, itemName string, records []models.KeywordRecord) error {
	if err := os.MkdirAll(outputFolder, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	stem := strings.TrimSuffix(itemName, filepath.Ext(itemName))
	outputPath := filepath.Join(outputFolder, fmt.Sprintf("processed_%s.csv", stem))

	if err := writeCSV(outputPath, templateColumns[TemplateComplete], records); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	w.logger.Info().
		Str("path", outputPath).
		Int("records", len(records)).
		Msg("Wrote processed output file")

	return nil
}
