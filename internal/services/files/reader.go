// -----------------------------------------------------------------------
// Keyword Reader - Parses and validates keyword CSV/TSV files
// -----------------------------------------------------------------------

package files

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/models"
)

// requiredColumns must all be present (case-insensitive) in an input file header
var requiredColumns = []string{"keyword", "volume", "cpc", "difficulty"}

// Reader parses keyword files into validated records
type Reader struct {
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewReader creates a keyword file reader
func NewReader(logger arbor.ILogger) *Reader {
	return &Reader{
		validate: validator.New(),
		logger:   logger,
	}
}

// Read parses one file into its ordered keyword records. Rows with an empty
// keyword, non-numeric values, or negative metrics are dropped; a missing
// required column fails the whole file with a human-readable reason.
func (r *Reader) Read(ctx context.Context, path string) ([]models.KeywordRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	columns, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]models.KeywordRecord, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		record, ok := r.parseRow(row, columns)
		if !ok {
			dropped++
			continue
		}
		records = append(records, record)
	}

	r.logger.Info().
		Str("file", filepath.Base(path)).
		Int("rows", len(rows)-1).
		Int("valid", len(records)).
		Int("dropped", dropped).
		Msg("Read keyword file")

	return records, nil
}

// mapColumns resolves the case-insensitive header positions of required columns
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(requiredColumns))
	for idx, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		for _, required := range requiredColumns {
			if lower == required {
				columns[required] = idx
			}
		}
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

// parseRow converts one CSV row into a validated keyword record
func (r *Reader) parseRow(row []string, columns map[string]int) (models.KeywordRecord, bool) {
	get := func(column string) (string, bool) {
		idx := columns[column]
		if idx >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[idx]), true
	}

	keyword, ok := get("keyword")
	if !ok || keyword == "" {
		return models.KeywordRecord{}, false
	}

	numeric := make(map[string]float64, 3)
	for _, column := range []string{"volume", "cpc", "difficulty"} {
		raw, ok := get(column)
		if !ok {
			return models.KeywordRecord{}, false
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.KeywordRecord{}, false
		}
		numeric[column] = value
	}

	record := models.KeywordRecord{
		Keyword:    keyword,
		Volume:     numeric["volume"],
		CPC:        numeric["cpc"],
		Difficulty: numeric["difficulty"],
	}

	if err := r.validate.Struct(record); err != nil {
		return models.KeywordRecord{}, false
	}
	return record, true
}
