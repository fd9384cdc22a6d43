// -----------------------------------------------------------------------
// Export Service - Multi-format export of processed keyword records
// -----------------------------------------------------------------------

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/models"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatTXT  = "txt"
	FormatPDF  = "pdf"
)

// Column templates
const (
	TemplateBasic     = "basic"
	TemplateDetailed  = "detailed"
	TemplateComplete  = "complete"
	TemplateLinksOnly = "links_only"
)

var templateColumns = map[string][]string{
	TemplateBasic:     {"keyword", "volume", "cpc", "difficulty", "kdroi"},
	TemplateDetailed:  {"keyword", "translation", "volume", "cpc", "difficulty", "kdroi"},
	TemplateComplete:  {"keyword", "translation", "volume", "cpc", "difficulty", "kdroi", "google_search_link", "google_trends_link", "ahrefs_link"},
	TemplateLinksOnly: {"keyword", "google_search_link", "google_trends_link", "ahrefs_link"},
}

var templateDescriptions = map[string]string{
	TemplateBasic:     "Basic keyword data with Kdroi calculation",
	TemplateDetailed:  "Detailed data with translations",
	TemplateComplete:  "Complete data with all links and translations",
	TemplateLinksOnly: "Only keywords and generated links",
}

// Options selects the output format and column template for one export
type Options struct {
	Format   string `json:"format"`
	Template string `json:"template"`
}

// Service exports keyword records to timestamped files in the export directory
type Service struct {
	outputDir string
	clock     func() time.Time
	logger    arbor.ILogger
}

// NewService creates an export service rooted at outputDir
func NewService(outputDir string, logger arbor.ILogger) *Service {
	return &Service{
		outputDir: outputDir,
		clock:     time.Now,
		logger:    logger,
	}
}

// Templates returns the available column templates keyed by name
func (s *Service) Templates() map[string]string {
	out := make(map[string]string, len(templateDescriptions))
	for name, desc := range templateDescriptions {
		out[name] = desc
	}
	return out
}

// Formats returns the supported export formats
func (s *Service) Formats() []string {
	return []string{FormatCSV, FormatJSON, FormatTXT, FormatPDF}
}

// Export writes records to a timestamped file and returns its path.
// The template picks the columns, the format picks the encoding.
func (s *Service) Export(records []models.KeywordRecord, filename string, opts Options) (string, error) {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = FormatCSV
	}

	template := opts.Template
	if template == "" {
		template = TemplateComplete
	}
	columns, ok := templateColumns[template]
	if !ok {
		return "", fmt.Errorf("unknown export template: %s", opts.Template)
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	timestamp := s.clock().Format("20060102_150405")
	outputPath := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.%s", filename, timestamp, format))

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(outputPath, columns, records)
	case FormatJSON:
		err = s.writeJSON(outputPath, columns, template, records)
	case FormatTXT:
		err = s.writeTXT(outputPath, columns, template, records)
	case FormatPDF:
		err = s.writePDF(outputPath, columns, template, records)
	default:
		return "", fmt.Errorf("unsupported export format: %s", opts.Format)
	}
	if err != nil {
		return "", err
	}

	s.logger.Info().
		Str("path", outputPath).
		Str("format", format).
		Str("template", template).
		Int("records", len(records)).
		Msg("Exported keyword records")

	return outputPath, nil
}

// columnValue renders one template column of one record as text
func columnValue(record models.KeywordRecord, column string) string {
	switch column {
	case "keyword":
		return record.Keyword
	case "translation":
		return record.Translation
	case "volume":
		return strconv.FormatFloat(record.Volume, 'f', -1, 64)
	case "cpc":
		return strconv.FormatFloat(record.CPC, 'f', -1, 64)
	case "difficulty":
		return strconv.FormatFloat(record.Difficulty, 'f', -1, 64)
	case "kdroi":
		return strconv.FormatFloat(record.Kdroi, 'f', -1, 64)
	case "google_search_link":
		return record.GoogleSearchLink
	case "google_trends_link":
		return record.GoogleTrendsLink
	case "ahrefs_link":
		return record.AhrefsLink
	default:
		return ""
	}
}

func writeCSV(path string, columns []string, records []models.KeywordRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, record := range records {
		for i, column := range columns {
			row[i] = columnValue(record, column)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func (s *Service) writeJSON(path string, columns []string, template string, records []models.KeywordRecord) error {
	rows := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		row := make(map[string]interface{}, len(columns))
		for _, column := range columns {
			row[column] = columnValue(record, column)
		}
		rows = append(rows, row)
	}

	payload := map[string]interface{}{
		"metadata": map[string]interface{}{
			"export_date":    s.clock().Format(time.RFC3339),
			"total_keywords": len(records),
			"template":       template,
		},
		"statistics": calculateStatistics(records),
		"data":       rows,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *Service) writeTXT(path string, columns []string, template string, records []models.KeywordRecord) error {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 50) + "\n")
	b.WriteString("Keyword Processing Report\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	b.WriteString(fmt.Sprintf("Export Date: %s\n", s.clock().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Total Keywords: %d\n", len(records)))
	b.WriteString(fmt.Sprintf("Template: %s\n\n", template))

	if len(records) > 0 {
		b.WriteString("Statistics:\n")
		b.WriteString(strings.Repeat("-", 20) + "\n")
		stats := calculateStatistics(records)
		names := make([]string, 0, len(stats))
		for name := range stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("%s: %v\n", name, stats[name]))
		}
		b.WriteString("\n")

		widths := make([]int, len(columns))
		for i, column := range columns {
			widths[i] = len(column)
			for _, record := range records {
				if n := len(columnValue(record, column)); n > widths[i] {
					widths[i] = n
				}
			}
		}

		cells := make([]string, len(columns))
		for i, column := range columns {
			cells[i] = pad(column, widths[i])
		}
		header := strings.Join(cells, " | ")
		b.WriteString(header + "\n")
		b.WriteString(strings.Repeat("-", len(header)) + "\n")

		for _, record := range records {
			for i, column := range columns {
				cells[i] = pad(columnValue(record, column), widths[i])
			}
			b.WriteString(strings.Join(cells, " | ") + "\n")
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *Service) writePDF(path string, columns []string, template string, records []models.KeywordRecord) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Keyword Processing Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Export Date: %s", s.clock().Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Keywords: %d", len(records)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Template: %s", template), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(columns))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for _, column := range columns {
		pdf.CellFormat(colWidth, 7, column, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, record := range records {
		for _, column := range columns {
			value := columnValue(record, column)
			if len(value) > 40 {
				value = value[:37] + "..."
			}
			pdf.CellFormat(colWidth, 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := pdf.Output(file); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// calculateStatistics returns count plus avg/max/min for each numeric field
func calculateStatistics(records []models.KeywordRecord) map[string]interface{} {
	stats := map[string]interface{}{
		"Total Keywords": len(records),
	}
	if len(records) == 0 {
		return stats
	}

	fields := map[string]func(models.KeywordRecord) float64{
		"Volume":     func(r models.KeywordRecord) float64 { return r.Volume },
		"Cpc":        func(r models.KeywordRecord) float64 { return r.CPC },
		"Difficulty": func(r models.KeywordRecord) float64 { return r.Difficulty },
		"Kdroi":      func(r models.KeywordRecord) float64 { return r.Kdroi },
	}

	for name, get := range fields {
		sum := 0.0
		max := math.Inf(-1)
		min := math.Inf(1)
		for _, record := range records {
			v := get(record)
			sum += v
			if v > max {
				max = v
			}
			if v < min {
				min = v
			}
		}
		stats["Avg "+name] = math.Round(sum/float64(len(records))*100) / 100
		stats["Max "+name] = max
		stats["Min "+name] = min
	}

	return stats
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
