package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/models"
)

func recordFixture() []models.KeywordRecord {
	return []models.KeywordRecord{
		{
			Keyword:          "seo tools",
			Translation:      "SEO工具",
			Volume:           1000,
			CPC:              2.5,
			Difficulty:       10,
			Kdroi:            250,
			GoogleSearchLink: "https://www.google.com/search?q=seo+tools",
			GoogleTrendsLink: "https://trends.google.com/trends/explore?q=seo+tools",
			AhrefsLink:       "https://ahrefs.com/keyword-explorer?keyword=seo+tools",
		},
		{
			Keyword:    "keyword research",
			Volume:     500,
			CPC:        1.2,
			Difficulty: 20,
			Kdroi:      30,
		},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(t.TempDir(), arbor.NewLogger())
	svc.clock = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse export: %v", err)
	}
	return rows
}

func TestExportCSVCompleteTemplate(t *testing.T) {
	svc := newTestService(t)

	path, err := svc.Export(recordFixture(), "report", Options{Format: FormatCSV, Template: TemplateComplete})
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	if filepath.Base(path) != "report_20250601_120000.csv" {
		t.Errorf("unexpected export filename: %s", filepath.Base(path))
	}

	rows := readCSVFile(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "keyword" || rows[0][len(rows[0])-1] != "ahrefs_link" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "SEO工具" {
		t.Errorf("expected translation column, got %v", rows[1])
	}
	if rows[1][5] != "250" {
		t.Errorf("expected kdroi column, got %v", rows[1])
	}
}

func TestExportTemplateColumns(t *testing.T) {
	tests := []struct {
		template string
		want     []string
	}{
		{TemplateBasic, []string{"keyword", "volume", "cpc", "difficulty", "kdroi"}},
		{TemplateDetailed, []string{"keyword", "translation", "volume", "cpc", "difficulty", "kdroi"}},
		{TemplateLinksOnly, []string{"keyword", "google_search_link", "google_trends_link", "ahrefs_link"}},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			svc := newTestService(t)
			path, err := svc.Export(recordFixture(), "report", Options{Format: FormatCSV, Template: tt.template})
			if err != nil {
				t.Fatalf("unexpected export error: %v", err)
			}

			rows := readCSVFile(t, path)
			if len(rows[0]) != len(tt.want) {
				t.Fatalf("expected %d columns, got %v", len(tt.want), rows[0])
			}
			for i, column := range tt.want {
				if rows[0][i] != column {
					t.Errorf("column %d: expected %s, got %s", i, column, rows[0][i])
				}
			}
		})
	}
}

func TestExportJSON(t *testing.T) {
	svc := newTestService(t)

	path, err := svc.Export(recordFixture(), "report", Options{Format: FormatJSON, Template: TemplateBasic})
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}

	var payload struct {
		Metadata struct {
			TotalKeywords int    `json:"total_keywords"`
			Template      string `json:"template"`
		} `json:"metadata"`
		Statistics map[string]interface{}   `json:"statistics"`
		Data       []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	if payload.Metadata.TotalKeywords != 2 || payload.Metadata.Template != TemplateBasic {
		t.Errorf("unexpected metadata: %+v", payload.Metadata)
	}
	if len(payload.Data) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(payload.Data))
	}
	if payload.Data[0]["keyword"] != "seo tools" {
		t.Errorf("unexpected first row: %v", payload.Data[0])
	}
	if _, ok := payload.Data[0]["translation"]; ok {
		t.Error("basic template must not include translation")
	}
	if payload.Statistics["Total Keywords"] == nil {
		t.Error("expected statistics in JSON export")
	}
}

func TestExportTXT(t *testing.T) {
	svc := newTestService(t)

	path, err := svc.Export(recordFixture(), "report", Options{Format: FormatTXT, Template: TemplateBasic})
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "Keyword Processing Report") {
		t.Error("expected report heading")
	}
	if !strings.Contains(text, "Total Keywords: 2") {
		t.Error("expected keyword count")
	}
	if !strings.Contains(text, "seo tools") || !strings.Contains(text, "keyword research") {
		t.Error("expected data rows")
	}
	if !strings.Contains(text, "Avg Kdroi") {
		t.Error("expected statistics block")
	}
}

func TestExportPDF(t *testing.T) {
	svc := newTestService(t)

	path, err := svc.Export(recordFixture(), "report", Options{Format: FormatPDF, Template: TemplateBasic})
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("expected PDF magic header")
	}
}

func TestExportDefaults(t *testing.T) {
	svc := newTestService(t)

	// Empty format/template fall back to csv + complete
	path, err := svc.Export(recordFixture(), "report", Options{})
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	if !strings.HasSuffix(path, ".csv") {
		t.Errorf("expected csv default, got %s", path)
	}
	rows := readCSVFile(t, path)
	if len(rows[0]) != len(templateColumns[TemplateComplete]) {
		t.Errorf("expected complete template default, got %v", rows[0])
	}
}

func TestExportRejectsUnknownInputs(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Export(recordFixture(), "report", Options{Format: "xlsx"}); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := svc.Export(recordFixture(), "report", Options{Template: "fancy"}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestCalculateStatistics(t *testing.T) {
	stats := calculateStatistics(recordFixture())

	if stats["Total Keywords"] != 2 {
		t.Errorf("unexpected count: %v", stats["Total Keywords"])
	}
	if stats["Avg Kdroi"] != 140.0 {
		t.Errorf("expected average kdroi 140, got %v", stats["Avg Kdroi"])
	}
	if stats["Max Volume"] != 1000.0 || stats["Min Volume"] != 500.0 {
		t.Errorf("unexpected volume bounds: %v %v", stats["Max Volume"], stats["Min Volume"])
	}

	empty := calculateStatistics(nil)
	if empty["Total Keywords"] != 0 {
		t.Errorf("unexpected empty stats: %v", empty)
	}
	if _, ok := empty["Avg Kdroi"]; ok {
		t.Error("expected no numeric stats for empty input")
	}
}

func TestWriterWritesProcessedFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")
	writer := NewWriter(arbor.NewLogger())

	err := writer.Write(context.Background(), out, "keywords.csv", recordFixture())
	if err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	path := filepath.Join(out, "processed_keywords.csv")
	rows := readCSVFile(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if len(rows[0]) != len(templateColumns[TemplateComplete]) {
		t.Errorf("expected complete columns in processed output, got %v", rows[0])
	}
}
