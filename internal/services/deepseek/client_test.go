package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/common"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
)

func testConfig(baseURL string) *common.DeepSeekConfig {
	return &common.DeepSeekConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "deepseek-chat",
		RequestTimeout: 5 * time.Second,
		RateLimit:      time.Millisecond,
		MaxTokens:      4000,
		Temperature:    0.3,
	}
}

// translationServer fakes the chat completions endpoint, returning the given
// keyword -> translation object
func translationServer(t *testing.T, translations map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("expected json_object response format")
		}

		content, _ := json.Marshal(translations)
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(content)}},
			},
			"usage": map[string]int{"total_tokens": 42},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCalculateKdroi(t *testing.T) {
	tests := []struct {
		name   string
		record models.KeywordRecord
		want   float64
	}{
		{"normal", models.KeywordRecord{Volume: 1000, CPC: 2.5, Difficulty: 10}, 250},
		{"rounded", models.KeywordRecord{Volume: 100, CPC: 1, Difficulty: 3}, 33.33},
		{"zero difficulty", models.KeywordRecord{Volume: 1000, CPC: 2.5, Difficulty: 0}, 0},
		{"negative difficulty", models.KeywordRecord{Volume: 1000, CPC: 2.5, Difficulty: -1}, 0},
		{"zero volume", models.KeywordRecord{Volume: 0, CPC: 2.5, Difficulty: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateKdroi(tt.record); got != tt.want {
				t.Errorf("calculateKdroi() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyPlatformLinks(t *testing.T) {
	record := models.KeywordRecord{Keyword: "seo tools & more"}
	applyPlatformLinks(&record)

	if record.GoogleSearchLink != "https://www.google.com/search?q=seo+tools+%26+more" {
		t.Errorf("unexpected search link: %s", record.GoogleSearchLink)
	}
	if !strings.HasPrefix(record.GoogleTrendsLink, "https://trends.google.com/trends/explore?q=") {
		t.Errorf("unexpected trends link: %s", record.GoogleTrendsLink)
	}
	if !strings.HasPrefix(record.AhrefsLink, "https://ahrefs.com/keyword-explorer?keyword=") {
		t.Errorf("unexpected ahrefs link: %s", record.AhrefsLink)
	}

	empty := models.KeywordRecord{}
	applyPlatformLinks(&empty)
	if empty.GoogleSearchLink != "" {
		t.Error("expected no links for empty keyword")
	}
}

func TestProcessBatchWithTranslation(t *testing.T) {
	server := translationServer(t, map[string]string{
		"seo tools": "SEO工具",
	})
	defer server.Close()

	client := NewClient(testConfig(server.URL), arbor.NewLogger())

	batch := []models.KeywordRecord{
		{Keyword: "seo tools", Volume: 1000, CPC: 2.5, Difficulty: 10},
		{Keyword: "untranslated", Volume: 200, CPC: 1, Difficulty: 4},
	}

	processed, err := client.ProcessBatch(context.Background(), batch, interfaces.ProcessOptions{
		Translate:      true,
		TargetLanguage: "Chinese",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if processed[0].Translation != "SEO工具" {
		t.Errorf("expected translation applied, got %q", processed[0].Translation)
	}
	if processed[1].Translation != "" {
		t.Errorf("expected missing translation to keep original, got %q", processed[1].Translation)
	}
	if processed[0].Kdroi != 250 {
		t.Errorf("expected kdroi 250, got %v", processed[0].Kdroi)
	}
	if processed[0].GoogleSearchLink == "" {
		t.Error("expected platform links applied")
	}

	// Input batch must stay untouched
	if batch[0].Translation != "" || batch[0].Kdroi != 0 {
		t.Error("ProcessBatch mutated its input")
	}
}

func TestProcessBatchWithoutTranslation(t *testing.T) {
	// No server: translation disabled must never hit the network
	client := NewClient(testConfig("http://127.0.0.1:0"), arbor.NewLogger())

	batch := []models.KeywordRecord{
		{Keyword: "seo tools", Volume: 1000, CPC: 2.5, Difficulty: 10},
	}

	processed, err := client.ProcessBatch(context.Background(), batch, interfaces.ProcessOptions{Translate: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed[0].Translation != "" {
		t.Error("expected no translation")
	}
	if processed[0].Kdroi != 250 || processed[0].GoogleSearchLink == "" {
		t.Errorf("expected local augmentation, got %+v", processed[0])
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:0"), arbor.NewLogger())

	if _, err := client.ProcessBatch(context.Background(), nil, interfaces.ProcessOptions{}); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestProcessBatchTranslationServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), arbor.NewLogger())

	batch := []models.KeywordRecord{{Keyword: "seo tools", Volume: 1, CPC: 1, Difficulty: 1}}
	_, err := client.ProcessBatch(context.Background(), batch, interfaces.ProcessOptions{Translate: true})
	if err == nil {
		t.Fatal("expected error from failing endpoint")
	}
	if !strings.Contains(err.Error(), "translation failed") {
		t.Errorf("expected wrapped translation error, got %v", err)
	}
}

func TestTranslateWithoutAPIKey(t *testing.T) {
	config := testConfig("http://127.0.0.1:0")
	config.APIKey = ""
	client := NewClient(config, arbor.NewLogger())

	batch := []models.KeywordRecord{{Keyword: "seo tools", Volume: 1, CPC: 1, Difficulty: 1}}
	if _, err := client.ProcessBatch(context.Background(), batch, interfaces.ProcessOptions{Translate: true}); err == nil {
		t.Fatal("expected error when API key missing")
	}
}

func TestTranslationMalformedContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "not json"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), arbor.NewLogger())

	batch := []models.KeywordRecord{{Keyword: "seo tools", Volume: 1, CPC: 1, Difficulty: 1}}
	if _, err := client.ProcessBatch(context.Background(), batch, interfaces.ProcessOptions{Translate: true}); err == nil {
		t.Fatal("expected error for malformed translation content")
	}
}
