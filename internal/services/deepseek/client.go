// -----------------------------------------------------------------------
// DeepSeek Client - Remote keyword batch processing (translate, score, link)
// -----------------------------------------------------------------------

package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/common"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
	"golang.org/x/time/rate"
)

// Client calls a DeepSeek-compatible chat completions endpoint to translate
// keyword batches, then computes Kdroi scores and platform links locally.
// Safe to call repeatedly; a failed call leaves no state behind.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      arbor.ILogger
}

// NewClient creates a DeepSeek API client from configuration
func NewClient(config *common.DeepSeekConfig, logger arbor.ILogger) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	interval := config.RateLimit
	if interval <= 0 {
		interval = 1 * time.Second
	}

	if config.APIKey == "" {
		logger.Warn().Msg("DeepSeek API key not configured, translation will fail")
	}

	return &Client{
		apiKey:      config.APIKey,
		baseURL:     strings.TrimSuffix(config.BaseURL, "/"),
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		logger:      logger,
	}
}

// ProcessBatch runs the full processing pipeline over one batch:
// optional translation, Kdroi calculation, platform link generation.
// Translation failure degrades to untranslated records; Kdroi and links
// are local and always applied.
func (c *Client) ProcessBatch(ctx context.Context, batch []models.KeywordRecord, opts interfaces.ProcessOptions) ([]models.KeywordRecord, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("batch is empty")
	}

	processed := make([]models.KeywordRecord, len(batch))
	copy(processed, batch)

	if opts.Translate {
		translated, err := c.translateKeywords(ctx, processed, opts.TargetLanguage)
		if err != nil {
			return nil, fmt.Errorf("translation failed: %w", err)
		}
		processed = translated
	}

	for i := range processed {
		processed[i].Kdroi = calculateKdroi(processed[i])
		applyPlatformLinks(&processed[i])
	}

	c.logger.Info().
		Int("keywords", len(processed)).
		Bool("translated", opts.Translate).
		Msg("Processed keyword batch")

	return processed, nil
}

// chatRequest is the chat completions request payload
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

// chatResponse is the subset of the chat completions response we consume
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// translateKeywords asks the model for a keyword -> translation JSON object
// and merges translations back into the batch. Keywords missing from the
// response keep their original form.
func (c *Client) translateKeywords(ctx context.Context, batch []models.KeywordRecord, targetLanguage string) ([]models.KeywordRecord, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}
	if targetLanguage == "" {
		targetLanguage = "Chinese"
	}

	keywords := make([]string, 0, len(batch))
	for _, record := range batch {
		if record.Keyword != "" {
			keywords = append(keywords, record.Keyword)
		}
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no valid keywords found for translation")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	keywordList, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to encode keyword list: %w", err)
	}

	systemPrompt := fmt.Sprintf(`You are a professional keyword translator. Translate the following keywords from English to %s.

Requirements:
1. Provide accurate, natural-sounding translations
2. Keep the same meaning and context as the original keywords
3. Return the results in JSON format with the original keyword as key and translation as value
4. Do not translate brand names or technical terms that should remain in English
5. If a keyword is already in the target language, return it as-is`, targetLanguage)

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Please translate these keywords:\n%s", keywordList)},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &chatFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed: %d - %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	var translations map[string]string
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation content: %w", err)
	}

	translated := make([]models.KeywordRecord, len(batch))
	copy(translated, batch)
	for i := range translated {
		if translation, ok := translations[translated[i].Keyword]; ok {
			translated[i].Translation = translation
		}
	}

	c.logger.Info().
		Int("keywords", len(keywords)).
		Int("tokens_used", parsed.Usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("Translated keyword batch")

	return translated, nil
}

// calculateKdroi computes volume * cpc / difficulty, rounded to two decimals.
// Zero difficulty yields zero rather than a division error.
func calculateKdroi(record models.KeywordRecord) float64 {
	if record.Difficulty <= 0 {
		return 0
	}
	return math.Round(record.Volume*record.CPC/record.Difficulty*100) / 100
}

// applyPlatformLinks fills the research links derived from the keyword text
func applyPlatformLinks(record *models.KeywordRecord) {
	if record.Keyword == "" {
		return
	}
	escaped := url.QueryEscape(record.Keyword)
	record.GoogleSearchLink = "https://www.google.com/search?q=" + escaped
	record.GoogleTrendsLink = "https://trends.google.com/trends/explore?q=" + escaped
	record.AhrefsLink = "https://ahrefs.com/keyword-explorer?keyword=" + escaped
}
