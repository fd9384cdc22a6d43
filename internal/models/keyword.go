package models

// KeywordRecord is one validated keyword row, augmented by the processing pipeline.
// Validation tags are enforced by the file reader before a record enters a batch.
type KeywordRecord struct {
	Keyword    string  `json:"keyword" validate:"required,min=1"`
	Volume     float64 `json:"volume" validate:"gte=0"`
	CPC        float64 `json:"cpc" validate:"gte=0"`
	Difficulty float64 `json:"difficulty" validate:"gte=0"`

	// Computed fields, populated by the batch processor
	Translation      string  `json:"translation,omitempty"`
	Kdroi            float64 `json:"kdroi,omitempty"`
	GoogleSearchLink string  `json:"google_search_link,omitempty"`
	GoogleTrendsLink string  `json:"google_trends_link,omitempty"`
	AhrefsLink       string  `json:"ahrefs_link,omitempty"`
}
