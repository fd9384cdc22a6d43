// -----------------------------------------------------------------------
// Pipeline collaborator contracts consumed by the job execution driver
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/verba/internal/models"
)

// ErrInputNotFound is returned by Scanner when the input location does not exist
var ErrInputNotFound = errors.New("input folder not found")

// Scanner enumerates input items for a job in deterministic (sorted) order
type Scanner interface {
	// Scan returns the sorted list of processable file paths under inputFolder.
	// Returns ErrInputNotFound if the folder does not exist.
	Scan(ctx context.Context, inputFolder string) ([]string, error)
}

// ItemReader parses and validates one input item into keyword records
type ItemReader interface {
	// Read returns the ordered, validated records of one file, or an error
	// with a human-readable reason (missing columns, malformed rows).
	Read(ctx context.Context, path string) ([]models.KeywordRecord, error)
}

// ProcessOptions are the per-batch options passed to the remote processor
type ProcessOptions struct {
	Translate      bool
	TargetLanguage string
}

// BatchProcessor enriches one batch of keyword records via the remote service.
// Implementations must be safe to call repeatedly; a failed call has no side
// effects that a retry would need to undo.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, batch []models.KeywordRecord, opts ProcessOptions) ([]models.KeywordRecord, error)
}

// OutputWriter persists the accumulated successful records of one item.
// A write failure is reported to the caller but never changes job status.
type OutputWriter interface {
	Write(ctx context.Context, outputFolder, itemName string, records []models.KeywordRecord) error
}
