package models

// JobResult is one entry in a job's append-only results sequence.
// Either a processed keyword record (success) or a failure entry tagged with
// the file, and batch number when batch-scoped, that produced it.
type JobResult struct {
	Keyword *KeywordRecord `json:"keyword,omitempty"` // Set on success entries
	File    string         `json:"file,omitempty"`    // Set on failure entries
	Batch   int            `json:"batch,omitempty"`   // Set on batch-scoped failure entries (1-based)
	Error   string         `json:"error,omitempty"`   // Set on failure entries
}

// SuccessResult wraps a processed keyword record as a result entry
func SuccessResult(record KeywordRecord) JobResult {
	return JobResult{Keyword: &record}
}

// FileFailure records a file-scoped failure (validation or read error)
func FileFailure(file, reason string) JobResult {
	return JobResult{File: file, Error: reason}
}

// BatchFailure records a batch-scoped failure (remote processing error)
func BatchFailure(file string, batch int, reason string) JobResult {
	return JobResult{File: file, Batch: batch, Error: reason}
}

// IsFailure returns true for failure entries
func (r JobResult) IsFailure() bool {
	return r.Error != ""
}
