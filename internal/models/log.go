package models

import (
	"time"
)

// LogLevel classifies persisted log entries
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
	LogLevelSuccess LogLevel = "success"
)

// LogCategory groups persisted log entries by subsystem
type LogCategory string

const (
	LogCategorySystem         LogCategory = "system"
	LogCategoryFileProcessing LogCategory = "file_processing"
	LogCategoryAPI            LogCategory = "api"
	LogCategoryTaskManagement LogCategory = "task_management"
)

// LogEntry is one persisted application log record
type LogEntry struct {
	ID        uint64      `json:"id" badgerhold:"key"`
	Timestamp time.Time   `json:"timestamp"`
	Level     LogLevel    `json:"level"`
	Category  LogCategory `json:"category"`
	Message   string      `json:"message"`
	JobID     string      `json:"job_id,omitempty"`
}
