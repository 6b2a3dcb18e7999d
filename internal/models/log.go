package models

import "time"

// LogCategory tags an audit entry with the subsystem it came from.
type LogCategory string

const (
	LogCategoryClient   LogCategory = "CLIENT"
	LogCategoryServer   LogCategory = "SERVER"
	LogCategoryTelegram LogCategory = "TELEGRAM"
)

// LogLevel is the severity of an audit entry.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// LogFilterAll is the sentinel that disables category or level filtering.
const LogFilterAll = "All"

// LogEntry is an append-only audit record, queryable from the panel UI.
type LogEntry struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Category  LogCategory `gorm:"size:20;index" json:"category"`
	Level     LogLevel    `gorm:"size:10;index" json:"level"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"createdAt"`
}
