// Package logs implements the panel's persistent audit log. Entries are
// appended by the integration clients and services and queried from the UI
// with search, pagination and category/level filters.
package logs

import (
	"context"

	"panel-backend/internal/models"
	"panel-backend/internal/store/types"
	"panel-backend/pkg/logger"

	"github.com/rs/zerolog"
)

type Service struct {
	store types.Store
	log   zerolog.Logger
}

func NewService(store types.Store, logger *logger.Logger) *Service {
	return &Service{
		store: store,
		log:   logger.GetLogger("audit"),
	}
}

// Record appends an audit entry. Recording is best-effort: a storage failure
// goes to the process log only, so a caller's original error is never
// replaced by a logging one.
func (s *Service) Record(ctx context.Context, category models.LogCategory, level models.LogLevel, message string) {
	entry := &models.LogEntry{
		Category: category,
		Level:    level,
		Message:  message,
	}
	if err := s.store.AppendLog(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("category", string(category)).
			Str("message", message).
			Msg("Failed to append audit log entry")
	}
}

// ListResult pages audit entries, newest first.
type ListResult struct {
	Entries []*models.LogEntry `json:"logs"`
	Total   int64              `json:"totalItems"`
}

func (s *Service) List(ctx context.Context, filter types.LogFilter) (*ListResult, error) {
	entries, total, err := s.store.ListLogs(ctx, filter)
	if err != nil {
		s.Record(ctx, models.LogCategoryServer, models.LogLevelError, "Failed to query audit log")
		return nil, err
	}
	return &ListResult{Entries: entries, Total: total}, nil
}
