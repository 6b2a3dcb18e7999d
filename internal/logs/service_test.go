package logs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-backend/internal/models"
	"panel-backend/internal/store/memory"
	"panel-backend/internal/store/types"
	"panel-backend/pkg/logger"
)

type failingStore struct {
	*memory.Store
}

func (f *failingStore) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	return errors.New("disk full")
}

func TestRecordAndList(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, logger.New(false))
	ctx := context.Background()

	svc.Record(ctx, models.LogCategoryClient, models.LogLevelInfo, "Config alpha created")
	svc.Record(ctx, models.LogCategoryTelegram, models.LogLevelError, "Failed to send Telegram message")

	result, err := svc.List(ctx, types.LogFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Entries, 2)
	// Newest first.
	assert.Equal(t, models.LogCategoryTelegram, result.Entries[0].Category)

	filtered, err := svc.List(ctx, types.LogFilter{Level: string(models.LogLevelError)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.Total)
}

func TestRecordIsBestEffort(t *testing.T) {
	svc := NewService(&failingStore{memory.NewStore()}, logger.New(false))

	// A storage failure must not panic or surface to the caller.
	svc.Record(context.Background(), models.LogCategoryServer, models.LogLevelError, "Failed to reboot server")
}
