package factory

import (
	"fmt"

	"panel-backend/internal/store/gormstore"
	"panel-backend/internal/store/memory"
	"panel-backend/internal/store/types"
)

// NewStore 创建新的存储实例
func NewStore(cfg *types.Config) (types.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewStore(), nil
	case "sqlite":
		return gormstore.NewSQLite(cfg.SQLite)
	case "postgres":
		return gormstore.NewPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
