package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"panel-backend/internal/models"
	"panel-backend/internal/store/types"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store 通用GORM存储实现
type Store struct {
	db *gorm.DB
}

// NewSQLite 创建SQLite存储实例
func NewSQLite(cfg types.SQLiteConfig) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return newStore(sqlite.Open(cfg.Path))
}

// NewPostgres 创建PostgreSQL存储实例
func NewPostgres(cfg types.PostgresConfig) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
	return newStore(postgres.Open(dsn))
}

func newStore(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&models.Client{}, &models.Config{}, &models.LogEntry{}); err != nil {
		return nil, fmt.Errorf("auto migrating tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	if result := s.db.WithContext(ctx).Create(client); result.Error != nil {
		return fmt.Errorf("inserting client: %w", result.Error)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id int) (*models.Client, error) {
	var client models.Client
	result := s.db.WithContext(ctx).First(&client, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("querying client: %w", result.Error)
	}
	return &client, nil
}

func (s *Store) ListClients(ctx context.Context) ([]*models.Client, error) {
	var clients []*models.Client
	if result := s.db.WithContext(ctx).Order("name asc").Find(&clients); result.Error != nil {
		return nil, fmt.Errorf("querying clients: %w", result.Error)
	}
	return clients, nil
}

func (s *Store) UpdateClient(ctx context.Context, client *models.Client) error {
	if result := s.db.WithContext(ctx).Save(client); result.Error != nil {
		return fmt.Errorf("updating client: %w", result.Error)
	}
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id int) error {
	if result := s.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", id); result.Error != nil {
		return fmt.Errorf("deleting client: %w", result.Error)
	}
	return nil
}

func (s *Store) CreateConfig(ctx context.Context, config *models.Config) error {
	if result := s.db.WithContext(ctx).Create(config); result.Error != nil {
		return fmt.Errorf("inserting config: %w", result.Error)
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, id string) (*models.Config, error) {
	var config models.Config
	result := s.db.WithContext(ctx).First(&config, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("querying config: %w", result.Error)
	}
	return &config, nil
}

func (s *Store) ListConfigs(ctx context.Context) ([]*models.Config, error) {
	var configs []*models.Config
	if result := s.db.WithContext(ctx).Order("created_at desc").Find(&configs); result.Error != nil {
		return nil, fmt.Errorf("querying configs: %w", result.Error)
	}
	return configs, nil
}

func (s *Store) ListConfigsByClient(ctx context.Context, clientID int) ([]*models.Config, error) {
	var configs []*models.Config
	result := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at desc").
		Find(&configs)
	if result.Error != nil {
		return nil, fmt.Errorf("querying configs by client: %w", result.Error)
	}
	return configs, nil
}

func (s *Store) UpdateConfig(ctx context.Context, config *models.Config) error {
	if result := s.db.WithContext(ctx).Save(config); result.Error != nil {
		return fmt.Errorf("updating config: %w", result.Error)
	}
	return nil
}

func (s *Store) DeleteConfig(ctx context.Context, id string) error {
	if result := s.db.WithContext(ctx).Delete(&models.Config{}, "id = ?", id); result.Error != nil {
		return fmt.Errorf("deleting config: %w", result.Error)
	}
	return nil
}

func (s *Store) DeleteConfigsByClient(ctx context.Context, clientID int) error {
	if result := s.db.WithContext(ctx).Delete(&models.Config{}, "client_id = ?", clientID); result.Error != nil {
		return fmt.Errorf("deleting configs by client: %w", result.Error)
	}
	return nil
}

func (s *Store) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	if result := s.db.WithContext(ctx).Create(entry); result.Error != nil {
		return fmt.Errorf("inserting log entry: %w", result.Error)
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context, filter types.LogFilter) ([]*models.LogEntry, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.LogEntry{})

	if filter.Search != "" {
		query = query.Where("LOWER(message) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if filter.Category != "" && filter.Category != models.LogFilterAll {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Level != "" && filter.Level != models.LogFilterAll {
		query = query.Where("level = ?", filter.Level)
	}

	var total int64
	if result := query.Count(&total); result.Error != nil {
		return nil, 0, fmt.Errorf("counting log entries: %w", result.Error)
	}

	offset := 0
	if filter.Page > 1 && filter.Limit > 0 {
		offset = (filter.Page - 1) * filter.Limit
	}

	var entries []*models.LogEntry
	result := query.Order("created_at desc, id desc").Offset(offset)
	if filter.Limit > 0 {
		result = result.Limit(filter.Limit)
	}
	if result = result.Find(&entries); result.Error != nil {
		return nil, 0, fmt.Errorf("querying log entries: %w", result.Error)
	}

	return entries, total, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
