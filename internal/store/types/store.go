package types

import (
	"context"
	"errors"

	"panel-backend/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store 定义了存储层接口
type Store interface {
	// Client operations
	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id int) (*models.Client, error)
	ListClients(ctx context.Context) ([]*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id int) error

	// Config operations
	CreateConfig(ctx context.Context, config *models.Config) error
	GetConfig(ctx context.Context, id string) (*models.Config, error)
	ListConfigs(ctx context.Context) ([]*models.Config, error)
	ListConfigsByClient(ctx context.Context, clientID int) ([]*models.Config, error)
	UpdateConfig(ctx context.Context, config *models.Config) error
	DeleteConfig(ctx context.Context, id string) error
	DeleteConfigsByClient(ctx context.Context, clientID int) error

	// Audit log operations
	AppendLog(ctx context.Context, entry *models.LogEntry) error
	ListLogs(ctx context.Context, filter LogFilter) ([]*models.LogEntry, int64, error)

	// Close releases any resources held by the store
	Close() error
}

// LogFilter narrows and pages audit log queries. Category and Level accept
// models.LogFilterAll (or empty) to disable that filter.
type LogFilter struct {
	Search   string
	Category string
	Level    string
	Page     int
	Limit    int
}

// Config 存储配置
type Config struct {
	Type     string         `yaml:"type"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}
