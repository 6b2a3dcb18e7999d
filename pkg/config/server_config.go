package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// ServerConfig 服务端配置
type ServerConfig struct {
	// 服务器配置
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	// VPN provisioning API
	Amnezia struct {
		Host   string `yaml:"host"`
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"amnezia"`

	// Telegram bot
	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		VPNName  string `yaml:"vpn_name"`
	} `yaml:"telegram"`

	// 字段加密配置（base64 编码的 32 字节密钥）
	Encryption struct {
		Key string `yaml:"key"`
	} `yaml:"encryption"`

	// 日志配置
	Log struct {
		Debug bool   `yaml:"debug"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	// 存储配置
	Storage struct {
		Type   string `yaml:"type"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"storage"`
}

// LoadServerConfig 加载服务端配置
func LoadServerConfig(path string, workspaceRoot string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := LoadConfig(path, cfg); err != nil {
		return nil, err
	}

	if err := cfg.resolveRelativePaths(workspaceRoot); err != nil {
		return nil, fmt.Errorf("resolving paths: %w", err)
	}

	return cfg, nil
}

// Validate 实现Config接口
func (c *ServerConfig) Validate() error {
	c.applyEnv()

	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Amnezia.Host == "" {
		return fmt.Errorf("amnezia.host is required")
	}
	if c.Amnezia.Port <= 0 {
		return fmt.Errorf("invalid amnezia.port: %d", c.Amnezia.Port)
	}
	if c.Amnezia.APIKey == "" {
		return fmt.Errorf("amnezia.api_key is required")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	if c.Encryption.Key == "" {
		return fmt.Errorf("encryption.key is required")
	}
	// 密钥长度错误在启动时失败，而不是在调用时
	key, err := base64.StdEncoding.DecodeString(c.Encryption.Key)
	if err != nil {
		return fmt.Errorf("encryption.key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("encryption.key must decode to 32 bytes, got %d", len(key))
	}
	if c.Storage.Type == "" {
		return fmt.Errorf("storage.type is required")
	}
	return nil
}

// applyEnv 允许通过环境变量注入敏感配置
func (c *ServerConfig) applyEnv() {
	if v := os.Getenv("AMNEZIA_API_KEY"); v != "" {
		c.Amnezia.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		c.Encryption.Key = v
	}
}

// AmneziaBaseURL 返回 provisioning API 的基础地址
func (c *ServerConfig) AmneziaBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Amnezia.Host, c.Amnezia.Port)
}

// resolveRelativePaths 处理相对路径
func (c *ServerConfig) resolveRelativePaths(baseDir string) error {
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(baseDir, c.Log.File)
	}

	if c.Storage.Type == "sqlite" && !filepath.IsAbs(c.Storage.SQLite.Path) {
		c.Storage.SQLite.Path = filepath.Join(baseDir, c.Storage.SQLite.Path)
		if err := os.MkdirAll(filepath.Dir(c.Storage.SQLite.Path), 0755); err != nil {
			return fmt.Errorf("creating sqlite directory: %w", err)
		}
	}

	return nil
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() *ServerConfig {
	cfg := &ServerConfig{}

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080

	cfg.Amnezia.Host = "127.0.0.1"
	cfg.Amnezia.Port = 8181

	cfg.Telegram.VPNName = "VPN"

	cfg.Log.Debug = false
	cfg.Log.File = "data/panel-server.log"

	cfg.Storage.Type = "sqlite"
	cfg.Storage.SQLite.Path = "data/panel.db"

	return cfg
}
