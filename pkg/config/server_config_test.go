package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *ServerConfig {
	cfg := DefaultServerConfig()
	cfg.Amnezia.APIKey = "secret"
	cfg.Encryption.Key = base64.StdEncoding.EncodeToString(make([]byte, 32))
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := validConfig()
		cfg.Amnezia.APIKey = ""
		assert.ErrorContains(t, cfg.Validate(), "amnezia.api_key")
	})

	t.Run("telegram enabled without token", func(t *testing.T) {
		cfg := validConfig()
		cfg.Telegram.Enabled = true
		assert.ErrorContains(t, cfg.Validate(), "telegram.bot_token")
	})

	t.Run("short encryption key", func(t *testing.T) {
		cfg := validConfig()
		cfg.Encryption.Key = base64.StdEncoding.EncodeToString([]byte("short"))
		assert.ErrorContains(t, cfg.Validate(), "32 bytes")
	})

	t.Run("bad base64 key", func(t *testing.T) {
		cfg := validConfig()
		cfg.Encryption.Key = "!!! not base64 !!!"
		assert.ErrorContains(t, cfg.Validate(), "not valid base64")
	})
}

func TestValidateEnvOverrides(t *testing.T) {
	cfg := validConfig()
	cfg.Amnezia.APIKey = ""

	t.Setenv("AMNEZIA_API_KEY", "from-env")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "from-env", cfg.Amnezia.APIKey)
}

func TestLoadServerConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9090
amnezia:
  host: vpn.internal
  port: 3000
  api_key: secret
encryption:
  key: `+base64.StdEncoding.EncodeToString(make([]byte, 32))+`
log:
  file: logs/panel.log
storage:
  type: sqlite
  sqlite:
    path: data/panel.db
`), 0644))

	cfg, err := LoadServerConfig(path, dir)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://vpn.internal:3000", cfg.AmneziaBaseURL())
	// Relative paths are anchored at the workspace root.
	assert.Equal(t, filepath.Join(dir, "logs/panel.log"), cfg.Log.File)
	assert.Equal(t, filepath.Join(dir, "data/panel.db"), cfg.Storage.SQLite.Path)
	assert.DirExists(t, filepath.Join(dir, "data"))
}
