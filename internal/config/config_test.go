package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "erpledger.db", cfg.DB.Path)
	assert.Equal(t, ":8888", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Ledger.NumberingRetries)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
db:
  path: /var/lib/erp.db
company:
  name: Garments Ltd
redis:
  addr: localhost:6379
cache:
  ttl: 30s
`), 0o644))
	t.Setenv("ERPLEDGER_LEDGER_NUMBERING_RETRIES", "9")

	cfg, err := Load(New(), file)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/erp.db", cfg.DB.Path)
	assert.Equal(t, "Garments Ltd", cfg.Company.Name)
	assert.Equal(t, 9, cfg.Ledger.NumberingRetries)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidRetries(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ERPLEDGER_LEDGER_NUMBERING_RETRIES", "0")

	_, err := Load(New(), "")
	assert.Error(t, err)
}
