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
	t.Setenv("QUICKBITE_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "marketplace-events", cfg.Kafka.Topic)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 2*time.Minute, cfg.Mpesa.PendingTTL)
	assert.Contains(t, cfg.Postgres.ConnString(), "dbname=quickbite")
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickbite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
postgres:
  host: db.internal
  name: marketplace
session:
  ttl: 30m
mpesa:
  short_code: "174379"
`), 0o600))

	t.Setenv("DB_HOST", "override")
	t.Setenv("MPESA_PASSKEY", "secret")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "override", cfg.Postgres.Host)
	assert.Equal(t, "marketplace", cfg.Postgres.Name)
	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "174379", cfg.Mpesa.ShortCode)
	assert.Equal(t, "secret", cfg.Mpesa.Passkey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
