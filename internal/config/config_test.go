package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// chdirTemp changes into a fresh temp dir so no quake.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "quake.db", cfg.Store.SQLitePath)
	assert.Equal(t, int32(1), cfg.Store.MaxConns)
	assert.Equal(t, "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/", cfg.Feed.BaseURL)
	assert.Equal(t, ".geojson", cfg.Feed.Format)
	assert.Equal(t, "month", cfg.Feed.Period)
	assert.Equal(t, "all", cfg.Feed.Magnitude)
	assert.Equal(t, 60*time.Second, cfg.Feed.Timeout())
	assert.Equal(t, "earthquakes", cfg.Ingest.Table)
	assert.Equal(t, 1, cfg.Ingest.BatchSize)
	assert.True(t, cfg.Ingest.StrictColumns)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Server.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Postgres)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
postgresql:
  host: localhost
  port: 5432
  dbname: quakes
  user: quake
  password: secret
ingest:
  table: public.earthquakes
  batch_size: 50
  strict_columns: false
kafka:
  brokers: [localhost:9092]
server:
  interval: 5m
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quake.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Postgres["host"])
	assert.Equal(t, "5432", cfg.Postgres["port"])
	assert.Equal(t, "quakes", cfg.Postgres["dbname"])
	assert.Equal(t, "public.earthquakes", cfg.Ingest.Table)
	assert.Equal(t, 50, cfg.Ingest.BatchSize)
	assert.False(t, cfg.Ingest.StrictColumns)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "quake.events", cfg.Kafka.Topic)
	assert.Equal(t, 5*time.Minute, cfg.Server.Interval)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, "month", cfg.Feed.Period)
}

func TestLoadExplicitPath(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  magnitude: \"4.5\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "4.5", cfg.Feed.Magnitude)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	chdirTemp(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quake.yaml"), []byte("feed:\n  period: week\n"), 0644))

	t.Setenv("QUAKE_FEED_PERIOD", "day")
	t.Setenv("QUAKE_POSTGRESQL_HOST", "db.internal")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "day", cfg.Feed.Period)
	assert.Equal(t, "db.internal", cfg.Postgres["host"])
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUAKE_INGEST_BATCH_SIZE=25\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("QUAKE_INGEST_BATCH_SIZE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Ingest.BatchSize)
}

func validDefaults() *Config {
	return &Config{
		Postgres: PostgresConfig{"host": "localhost", "dbname": "quakes"},
		Store:    StoreConfig{Driver: "postgres", SQLitePath: "quake.db"},
		Feed:     FeedConfig{BaseURL: "https://example.com/", TimeoutSecs: 10},
		Ingest:   IngestConfig{Table: "earthquakes", BatchSize: 1},
		Server:   ServerConfig{Port: 8080, Interval: time.Minute},
	}
}

func TestValidateStore(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("store"))
}

func TestValidateStore_MissingPostgresSection(t *testing.T) {
	cfg := validDefaults()
	cfg.Postgres = nil

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	assert.Contains(t, err.Error(), "section postgresql not found")
}

func TestValidateStore_SQLiteNeedsNoPostgres(t *testing.T) {
	cfg := validDefaults()
	cfg.Postgres = nil
	cfg.Store.Driver = "sqlite"

	assert.NoError(t, cfg.Validate("store"))
}

func TestValidateStore_Collects(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Ingest.Table = ""
	cfg.Ingest.BatchSize = 0

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
	assert.Contains(t, err.Error(), "ingest.table is required")
	assert.Contains(t, err.Error(), "ingest.batch_size must be >= 1")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	cfg.Server.Interval = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.Contains(t, err.Error(), "server.interval must be > 0")
}

func TestValidateFeed_MissingBaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Feed.BaseURL = ""

	err := cfg.Validate("feed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed.base_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
