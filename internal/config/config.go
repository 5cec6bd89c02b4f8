package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// Config holds the full application configuration.
type Config struct {
	Postgres PostgresConfig `yaml:"postgresql" mapstructure:"postgresql"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Feed     FeedConfig     `yaml:"feed" mapstructure:"feed"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Kafka    KafkaConfig    `yaml:"kafka" mapstructure:"kafka"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the database backend.
type StoreConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns   int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// FeedConfig configures the USGS summary feed request.
type FeedConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Format      string  `yaml:"format" mapstructure:"format"`
	Period      string  `yaml:"period" mapstructure:"period"`
	Magnitude   string  `yaml:"magnitude" mapstructure:"magnitude"`
	OutFile     string  `yaml:"out_file" mapstructure:"out_file"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the HTTP timeout as a duration.
func (f FeedConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// IngestConfig configures the ingestion cycle.
type IngestConfig struct {
	Table         string `yaml:"table" mapstructure:"table"`
	BatchSize     int    `yaml:"batch_size" mapstructure:"batch_size"`
	StrictColumns bool   `yaml:"strict_columns" mapstructure:"strict_columns"`
}

// KafkaConfig enables publishing of newly inserted events. Publishing is off
// when Brokers is empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
}

// Enabled reports whether a broker list is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Port     int           `yaml:"port" mapstructure:"port"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// postgresKeys are bound to QUAKE_POSTGRESQL_* so they can be supplied
// without a config file.
var postgresKeys = []string{"host", "port", "dbname", "user", "password", "sslmode"}

// Load reads configuration from path (or ./quake.yaml when path is empty),
// a .env file and QUAKE_* environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Configuration(eris.Wrap(err, "config: load .env"))
	}

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quake")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("QUAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range postgresKeys {
		_ = v.BindEnv("postgresql." + k)
	}

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "quake.db")
	v.SetDefault("store.max_conns", 1)
	v.SetDefault("feed.base_url", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/")
	v.SetDefault("feed.format", ".geojson")
	v.SetDefault("feed.period", "month")
	v.SetDefault("feed.magnitude", "all")
	v.SetDefault("feed.user_agent", "quake-cli/1.0")
	v.SetDefault("feed.timeout_secs", 60)
	v.SetDefault("feed.rate_per_sec", 2)
	v.SetDefault("ingest.table", "earthquakes")
	v.SetDefault("ingest.batch_size", 1)
	v.SetDefault("ingest.strict_columns", true)
	v.SetDefault("kafka.topic", "quake.events")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.interval", "15m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperr.Configuration(eris.Wrap(err, "config: read file"))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Configuration(eris.Wrap(err, "config: unmarshal"))
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "store"
// (anything that opens the database), "feed", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "store":
		errs = append(errs, c.validateStore()...)
	case "feed":
		errs = append(errs, c.validateFeed()...)
	case "serve":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateFeed()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.Interval <= 0 {
			errs = append(errs, "server.interval must be > 0")
		}
	default:
		return apperr.Configuration(eris.Errorf("config: unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return apperr.Configuration(eris.Errorf("config: %s", strings.Join(errs, "; ")))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "postgres":
		if len(c.Postgres) == 0 {
			errs = append(errs, "section postgresql not found")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path is required")
		}
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}
	if c.Ingest.Table == "" {
		errs = append(errs, "ingest.table is required")
	}
	if c.Ingest.BatchSize < 1 {
		errs = append(errs, "ingest.batch_size must be >= 1")
	}
	return errs
}

func (c *Config) validateFeed() []string {
	var errs []string
	if c.Feed.BaseURL == "" {
		errs = append(errs, "feed.base_url is required")
	}
	if c.Feed.TimeoutSecs < 0 {
		errs = append(errs, "feed.timeout_secs must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return apperr.Configuration(eris.Wrap(err, "config: parse log level"))
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
