package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Tariff     TariffConfig     `yaml:"tariff"`
	Emissions  EmissionsConfig  `yaml:"emissions"`
	Weather    WeatherConfig    `yaml:"weather"`
	Coach      CoachConfig      `yaml:"coach"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres|sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// IngestConfig holds the reading-file ingester configuration.
type IngestConfig struct {
	Enabled         bool          `yaml:"enabled"`
	CSVPath         string        `yaml:"csv_path"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	// Cadence of the feed itself; used for runtime-hours math.
	IntervalMinutes int `yaml:"reading_interval_minutes"`
	CacheTTLSeconds int `yaml:"snapshot_ttl_seconds"`
}

// TariffConfig holds the time-of-use rates used to backfill readings that
// arrive without a tariff column.
type TariffConfig struct {
	PeakStartHour    int     `yaml:"peak_start_hour"`
	PeakEndHour      int     `yaml:"peak_end_hour"` // exclusive
	PeakUSDPerKWh    float64 `yaml:"peak_usd_per_kwh"`
	OffPeakUSDPerKWh float64 `yaml:"off_peak_usd_per_kwh"`
}

// EmissionsConfig holds the grid-mix dependent emission factor.
type EmissionsConfig struct {
	GridKgPerKWh float64 `yaml:"grid_kg_per_kwh"`
}

// WeatherConfig holds the weather collaborator endpoint configuration.
type WeatherConfig struct {
	BaseURL         string        `yaml:"base_url"`
	TimeoutSeconds  int           `yaml:"timeout_seconds"`
	Timeout         time.Duration `yaml:"-"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
}

// CoachConfig holds the coaching responder endpoint configuration.
type CoachConfig struct {
	URL            string        `yaml:"url"`
	APIKeyEnv      string        `yaml:"api_key_env"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	MaxTurns       int           `yaml:"max_turns"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for use when no
// config file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "powerpulse.db"
	}

	if cfg.Ingest.CSVPath == "" {
		cfg.Ingest.CSVPath = "./data/powerpulse-datas.csv"
	}
	if cfg.Ingest.IntervalSeconds <= 0 {
		cfg.Ingest.IntervalSeconds = 300
	}
	cfg.Ingest.Interval = time.Duration(cfg.Ingest.IntervalSeconds) * time.Second
	if cfg.Ingest.IntervalMinutes <= 0 {
		cfg.Ingest.IntervalMinutes = 30
	}
	if cfg.Ingest.CacheTTLSeconds <= 0 {
		cfg.Ingest.CacheTTLSeconds = 60
	}

	if cfg.Tariff.PeakStartHour <= 0 {
		cfg.Tariff.PeakStartHour = 15
	}
	if cfg.Tariff.PeakEndHour <= 0 {
		cfg.Tariff.PeakEndHour = 19
	}
	if cfg.Tariff.PeakUSDPerKWh <= 0 {
		cfg.Tariff.PeakUSDPerKWh = 0.32
	}
	if cfg.Tariff.OffPeakUSDPerKWh <= 0 {
		cfg.Tariff.OffPeakUSDPerKWh = 0.12
	}

	if cfg.Emissions.GridKgPerKWh <= 0 {
		cfg.Emissions.GridKgPerKWh = 0.45
	}

	if cfg.Weather.TimeoutSeconds <= 0 {
		cfg.Weather.TimeoutSeconds = 10
	}
	cfg.Weather.Timeout = time.Duration(cfg.Weather.TimeoutSeconds) * time.Second
	if cfg.Weather.CacheTTLSeconds <= 0 {
		cfg.Weather.CacheTTLSeconds = 600
	}

	if cfg.Coach.TimeoutSeconds <= 0 {
		cfg.Coach.TimeoutSeconds = 20
	}
	cfg.Coach.Timeout = time.Duration(cfg.Coach.TimeoutSeconds) * time.Second
	if cfg.Coach.MaxTurns <= 0 {
		cfg.Coach.MaxTurns = 10
	}
	if cfg.Coach.APIKeyEnv == "" {
		cfg.Coach.APIKeyEnv = "COACH_API_KEY"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
}
