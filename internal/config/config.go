// Package config loads aegistry's configuration with the same layered
// precedence the teacher uses: built-in defaults, overridden by an optional
// YAML file, overridden by environment variables.
package config

import "time"

// Config is the root configuration object, unmarshaled by koanf.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	NATS       NATSConfig       `koanf:"nats"`
	Refresh    RefreshConfig    `koanf:"refresh"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Risk       RiskConfig       `koanf:"risk"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Sources    SourcesConfig    `koanf:"sources"`
}

// ServerConfig controls the HTTP API (C10).
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig controls the embedded DuckDB connection (C3/C11/C12) and,
// via the environment variables the Subject Store reads at Open (see
// internal/store/extensions.go — AEGISTRY_INSTALL_EXTENSIONS, CI,
// GITHUB_ACTIONS), whether the RapidFuzz community extension backing
// Candidate Retrieval (C4/C5) gets installed.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// NATSConfig controls the NATS JetStream connection that carries the
// callback dispatcher's cross-process wake signal (C7, "nats" build tag only).
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	URL            string `koanf:"url"`
	StoreDir       string `koanf:"store_dir"`
	StreamName     string `koanf:"stream_name"`
}

// RefreshConfig controls the Ingest Orchestrator's refresh cadence and
// per-source fetch budget (C2/C8).
type RefreshConfig struct {
	Interval       time.Duration `koanf:"interval"`
	FetchTimeout   time.Duration `koanf:"fetch_timeout"`
	RetryAttempts  int           `koanf:"retry_attempts"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
}

// MonitoringConfig controls the monitoring re-screen and callback dispatch
// loops (C7).
type MonitoringConfig struct {
	DispatchInterval    time.Duration `koanf:"dispatch_interval"`
	CallbackTimeout     time.Duration `koanf:"callback_timeout"`
	CallbackMaxAttempts int           `koanf:"callback_max_attempts"`
	DedupeDir           string        `koanf:"dedupe_dir"`
}

// RiskConfig holds risk thresholds and weights loaded from config. Validate
// checks that HitThreshold exceeds ReviewThreshold; no other package reads
// these fields, and tenants without an override in the Risk Policy Store
// (C11) get screening.DefaultPolicy() instead.
type RiskConfig struct {
	HitThreshold    float64 `koanf:"hit_threshold"`
	ReviewThreshold float64 `koanf:"review_threshold"`
	NameWeight      float64 `koanf:"name_weight"`
	CountryWeight   float64 `koanf:"country_weight"`
	DOBWeight       float64 `koanf:"dob_weight"`
}

// SecurityConfig holds HTTP security settings (C10) loaded from config. No
// other package reads these fields: cmd/server builds the enforcer from
// authz.DefaultEnforcerConfig() and does not pass them to the router.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	CasbinModelPath   string        `koanf:"casbin_model_path"`
	CasbinPolicyPath  string        `koanf:"casbin_policy_path"`
}

// LoggingConfig controls the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SourcesConfig lists the per-source adapter settings: whether a source is
// enabled and where its static fallback roster (if any) lives on disk, per
// the §9 "static fallback lists" design note.
type SourcesConfig struct {
	EUEnabled           bool   `koanf:"eu_enabled"`
	USCongressEnabled   bool   `koanf:"us_congress_enabled"`
	PEPFallbackRosterDir string `koanf:"pep_fallback_roster_dir"`
}

// defaultConfig returns sensible built-in defaults, applied before the
// config file and environment variable layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8088,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:                   "/data/aegistry.duckdb",
			MaxMemory:              "2GB",
			Threads:                0,
			PreserveInsertionOrder: true,
		},
		NATS: NATSConfig{
			Enabled:        true,
			EmbeddedServer: true,
			URL:            "nats://127.0.0.1:4222",
			StoreDir:       "/data/nats/jetstream",
			StreamName:     "AEGISTRY_CALLBACKS",
		},
		Refresh: RefreshConfig{
			Interval:       24 * time.Hour,
			FetchTimeout:   3 * time.Minute,
			RetryAttempts:  4,
			RetryBaseDelay: 2 * time.Second,
		},
		Monitoring: MonitoringConfig{
			DispatchInterval:    30 * time.Second,
			CallbackTimeout:     5 * time.Second,
			CallbackMaxAttempts: 3,
			DedupeDir:           "/data/aegistry-dedupe",
		},
		Risk: RiskConfig{
			HitThreshold:    0.95,
			ReviewThreshold: 0.90,
			NameWeight:      0.70,
			CountryWeight:   0.20,
			DOBWeight:       0.10,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Sources: SourcesConfig{
			EUEnabled:            true,
			USCongressEnabled:    true,
			PEPFallbackRosterDir: "/etc/aegistry/fallback-rosters",
		},
	}
}
