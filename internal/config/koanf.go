package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/aegistry/config.yaml",
	"/etc/aegistry/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadWithKoanf loads configuration with three layers, in precedence order:
//  1. Defaults: built-in sensible defaults.
//  2. Config File: optional YAML config file (if found).
//  3. Environment Variables: override any setting.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps AEGISTRY_-prefixed environment variable names to
// koanf config paths, the same legacy-prefix-mapping shape the teacher uses
// for its own env vars. Unmapped keys are dropped to prevent unrelated
// environment variables from polluting config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	mappings := map[string]string{
		"http_port":        "server.port",
		"http_host":        "server.host",
		"http_timeout":     "server.timeout",
		"environment":      "server.environment",
		"duckdb_path":      "database.path",
		"duckdb_max_memory": "database.max_memory",
		"nats_enabled":      "nats.enabled",
		"nats_embedded":     "nats.embedded_server",
		"nats_url":          "nats.url",
		"nats_store_dir":    "nats.store_dir",
		"nats_stream_name":  "nats.stream_name",
		"refresh_interval":        "refresh.interval",
		"refresh_fetch_timeout":   "refresh.fetch_timeout",
		"refresh_retry_attempts":  "refresh.retry_attempts",
		"refresh_retry_base_delay": "refresh.retry_base_delay",
		"monitoring_dispatch_interval":     "monitoring.dispatch_interval",
		"monitoring_callback_timeout":      "monitoring.callback_timeout",
		"monitoring_callback_max_attempts": "monitoring.callback_max_attempts",
		"monitoring_dedupe_dir":            "monitoring.dedupe_dir",
		"risk_hit_threshold":    "risk.hit_threshold",
		"risk_review_threshold": "risk.review_threshold",
		"risk_name_weight":      "risk.name_weight",
		"risk_country_weight":   "risk.country_weight",
		"risk_dob_weight":       "risk.dob_weight",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"casbin_model_path":   "security.casbin_model_path",
		"casbin_policy_path":  "security.casbin_policy_path",
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
		"sources_eu_enabled":             "sources.eu_enabled",
		"sources_us_congress_enabled":    "sources.us_congress_enabled",
		"sources_pep_fallback_roster_dir": "sources.pep_fallback_roster_dir",
	}

	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage (hot
// reload, tests).
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload. The caller is
// responsible for synchronizing access to the reloaded configuration.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
