package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields resolves ${ENV_VAR} references in credential fields.
func expandSensitiveFields(cfg *Config) {
	cfg.Backend.APIKey = expandEnvVars(cfg.Backend.APIKey)
	cfg.Storage.Redis.URL = expandEnvVars(cfg.Storage.Redis.URL)
}

// envOverrides are read from CFTUTOR_* environment variables.
type envOverrides struct {
	BackendURL     string `envconfig:"BACKEND_URL"`
	BackendTimeout int    `envconfig:"BACKEND_TIMEOUT"`
	APIKey         string `envconfig:"API_KEY"`
	StorageDriver  string `envconfig:"STORAGE_DRIVER"`
	StoragePath    string `envconfig:"STORAGE_PATH"`
	RedisURL       string `envconfig:"REDIS_URL"`
	FreshnessHours int    `envconfig:"FRESHNESS_HOURS"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFile        string `envconfig:"LOG_FILE"`
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &ConfigError{Message: "failed to load " + path + ": " + err.Error()}
	}
	return nil
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, applyEnvOverrides(&cfg)
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = d.Backend.URL
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = d.Backend.TimeoutSeconds
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = d.Storage.Driver
	}
	if cfg.Storage.Slot == "" {
		cfg.Storage.Slot = d.Storage.Slot
	}
	if cfg.Storage.FreshnessHours == 0 {
		cfg.Storage.FreshnessHours = d.Storage.FreshnessHours
	}
	if cfg.Storage.AutosaveSeconds == 0 {
		cfg.Storage.AutosaveSeconds = d.Storage.AutosaveSeconds
	}
	if cfg.Storage.Redis.ReadTimeout == 0 {
		cfg.Storage.Redis.ReadTimeout = d.Storage.Redis.ReadTimeout
	}
	if cfg.Storage.Redis.WriteTimeout == 0 {
		cfg.Storage.Redis.WriteTimeout = d.Storage.Redis.WriteTimeout
	}
	if cfg.Storage.Redis.DialTimeout == 0 {
		cfg.Storage.Redis.DialTimeout = d.Storage.Redis.DialTimeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
	if cfg.UI.Style == "" {
		cfg.UI.Style = d.UI.Style
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = d.UI.WordWrap
	}
}

// applyEnvOverrides reads CFTUTOR_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("cftutor", &env); err != nil {
		return &ConfigError{Message: "invalid environment override: " + err.Error()}
	}

	if env.BackendURL != "" {
		cfg.Backend.URL = env.BackendURL
	}
	if env.BackendTimeout > 0 {
		cfg.Backend.TimeoutSeconds = env.BackendTimeout
	}
	if env.APIKey != "" {
		cfg.Backend.APIKey = env.APIKey
	}
	if env.StorageDriver != "" {
		cfg.Storage.Driver = strings.ToLower(env.StorageDriver)
	}
	if env.StoragePath != "" {
		cfg.Storage.Path = env.StoragePath
	}
	if env.RedisURL != "" {
		cfg.Storage.Redis.URL = env.RedisURL
	}
	if env.FreshnessHours > 0 {
		cfg.Storage.FreshnessHours = env.FreshnessHours
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(env.LogLevel)
	}
	if env.LogFile != "" {
		cfg.Logging.File = env.LogFile
	}
	return nil
}
