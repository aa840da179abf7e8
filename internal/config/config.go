// Package config loads, validates and edits the cftutor YAML configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Default values, shared by Defaults and applyDefaults.
const (
	DefaultBackendURL      = "http://localhost:5000"
	DefaultTimeoutSeconds  = 30
	DefaultSlot            = "codeforces_tutor_conversations"
	DefaultFreshnessHours  = 24
	DefaultAutosaveSeconds = 30
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			URL:            DefaultBackendURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Storage: StorageConfig{
			Driver:          "sqlite",
			Slot:            DefaultSlot,
			FreshnessHours:  DefaultFreshnessHours,
			AutosaveSeconds: DefaultAutosaveSeconds,
			Redis: RedisConfig{
				ReadTimeout:  3,
				WriteTimeout: 3,
				DialTimeout:  5,
			},
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
		UI: UIConfig{
			Style:    "auto",
			WordWrap: 100,
		},
	}
}
