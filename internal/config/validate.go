package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Backend validation
	if u, err := url.Parse(cfg.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "backend.url",
			Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", cfg.Backend.URL),
		})
	}
	if cfg.Backend.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "backend.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Backend.TimeoutSeconds),
		})
	}

	// Storage validation
	validDrivers := []string{"sqlite", "bolt", "redis", "memory"}
	if !slices.Contains(validDrivers, cfg.Storage.Driver) {
		issues = append(issues, ValidationIssue{
			Path:    "storage.driver",
			Message: fmt.Sprintf("must be one of %v, got %q", validDrivers, cfg.Storage.Driver),
		})
	}
	if cfg.Storage.Driver == "redis" && cfg.Storage.Redis.URL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "storage.redis.url",
			Message: "required when storage.driver is redis",
		})
	}
	if cfg.Storage.FreshnessHours < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "storage.freshnessHours",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Storage.FreshnessHours),
		})
	}
	if cfg.Storage.AutosaveSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "storage.autosaveSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Storage.AutosaveSeconds),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	// UI validation
	validStyles := []string{"auto", "dark", "light", "notty"}
	if cfg.UI.Style != "" && !slices.Contains(validStyles, cfg.UI.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "ui.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.UI.Style),
		})
	}

	for _, g := range cfg.Hooks.Groups() {
		for i, h := range g.Entries {
			if h.Command == "" {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("hooks.%s[%d].command", g.Key, i),
					Message: "command is required",
				})
			}
		}
	}

	return issues
}
