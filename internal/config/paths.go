package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".cftutor"

// Paths holds resolved filesystem paths for cftutor data.
type Paths struct {
	Base    string // ~/.cftutor
	Config  string // ~/.cftutor/config.yaml
	EnvFile string // ~/.cftutor/.env
	Data    string // ~/.cftutor/data
	Logs    string // ~/.cftutor/logs
	History string // ~/.cftutor/readline.history
}

// ResolvePaths computes all standard paths from the home directory.
// If CFTUTOR_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("CFTUTOR_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:    base,
		Config:  filepath.Join(base, "config.yaml"),
		EnvFile: filepath.Join(base, ".env"),
		Data:    filepath.Join(base, "data"),
		Logs:    filepath.Join(base, "logs"),
		History: filepath.Join(base, "readline.history"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// StorePath returns the snapshot database file for a file-backed driver.
func (p Paths) StorePath(cfg StorageConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	if cfg.Driver == "bolt" {
		return filepath.Join(p.Data, "cftutor.bolt")
	}
	return filepath.Join(p.Data, "cftutor.db")
}

// LogFile returns the configured log destination; empty means stderr.
func (p Paths) LogFile(cfg LoggingConfig) string {
	switch cfg.File {
	case "-":
		return ""
	case "":
		return filepath.Join(p.Logs, "cftutor.log")
	default:
		return cfg.File
	}
}

// ParseConfigPath splits a dot-separated config path into segments.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath sets a value in a nested map, creating intermediate maps as needed.
func SetValueAtPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		m, ok := current[key].(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}

// UnsetValueAtPath removes a value at the given path. Returns true if removed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	current := root
	for _, key := range path[:len(path)-1] {
		m, ok := current[key].(map[string]any)
		if !ok {
			return false
		}
		current = m
	}
	last := path[len(path)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}
