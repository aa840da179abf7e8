package config

import "time"

// Config is the root configuration for cftutor.
type Config struct {
	Backend BackendConfig `yaml:"backend,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	UI      UIConfig      `yaml:"ui,omitempty"`
	Hooks   HooksConfig   `yaml:"hooks,omitempty"`
}

// BackendConfig points the client at the tutoring service.
type BackendConfig struct {
	URL            string `yaml:"url,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"` // per call, including streams
	APIKey         string `yaml:"apiKey,omitempty"`         // sent as a bearer token when set
}

// Timeout returns the client-side call timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// StorageConfig controls where the conversation snapshot is kept.
type StorageConfig struct {
	Driver          string      `yaml:"driver,omitempty"` // "sqlite" | "bolt" | "redis" | "memory"
	Path            string      `yaml:"path,omitempty"`   // sqlite/bolt file; defaults under the data dir
	Slot            string      `yaml:"slot,omitempty"`
	FreshnessHours  int         `yaml:"freshnessHours,omitempty"`
	AutosaveSeconds int         `yaml:"autosaveSeconds,omitempty"`
	Redis           RedisConfig `yaml:"redis,omitempty"`
}

// Freshness returns the window after which a saved snapshot is discarded.
func (s StorageConfig) Freshness() time.Duration {
	return time.Duration(s.FreshnessHours) * time.Hour
}

// AutosaveInterval returns the periodic save interval.
func (s StorageConfig) AutosaveInterval() time.Duration {
	return time.Duration(s.AutosaveSeconds) * time.Second
}

// RedisConfig configures the redis snapshot driver. Timeouts are seconds.
type RedisConfig struct {
	URL          string `yaml:"url,omitempty"`
	ReadTimeout  int    `yaml:"readTimeout,omitempty"`
	WriteTimeout int    `yaml:"writeTimeout,omitempty"`
	DialTimeout  int    `yaml:"dialTimeout,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`  // "-" logs to stderr
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// UIConfig controls the terminal front end.
type UIConfig struct {
	Style           string `yaml:"style,omitempty"` // glamour style: "dark" | "light" | "notty" | "auto"
	WordWrap        int    `yaml:"wordWrap,omitempty"`
	ConfirmSolution *bool  `yaml:"confirmSolution,omitempty"` // defaults to true
}

// ShouldConfirmSolution reports whether revealing a solution asks first.
func (u UIConfig) ShouldConfirmSolution() bool {
	return u.ConfirmSolution == nil || *u.ConfirmSolution
}

// HooksConfig maps tutoring lifecycle events to shell commands.
type HooksConfig struct {
	SessionStart      []HookEntry `yaml:"sessionStart,omitempty"`
	MessageSent       []HookEntry `yaml:"messageSent,omitempty"`
	ResponseCompleted []HookEntry `yaml:"responseCompleted,omitempty"`
	ResponseStopped   []HookEntry `yaml:"responseStopped,omitempty"`
	HintReceived      []HookEntry `yaml:"hintReceived,omitempty"`
	SolutionRevealed  []HookEntry `yaml:"solutionRevealed,omitempty"`
	SessionExpired    []HookEntry `yaml:"sessionExpired,omitempty"`
}

// HookGroup is the list of commands configured for one event.
type HookGroup struct {
	Key     string // key under "hooks" in the config file
	Event   string // event name carried in the payload
	Entries []HookEntry
}

// Groups returns one group per event in the order the tutor raises them.
func (h HooksConfig) Groups() []HookGroup {
	return []HookGroup{
		{"sessionStart", "session_start", h.SessionStart},
		{"messageSent", "message_sent", h.MessageSent},
		{"responseCompleted", "response_completed", h.ResponseCompleted},
		{"responseStopped", "response_stopped", h.ResponseStopped},
		{"hintReceived", "hint_received", h.HintReceived},
		{"solutionRevealed", "solution_revealed", h.SolutionRevealed},
		{"sessionExpired", "session_expired", h.SessionExpired},
	}
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
