package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/cftutor/internal/config"
)

// defaultCommandTimeout bounds a shell hook without an explicit timeout.
const defaultCommandTimeout = 5 * time.Second

// RegisterCommands binds the shell commands from cfg to their events and
// returns how many were bound. Each command runs via "sh -c" with the JSON
// payload on stdin and the event name in CFTUTOR_EVENT.
func RegisterCommands(m *Manager, cfg config.HooksConfig) int {
	n := 0
	for _, g := range cfg.Groups() {
		for i, e := range g.Entries {
			if e.Command == "" {
				continue
			}
			m.On(g.Event, fmt.Sprintf("hooks.%s[%d]", g.Key, i), CommandHandler(e))
			n++
		}
	}
	return n
}

// CommandHandler returns a Handler that runs one configured command.
func CommandHandler(entry config.HookEntry) Handler {
	timeout := defaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}
	return func(ctx context.Context, p Payload) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		input, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding hook payload: %w", err)
		}

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(input)
		cmd.Env = append(os.Environ(), "CFTUTOR_EVENT="+p.Event)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		// Grandchildren may hold stderr open after the shell is killed.
		cmd.WaitDelay = time.Second

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("hook %q: %w: %s", entry.Command, err, msg)
			}
			return fmt.Errorf("hook %q: %w", entry.Command, err)
		}
		return nil
	}
}
