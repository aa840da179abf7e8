// Package hooks fans tutoring lifecycle events out to handlers, most often
// the shell commands listed under "hooks" in the config file.
package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/cftutor/internal/logging"
)

// Lifecycle events raised by the tutor.
const (
	EventSessionStart      = "session_start"
	EventMessageSent       = "message_sent"
	EventResponseCompleted = "response_completed"
	EventResponseStopped   = "response_stopped"
	EventHintReceived      = "hint_received"
	EventSolutionRevealed  = "solution_revealed"
	EventSessionExpired    = "session_expired"
)

// AllEvents lists every event the tutor raises.
var AllEvents = []string{
	EventSessionStart,
	EventMessageSent,
	EventResponseCompleted,
	EventResponseStopped,
	EventHintReceived,
	EventSolutionRevealed,
	EventSessionExpired,
}

// Payload is what a handler receives; shell hooks get it as JSON on stdin.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler reacts to one event. A returned error is logged and otherwise
// ignored.
type Handler func(ctx context.Context, p Payload) error

type binding struct {
	name string
	fn   Handler
}

// Manager runs every handler bound to an event in its own goroutine, so a
// slow hook never blocks the conversation. Drain waits for handlers still
// running when the process is about to exit.
type Manager struct {
	mu       sync.RWMutex
	bindings map[string][]binding
	running  sync.WaitGroup
	log      *logging.Logger
}

func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		bindings: make(map[string][]binding),
		log:      log.Sub("hooks"),
	}
}

// On binds fn to event. name shows up in the log when fn fails.
func (m *Manager) On(event, name string, fn Handler) {
	m.mu.Lock()
	m.bindings[event] = append(m.bindings[event], binding{name: name, fn: fn})
	m.mu.Unlock()
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook bound")
}

// EmitAsync starts every handler bound to event and returns at once.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	m.mu.RLock()
	bound := m.bindings[event]
	m.mu.RUnlock()

	p := Payload{Event: event, Data: data}
	for _, b := range bound {
		m.running.Add(1)
		go m.run(ctx, b, p)
	}
}

func (m *Manager) run(ctx context.Context, b binding, p Payload) {
	defer m.running.Done()
	start := time.Now()
	if err := b.fn(ctx, p); err != nil {
		m.log.Warn().Err(err).Str("event", p.Event).Str("handler", b.name).Msg("hook failed")
		return
	}
	m.log.Debug().Str("event", p.Event).Str("handler", b.name).Dur("took", time.Since(start)).Msg("hook done")
}

// Drain blocks until every started handler has returned or ctx is done.
func (m *Manager) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
