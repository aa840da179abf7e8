// Package tutor drives tutoring conversations: binding sessions, streaming
// chat replies, and dispatching hint, solution and code-analysis requests.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/soyeahso/cftutor/internal/backend"
	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/hooks"
	"github.com/soyeahso/cftutor/internal/logging"
	"github.com/soyeahso/cftutor/internal/registry"
)

// DefaultTimeout bounds every backend call, streams included.
const DefaultTimeout = 30 * time.Second

// Notices shown to the user.
const (
	LapsedNotice  = "⚠️ Your previous session has expired. You can view the conversation history, but to continue chatting, start a new session with /new <problem-url>."
	ExpiredNotice = "The session may have expired. Please start a new session with the problem URL."
	StoppedNotice = "🛑 Response generation was stopped."
	StoppedMarker = "\n\n*[Response stopped]*"
)

// Backend is the part of the tutoring API the App drives.
type Backend interface {
	ExtractProblem(ctx context.Context, url string) (*domain.Problem, error)
	StartSession(ctx context.Context, problemID, conversationID string) (*backend.StartSessionResponse, error)
	Chat(ctx context.Context, req backend.ChatRequest) (<-chan backend.ChatEvent, error)
	GetHint(ctx context.Context, sessionID, conversationID string) (*backend.HintResponse, error)
	GetSolution(ctx context.Context, sessionID, conversationID string) (*backend.SolutionResponse, error)
}

// Persister saves and loads the snapshot.
type Persister interface {
	Save(ctx context.Context, snap *domain.Snapshot) error
	Load(ctx context.Context) (*domain.Snapshot, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(question string) (bool, error) { return f(question) }

// Emitter receives lifecycle events.
type Emitter interface {
	EmitAsync(ctx context.Context, event string, data map[string]any)
}

// Options configures an App.
type Options struct {
	Backend   Backend
	Persister Persister
	View      View
	Confirmer Confirmer // nil reveals solutions without asking
	Hooks     Emitter   // optional
	Timeout   time.Duration
	Clock     func() time.Time
	Log       *logging.Logger
}

// App holds all client state: the conversation registry, the active
// pointer and the handle of the in-flight stream. All methods are safe for
// concurrent use; the autosave loop and the interrupt handler run on their
// own goroutines.
type App struct {
	mu      sync.Mutex
	reg     *registry.Registry
	backend Backend
	persist Persister
	view    View
	confirm Confirmer
	hooks   Emitter
	timeout time.Duration
	now     func() time.Time
	log     *logging.Logger

	cancelStream context.CancelCauseFunc
	streamSeq    uint64
}

// New creates an App with an empty registry.
func New(opts Options) *App {
	if opts.Log == nil {
		opts.Log = logging.New(io.Discard, "silent")
	}
	a := &App{
		backend: opts.Backend,
		persist: opts.Persister,
		view:    opts.View,
		confirm: opts.Confirmer,
		hooks:   opts.Hooks,
		timeout: opts.Timeout,
		now:     opts.Clock,
		log:     opts.Log.Sub("tutor"),
	}
	if a.view == nil {
		a.view = nopView{}
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	a.reg = registry.New(opts.Log, registry.WithClock(a.now))
	return a
}

// Load restores the saved snapshot, if any, and shows the active
// conversation. A missing or stale snapshot leaves the registry empty.
func (a *App) Load(ctx context.Context) error {
	snap, err := a.persist.Load(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.reg.Restore(snap)
	if conv := a.reg.Active(); conv != nil {
		a.renderLocked(conv)
	}
	a.log.Info().Int("conversations", a.reg.Len()).Str("active", a.reg.ActiveID()).Msg("state restored")
	return nil
}

// Activate switches to conversation id. An unknown id is logged and
// ignored. Switching away cancels any reply still streaming.
func (a *App) Activate(ctx context.Context, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id != a.reg.ActiveID() {
		a.stopLocked()
	}
	if !a.reg.Activate(id) {
		return false
	}
	a.renderLocked(a.reg.Active())
	a.saveLocked(ctx)
	return true
}

// NewChat creates an empty conversation and makes it active.
func (a *App) NewChat(ctx context.Context) *domain.Conversation {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	conv := a.reg.Create(nil)
	a.renderLocked(conv)
	a.saveLocked(ctx)
	return conv.Clone()
}

// Conversations returns copies of all conversations, most recent first.
func (a *App) Conversations() []*domain.Conversation {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.reg.List()
	out := make([]*domain.Conversation, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}

// ShowConversations sends the ordered conversation list to the View.
func (a *App) ShowConversations() {
	list := a.Conversations()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view.Conversations(list, a.reg.ActiveID())
}

// Active returns a copy of the active conversation, or nil.
func (a *App) Active() *domain.Conversation {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c := a.reg.Active(); c != nil {
		return c.Clone()
	}
	return nil
}

// HasSession reports whether the active conversation can chat.
func (a *App) HasSession() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := a.reg.Active()
	return c != nil && c.HasSession()
}

// Snapshot returns a detached copy of the full state.
func (a *App) Snapshot() *domain.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg.Snapshot()
}

// Save writes the current state through the Persister.
func (a *App) Save(ctx context.Context) error {
	a.mu.Lock()
	snap := a.reg.Snapshot()
	a.mu.Unlock()
	return a.persist.Save(ctx, snap)
}

// Stop cancels the in-flight reply. It reports whether one was running.
func (a *App) Stop() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked()
}

// Streaming reports whether a reply is in flight.
func (a *App) Streaming() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelStream != nil
}

// Close stops any stream and saves a final snapshot.
func (a *App) Close(ctx context.Context) error {
	a.Stop()
	return a.Save(ctx)
}

func (a *App) stopLocked() bool {
	if a.cancelStream == nil {
		return false
	}
	a.cancelStream(ErrStopped)
	a.cancelStream = nil
	return true
}

// renderLocked replays a conversation into the View: problem header,
// history in order, hint counter, and a lapse notice when the history
// outlived its session. The notice is never added to history.
func (a *App) renderLocked(conv *domain.Conversation) {
	a.view.Clear()
	if conv.Problem != nil {
		a.view.Problem(conv.Problem)
	}
	for _, m := range conv.History {
		a.view.Message(m)
	}
	if conv.HasSession() {
		a.view.HintCounter(conv.HintsGiven)
	} else {
		a.view.HintCounter(0)
		if len(conv.History) > 0 {
			a.view.Notice(LapsedNotice)
		}
	}
}

// viewFor returns the View when conv is on screen, else a sink, so that a
// reply finishing after a switch does not draw over another conversation.
func (a *App) viewFor(conv *domain.Conversation) View {
	if a.reg.ActiveID() == conv.ID {
		return a.view
	}
	return nopView{}
}

func (a *App) appendLocked(conv *domain.Conversation, t domain.MessageType, content string) domain.Message {
	conv.Append(t, content, a.now())
	a.reg.Touch(conv.ID)
	m := conv.History[len(conv.History)-1]
	a.viewFor(conv).Message(m)
	return m
}

func (a *App) saveLocked(ctx context.Context) {
	if err := a.persist.Save(ctx, a.reg.Snapshot()); err != nil {
		a.log.Warn().Err(err).Msg("failed to save snapshot")
	}
}

// invalidateLocked drops the session handle after the backend reported it
// missing. History and hint count are kept.
func (a *App) invalidateLocked(ctx context.Context, conv *domain.Conversation) {
	if conv.Session == nil {
		return
	}
	sid := conv.Session.SessionID
	conv.Session = nil
	a.reg.Touch(conv.ID)
	a.saveLocked(ctx)
	a.viewFor(conv).Notice(ExpiredNotice)
	a.log.Info().Str("conversation", conv.ID).Str("session", sid).Msg("session expired")
	a.emit(ctx, hooks.EventSessionExpired, map[string]any{"conversation_id": conv.ID, "session_id": sid})
}

// failLocked reports err for a session-scoped call and invalidates the
// session when the backend no longer knows it.
func (a *App) failLocked(ctx context.Context, conv *domain.Conversation, prefix string, err error) error {
	a.viewFor(conv).Error(fmt.Sprintf("%s: %v", prefix, err))
	if backend.IsSessionExpired(err) {
		a.invalidateLocked(ctx, conv)
	}
	return err
}

// callContext bounds a single backend call with the client timeout.
func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(ctx, a.timeout, ErrTimeout)
}

// callErr maps a deadline hit by callContext to ErrTimeout.
func callErr(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), ErrTimeout) {
		return fmt.Errorf("%w after waiting for the backend", ErrTimeout)
	}
	return err
}

func (a *App) emit(ctx context.Context, event string, data map[string]any) {
	if a.hooks == nil {
		return
	}
	a.hooks.EmitAsync(context.WithoutCancel(ctx), event, data)
}
