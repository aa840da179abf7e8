// Package registry holds the in-memory set of conversations and the
// pointer to the active one.
package registry

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/logging"
)

// Registry is a map of conversations plus the active id. The active id is
// always empty or the key of an entry in the map. Registry is not safe for
// concurrent use; callers serialize access.
type Registry struct {
	convs    map[string]*domain.Conversation
	activeID string
	now      func() time.Time
	log      *logging.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New creates an empty registry.
func New(log *logging.Logger, opts ...Option) *Registry {
	r := &Registry{
		convs: make(map[string]*domain.Conversation),
		now:   time.Now,
		log:   log.Sub("registry"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewID returns a fresh conversation id of the form conv_<unix-ms>_<suffix>.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("conv_%d_%s", now.UnixMilli(), suffix)
}

// Build returns a new conversation without registering it.
func (r *Registry) Build(problem *domain.Problem) *domain.Conversation {
	now := r.now()
	conv := &domain.Conversation{
		ID:          NewID(now),
		Title:       domain.DefaultTitle,
		Problem:     problem,
		History:     []domain.Message{},
		CreatedAt:   now,
		LastUpdated: now,
	}
	if problem != nil {
		conv.Title = problem.DisplayTitle()
	}
	return conv
}

// Create builds a new conversation, registers it and makes it active.
func (r *Registry) Create(problem *domain.Problem) *domain.Conversation {
	conv := r.Build(problem)
	r.Insert(conv)
	return conv
}

// Insert registers a conversation and makes it active.
func (r *Registry) Insert(conv *domain.Conversation) {
	r.convs[conv.ID] = conv
	r.activeID = conv.ID
	r.log.Debug().Str("conversation", conv.ID).Msg("conversation registered")
}

// Activate makes id the active conversation. Unknown ids are logged and
// ignored.
func (r *Registry) Activate(id string) bool {
	if _, ok := r.convs[id]; !ok {
		r.log.Warn().Str("conversation", id).Msg("activate: unknown conversation")
		return false
	}
	r.activeID = id
	return true
}

// Get returns the conversation with the given id.
func (r *Registry) Get(id string) (*domain.Conversation, bool) {
	c, ok := r.convs[id]
	return c, ok
}

// Active returns the active conversation, or nil.
func (r *Registry) Active() *domain.Conversation {
	if r.activeID == "" {
		return nil
	}
	return r.convs[r.activeID]
}

// ActiveID returns the active conversation id, possibly empty.
func (r *Registry) ActiveID() string { return r.activeID }

// Len returns the number of conversations.
func (r *Registry) Len() int { return len(r.convs) }

// List returns conversations ordered by LastUpdated, most recent first.
func (r *Registry) List() []*domain.Conversation {
	out := make([]*domain.Conversation, 0, len(r.convs))
	for _, c := range r.convs {
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b *domain.Conversation) int {
		if c := b.LastUpdated.Compare(a.LastUpdated); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Touch refreshes LastUpdated on the given conversation.
func (r *Registry) Touch(id string) {
	if c, ok := r.convs[id]; ok {
		c.LastUpdated = r.now()
	}
}

// Restore replaces the registry contents with a snapshot. The saved active
// id is used when it still exists, otherwise the most recently updated
// conversation becomes active. A nil snapshot empties the registry.
func (r *Registry) Restore(snap *domain.Snapshot) {
	r.convs = make(map[string]*domain.Conversation)
	r.activeID = ""
	if snap == nil {
		return
	}
	for id, c := range snap.Conversations {
		if c == nil {
			continue
		}
		if c.ID == "" {
			c.ID = id
		}
		r.convs[id] = c
	}
	if _, ok := r.convs[snap.ActiveID]; ok {
		r.activeID = snap.ActiveID
		return
	}
	if list := r.List(); len(list) > 0 {
		r.activeID = list[0].ID
	}
}

// Snapshot returns a deep copy of the registry state stamped with now.
func (r *Registry) Snapshot() *domain.Snapshot {
	snap := &domain.Snapshot{
		Conversations: make(map[string]*domain.Conversation, len(r.convs)),
		ActiveID:      r.activeID,
		SavedAt:       r.now(),
	}
	for id, c := range r.convs {
		snap.Conversations[id] = c.Clone()
	}
	return snap
}
