package domain

import "time"

// Snapshot is the full persisted client state, written wholesale to a
// single storage slot.
type Snapshot struct {
	Conversations map[string]*Conversation `json:"conversations"`
	ActiveID      string                   `json:"currentConversationId"`
	SavedAt       time.Time                `json:"timestamp"`
}

// Expired reports whether the snapshot is older than the freshness window.
func (s *Snapshot) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(s.SavedAt) > window
}
