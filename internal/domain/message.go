package domain

import "time"

// MessageType classifies a transcript entry.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
	MessageHint      MessageType = "hint"
	MessageSolution  MessageType = "solution"
)

// Message is a single transcript entry. Content is raw markdown, never
// pre-rendered output, so replaying history renders identically every time.
type Message struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}
