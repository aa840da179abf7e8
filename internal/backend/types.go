package backend

import (
	"time"

	"github.com/soyeahso/cftutor/internal/domain"
)

// StartSessionResponse is returned by start-session.
type StartSessionResponse struct {
	SessionID      string `json:"session_id"`
	ProblemTitle   string `json:"problem_title"`
	WelcomeMessage string `json:"welcome_message"`
}

// Handle converts the response into the handle stored on a conversation.
func (r *StartSessionResponse) Handle() *domain.SessionHandle {
	return &domain.SessionHandle{SessionID: r.SessionID, ProblemTitle: r.ProblemTitle}
}

// ChatRequest is the body sent to the chat stream.
type ChatRequest struct {
	SessionID      string `json:"session_id"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// ChatEvent is one increment of a chat stream. Exactly one of Chunk, Done
// or Err is meaningful.
type ChatEvent struct {
	Chunk      string
	Done       bool
	IsHint     bool
	HintsGiven *int // nil when the terminal event omits the counter
	Err        error
}

// chatFrame is the JSON carried by one SSE data line.
type chatFrame struct {
	Chunk      string `json:"chunk,omitempty"`
	Done       bool   `json:"done,omitempty"`
	IsHint     bool   `json:"is_hint,omitempty"`
	HintsGiven *int   `json:"hints_given,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HintResponse is returned by get-hint.
type HintResponse struct {
	Hint               string `json:"hint"`
	HintNumber         int    `json:"hint_number"`
	MoreHintsAvailable bool   `json:"more_hints_available"`
}

// SolutionResponse is returned by get-solution.
type SolutionResponse struct {
	Solution    string `json:"solution"`
	Explanation string `json:"explanation,omitempty"`
	Code        string `json:"code,omitempty"`
	Complexity  string `json:"complexity,omitempty"`
}

// Payload converts the response into the cached solution.
func (r *SolutionResponse) Payload() *domain.Solution {
	return &domain.Solution{Text: r.Solution, Code: r.Code, Complexity: r.Complexity}
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status              string        `json:"status"`
	Timestamp           string        `json:"timestamp"`
	ActiveSessions      int           `json:"active_sessions"`
	ActiveConversations int           `json:"active_conversations"`
	Latency             time.Duration `json:"-"`
}

// HistoryEntry is one server-side transcript record.
type HistoryEntry struct {
	Role       string `json:"role"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	IsHint     bool   `json:"is_hint,omitempty"`
	IsSolution bool   `json:"is_solution,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// SessionHistory is the server's view of one session.
type SessionHistory struct {
	SessionID  string         `json:"session_id"`
	ProblemID  string         `json:"problem_id"`
	History    []HistoryEntry `json:"conversation_history"`
	HintsGiven int            `json:"hints_given"`
	CreatedAt  string         `json:"created_at"`
}

// ConversationHistory is the server's view of one conversation across sessions.
type ConversationHistory struct {
	ConversationID string         `json:"conversation_id"`
	Context        []HistoryEntry `json:"context"`
	Sessions       []string       `json:"sessions"`
	CreatedAt      string         `json:"created_at"`
	LastUpdated    string         `json:"last_updated"`
}

type errorBody struct {
	Error string `json:"error"`
}
