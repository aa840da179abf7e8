package domain

import "time"

// DefaultTitle labels a conversation with no bound problem.
const DefaultTitle = "New Chat"

// SessionHandle pairs a backend session id with the problem title it was
// opened against. A handle is dropped once the backend reports it missing
// and is never reused afterwards.
type SessionHandle struct {
	SessionID    string `json:"session_id"`
	ProblemTitle string `json:"problem_title"`
}

// Solution is the payload returned by get-solution, cached per conversation.
type Solution struct {
	Text       string `json:"solution"`
	Code       string `json:"code,omitempty"`
	Complexity string `json:"complexity,omitempty"`
}

// Conversation is a titled chat thread bound to at most one problem and at
// most one backend session.
type Conversation struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Problem *Problem       `json:"problem"`
	Session *SessionHandle `json:"session"`
	History []Message      `json:"history"`

	// HintsGiven is only ever assigned from a value the backend reports.
	HintsGiven       int       `json:"hints_given"`
	HintsExhausted   bool      `json:"hints_exhausted,omitempty"`
	SolutionRevealed bool      `json:"solution_revealed,omitempty"`
	Solution         *Solution `json:"solution,omitempty"`

	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// HasSession reports whether a live session handle is bound.
func (c *Conversation) HasSession() bool {
	return c.Session != nil
}

// HintsDisabled reports whether further hint requests must be refused.
func (c *Conversation) HintsDisabled() bool {
	return c.HintsExhausted || c.SolutionRevealed
}

// Append adds a message to the end of the history.
func (c *Conversation) Append(t MessageType, content string, now time.Time) {
	c.History = append(c.History, Message{Type: t, Content: content, Timestamp: now})
}

// Clone returns a deep copy, used when handing state to the store.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	if c.Problem != nil {
		p := *c.Problem
		p.Tags = append([]string(nil), c.Problem.Tags...)
		p.SampleInputs = append([]string(nil), c.Problem.SampleInputs...)
		p.SampleOutputs = append([]string(nil), c.Problem.SampleOutputs...)
		cp.Problem = &p
	}
	if c.Session != nil {
		s := *c.Session
		cp.Session = &s
	}
	if c.Solution != nil {
		s := *c.Solution
		cp.Solution = &s
	}
	cp.History = append([]Message(nil), c.History...)
	return &cp
}
