// Package backendtest provides an in-process fake of the tutoring backend
// for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/soyeahso/cftutor/internal/domain"
)

// ChatScript controls the reply streamed by /api/chat.
type ChatScript struct {
	Chunks     []string
	IsHint     bool
	HintsGiven *int
	Error      string        // sent as an error frame after the chunks
	OmitDone   bool          // end the stream without a terminal frame
	Hold       chan struct{} // if set, wait for close (or client disconnect) before the terminal frame
}

type session struct {
	problemID      string
	conversationID string
	hintsGiven     int
	history        []map[string]any
}

// Server is a scripted fake backend. Exported fields may be changed
// between calls; guard concurrent edits with Lock/Unlock.
type Server struct {
	sync.Mutex
	*httptest.Server

	Problems map[string]*domain.Problem // keyed by URL
	Chat     ChatScript
	Hints    []string
	Solution map[string]string // solution, code, explanation, complexity
	Welcome  string

	sessions map[string]*session
	calls    map[string]int
	failures map[string]failure
	nextID   int
	lastChat map[string]string
	headers  http.Header
}

type failure struct {
	status int
	msg    string
}

// NewServer starts a fake backend that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Problems: map[string]*domain.Problem{},
		Welcome:  "Welcome! Let's work through this problem together.",
		Solution: map[string]string{"solution": "Use a greedy approach."},
		sessions: map[string]*session{},
		calls:    map[string]int{},
		failures: map[string]failure{},
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/extract-problem", s.handleExtract)
		r.Post("/start-session", s.handleStartSession)
		r.Post("/chat", s.handleChat)
		r.Post("/get-hint", s.handleHint)
		r.Post("/get-solution", s.handleSolution)
		r.Get("/health", s.handleHealth)
		r.Get("/session/{id}/history", s.handleSessionHistory)
		r.Get("/conversation/{id}/history", s.handleConversationHistory)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddProblem registers a problem served for its URL.
func (s *Server) AddProblem(p *domain.Problem) {
	s.Lock()
	defer s.Unlock()
	s.Problems[p.URL] = p
}

// SetChat replaces the scripted chat reply.
func (s *Server) SetChat(script ChatScript) {
	s.Lock()
	defer s.Unlock()
	s.Chat = script
}

// SetHints replaces the hint sequence served by get-hint.
func (s *Server) SetHints(hints ...string) {
	s.Lock()
	defer s.Unlock()
	s.Hints = hints
}

// SetSolution replaces the get-solution payload.
func (s *Server) SetSolution(text, code string) {
	s.Lock()
	defer s.Unlock()
	s.Solution = map[string]string{"solution": text, "code": code}
}

// Expire forgets a session so later calls against it return 404.
func (s *Server) Expire(sessionID string) {
	s.Lock()
	defer s.Unlock()
	delete(s.sessions, sessionID)
}

// FailNext makes the next call to path fail with the given status and error text.
func (s *Server) FailNext(path string, status int, msg string) {
	s.Lock()
	defer s.Unlock()
	s.failures[path] = failure{status: status, msg: msg}
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.Lock()
	defer s.Unlock()
	return s.calls[path]
}

// LastChat returns the body of the most recent chat request.
func (s *Server) LastChat() map[string]string {
	s.Lock()
	defer s.Unlock()
	return s.lastChat
}

// LastHeaders returns the headers of the most recent request.
func (s *Server) LastHeaders() http.Header {
	s.Lock()
	defer s.Unlock()
	return s.headers
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.Lock()
	defer s.Unlock()
	return len(s.sessions)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		s.calls[r.URL.Path]++
		s.headers = r.Header.Clone()
		f, failing := s.failures[r.URL.Path]
		delete(s.failures, r.URL.Path)
		s.Unlock()
		if failing {
			writeError(w, f.status, f.msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	s.Lock()
	p, ok := s.Problems[req.URL]
	s.Unlock()
	if !ok {
		writeError(w, http.StatusBadRequest, "Failed to extract problem data")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProblemID      string `json:"problem_id"`
		ConversationID string `json:"conversation_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProblemID == "" {
		writeError(w, http.StatusBadRequest, "Problem ID is required")
		return
	}

	s.Lock()
	defer s.Unlock()
	var title string
	for _, p := range s.Problems {
		if p.ProblemID == req.ProblemID {
			title = p.Title
		}
	}
	if title == "" {
		writeError(w, http.StatusNotFound, "Problem not found")
		return
	}
	s.nextID++
	id := fmt.Sprintf("sess-%d", s.nextID)
	s.sessions[id] = &session{problemID: req.ProblemID, conversationID: req.ConversationID}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id":      id,
		"problem_title":   title,
		"welcome_message": s.Welcome,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["session_id"] == "" || req["message"] == "" {
		writeError(w, http.StatusBadRequest, "Session ID and message are required")
		return
	}

	s.Lock()
	s.lastChat = req
	sess, ok := s.sessions[req["session_id"]]
	script := s.Chat
	if ok {
		sess.history = append(sess.history, map[string]any{"role": "user", "message": req["message"]})
	}
	s.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found or expired")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)
	send := func(v any) {
		b, _ := json.Marshal(v)
		fmt.Fprintf(w, "data: %s\n\n", b)
		if flusher != nil {
			flusher.Flush()
		}
	}

	for _, c := range script.Chunks {
		send(map[string]string{"chunk": c})
	}
	if script.Hold != nil {
		select {
		case <-script.Hold:
		case <-r.Context().Done():
			return
		}
	}
	switch {
	case script.Error != "":
		send(map[string]string{"error": script.Error})
	case script.OmitDone:
	default:
		frame := map[string]any{"done": true, "is_hint": script.IsHint}
		if script.HintsGiven != nil {
			frame["hints_given"] = *script.HintsGiven
		}
		send(frame)
	}
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	if sess.hintsGiven >= len(s.Hints) {
		writeJSON(w, http.StatusOK, map[string]any{
			"hint":                 "No more hints are available.",
			"hint_number":          sess.hintsGiven,
			"more_hints_available": false,
		})
		return
	}
	hint := s.Hints[sess.hintsGiven]
	sess.hintsGiven++
	writeJSON(w, http.StatusOK, map[string]any{
		"hint":                 hint,
		"hint_number":          sess.hintsGiven,
		"more_hints_available": sess.hintsGiven < len(s.Hints),
	})
}

func (s *Server) handleSolution(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookupSession(w, r); !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, s.Solution)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.Lock()
	defer s.Unlock()
	convs := map[string]bool{}
	for _, sess := range s.sessions {
		convs[sess.conversationID] = true
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "healthy",
		"timestamp":            "2026-01-01T00:00:00",
		"active_sessions":      len(s.sessions),
		"active_conversations": len(convs),
	})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.Lock()
	defer s.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":           id,
		"problem_id":           sess.problemID,
		"conversation_history": sess.history,
		"hints_given":          sess.hintsGiven,
		"created_at":           "2026-01-01T00:00:00",
	})
}

func (s *Server) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.Lock()
	defer s.Unlock()
	var sessions []string
	var context []map[string]any
	for sid, sess := range s.sessions {
		if sess.conversationID == id {
			sessions = append(sessions, sid)
			context = append(context, sess.history...)
		}
	}
	if len(sessions) == 0 {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": id,
		"context":         context,
		"sessions":        sessions,
		"created_at":      "2026-01-01T00:00:00",
		"last_updated":    "2026-01-01T00:00:00",
	})
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["session_id"] == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return nil, false
	}
	s.Lock()
	sess, ok := s.sessions[req["session_id"]]
	s.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found or expired")
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
