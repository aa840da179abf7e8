package tutor

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/hooks"
)

// ValidateProblemURL accepts absolute http(s) URLs on codeforces.com.
func ValidateProblemURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, "codeforces.com") {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !strings.HasSuffix(u.Hostname(), "codeforces.com") {
		return ErrInvalidURL
	}
	return nil
}

// StartProblem extracts the problem at rawURL and binds a session for it.
func (a *App) StartProblem(ctx context.Context, rawURL string) (*domain.Conversation, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateProblemURL(rawURL); err != nil {
		a.view.Error("Please enter a valid Codeforces URL")
		return nil, err
	}

	cctx, cancel := a.callContext(ctx)
	defer cancel()
	p, err := a.backend.ExtractProblem(cctx, rawURL)
	if err != nil {
		err = callErr(cctx, err)
		a.view.Error(fmt.Sprintf("Failed to extract problem: %v", err))
		return nil, err
	}
	if p.URL == "" {
		p.URL = rawURL
	}
	return a.Bind(ctx, p)
}

// Bind opens a session for problem. The active conversation is reused only
// when it has no live session and is either unbound or bound to the same
// problem; otherwise a new conversation is created so neither a running
// session nor another problem's transcript is overwritten. Nothing changes
// unless the backend accepts the session.
func (a *App) Bind(ctx context.Context, problem *domain.Problem) (*domain.Conversation, error) {
	a.mu.Lock()
	conv := a.reg.Active()
	fresh := !reusable(conv, problem)
	if fresh {
		conv = a.reg.Build(problem)
	}
	convID := conv.ID
	a.mu.Unlock()

	cctx, cancel := a.callContext(ctx)
	defer cancel()
	resp, err := a.backend.StartSession(cctx, problem.ProblemID, convID)
	if err != nil {
		err = callErr(cctx, err)
		a.view.Error(fmt.Sprintf("Failed to start session: %v", err))
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if fresh {
		a.stopLocked()
		a.reg.Insert(conv)
	} else if a.reg.ActiveID() != conv.ID {
		a.stopLocked()
		a.reg.Activate(conv.ID)
	}

	conv.Problem = problem
	conv.Title = problem.DisplayTitle()
	conv.Session = resp.Handle()
	conv.History = []domain.Message{}
	conv.HintsGiven = 0
	conv.HintsExhausted = false
	conv.SolutionRevealed = false
	conv.Solution = nil
	conv.Append(domain.MessageAssistant, resp.WelcomeMessage, a.now())
	a.reg.Touch(conv.ID)

	a.renderLocked(conv)
	a.saveLocked(ctx)

	a.log.Info().
		Str("conversation", conv.ID).
		Str("session", resp.SessionID).
		Str("problem", problem.ProblemID).
		Bool("new_conversation", fresh).
		Msg("session started")
	a.emit(ctx, hooks.EventSessionStart, map[string]any{
		"conversation_id": conv.ID,
		"session_id":      resp.SessionID,
		"problem_id":      problem.ProblemID,
		"problem_title":   resp.ProblemTitle,
	})
	return conv.Clone(), nil
}

// reusable reports whether conv can take a new session for problem.
func reusable(conv *domain.Conversation, problem *domain.Problem) bool {
	if conv == nil || conv.HasSession() {
		return false
	}
	return conv.Problem == nil || conv.Problem.ProblemID == problem.ProblemID
}

// ShowProblem sends the active problem's statement and samples to the View.
func (a *App) ShowProblem() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	conv := a.reg.Active()
	if conv == nil || conv.Problem == nil {
		a.view.Error("No problem data available")
		return ErrNoProblem
	}
	a.view.ProblemDetails(conv.Problem)
	return nil
}
