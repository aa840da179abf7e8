package tutor

import (
	"context"
	"strings"

	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/hooks"
	"github.com/soyeahso/cftutor/internal/markdown"
)

// SolutionQuestion is asked before a solution is requested.
const SolutionQuestion = "Are you sure you want to see the complete solution? This will end the learning challenge."

const (
	analyzeDisplayPrefix = "[Submitted code for analysis]\n"
	analyzePromptPrefix  = "Please analyze my code:\n"
)

// sessionLocked returns the active conversation when it has a session,
// reporting ErrNoSession to the View otherwise.
func (a *App) sessionLocked() (*domain.Conversation, error) {
	conv := a.reg.Active()
	if conv == nil || !conv.HasSession() {
		a.view.Error("No active session")
		return nil, ErrNoSession
	}
	return conv, nil
}

// Hint requests the next progressive hint. Once the backend reports no
// more hints, or a solution was revealed, further requests are refused
// without a network call; the flag survives restarts.
func (a *App) Hint(ctx context.Context) error {
	a.mu.Lock()
	conv, err := a.sessionLocked()
	if err != nil {
		a.mu.Unlock()
		return err
	}
	if conv.HintsDisabled() {
		a.mu.Unlock()
		a.view.Notice("No more hints are available for this problem.")
		return ErrHintsDisabled
	}
	sid, convID := conv.Session.SessionID, conv.ID
	a.mu.Unlock()

	cctx, cancel := a.callContext(ctx)
	defer cancel()
	resp, err := a.backend.GetHint(cctx, sid, convID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		return a.failLocked(ctx, conv, "Sorry, I couldn't provide a hint", callErr(cctx, err))
	}

	a.appendLocked(conv, domain.MessageHint, resp.Hint)
	conv.HintsGiven = resp.HintNumber
	a.viewFor(conv).HintCounter(conv.HintsGiven)
	if !resp.MoreHintsAvailable {
		conv.HintsExhausted = true
		a.viewFor(conv).Notice("That was the last hint for this problem.")
	}
	a.saveLocked(ctx)

	a.emit(ctx, hooks.EventHintReceived, map[string]any{
		"conversation_id": conv.ID,
		"hint_number":     resp.HintNumber,
		"more_available":  resp.MoreHintsAvailable,
	})
	return nil
}

// Solution reveals the full solution after the Confirmer agrees. The
// payload is cached on the conversation, so asking again shows it without
// a network call or a second confirmation.
func (a *App) Solution(ctx context.Context) error {
	a.mu.Lock()
	conv, err := a.sessionLocked()
	if err != nil {
		a.mu.Unlock()
		return err
	}
	if conv.Solution != nil {
		v := BuildSolutionView(conv.Solution)
		a.view.Solution(v)
		a.mu.Unlock()
		return nil
	}
	sid, convID := conv.Session.SessionID, conv.ID
	a.mu.Unlock()

	if a.confirm != nil {
		ok, err := a.confirm.Confirm(SolutionQuestion)
		if err != nil {
			return err
		}
		if !ok {
			a.view.Notice("Keep going, you've got this.")
			return ErrDeclined
		}
	}

	cctx, cancel := a.callContext(ctx)
	defer cancel()
	resp, err := a.backend.GetSolution(cctx, sid, convID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		return a.failLocked(ctx, conv, "Sorry, I couldn't provide the solution", callErr(cctx, err))
	}

	conv.Solution = resp.Payload()
	conv.SolutionRevealed = true
	a.viewFor(conv).Solution(BuildSolutionView(conv.Solution))
	// Already on screen in its structured form; only record it.
	conv.Append(domain.MessageSolution, resp.Solution, a.now())
	a.reg.Touch(conv.ID)
	a.saveLocked(ctx)

	a.log.Info().Str("conversation", conv.ID).Msg("solution revealed")
	a.emit(ctx, hooks.EventSolutionRevealed, map[string]any{
		"conversation_id": conv.ID,
		"hints_given":     conv.HintsGiven,
	})
	return nil
}

// AnalyzeCode sends code for review as one chat turn. The transcript shows
// the code verbatim; the backend receives it inside an analysis prompt.
func (a *App) AnalyzeCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		a.view.Error("Please enter your code first.")
		return ErrEmptyInput
	}

	a.mu.Lock()
	conv, err := a.sessionLocked()
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.appendLocked(conv, domain.MessageUser, analyzeDisplayPrefix+markdown.Fence(code))
	a.saveLocked(ctx)
	a.mu.Unlock()

	return a.stream(ctx, conv, analyzePromptPrefix+markdown.Fence(code), "Sorry, I couldn't analyze your code")
}

// unfence recovers the code from a fenced block written by markdown.Fence.
func unfence(s string) string {
	if blocks := markdown.ExtractFencedBlocks(s); len(blocks) > 0 {
		return blocks[0].Code
	}
	return s
}
