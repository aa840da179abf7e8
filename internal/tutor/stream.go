package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/cftutor/internal/backend"
	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/hooks"
)

const chatErrorPrefix = "Sorry, I encountered an error"

// Send posts a user message and streams the reply into the active
// conversation. A blank message or a conversation without a session is
// ignored. A stopped reply returns ErrStopped and leaves history with only
// the user message.
func (a *App) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	a.mu.Lock()
	conv := a.reg.Active()
	if text == "" || conv == nil || !conv.HasSession() {
		a.mu.Unlock()
		a.log.Debug().Msg("send ignored: empty message or no session")
		return nil
	}
	a.appendLocked(conv, domain.MessageUser, text)
	a.saveLocked(ctx)
	a.mu.Unlock()

	return a.stream(ctx, conv, text, chatErrorPrefix)
}

// Regenerate resends the last user message of the active conversation.
func (a *App) Regenerate(ctx context.Context) error {
	a.mu.Lock()
	conv := a.reg.Active()
	var last string
	if conv != nil && conv.HasSession() {
		for i := len(conv.History) - 1; i >= 0; i-- {
			if conv.History[i].Type == domain.MessageUser {
				last = conv.History[i].Content
				break
			}
		}
	}
	a.mu.Unlock()

	if last == "" {
		return nil
	}
	if code, ok := strings.CutPrefix(last, analyzeDisplayPrefix); ok {
		return a.AnalyzeCode(ctx, unfence(code))
	}
	return a.Send(ctx, last)
}

// stream runs one chat call for conv and applies its outcome. The user
// turn has already been appended by the caller.
func (a *App) stream(ctx context.Context, conv *domain.Conversation, prompt, errPrefix string) error {
	sctx, cancel := context.WithCancelCause(ctx)
	tctx, tcancel := context.WithTimeoutCause(sctx, a.timeout, ErrTimeout)
	defer tcancel()

	a.mu.Lock()
	a.streamSeq++
	seq := a.streamSeq
	a.cancelStream = cancel
	req := backend.ChatRequest{
		SessionID:      conv.Session.SessionID,
		Message:        prompt,
		ConversationID: conv.ID,
	}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		if a.streamSeq == seq {
			a.cancelStream = nil
		}
		a.mu.Unlock()
		cancel(nil)
	}()

	a.emit(ctx, hooks.EventMessageSent, map[string]any{"conversation_id": conv.ID})

	var (
		draft strings.Builder
		final *backend.ChatEvent
	)
	events, err := a.backend.Chat(tctx, req)
	if err == nil {
		for ev := range events {
			switch {
			case ev.Err != nil:
				err = ev.Err
			case ev.Done:
				final = &ev
			default:
				draft.WriteString(ev.Chunk)
				a.mu.Lock()
				a.viewFor(conv).Draft(draft.String())
				a.mu.Unlock()
			}
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cause := context.Cause(tctx)
	switch {
	case final != nil, err == nil && cause == nil:
		// A stream that closes without a terminal frame still counts as complete.
		a.completeLocked(ctx, conv, draft.String(), final)
		return nil
	case cause != nil && !errors.Is(cause, ErrTimeout):
		a.viewFor(conv).Stopped(draft.String() + StoppedMarker)
		a.viewFor(conv).Notice(StoppedNotice)
		a.log.Info().Str("conversation", conv.ID).Int("partial_bytes", draft.Len()).Msg("response stopped")
		a.emit(ctx, hooks.EventResponseStopped, map[string]any{"conversation_id": conv.ID})
		return ErrStopped
	case errors.Is(cause, ErrTimeout):
		return a.failLocked(ctx, conv, errPrefix, fmt.Errorf("%w: no reply within %s", ErrTimeout, a.timeout))
	default:
		return a.failLocked(ctx, conv, errPrefix, err)
	}
}

// completeLocked records the assembled reply. The hint count only changes
// when the terminal frame carries a different value.
func (a *App) completeLocked(ctx context.Context, conv *domain.Conversation, content string, final *backend.ChatEvent) {
	t := domain.MessageAssistant
	if final != nil && final.IsHint {
		t = domain.MessageHint
	}
	a.appendLocked(conv, t, content)

	if final != nil && final.HintsGiven != nil && *final.HintsGiven != conv.HintsGiven {
		conv.HintsGiven = *final.HintsGiven
		a.viewFor(conv).HintCounter(conv.HintsGiven)
	}
	a.saveLocked(ctx)

	a.emit(ctx, hooks.EventResponseCompleted, map[string]any{
		"conversation_id": conv.ID,
		"is_hint":         t == domain.MessageHint,
		"hints_given":     conv.HintsGiven,
	})
	if t == domain.MessageHint {
		a.emit(ctx, hooks.EventHintReceived, map[string]any{
			"conversation_id": conv.ID,
			"hint_number":     conv.HintsGiven,
		})
	}
}
