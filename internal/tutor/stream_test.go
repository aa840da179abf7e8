package tutor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/cftutor/internal/backend/backendtest"
	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/tutor"
)

func TestSendAssemblesChunks(t *testing.T) {
	h := newHarness(t)
	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"Hel", "lo, ", "world"}})
	h.start(t)

	require.NoError(t, h.app.Send(context.Background(), "  hi  "))

	hist := h.app.Active().History
	require.Len(t, hist, 3)
	assert.Equal(t, domain.Message{Type: domain.MessageUser, Content: "hi", Timestamp: hist[1].Timestamp}, hist[1])
	assert.Equal(t, domain.MessageAssistant, hist[2].Type)
	assert.Equal(t, "Hello, world", hist[2].Content)
	assert.Equal(t, []string{"Hel", "Hello, ", "Hello, world"}, h.view.Drafts())
	assert.Equal(t, "hi", h.srv.LastChat()["message"])
	assert.Contains(t, h.hooks.Events(), "response_completed")
}

func TestSendIgnoresBlankAndSessionless(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Send(context.Background(), "no session yet"))
	h.start(t)
	require.NoError(t, h.app.Send(context.Background(), "   "))

	assert.Equal(t, 0, h.srv.Calls("/api/chat"))
	assert.Len(t, h.app.Active().History, 1)
}

func TestSendHintReplyUpdatesCounter(t *testing.T) {
	h := newHarness(t)
	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"Think about parity."}, IsHint: true, HintsGiven: intPtr(1)})
	h.start(t)

	require.NoError(t, h.app.Send(context.Background(), "give me a nudge"))

	active := h.app.Active()
	assert.Equal(t, domain.MessageHint, active.History[2].Type)
	assert.Equal(t, 1, active.HintsGiven)
	assert.Equal(t, 1, h.view.LastCounter())
	assert.Contains(t, h.hooks.Events(), "hint_received")
}

func TestSendKeepsCounterWithoutReportedValue(t *testing.T) {
	h := newHarness(t)
	h.srv.SetHints("first")
	h.start(t)
	require.NoError(t, h.app.Hint(context.Background()))

	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"ok"}})
	require.NoError(t, h.app.Send(context.Background(), "thanks"))
	assert.Equal(t, 1, h.app.Active().HintsGiven)
}

func TestSendWithoutDoneFrameCompletes(t *testing.T) {
	h := newHarness(t)
	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"partial ", "answer"}, OmitDone: true})
	h.start(t)

	require.NoError(t, h.app.Send(context.Background(), "q"))
	hist := h.app.Active().History
	assert.Equal(t, "partial answer", hist[len(hist)-1].Content)
}

func TestStopDiscardsPartialReply(t *testing.T) {
	h := newHarness(t)
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })
	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"Par", "tial"}, Hold: hold})
	h.start(t)

	done := make(chan error, 1)
	go func() { done <- h.app.Send(context.Background(), "explain") }()

	require.Eventually(t, func() bool {
		d := h.view.Drafts()
		return len(d) > 0 && d[len(d)-1] == "Partial"
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, h.app.Stop())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, tutor.ErrStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}

	hist := h.app.Active().History
	require.Len(t, hist, 2)
	assert.Equal(t, "explain", hist[1].Content)

	h.view.mu.Lock()
	stopped := append([]string(nil), h.view.stopped...)
	h.view.mu.Unlock()
	require.Len(t, stopped, 1)
	assert.True(t, strings.HasPrefix(stopped[0], "Partial"))
	assert.True(t, strings.HasSuffix(stopped[0], tutor.StoppedMarker))
	assert.Contains(t, h.view.Notices(), tutor.StoppedNotice)
	assert.Contains(t, h.hooks.Events(), "response_stopped")
	assert.False(t, h.app.Stop())
}

func TestSendExpiredSessionKeepsHistory(t *testing.T) {
	h := newHarness(t)
	h.srv.SetHints("a", "b", "c")
	conv := h.start(t)
	require.NoError(t, h.app.Hint(context.Background()))
	h.srv.Expire(conv.Session.SessionID)

	err := h.app.Send(context.Background(), "still there?")
	require.Error(t, err)

	active := h.app.Active()
	assert.Nil(t, active.Session)
	assert.Equal(t, 1, active.HintsGiven)
	require.Len(t, active.History, 3)
	assert.Equal(t, "still there?", active.History[2].Content)
	assert.Contains(t, h.view.Notices(), tutor.ExpiredNotice)
	assert.Contains(t, h.hooks.Events(), "session_expired")
	errs := h.view.Errors()
	require.NotEmpty(t, errs)
	assert.True(t, strings.HasPrefix(errs[len(errs)-1], "Sorry, I encountered an error"))

	// A dropped handle is never reused.
	require.NoError(t, h.app.Send(context.Background(), "hello?"))
	assert.Equal(t, 1, h.srv.Calls("/api/chat"))
}

func TestSendErrorFrame(t *testing.T) {
	h := newHarness(t)
	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"x"}, Error: "model overloaded"})
	h.start(t)

	err := h.app.Send(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, h.app.HasSession())
	assert.Len(t, h.app.Active().History, 2)
	errs := h.view.Errors()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[len(errs)-1], "model overloaded")
}

func TestSendTimeout(t *testing.T) {
	h := newHarness(t, withTimeout(100*time.Millisecond))
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })
	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"slow"}, Hold: hold})
	h.start(t)

	err := h.app.Send(context.Background(), "q")
	require.ErrorIs(t, err, tutor.ErrTimeout)
	assert.True(t, h.app.HasSession())
	assert.Len(t, h.app.Active().History, 2)
	assert.False(t, h.app.Streaming())
}

func TestSwitchStopsReplyOfPreviousConversation(t *testing.T) {
	h := newHarness(t)
	hold := make(chan struct{})
	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"late"}, Hold: hold})
	first := h.start(t)

	done := make(chan error, 1)
	go func() { done <- h.app.Send(context.Background(), "q") }()
	require.Eventually(t, func() bool { return len(h.view.Drafts()) > 0 }, 2*time.Second, 5*time.Millisecond)

	second := h.app.NewChat(context.Background())
	close(hold)
	<-done

	assert.Equal(t, second.ID, h.app.Active().ID)
	assert.Empty(t, h.app.Active().History)
	for _, c := range h.app.Conversations() {
		if c.ID == first.ID {
			assert.Len(t, c.History, 2)
		}
	}
}

func TestRegenerateResendsLastUserMessage(t *testing.T) {
	h := newHarness(t)
	h.srv.SetChat(backendtest.ChatScript{Chunks: []string{"reply"}})
	h.start(t)
	require.NoError(t, h.app.Send(context.Background(), "first"))
	require.NoError(t, h.app.Send(context.Background(), "second"))

	require.NoError(t, h.app.Regenerate(context.Background()))
	assert.Equal(t, "second", h.srv.LastChat()["message"])
	assert.Equal(t, 3, h.srv.Calls("/api/chat"))
}
