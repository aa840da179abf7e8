package cli

import (
	"bytes"
	"context"
	"io"
	goruntime "runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/cftutor/internal/backend"
	"github.com/soyeahso/cftutor/internal/backend/backendtest"
	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/hooks"
	"github.com/soyeahso/cftutor/internal/logging"
	"github.com/soyeahso/cftutor/internal/markdown"
	"github.com/soyeahso/cftutor/internal/store"
	"github.com/soyeahso/cftutor/internal/tutor"
	"github.com/soyeahso/cftutor/internal/version"
)

const testProblemURL = "https://codeforces.com/contest/4/problem/A"

func testProblem() *domain.Problem {
	return &domain.Problem{
		ProblemID:     "4A",
		Title:         "Watermelon",
		Statement:     "Pete and Billy bought a watermelon.",
		Tags:          []string{"brute force", "math"},
		SampleInputs:  []string{"8"},
		SampleOutputs: []string{"YES"},
		URL:           testProblemURL,
	}
}

// execute runs the root command against an isolated home directory.
func execute(t *testing.T, srv *backendtest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CFTUTOR_HOME", t.TempDir())
	if srv != nil {
		t.Setenv("CFTUTOR_BACKEND_URL", srv.URL)
	}
	t.Setenv("CFTUTOR_STORAGE_DRIVER", "bolt")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newTestView(t *testing.T) (*terminalView, *bytes.Buffer) {
	t.Helper()
	md, err := markdown.NewRenderer("notty", 80)
	require.NoError(t, err)
	var buf bytes.Buffer
	return newTerminalView(&buf, md, false), &buf
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"4A - Watermelon", "4A - Watermelon"},
		{strings.Repeat("x", 30), strings.Repeat("x", 30)},
		{strings.Repeat("x", 31), strings.Repeat("x", 30) + "..."},
		{"1927B - Following the String Long Title", "1927B - Following the String L..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateTitle(tt.in))
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", 42},
		{"1.5", 1.5},
		{"http://localhost:5000", "http://localhost:5000"},
		{"sqlite", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestAgo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", ago(now, now.Add(-10*time.Second)))
	assert.Equal(t, "5m ago", ago(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "3h ago", ago(now, now.Add(-3*time.Hour)))
	assert.Equal(t, "2026-02-27", ago(now, now.Add(-50*time.Hour)))
}

func TestTerminalView_DraftThenMessage(t *testing.T) {
	v, buf := newTestView(t)
	v.Draft("Hel")
	v.Draft("Hello")
	v.Message(domain.Message{Type: domain.MessageAssistant, Content: "Hello"})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Hello\n\n"), out)
	assert.Equal(t, 2, strings.Count(out, "Hello"))
	assert.Empty(t, v.draft)
}

func TestTerminalView_ErrorAfterDraftSurvivesNextMessage(t *testing.T) {
	md, err := markdown.NewRenderer("notty", 80)
	require.NoError(t, err)
	var buf bytes.Buffer
	v := newTerminalView(&buf, md, true)

	v.Draft("first line\nsecond")
	v.Error("Sorry, I encountered an error: boom")
	assert.Empty(t, v.draft)
	assert.Zero(t, v.lines)

	v.Message(domain.Message{Type: domain.MessageUser, Content: "retry"})
	out := buf.String()
	assert.NotContains(t, out, "\x1b[J")
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "A\r")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "You: retry")
}

func TestTerminalView_PromptTracksProblemAndHints(t *testing.T) {
	v, _ := newTestView(t)
	assert.Contains(t, v.Prompt(), "> ")
	v.Problem(testProblem())
	v.HintCounter(2)
	assert.Contains(t, v.Prompt(), "4A")
	assert.Contains(t, v.Prompt(), "hints 2")

	v.Clear()
	assert.NotContains(t, v.Prompt(), "4A")
}

func TestTerminalView_Solution(t *testing.T) {
	v, buf := newTestView(t)
	v.Solution(tutor.BuildSolutionView(&domain.Solution{
		Text:       "Check parity.\n```python\nprint('YES')\n```",
		Complexity: "O(1)",
	}))
	out := buf.String()
	assert.Contains(t, out, "Python Solution")
	assert.Contains(t, out, "Check parity.")
	assert.Contains(t, out, "Complexity: O(1)")
}

func TestTerminalView_ProblemDetails(t *testing.T) {
	v, buf := newTestView(t)
	v.ProblemDetails(testProblem())
	out := buf.String()
	assert.Contains(t, out, "Pete and Billy")
	assert.Contains(t, out, "Sample 1")
	assert.Contains(t, out, "YES")
	assert.Contains(t, out, "2 tags")
}

func TestWriteConversations(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	list := []*domain.Conversation{
		{ID: "conv_2", Title: strings.Repeat("a", 40), Session: &domain.SessionHandle{SessionID: "s"}, LastUpdated: now},
		{ID: "conv_1", Title: "4A - Watermelon", History: make([]domain.Message, 3), LastUpdated: now.Add(-2 * time.Hour)},
	}
	var buf bytes.Buffer
	writeConversations(&buf, list, "conv_2", now)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "* ")
	assert.Contains(t, lines[0], strings.Repeat("a", 30)+"...")
	assert.Contains(t, lines[1], "4A - Watermelon (expired)")
	assert.Contains(t, lines[1], "3 messages")
	assert.Contains(t, lines[1], "2h ago")

	buf.Reset()
	writeConversations(&buf, nil, "", now)
	assert.Contains(t, buf.String(), "No conversations yet.")
}

func TestVersionCmd(t *testing.T) {
	prev := version.Version
	t.Cleanup(func() { version.Version = prev })
	version.Version = "v0.3.0"

	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cftutor v0.3.0\n")
	assert.Contains(t, out, "module:  github.com/soyeahso/cftutor")
	assert.Contains(t, out, "go:      "+goruntime.Version())

	out, err = execute(t, nil, "version", "--short")
	require.NoError(t, err)
	assert.Contains(t, out, "v0.3.0\n")
	assert.NotContains(t, out, "module:")
}

func TestStatusCmd(t *testing.T) {
	srv := backendtest.NewServer(t)
	out, err := execute(t, srv, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend: "+srv.URL)
	assert.Contains(t, out, "Health:  healthy")
	assert.Contains(t, out, "driver=bolt")
}

func TestStatusCmd_Unreachable(t *testing.T) {
	t.Setenv("CFTUTOR_BACKEND_TIMEOUT", "1")
	t.Setenv("CFTUTOR_BACKEND_URL", "http://127.0.0.1:1")
	out, err := execute(t, nil, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "unreachable")
}

func TestConfigCmd_SetGetUnset(t *testing.T) {
	t.Setenv("CFTUTOR_HOME", t.TempDir())
	run := func(args ...string) string {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute(), args)
		return out.String()
	}

	assert.Contains(t, run("config", "set", "backend.timeoutSeconds", "10"), "Set backend.timeoutSeconds = 10")
	assert.Equal(t, "10\n", run("config", "get", "backend.timeoutSeconds"))
	assert.Contains(t, run("config", "validate"), "Config OK")
	assert.Contains(t, run("config", "unset", "backend.timeoutSeconds"), "Unset")
	assert.Contains(t, run("config", "path"), "config.yaml")
}

func TestConfigValidateCmd_ReportsIssues(t *testing.T) {
	t.Setenv("CFTUTOR_STORAGE_DRIVER", "postgres")
	t.Setenv("CFTUTOR_HOME", t.TempDir())
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "validate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, out.String(), "storage.driver")
}

func TestConversationsCmd(t *testing.T) {
	out, err := execute(t, nil, "conversations")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversations yet.")
}

func TestConversationsCmd_ListsSaved(t *testing.T) {
	srv := backendtest.NewServer(t)
	srv.AddProblem(testProblem())
	t.Setenv("CFTUTOR_HOME", t.TempDir())
	t.Setenv("CFTUTOR_BACKEND_URL", srv.URL)
	t.Setenv("CFTUTOR_STORAGE_DRIVER", "bolt")

	// Seed the store the way an interactive session would.
	root := newRootCmd()
	root.SetArgs([]string{"version"})
	root.SetOut(io.Discard)
	require.NoError(t, root.Execute())
	ctx := context.Background()
	rt, err := openRuntime(ctx, nil, nil)
	require.NoError(t, err)
	_, err = rt.app.StartProblem(ctx, testProblemURL)
	require.NoError(t, err)
	require.NoError(t, rt.Close(ctx))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"conversations"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "4A - Watermelon")
	assert.Contains(t, out.String(), "1 messages")

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"conversations", "--clear"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "cleared")
}

func TestHistoryCmd(t *testing.T) {
	srv := backendtest.NewServer(t)
	srv.AddProblem(testProblem())
	client := backend.New(srv.URL, logging.New(io.Discard, "silent"))
	resp, err := client.StartSession(context.Background(), "4A", "conv_1")
	require.NoError(t, err)

	out, err := execute(t, srv, "history", "--session", resp.SessionID)
	require.NoError(t, err)
	assert.Contains(t, out, "Session "+resp.SessionID)
	assert.Contains(t, out, "problem 4A")

	out, err = execute(t, srv, "history", "--conversation", "conv_1")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation conv_1")

	_, err = execute(t, srv, "history")
	assert.Error(t, err)
	_, err = execute(t, srv, "history", "--session", "missing")
	assert.True(t, backend.IsSessionExpired(err))
}

func TestProblemCmd(t *testing.T) {
	srv := backendtest.NewServer(t)
	srv.AddProblem(testProblem())

	out, err := execute(t, srv, "problem", testProblemURL)
	require.NoError(t, err)
	assert.Contains(t, out, "4A - Watermelon")
	assert.Contains(t, out, "Sample 1")

	_, err = execute(t, srv, "problem", "https://example.com/4A")
	assert.ErrorIs(t, err, tutor.ErrInvalidURL)
	assert.Equal(t, 1, srv.Calls("/api/extract-problem"))
}

func TestDispatch(t *testing.T) {
	srv := backendtest.NewServer(t)
	srv.AddProblem(testProblem())
	srv.SetHints("Think about parity.")
	srv.SetChat(backendtest.ChatScript{Chunks: []string{"Sure."}})

	v, buf := newTestView(t)
	log = logging.New(io.Discard, "silent")
	app := tutor.New(tutor.Options{
		Backend:   backend.New(srv.URL, log),
		Persister: nopPersister{},
		View:      v,
		Log:       log,
	})
	r := &repl{app: app, view: v, out: buf}
	ctx := context.Background()

	r.dispatch(ctx, "hello")
	assert.Contains(t, buf.String(), "No active session")

	r.dispatch(ctx, testProblemURL)
	require.True(t, app.HasSession())

	r.dispatch(ctx, "/hint")
	assert.Equal(t, 1, app.Active().HintsGiven)

	r.dispatch(ctx, "can you explain?")
	assert.Equal(t, "can you explain?", srv.LastChat()["message"])

	r.dispatch(ctx, "/bogus")
	assert.Contains(t, buf.String(), "Unknown command /bogus")

	r.dispatch(ctx, "/new")
	assert.False(t, app.HasSession())
	r.dispatch(ctx, "/switch 2")
	assert.True(t, app.HasSession())

	r.dispatch(ctx, "/help")
	assert.Contains(t, buf.String(), "/regenerate")
}

// closingStore counts writes that arrive after Close.
type closingStore struct {
	*store.MemoryStore
	closed atomic.Bool
	late   atomic.Int32
}

func (s *closingStore) Put(ctx context.Context, slot string, data []byte) error {
	if s.closed.Load() {
		s.late.Add(1)
	}
	return s.MemoryStore.Put(ctx, slot, data)
}

func (s *closingStore) Close() error {
	s.closed.Store(true)
	return nil
}

func TestRuntimeCloseStopsAutosaveFirst(t *testing.T) {
	log = logging.New(io.Discard, "silent")
	st := &closingStore{MemoryStore: store.NewMemoryStore()}
	p := store.NewPersister(st, "test_slot", time.Hour, log)
	hm := hooks.NewManager(log)
	var hookDone atomic.Bool
	hm.On("session_start", "slow", func(context.Context, hooks.Payload) error {
		time.Sleep(20 * time.Millisecond)
		hookDone.Store(true)
		return nil
	})
	app := tutor.New(tutor.Options{
		Backend:   backend.New("http://127.0.0.1:1", log),
		Persister: p,
		Hooks:     hm,
		Log:       log,
	})
	rt := &runtime{store: st, persist: p, hooks: hm, app: app}

	rt.startAutosave(context.Background(), time.Millisecond)
	require.Eventually(t, func() bool { return st.Puts() > 0 }, time.Second, time.Millisecond)
	hm.EmitAsync(context.Background(), "session_start", nil)
	require.NoError(t, rt.Close(context.Background()))
	assert.Nil(t, rt.stopAutosave)
	assert.True(t, hookDone.Load(), "Close returned before the hook finished")

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, st.late.Load())
	assert.True(t, st.closed.Load())
}

type nopPersister struct{}

func (nopPersister) Save(context.Context, *domain.Snapshot) error   { return nil }
func (nopPersister) Load(context.Context) (*domain.Snapshot, error) { return nil, nil }
