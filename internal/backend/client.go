// Package backend is the HTTP client for the tutoring service: problem
// extraction, session lifecycle, the streamed chat, hints and solutions.
package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/logging"
)

// maxFrameSize bounds a single SSE data line.
const maxFrameSize = 1 << 20

// Client talks to the tutoring backend. Deadlines come from the caller's
// context; the underlying http.Client has no timeout of its own so that
// long chat streams are not cut short.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAPIKey sends the key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, log *logging.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log.Sub("backend"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// ExtractProblem asks the backend to scrape and return the problem at url.
func (c *Client) ExtractProblem(ctx context.Context, problemURL string) (*domain.Problem, error) {
	var p domain.Problem
	if err := c.postJSON(ctx, "/api/extract-problem", map[string]string{"url": problemURL}, &p); err != nil {
		return nil, fmt.Errorf("extract problem: %w", err)
	}
	return &p, nil
}

// StartSession opens a tutoring session for a problem within a conversation.
func (c *Client) StartSession(ctx context.Context, problemID, conversationID string) (*StartSessionResponse, error) {
	body := map[string]string{"problem_id": problemID, "conversation_id": conversationID}
	var resp StartSessionResponse
	if err := c.postJSON(ctx, "/api/start-session", body, &resp); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &resp, nil
}

// GetHint requests the next progressive hint.
func (c *Client) GetHint(ctx context.Context, sessionID, conversationID string) (*HintResponse, error) {
	body := map[string]string{"session_id": sessionID, "conversation_id": conversationID}
	var resp HintResponse
	if err := c.postJSON(ctx, "/api/get-hint", body, &resp); err != nil {
		return nil, fmt.Errorf("get hint: %w", err)
	}
	return &resp, nil
}

// GetSolution requests the full solution.
func (c *Client) GetSolution(ctx context.Context, sessionID, conversationID string) (*SolutionResponse, error) {
	body := map[string]string{"session_id": sessionID, "conversation_id": conversationID}
	var resp SolutionResponse
	if err := c.postJSON(ctx, "/api/get-solution", body, &resp); err != nil {
		return nil, fmt.Errorf("get solution: %w", err)
	}
	return &resp, nil
}

// Health pings the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	start := time.Now()
	var resp HealthResponse
	if err := c.getJSON(ctx, "/api/health", &resp); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	resp.Latency = time.Since(start)
	return &resp, nil
}

// SessionHistory returns the server-side transcript of a session.
func (c *Client) SessionHistory(ctx context.Context, sessionID string) (*SessionHistory, error) {
	var resp SessionHistory
	if err := c.getJSON(ctx, "/api/session/"+url.PathEscape(sessionID)+"/history", &resp); err != nil {
		return nil, fmt.Errorf("session history: %w", err)
	}
	return &resp, nil
}

// ConversationHistory returns the server-side context of a conversation.
func (c *Client) ConversationHistory(ctx context.Context, conversationID string) (*ConversationHistory, error) {
	var resp ConversationHistory
	if err := c.getJSON(ctx, "/api/conversation/"+url.PathEscape(conversationID)+"/history", &resp); err != nil {
		return nil, fmt.Errorf("conversation history: %w", err)
	}
	return &resp, nil
}

// Chat sends a message and streams the reply. A non-2xx initial response
// is returned as an error; failures after that arrive as an event with Err
// set. The channel is closed when the stream ends or ctx is done.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (<-chan ChatEvent, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/chat", req)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("chat: %w", err)
	}

	events := make(chan ChatEvent)
	go c.readStream(ctx, resp.Body, events)
	return events, nil
}

func (c *Client) readStream(ctx context.Context, body io.ReadCloser, events chan<- ChatEvent) {
	defer close(events)
	defer body.Close()

	emit := func(ev ChatEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var frame chatFrame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			c.log.Debug().Err(err).Msg("skipping malformed stream frame")
			continue
		}

		switch {
		case frame.Error != "":
			emit(ChatEvent{Err: &APIError{Message: frame.Error}})
			return
		case frame.Done:
			emit(ChatEvent{Done: true, IsHint: frame.IsHint, HintsGiven: frame.HintsGiven})
			return
		case frame.Chunk != "":
			if !emit(ChatEvent{Chunk: frame.Chunk}) {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		emit(ChatEvent{Err: fmt.Errorf("reading chat stream: %w", err)})
	}
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		rd = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json, text/event-stream")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend call")
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// checkStatus turns a non-2xx response into an *APIError using the body's
// error field when present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
