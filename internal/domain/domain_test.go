package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProblem() *Problem {
	return &Problem{
		ProblemID:     "1850A",
		Title:         "To My Critics",
		ContestTitle:  "Codeforces Round 886 (Div. 4)",
		TimeLimit:     "1 second",
		MemoryLimit:   "256 megabytes",
		Tags:          []string{"implementation", "sortings"},
		SampleInputs:  []string{"5\n7 8 9", "1 2 3"},
		SampleOutputs: []string{"YES"},
		URL:           "https://codeforces.com/contest/1850/problem/A",
	}
}

// --- Problem tests ---

func TestProblemDisplayTitle(t *testing.T) {
	assert.Equal(t, "1850A - To My Critics", testProblem().DisplayTitle())
}

func TestProblemSamples_DropsUnpaired(t *testing.T) {
	samples := testProblem().Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, "5\n7 8 9", samples[0].Input)
	assert.Equal(t, "YES", samples[0].Output)
}

func TestProblemSamples_Empty(t *testing.T) {
	assert.Empty(t, (&Problem{}).Samples())
}

// --- Conversation tests ---

func TestConversationAppend(t *testing.T) {
	now := time.Now()
	c := &Conversation{ID: "conv_1"}
	c.Append(MessageUser, "hi", now)
	c.Append(MessageHint, "think about sorting", now.Add(time.Second))

	require.Len(t, c.History, 2)
	assert.Equal(t, MessageUser, c.History[0].Type)
	assert.Equal(t, MessageHint, c.History[1].Type)
	assert.Equal(t, "think about sorting", c.History[1].Content)
}

func TestConversationHintsDisabled(t *testing.T) {
	tests := []struct {
		name string
		conv Conversation
		want bool
	}{
		{"fresh", Conversation{}, false},
		{"exhausted", Conversation{HintsExhausted: true}, true},
		{"solution revealed", Conversation{SolutionRevealed: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.conv.HintsDisabled())
		})
	}
}

func TestConversationClone_IsDeep(t *testing.T) {
	c := &Conversation{
		ID:       "conv_1",
		Problem:  testProblem(),
		Session:  &SessionHandle{SessionID: "s1", ProblemTitle: "To My Critics"},
		Solution: &Solution{Text: "sort it"},
	}
	c.Append(MessageUser, "hi", time.Now())

	cp := c.Clone()
	cp.Session.SessionID = "s2"
	cp.Problem.Tags[0] = "changed"
	cp.Solution.Text = "changed"
	cp.Append(MessageAssistant, "hello", time.Now())

	assert.Equal(t, "s1", c.Session.SessionID)
	assert.Equal(t, "implementation", c.Problem.Tags[0])
	assert.Equal(t, "sort it", c.Solution.Text)
	assert.Len(t, c.History, 1)
}

// --- Snapshot tests ---

func TestSnapshotExpired(t *testing.T) {
	now := time.Now()
	s := &Snapshot{SavedAt: now.Add(-2 * time.Hour)}

	assert.False(t, s.Expired(now, 24*time.Hour))
	assert.True(t, s.Expired(now, time.Hour))
}

func TestSnapshotJSON_FieldNames(t *testing.T) {
	s := Snapshot{
		Conversations: map[string]*Conversation{
			"conv_1": {ID: "conv_1", Title: DefaultTitle},
		},
		ActiveID: "conv_1",
		SavedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	raw := string(data)
	assert.Contains(t, raw, `"currentConversationId":"conv_1"`)
	assert.Contains(t, raw, `"hints_given":0`)
	assert.Contains(t, raw, `"session":null`)
	assert.NotContains(t, raw, "hints_exhausted")
}
