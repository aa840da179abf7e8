package tutor

import (
	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/markdown"
)

// View receives everything the App wants shown. Implementations render
// from the arguments alone; the App never hands over pre-rendered markup.
type View interface {
	// Clear empties the transcript before a conversation is replayed.
	Clear()
	// Problem shows the header for the bound problem.
	Problem(p *domain.Problem)
	// ProblemDetails shows the statement and sample tests.
	ProblemDetails(p *domain.Problem)
	// Message appends a transcript entry, replacing any draft on screen.
	Message(m domain.Message)
	// Draft shows the cumulative text of a reply still streaming.
	Draft(text string)
	// Stopped replaces the draft with its final, stopped form.
	Stopped(text string)
	// Notice shows a transient informational line that is never persisted.
	Notice(text string)
	// Error shows a failure inline.
	Error(text string)
	// HintCounter shows how many hints have been given.
	HintCounter(n int)
	// Solution shows a revealed solution.
	Solution(s SolutionView)
	// Conversations shows the conversation list, most recent first.
	Conversations(list []*domain.Conversation, activeID string)
}

// SolutionView is a solution split into prose and labeled code blocks.
type SolutionView struct {
	Explanation string
	Blocks      []markdown.CodeBlock
	Complexity  string
}

const (
	noExplanation    = "No solution explanation available."
	fallbackLanguage = "cpp"
)

// BuildSolutionView separates fenced code from the explanation. When the
// text has no fenced blocks the payload's code field is shown as C++.
func BuildSolutionView(s *domain.Solution) SolutionView {
	text := s.Text
	if text == "" {
		text = noExplanation
	}
	v := SolutionView{
		Explanation: markdown.StripFencedBlocks(text),
		Blocks:      markdown.ExtractFencedBlocks(text),
		Complexity:  s.Complexity,
	}
	if len(v.Blocks) == 0 && s.Code != "" {
		v.Blocks = []markdown.CodeBlock{{Language: fallbackLanguage, Code: s.Code}}
	}
	return v
}

type nopView struct{}

func (nopView) Clear() {}
func (nopView) Problem(*domain.Problem) {}
func (nopView) ProblemDetails(*domain.Problem) {}
func (nopView) Message(domain.Message) {}
func (nopView) Draft(string) {}
func (nopView) Stopped(string) {}
func (nopView) Notice(string) {}
func (nopView) Error(string) {}
func (nopView) HintCounter(int) {}
func (nopView) Solution(SolutionView) {}
func (nopView) Conversations([]*domain.Conversation, string) {}
