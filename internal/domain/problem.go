package domain

import "fmt"

// Problem is the metadata snapshot returned by the extract-problem call.
type Problem struct {
	ProblemID     string   `json:"problem_id"`
	Title         string   `json:"title"`
	ContestTitle  string   `json:"contest_title,omitempty"`
	TimeLimit     string   `json:"time_limit,omitempty"`
	MemoryLimit   string   `json:"memory_limit,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Statement     string   `json:"statement,omitempty"`
	SampleInputs  []string `json:"sample_inputs,omitempty"`
	SampleOutputs []string `json:"sample_outputs,omitempty"`
	URL           string   `json:"url,omitempty"`
	HasHints      bool     `json:"has_hints,omitempty"`
	HasSolutions  bool     `json:"has_solutions,omitempty"`
	HasTutorials  bool     `json:"has_tutorials,omitempty"`
	HasEditorials bool     `json:"has_editorials,omitempty"`
}

// DisplayTitle returns the "<id> - <title>" label used for conversations.
func (p *Problem) DisplayTitle() string {
	return fmt.Sprintf("%s - %s", p.ProblemID, p.Title)
}

// Sample is one example input/output pair.
type Sample struct {
	Input  string
	Output string
}

// Samples pairs sample inputs with outputs. Unpaired trailing entries are dropped.
func (p *Problem) Samples() []Sample {
	n := min(len(p.SampleInputs), len(p.SampleOutputs))
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Sample{Input: p.SampleInputs[i], Output: p.SampleOutputs[i]})
	}
	return out
}
