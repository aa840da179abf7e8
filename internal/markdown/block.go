// Package markdown renders chat text for the terminal and splits fenced
// code blocks out of solution text.
package markdown

import (
	"regexp"
	"strings"
)

// DefaultLanguage is assigned to fenced blocks without a language tag.
const DefaultLanguage = "text"

var (
	// Group 1: language (optional)
	// Group 2: code content
	codeBlockRegexp = regexp.MustCompile("(?sm)^```(\\w*)[ \\t]*\\n(.*?)\\n?^```")
)

// CodeBlock is one fenced block pulled out of a message.
type CodeBlock struct {
	Language string
	Code     string
}

// Label returns the human-readable name of the block's language.
func (b CodeBlock) Label() string {
	switch b.Language {
	case "cpp":
		return "C++"
	case "python":
		return "Python"
	case "java":
		return "Java"
	case "javascript":
		return "JavaScript"
	case DefaultLanguage, "":
		return "Code"
	default:
		return strings.ToUpper(b.Language)
	}
}

// SolutionLabel is the heading shown above a block in a revealed solution.
func (b CodeBlock) SolutionLabel() string {
	return b.Label() + " Solution"
}

// Markdown returns the block as fenced markdown.
func (b CodeBlock) Markdown() string {
	lang := b.Language
	if lang == DefaultLanguage {
		lang = ""
	}
	return "```" + lang + "\n" + b.Code + "\n```"
}

// ExtractFencedBlocks returns every fenced code block in text, in order.
// Untagged blocks get DefaultLanguage.
func ExtractFencedBlocks(text string) []CodeBlock {
	var out []CodeBlock
	for _, m := range codeBlockRegexp.FindAllStringSubmatch(text, -1) {
		lang := m[1]
		if lang == "" {
			lang = DefaultLanguage
		}
		out = append(out, CodeBlock{Language: lang, Code: strings.TrimSpace(m[2])})
	}
	return out
}

// StripFencedBlocks removes fenced code blocks from text, leaving the prose.
func StripFencedBlocks(text string) string {
	return strings.TrimSpace(codeBlockRegexp.ReplaceAllString(text, ""))
}

// Fence wraps code in an untagged fenced block.
func Fence(code string) string {
	return "```\n" + code + "\n```"
}
