package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns raw markdown into styled terminal output. Rendering is a
// pure function of its input, so re-rendering a growing draft is safe.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
}

// NewRenderer creates a renderer. style is "auto", "dark", "light" or
// "notty"; width is the word-wrap column.
func NewRenderer(style string, width int) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	gr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Renderer{glamour: gr, width: width}, nil
}

// Render renders content, falling back to the raw text on error.
func (r *Renderer) Render(content string) string {
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	// Trim the blank lines glamour adds around the document.
	return strings.Trim(rendered, "\n")
}

// Width returns the configured wrap width.
func (r *Renderer) Width() int { return r.width }
