package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/buger/goterm"
	"github.com/mattn/go-runewidth"

	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/markdown"
	"github.com/soyeahso/cftutor/internal/tutor"
)

const fallbackWidth = 100

// terminalWidth returns the wrap column: the configured value, else the
// terminal's width.
func terminalWidth(configured int) int {
	if configured > 0 {
		return configured
	}
	if w := goterm.Width(); w > 0 {
		return w
	}
	return fallbackWidth
}

// terminalView renders tutor output to a terminal. A streaming draft is
// printed incrementally and, when ansi is set, erased and replaced by the
// rendered reply once it completes.
type terminalView struct {
	mu     sync.Mutex
	out    io.Writer
	md     *markdown.Renderer
	ansi   bool
	width  int
	now    func() time.Time
	hints  int
	title  string
	draft  string
	column int
	lines  int
}

func newTerminalView(out io.Writer, md *markdown.Renderer, ansi bool) *terminalView {
	return &terminalView{out: out, md: md, ansi: ansi, width: md.Width(), now: time.Now}
}

// Prompt returns the REPL prompt, showing the bound problem and hint count.
func (v *terminalView) Prompt() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.title == "" {
		return promptColor.Sprint("> ")
	}
	id, _, _ := strings.Cut(v.title, " - ")
	return promptColor.Sprintf("[%s · hints %d] > ", id, v.hints)
}

func (v *terminalView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resetDraft()
	v.title = ""
	v.hints = 0
	if v.ansi {
		fmt.Fprint(v.out, "\x1b[H\x1b[2J")
	}
}

func (v *terminalView) Problem(p *domain.Problem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title = p.DisplayTitle()

	meta := []string{}
	if p.ContestTitle != "" {
		meta = append(meta, p.ContestTitle)
	}
	if p.TimeLimit != "" || p.MemoryLimit != "" {
		meta = append(meta, strings.TrimSpace(p.TimeLimit+" / "+p.MemoryLimit))
	}
	if len(p.Tags) > 0 {
		meta = append(meta, strings.Join(p.Tags, ", "))
	}
	fmt.Fprintln(v.out, headerStyle.Render(v.title))
	if len(meta) > 0 {
		fmt.Fprintln(v.out, metaStyle.Render(strings.Join(meta, " · ")))
	}
	if p.URL != "" {
		fmt.Fprintln(v.out, metaStyle.Render(p.URL))
	}
	fmt.Fprintln(v.out)
}

func (v *terminalView) ProblemDetails(p *domain.Problem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, headerStyle.Render(p.DisplayTitle()))
	if p.Statement != "" {
		fmt.Fprintln(v.out, v.md.Render(p.Statement))
	}
	for i, s := range p.Samples() {
		fmt.Fprintln(v.out, labelStyle.Render(fmt.Sprintf("Sample %d", i+1)))
		fmt.Fprintln(v.out, boxStyle.Render("Input\n"+s.Input))
		fmt.Fprintln(v.out, boxStyle.Render("Output\n"+s.Output))
	}
	fmt.Fprintln(v.out, metaStyle.Render(fmt.Sprintf("%d tags", len(p.Tags))))
}

func (v *terminalView) Message(m domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.eraseDraft()
	switch m.Type {
	case domain.MessageUser:
		userColor.Fprintf(v.out, "You: %s\n\n", m.Content)
	case domain.MessageHint:
		hintColor.Fprintln(v.out, "💡 Hint")
		fmt.Fprintf(v.out, "%s\n\n", v.md.Render(m.Content))
	case domain.MessageSolution:
		fmt.Fprintln(v.out, labelStyle.Render("Solution"))
		fmt.Fprintf(v.out, "%s\n\n", v.md.Render(m.Content))
	default:
		fmt.Fprintf(v.out, "%s\n\n", v.md.Render(m.Content))
	}
}

func (v *terminalView) Draft(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delta, ok := strings.CutPrefix(text, v.draft)
	if !ok {
		v.eraseDraft()
		delta = text
	}
	v.draft = text
	aiColor.Fprint(v.out, delta)
	v.track(delta)
}

func (v *terminalView) Stopped(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.eraseDraft()
	fmt.Fprintf(v.out, "%s\n\n", v.md.Render(text))
}

func (v *terminalView) Notice(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endDraftLine()
	noticeColor.Fprintln(v.out, text)
}

func (v *terminalView) Error(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endDraftLine()
	errorColor.Fprintln(v.out, text)
}

func (v *terminalView) HintCounter(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hints = n
}

func (v *terminalView) Solution(s tutor.SolutionView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endDraftLine()
	fmt.Fprintln(v.out, headerStyle.Render("Solution"))
	fmt.Fprintln(v.out, v.md.Render(s.Explanation))
	for _, b := range s.Blocks {
		fmt.Fprintln(v.out, labelStyle.Render(b.SolutionLabel()))
		fmt.Fprintln(v.out, v.md.Render(b.Markdown()))
	}
	if s.Complexity != "" {
		fmt.Fprintln(v.out, metaStyle.Render("Complexity: "+s.Complexity))
	}
	fmt.Fprintln(v.out)
}

func (v *terminalView) Conversations(list []*domain.Conversation, activeID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endDraftLine()
	writeConversations(v.out, list, activeID, v.now())
}

// writeConversations prints a numbered list, most recent first.
func writeConversations(w io.Writer, list []*domain.Conversation, activeID string, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(w, metaStyle.Render("No conversations yet."))
		return
	}
	for i, c := range list {
		marker := "  "
		title := truncateTitle(c.Title)
		if c.ID == activeID {
			marker = activeStyle.Render("* ")
			title = activeStyle.Render(title)
		}
		state := ""
		if !c.HasSession() {
			state = " (expired)"
		}
		fmt.Fprintf(w, "%s%2d. %s%s %s\n", marker, i+1, title, state,
			metaStyle.Render(fmt.Sprintf("%d messages · %s", len(c.History), ago(now, c.LastUpdated))))
	}
}

// ago formats the elapsed time since t coarsely.
func ago(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}

// track counts the screen rows the draft occupies so it can be erased.
func (v *terminalView) track(s string) {
	if v.lines == 0 && s != "" {
		v.lines = 1
	}
	for _, r := range s {
		if r == '\n' {
			v.lines++
			v.column = 0
			continue
		}
		v.column += runewidth.RuneWidth(r)
		if v.width > 0 && v.column > v.width {
			v.lines++
			v.column = runewidth.RuneWidth(r)
		}
	}
}

func (v *terminalView) eraseDraft() {
	if v.draft == "" {
		return
	}
	if v.ansi {
		if v.lines > 1 {
			fmt.Fprintf(v.out, "\x1b[%dA", v.lines-1)
		}
		fmt.Fprint(v.out, "\r\x1b[J")
	} else {
		fmt.Fprint(v.out, "\n\n")
	}
	v.resetDraft()
}

// endDraftLine keeps a partial draft on screen and moves below it. The
// draft is then forgotten so a later Message cannot erase what follows it.
func (v *terminalView) endDraftLine() {
	if v.draft == "" {
		return
	}
	if v.column > 0 {
		fmt.Fprintln(v.out)
	}
	v.resetDraft()
}

func (v *terminalView) resetDraft() {
	v.draft = ""
	v.column = 0
	v.lines = 0
}
