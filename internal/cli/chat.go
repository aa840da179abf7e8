package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/soyeahso/cftutor/internal/markdown"
	"github.com/soyeahso/cftutor/internal/tutor"
)

const codeTerminator = "/end"

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [problem-url]",
		Short: "Start the interactive tutor (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) > 0 {
				url = args[0]
			}
			return runChat(cmd, url)
		},
	}
}

// surveyConfirm asks a yes/no question on the terminal. An interrupted
// prompt counts as "no".
func surveyConfirm(question string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: question}, &ok)
	if errors.Is(err, terminal.InterruptErr) {
		return false, nil
	}
	return ok, err
}

func runChat(cmd *cobra.Command, url string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	md, err := markdown.NewRenderer(cfg.UI.Style, terminalWidth(cfg.UI.WordWrap))
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	view := newTerminalView(out, md, isatty.IsTerminal(os.Stdout.Fd()))

	var confirm tutor.Confirmer
	if cfg.UI.ShouldConfirmSolution() {
		confirm = tutor.ConfirmFunc(surveyConfirm)
	}

	rt, err := openRuntime(ctx, view, confirm)
	if err != nil {
		return err
	}
	if err := rt.app.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore conversations")
	}

	rt.startAutosave(ctx, cfg.Storage.AutosaveInterval())
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("final save failed")
		}
	}()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            view.Prompt(),
		HistoryFile:       paths.History,
		InterruptPrompt:   "^C",
		EOFPrompt:         "/quit",
		HistorySearchFold: true,
		Stdout:            out,
	})
	if err != nil {
		return fmt.Errorf("starting line editor: %w", err)
	}
	defer rl.Close()

	r := &repl{app: rt.app, view: view, rl: rl, out: out}

	// Ctrl-C while a reply streams stops the reply; the line editor
	// handles it as input otherwise.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				if !rt.app.Stop() {
					log.Debug().Msg("interrupt with no reply in flight")
				}
			}
		}
	}()

	if url != "" {
		r.dispatch(ctx, "/new "+url)
	} else if rt.app.Active() == nil {
		r.welcome()
	}
	return r.loop(ctx)
}

// repl reads lines and dispatches them to the App.
type repl struct {
	app  *tutor.App
	view *terminalView
	rl   *readline.Instance
	out  io.Writer
}

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, r *repl, arg string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"/new": {"/new [problem-url]", "start a problem, or an empty chat without a URL", func(ctx context.Context, r *repl, arg string) error {
			if arg == "" {
				r.app.NewChat(ctx)
				return nil
			}
			_, err := r.app.StartProblem(ctx, arg)
			return err
		}},
		"/hint": {"/hint", "ask for the next hint", func(ctx context.Context, r *repl, _ string) error {
			return r.app.Hint(ctx)
		}},
		"/solution": {"/solution", "reveal the full solution", func(ctx context.Context, r *repl, _ string) error {
			return r.app.Solution(ctx)
		}},
		"/analyze": {"/analyze", "paste code for review, ending with " + codeTerminator, func(ctx context.Context, r *repl, arg string) error {
			code, err := r.readCode(arg)
			if err != nil {
				return err
			}
			return r.app.AnalyzeCode(ctx, code)
		}},
		"/list": {"/list", "list conversations", func(_ context.Context, r *repl, _ string) error {
			r.app.ShowConversations()
			return nil
		}},
		"/switch": {"/switch <n|id>", "switch to a conversation from /list", func(ctx context.Context, r *repl, arg string) error {
			return r.switchTo(ctx, arg)
		}},
		"/problem": {"/problem", "show the statement and samples", func(_ context.Context, r *repl, _ string) error {
			return r.app.ShowProblem()
		}},
		"/regenerate": {"/regenerate", "resend your last message", func(ctx context.Context, r *repl, _ string) error {
			return r.app.Regenerate(ctx)
		}},
		"/help": {"/help", "show this help", func(_ context.Context, r *repl, _ string) error {
			r.help()
			return nil
		}},
	}
}

func (r *repl) loop(ctx context.Context) error {
	for {
		r.rl.SetPrompt(r.view.Prompt())
		line, err := r.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "/quit" || line == "/exit" {
			return nil
		}
		r.dispatch(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// dispatch runs one input line. The App reports failures through the
// view, so returned errors are only logged here.
func (r *repl) dispatch(ctx context.Context, line string) {
	if line == "" {
		return
	}
	var err error
	switch {
	case strings.HasPrefix(line, "/"):
		name, arg, _ := strings.Cut(line, " ")
		c, ok := commands[name]
		if !ok {
			errorColor.Fprintf(r.out, "Unknown command %s. Type /help for commands.\n", name)
			return
		}
		err = c.run(ctx, r, strings.TrimSpace(arg))
	case !r.app.HasSession() && strings.Contains(line, "codeforces.com"):
		_, err = r.app.StartProblem(ctx, line)
	case !r.app.HasSession():
		noticeColor.Fprintln(r.out, "No active session. Paste a Codeforces problem URL or use /new <url>.")
		return
	default:
		err = r.app.Send(ctx, line)
	}
	if err != nil && !errors.Is(err, tutor.ErrStopped) {
		log.Debug().Err(err).Str("input", line).Msg("command failed")
	}
}

// readCode collects lines until the terminator. Code given on the command
// line itself is used as-is.
func (r *repl) readCode(inline string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	noticeColor.Fprintf(r.out, "Paste your code. Finish with a line containing only %s.\n", codeTerminator)
	r.rl.SetPrompt("")
	defer r.rl.SetPrompt(r.view.Prompt())

	var lines []string
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			return "", nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if strings.TrimSpace(line) == codeTerminator || errors.Is(err, io.EOF) {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (r *repl) switchTo(ctx context.Context, arg string) error {
	if arg == "" {
		r.app.ShowConversations()
		return nil
	}
	id := arg
	if n, err := strconv.Atoi(arg); err == nil {
		list := r.app.Conversations()
		if n < 1 || n > len(list) {
			errorColor.Fprintf(r.out, "No conversation %d.\n", n)
			return nil
		}
		id = list[n-1].ID
	}
	if !r.app.Activate(ctx, id) {
		errorColor.Fprintf(r.out, "No conversation %q.\n", arg)
	}
	return nil
}

func (r *repl) welcome() {
	fmt.Fprintln(r.out, headerStyle.Render("cftutor"))
	fmt.Fprintln(r.out, "Paste a Codeforces problem URL to begin, or type /help.")
	fmt.Fprintln(r.out)
}

func (r *repl) help() {
	names := []string{"/new", "/hint", "/solution", "/analyze", "/list", "/switch", "/problem", "/regenerate", "/help"}
	for _, n := range names {
		c := commands[n]
		commandColor.Fprintf(r.out, "  %-22s", c.usage)
		fmt.Fprintln(r.out, c.help)
	}
	commandColor.Fprintf(r.out, "  %-22s", "/quit")
	fmt.Fprintln(r.out, "save and exit")
	fmt.Fprintln(r.out, metaStyle.Render("Press Ctrl-C while a reply streams to stop it."))
}
