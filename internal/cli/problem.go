package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cftutor/internal/markdown"
	"github.com/soyeahso/cftutor/internal/tutor"
)

func newProblemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "problem <url>",
		Short: "Fetch and print a problem without starting a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tutor.ValidateProblemURL(args[0]); err != nil {
				return fmt.Errorf("%q: %w", args[0], err)
			}
			p, err := newClient().ExtractProblem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			md, err := markdown.NewRenderer(cfg.UI.Style, terminalWidth(cfg.UI.WordWrap))
			if err != nil {
				return err
			}
			view := newTerminalView(cmd.OutOrStdout(), md, false)
			view.Problem(p)
			view.ProblemDetails(p)
			return nil
		},
	}
}
