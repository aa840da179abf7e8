package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cftutor/internal/backend"
)

func newHistoryCmd() *cobra.Command {
	var sessionID, conversationID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the backend's transcript for a session or conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (sessionID == "") == (conversationID == "") {
				return errors.New("exactly one of --session or --conversation is required")
			}
			out := cmd.OutOrStdout()
			client := newClient()

			if sessionID != "" {
				h, err := client.SessionHistory(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Session %s · problem %s · %d hints · started %s\n\n",
					h.SessionID, h.ProblemID, h.HintsGiven, h.CreatedAt)
				writeHistory(out, h.History)
				return nil
			}

			h, err := client.ConversationHistory(cmd.Context(), conversationID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Conversation %s · %d sessions · updated %s\n\n",
				h.ConversationID, len(h.Sessions), h.LastUpdated)
			writeHistory(out, h.Context)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "backend session id")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id")
	return cmd
}

func writeHistory(w io.Writer, entries []backend.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, metaStyle.Render("(empty)"))
		return
	}
	for _, e := range entries {
		switch {
		case e.Role == "user":
			userColor.Fprintf(w, "You: %s\n", e.Message)
		case e.IsHint:
			hintColor.Fprintf(w, "Hint: %s\n", e.Message)
		default:
			aiColor.Fprintf(w, "%s: %s\n", e.Role, e.Message)
		}
	}
}
