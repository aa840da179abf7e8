package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cftutor/internal/registry"
)

func newConversationsCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls"},
		Short:   "List saved conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, p, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if reset {
				if err := p.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Saved conversations cleared.")
				return nil
			}

			snap, err := p.Load(cmd.Context())
			if err != nil {
				return err
			}
			reg := registry.New(log)
			reg.Restore(snap)
			writeConversations(out, reg.List(), reg.ActiveID(), time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "delete all saved conversations")
	return cmd
}
