package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cftutor/internal/config"
	"github.com/soyeahso/cftutor/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cftutor status, configuration summary and backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", version.Info())

			// Show paths
			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			// Storage
			fmt.Fprintf(out, "Storage: driver=%s path=%s slot=%s freshness=%s\n",
				cfg.Storage.Driver, paths.StorePath(cfg.Storage), cfg.Storage.Slot, cfg.Storage.Freshness())

			// Backend
			fmt.Fprintf(out, "Backend: %s\n", cfg.Backend.URL)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backend.Timeout())
			defer cancel()
			h, err := newClient().Health(ctx)
			if err != nil {
				fmt.Fprintf(out, "Health:  unreachable (%v)\n", err)
			} else {
				fmt.Fprintf(out, "Health:  %s sessions=%d conversations=%d latency=%s\n",
					h.Status, h.ActiveSessions, h.ActiveConversations, h.Latency.Round(time.Millisecond))
			}

			// Hooks
			n := 0
			for _, g := range cfg.Hooks.Groups() {
				n += len(g.Entries)
			}
			fmt.Fprintf(out, "Hooks:   %d configured\n", n)

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}

			return nil
		},
	}

	return cmd
}
