package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cftutor/internal/version"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of cftutor",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			b := version.Current()
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, b.Version)
				return
			}
			fmt.Fprintf(out, "%s %s\n", b.Name, b.Version)
			fmt.Fprintf(out, "  module:  %s\n", b.Module)
			fmt.Fprintf(out, "  commit:  %s\n", b.Commit)
			fmt.Fprintf(out, "  built:   %s\n", b.Date)
			fmt.Fprintf(out, "  go:      %s %s\n", b.GoVersion, b.Platform)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}
