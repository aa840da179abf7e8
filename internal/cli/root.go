package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cftutor/internal/config"
	"github.com/soyeahso/cftutor/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	logFile  string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cftutor [problem-url]",
		Short: "cftutor: a terminal tutor for Codeforces problems",
		Long: "cftutor opens a tutoring session for a Codeforces problem and guides you " +
			"with a streaming conversation, progressive hints and code review.",
		Args: cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			if err := config.LoadDotEnv(paths.EnvFile); err != nil {
				return err
			}
			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = strings.ToLower(logLevel)
			}
			if logFile != "" {
				cfg.Logging.File = logFile
			}
			log, err = logging.Open(logging.Options{
				Level: cfg.Logging.Level,
				File:  paths.LogFile(cfg.Logging),
				Style: cfg.Logging.ConsoleStyle,
			})
			if err != nil {
				return fmt.Errorf("opening log: %w", err)
			}
			log.Debug().Str("command", cmd.Name()).Str("config", paths.Config).Msg("starting")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return log.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) > 0 {
				url = args[0]
			}
			return runChat(cmd, url)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.cftutor/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", `log file ("-" for stderr)`)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newConversationsCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newProblemCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		errorColor.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
