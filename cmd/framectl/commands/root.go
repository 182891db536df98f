package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tauraamui/framerelay/pkg/log"
)

var (
	logLevel string
	rootCmd  = newRootCmd()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "framectl",
		Short: "framectl - operator utilities for the framerelay nodes",
		Long: `framectl prepares and inspects a framerelay installation.

It writes the default configuration, creates the saved frame index, lists
indexed frames and signs bus tokens for remote subscribers.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logLevel
			if len(level) == 0 {
				level = os.Getenv("FRAMERELAY_LOGGING_LEVEL")
			}
			log.SetLevelFromString(level)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn)")

	cmd.AddCommand(
		newSetupCmd(),
		newRemoveSetupCmd(),
		newFramesCmd(),
		newTokenCmd(),
		newConfigCmd(),
	)
	return cmd
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
