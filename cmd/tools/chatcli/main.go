// Command chatcli drives the assistant widget from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/komekarch/site/backend/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "chatcli",
		Short:         "Terminal client for the KomekArch assistant",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.Init(cmd.ErrOrStderr(), logLevel, "console")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newAskCmd(), newCoursesCmd(), newChatCmd())
	return root
}

func fail(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
