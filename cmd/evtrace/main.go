// Command evtrace reads a parallel-application event trace and prints or
// summarizes its events in global timestamp order.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"evtrace/internal/tracecfg"
)

var version = "dev"

func main() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(handler)

	rootCmd := &cobra.Command{
		Use:   "evtrace",
		Short: "Read and summarize parallel-application event traces",
	}
	tracecfg.BindPersistent(rootCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}

	rootCmd.AddCommand(
		newDumpCmd(logger),
		newStatsCmd(logger),
		newWatchCmd(logger),
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
