package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"evtrace/internal/attr"
	"evtrace/internal/callback"
	"evtrace/internal/decoder"
	"evtrace/internal/tracecfg"
)

func newStatsCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count events per kind across an archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := tracecfg.FromCmd(cmd)
			if err != nil {
				return err
			}
			return runStats(cmd, cfg, logger)
		},
	}
	return cmd
}

func runStats(cmd *cobra.Command, cfg tracecfg.Config, logger *slog.Logger) error {
	counts := make(map[string]int)

	table := callback.NewGlobalTable()
	table.OnUnknown(func(user any, attrs *attr.List, rec *decoder.Record) bool {
		counts[rec.Kind.String()]++
		return false
	})

	sess, err := openSession(cfg, table)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("error closing archive", "error", err)
		}
	}()

	for sess.merger.Len() > 0 {
		if err := sess.merger.ReadOne(); err != nil {
			return fmt.Errorf("read event: %w", err)
		}
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	total := 0
	for _, k := range kinds {
		cmd.Printf("%-28s %d\n", k, counts[k])
		total += counts[k]
	}
	cmd.Printf("%-28s %d\n", "TOTAL", total)
	return nil
}
