package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"evtrace/internal/archive"
	"evtrace/internal/attr"
	"evtrace/internal/callback"
	"evtrace/internal/decoder"
	"evtrace/internal/tracecfg"
)

func newWatchCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a still-growing archive, printing events as they land",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := tracecfg.FromCmd(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			return runWatch(ctx, cmd, cfg, logger)
		},
	}
	return cmd
}

// runWatch drains every currently-available event, then reopens the
// archive and drains again each time archive.Watch reports a manifest or
// chunk change, until ctx is cancelled. A decoder that has already reached
// its own EndOfFile marker is not resumed in place; a full reopen is the
// simplest way to pick up bytes appended after that marker was written,
// at the cost of re-walking sealed chunks on every rollover.
func runWatch(ctx context.Context, cmd *cobra.Command, cfg tracecfg.Config, logger *slog.Logger) error {
	drain := func() error {
		table := callback.NewGlobalTable()
		table.OnUnknown(func(user any, attrs *attr.List, rec *decoder.Record) bool {
			printEvent(cmd, cfg, rec, attrs)
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
		return nil
	}

	if err := drain(); err != nil {
		return err
	}

	a, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer a.Close()

	return archive.Watch(ctx, a, logger, func(ev archive.Event) {
		if len(ev.NewLocations) > 0 {
			logger.Info("new locations discovered", "count", len(ev.NewLocations))
		}
		if ev.ChunkRollover != "" {
			logger.Debug("chunk rollover", "dir", ev.ChunkRollover)
		}
		if err := drain(); err != nil {
			logger.Warn("error draining archive after change", "error", err)
		}
	})
}
