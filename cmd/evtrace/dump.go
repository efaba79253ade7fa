package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"evtrace/internal/attr"
	"evtrace/internal/callback"
	"evtrace/internal/decoder"
	"evtrace/internal/tracecfg"
)

func newDumpCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every event in an archive in global timestamp order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := tracecfg.FromCmd(cmd)
			if err != nil {
				return err
			}
			return runDump(cmd, cfg, logger)
		},
	}
	return cmd
}

func runDump(cmd *cobra.Command, cfg tracecfg.Config, logger *slog.Logger) error {
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

func printEvent(cmd *cobra.Command, cfg tracecfg.Config, rec *decoder.Record, attrs *attr.List) {
	kind := rec.Kind.String()
	if !cfg.KindFilter(kind) {
		return
	}
	ts := time.Unix(0, int64(rec.Time))
	if !cfg.InRange(ts) {
		return
	}

	schema := decoder.SchemaFor(rec.Kind)
	line := fmt.Sprintf("%d %s", rec.Time, kind)
	if !schema.Opaque {
		for i, f := range schema.Fields {
			line += fmt.Sprintf(" %s=%s", f.Name, rec.Field(i))
		}
	}
	if attrs != nil && attrs.Len() > 0 {
		attrs.All(func(id uint32, v attr.Value) bool {
			line += fmt.Sprintf(" attr[%d]=%s", id, v)
			return true
		})
	}
	cmd.Println(line)
}
