package tracecfg

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	BindPersistent(cmd)
	return cmd
}

func TestFromCmdRequiresArchive(t *testing.T) {
	cmd := newTestCmd()
	if _, err := FromCmd(cmd); err == nil {
		t.Fatal("FromCmd with no --archive: want error, got nil")
	}
}

func TestFromCmdDefaults(t *testing.T) {
	cmd := newTestCmd()
	if err := cmd.Flags().Set("archive", "/tmp/trace"); err != nil {
		t.Fatalf("set archive: %v", err)
	}
	cfg, err := FromCmd(cmd)
	if err != nil {
		t.Fatalf("FromCmd: %v", err)
	}
	if !cfg.ApplyMappings || !cfg.ApplyClocks {
		t.Errorf("defaults should apply mappings and clock correction: %+v", cfg)
	}
	if cfg.Output != "text" {
		t.Errorf("Output = %q, want text", cfg.Output)
	}
}

func TestFromCmdParsesTimeRange(t *testing.T) {
	cmd := newTestCmd()
	_ = cmd.Flags().Set("archive", "/tmp/trace")
	_ = cmd.Flags().Set("since", "2026-01-01T00:00:00Z")
	_ = cmd.Flags().Set("until", "2026-01-02T00:00:00Z")

	cfg, err := FromCmd(cmd)
	if err != nil {
		t.Fatalf("FromCmd: %v", err)
	}
	mid := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if !cfg.InRange(mid) {
		t.Errorf("InRange(%v) = false, want true", mid)
	}
	before := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	if cfg.InRange(before) {
		t.Errorf("InRange(%v) = true, want false", before)
	}
}

func TestFromCmdRejectsBadTime(t *testing.T) {
	cmd := newTestCmd()
	_ = cmd.Flags().Set("archive", "/tmp/trace")
	_ = cmd.Flags().Set("since", "not-a-time")
	if _, err := FromCmd(cmd); err == nil {
		t.Fatal("FromCmd with bad --since: want error, got nil")
	}
}

func TestKindFilter(t *testing.T) {
	cfg := Config{}
	if !cfg.KindFilter("Enter") {
		t.Error("empty Kinds should accept every kind")
	}
	cfg.Kinds = []string{"Enter", "Leave"}
	if !cfg.KindFilter("Enter") {
		t.Error("KindFilter(Enter) = false, want true")
	}
	if cfg.KindFilter("MpiSend") {
		t.Error("KindFilter(MpiSend) = true, want false")
	}
}

func TestNoRemapAndNoClockCorrectFlags(t *testing.T) {
	cmd := newTestCmd()
	_ = cmd.Flags().Set("archive", "/tmp/trace")
	_ = cmd.Flags().Set("no-remap", "true")
	_ = cmd.Flags().Set("no-clock-correct", "true")

	cfg, err := FromCmd(cmd)
	if err != nil {
		t.Fatalf("FromCmd: %v", err)
	}
	if cfg.ApplyMappings || cfg.ApplyClocks {
		t.Errorf("flags should disable both: %+v", cfg)
	}
}
