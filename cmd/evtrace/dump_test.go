package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"evtrace/internal/archive"
	"evtrace/internal/format"
	"evtrace/internal/varint"
)

func u64be(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
	return b
}

func writeTestArchive(t *testing.T, root string) {
	t.Helper()
	locDir := filepath.Join(root, "loc0")
	if err := os.MkdirAll(locDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	var records []byte
	records = append(records, u64be(100)...)
	records = append(records, 0x05) // KindEnter
	records = append(records, varint.AppendUint(nil, 1)...)
	records = append(records, u64be(0)...)
	records = append(records, 0x00) // KindEndOfFile

	hdr := format.Header{Type: format.TypeEventChunk, Version: 1}.Encode()
	buf := append([]byte{}, hdr[:]...)
	countBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(countBuf, 1)
	buf = append(buf, countBuf...)
	sizeBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(sizeBuf, uint64(len(records)))
	buf = append(buf, sizeBuf...)
	buf = append(buf, records...)

	if err := os.WriteFile(filepath.Join(locDir, "evt.0.log"), buf, 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
	}

	manifest := archive.Manifest{ID: uuid.New(), Locations: []archive.LocationEntry{{ID: 0, Dir: "loc0"}}}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "manifest"), data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestDumpCmdPrintsEnterEvent(t *testing.T) {
	root := t.TempDir()
	writeTestArchive(t, root)

	logger := slog.New(slog.DiscardHandler)
	cmd := newDumpCmd(logger)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Flags().String("archive", "", "")
	cmd.Flags().StringSlice("kinds", nil, "")
	cmd.Flags().Bool("no-remap", false, "")
	cmd.Flags().Bool("no-clock-correct", false, "")
	cmd.Flags().String("since", "", "")
	cmd.Flags().String("until", "", "")
	cmd.Flags().StringP("output", "o", "text", "")
	_ = cmd.Flags().Set("archive", root)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("dump: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Enter") {
		t.Errorf("output = %q, want it to mention Enter", got)
	}
	if !strings.Contains(got, "region=#1") {
		t.Errorf("output = %q, want region=#1", got)
	}
}

func TestStatsCmdCountsEvents(t *testing.T) {
	root := t.TempDir()
	writeTestArchive(t, root)

	logger := slog.New(slog.DiscardHandler)
	cmd := newStatsCmd(logger)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Flags().String("archive", "", "")
	cmd.Flags().StringSlice("kinds", nil, "")
	cmd.Flags().Bool("no-remap", false, "")
	cmd.Flags().Bool("no-clock-correct", false, "")
	cmd.Flags().String("since", "", "")
	cmd.Flags().String("until", "", "")
	cmd.Flags().StringP("output", "o", "text", "")
	_ = cmd.Flags().Set("archive", root)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("stats: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Enter") {
		t.Errorf("output = %q, want an Enter row", got)
	}
	if !strings.Contains(got, "TOTAL") {
		t.Errorf("output = %q, want a TOTAL row", got)
	}
}
