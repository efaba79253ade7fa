package main

import (
	"fmt"

	"evtrace/internal/archive"
	"evtrace/internal/attr"
	"evtrace/internal/callback"
	"evtrace/internal/decoder"
	"evtrace/internal/memalloc"
	"evtrace/internal/merger"
	"evtrace/internal/tracecfg"
)

// session wires one opened archive into per-location decoders merged in
// global timestamp order, the assembly every read-only subcommand needs.
type session struct {
	archive *archive.Archive
	pm      *memalloc.ProcessMemory
	merger  *merger.GlobalMerger
}

// openSession opens cfg.ArchivePath and builds a GlobalMerger over every
// location it lists, dispatching through table.
func openSession(cfg tracecfg.Config, table *callback.GlobalTable) (*session, error) {
	a, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	pm := memalloc.NewProcessMemory(memalloc.ModeConcurrent)
	decoders := make([]*decoder.EventDecoder, 0, len(a.Locations))
	for _, loc := range a.Locations {
		handle := pm.NewHandle()
		scratchHandle := pm.NewHandle()
		d := decoder.New(loc.Stream, loc.Ctx, attr.NewList(handle), attr.NewList(scratchHandle), nil, nil)
		d.LocationID = loc.ID
		d.ApplyMappings = cfg.ApplyMappings
		d.ApplyClocks = cfg.ApplyClocks
		decoders = append(decoders, d)
	}

	return &session{
		archive: a,
		pm:      pm,
		merger:  merger.New(decoders, table, nil),
	}, nil
}

// Close releases the underlying archive's chunk streams and allocator
// state.
func (s *session) Close() error {
	s.pm.Finalize()
	return s.archive.Close()
}
