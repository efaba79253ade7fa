package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"evtrace/internal/tracefile"
)

// Location bundles one location's id with the concrete ChunkStream and
// Context the decoder reads through.
type Location struct {
	ID     uint64
	Dir    string
	Stream *tracefile.FileChunkStream
	Ctx    *tracefile.Context
}

// Archive is an opened trace archive: a manifest plus one opened Location
// per listed entry.
type Archive struct {
	ID        string
	Root      string
	Locations []*Location
}

// Open reads root's manifest and opens every listed location's chunk
// stream concurrently via errgroup; if any location fails, it waits for the
// rest to finish and closes whatever did open.
func Open(root string) (*Archive, error) {
	manifest, err := loadManifest(root)
	if err != nil {
		return nil, err
	}

	locations := make([]*Location, len(manifest.Locations))
	g := new(errgroup.Group)
	for i, entry := range manifest.Locations {
		i, entry := i, entry
		g.Go(func() error {
			loc, err := openLocation(root, entry)
			if err != nil {
				return fmt.Errorf("open location %d: %w", entry.ID, err)
			}
			locations[i] = loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, loc := range locations {
			if loc != nil {
				_ = loc.Stream.Close()
			}
		}
		return nil, err
	}

	return &Archive{ID: manifest.ID.String(), Root: root, Locations: locations}, nil
}

func openLocation(root string, entry LocationEntry) (*Location, error) {
	dir := filepath.Join(root, entry.Dir)
	stream, err := tracefile.OpenFileChunkStream(dir)
	if err != nil {
		return nil, err
	}
	return &Location{
		ID:     entry.ID,
		Dir:    dir,
		Stream: stream,
		Ctx:    tracefile.NewContext(dir),
	}, nil
}

// Close releases every location's chunk stream.
func (a *Archive) Close() error {
	var firstErr error
	for _, loc := range a.Locations {
		if err := loc.Stream.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Reopen re-reads the manifest and opens any location not already present
// in a, used by Watch after a manifest change is observed. It returns only
// the newly opened locations.
func Reopen(ctx context.Context, a *Archive) ([]*Location, error) {
	manifest, err := loadManifest(a.Root)
	if err != nil {
		return nil, err
	}

	known := make(map[uint64]bool, len(a.Locations))
	for _, loc := range a.Locations {
		known[loc.ID] = true
	}

	var fresh []*Location
	for _, entry := range manifest.Locations {
		if known[entry.ID] {
			continue
		}
		select {
		case <-ctx.Done():
			return fresh, ctx.Err()
		default:
		}
		loc, err := openLocation(a.Root, entry)
		if err != nil {
			return fresh, fmt.Errorf("open location %d: %w", entry.ID, err)
		}
		fresh = append(fresh, loc)
	}
	a.Locations = append(a.Locations, fresh...)
	return fresh, nil
}
