// Package archive discovers a trace archive on disk and opens one
// tracefile.FileChunkStream plus tracefile.Context per location it lists,
// handing the decoder fully-formed ChunkStream/Context pairs. It has no
// opinion on decoding; it only ever resolves paths.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const manifestFileName = "manifest"

// LocationEntry is one row of the archive manifest: a location id and the
// subdirectory (relative to the archive root) holding its chunk and
// companion files.
type LocationEntry struct {
	ID  uint64 `json:"id"`
	Dir string `json:"dir"`
}

// Manifest is the archive-root JSON document listing every location. ID
// uniquely identifies this archive across runs, stamped once at creation.
type Manifest struct {
	ID        uuid.UUID       `json:"id"`
	Locations []LocationEntry `json:"locations"`
}

// loadManifest reads and parses root/manifest.
func loadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
