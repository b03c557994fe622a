// Package export writes saved garden snapshots as JSON files under the
// data directory. Writes are atomic and durable: the file is fsynced
// before the rename, so a crash never leaves a partial export behind.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/gardengod/gardengod/internal/metrics"
	"github.com/gardengod/gardengod/internal/store"
)

// Exporter writes exports into a fixed root directory.
type Exporter struct {
	root string
}

// New returns an Exporter rooted at dir. The directory is created if
// missing.
func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve export dir: %w", err)
	}
	return &Exporter{root: abs}, nil
}

// Write exports a saved garden to <root>/<id>.json and returns the path.
func (e *Exporter) Write(sg *store.SavedGarden) (string, error) {
	path, err := e.confine(sg.ID + ".json")
	if err != nil {
		metrics.IncExport("rejected")
		return "", err
	}

	data, err := json.MarshalIndent(sg, "", "  ")
	if err != nil {
		metrics.IncExport("failure")
		return "", fmt.Errorf("encode export: %w", err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		metrics.IncExport("failure")
		return "", fmt.Errorf("create pending export: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		metrics.IncExport("failure")
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		metrics.IncExport("failure")
		return "", fmt.Errorf("replace export: %w", err)
	}

	metrics.IncExport("success")
	return path, nil
}

// confine joins name onto the export root and rejects anything that would
// escape it. Saved garden IDs are UUIDs, so a failure here means a forged
// identifier.
func (e *Exporter) confine(name string) (string, error) {
	if strings.Contains(name, "\\") {
		return "", fmt.Errorf("invalid export name: %q", name)
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("export path escapes data directory: %q", name)
	}
	full := filepath.Join(e.root, clean)
	if full != e.root && !strings.HasPrefix(full, e.root+string(filepath.Separator)) {
		return "", fmt.Errorf("export path escapes data directory: %q", name)
	}
	return full, nil
}
