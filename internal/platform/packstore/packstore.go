// Package packstore durably persists the completed plan manifest to local
// disk under the configured packs root, with an optional GCS mirror.
package packstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

type Store struct {
	log       *logger.Logger
	packsRoot string
	mirror    Mirror
}

// Mirror uploads a finished manifest to an off-box store; nil disables it.
type Mirror interface {
	Upload(packID string, data []byte) error
}

func NewStore(log *logger.Logger, packsRoot string, mirror Mirror) *Store {
	return &Store{log: log.With("component", "PackStore"), packsRoot: packsRoot, mirror: mirror}
}

func (s *Store) ManifestPath(packID string) string {
	return filepath.Join(s.packsRoot, packID, "manifest.json")
}

// WriteManifest durably persists the manifest via a temp-file-write,
// fsync, rename sequence so a crash mid-write never leaves a partially
// written manifest.json visible to a poller. Mirrors to GCS best-effort
// after the local write succeeds.
func (s *Store) WriteManifest(manifest navpack.Manifest) error {
	dir := filepath.Join(s.packsRoot, manifest.PackID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create pack dir: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	final := filepath.Join(dir, "manifest.json")
	tmp, err := os.CreateTemp(dir, "manifest.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp manifest: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.Upload(manifest.PackID, data); err != nil {
			s.log.Warn("gcs mirror upload failed", "pack_id", manifest.PackID, "error", err.Error())
		}
	}
	return nil
}

// ReadManifest loads a previously written manifest from the pack directory.
// The poll handler does not call it; it reads the job_run result column.
func (s *Store) ReadManifest(packID string) (*navpack.Manifest, error) {
	data, err := os.ReadFile(s.ManifestPath(packID))
	if err != nil {
		return nil, err
	}
	var m navpack.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}
