package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cortexmem/recall/internal/domain"
)

// ProfileFile persists the arbitration profile as a small JSON sidecar.
// The file is disposable: deleting it just resets learning to defaults.
type ProfileFile struct {
	path string
}

func NewProfileFile(path string) *ProfileFile {
	return &ProfileFile{path: path}
}

func (f *ProfileFile) Load() (domain.ArbitrationProfile, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return domain.ArbitrationProfile{}, fmt.Errorf("read profile sidecar: %w", err)
	}

	var p domain.ArbitrationProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ArbitrationProfile{}, fmt.Errorf("parse profile sidecar: %w", err)
	}
	if p.Sum() <= 0 {
		return domain.ArbitrationProfile{}, fmt.Errorf("profile sidecar has no weight mass")
	}
	return p, nil
}

// Save writes the profile atomically via a temp file rename, so a crash mid
// write leaves the previous sidecar intact.
func (f *ProfileFile) Save(p domain.ArbitrationProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write profile temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace profile sidecar: %w", err)
	}
	return nil
}
