package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFileRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	f := NewProfileFile(path)

	want := domain.ArbitrationProfile{Base: 0.4, Episodic: 0.3, Procedural: 0.2, Abstraction: 0.1}
	require.NoError(t, f.Save(want))

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProfileFileMissing(t *testing.T) {
	f := NewProfileFile(filepath.Join(t.TempDir(), "nope.json"))
	_, err := f.Load()
	assert.Error(t, err)
}

func TestProfileFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewProfileFile(path).Load()
	assert.Error(t, err)
}

func TestProfileFileZeroMassRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base":0,"episodic":0,"procedural":0,"abstraction":0}`), 0o644))

	_, err := NewProfileFile(path).Load()
	assert.Error(t, err)
}

func TestProfileFileSaveCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "profile.json")
	f := NewProfileFile(path)

	require.NoError(t, f.Save(domain.UniformProfile()))
	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.UniformProfile(), got)
}

func TestProfileFileSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	f := NewProfileFile(path)

	require.NoError(t, f.Save(domain.UniformProfile()))
	want := domain.ArbitrationProfile{Base: 0.7, Episodic: 0.1, Procedural: 0.1, Abstraction: 0.1}
	require.NoError(t, f.Save(want))

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
