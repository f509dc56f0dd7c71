package upload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ChunkStore appends chunk payloads to one file per upload identity under a
// shared temporary directory.
type ChunkStore struct {
	fs  afero.Fs
	dir string
}

// NewChunkStore prepares dir on fsys and returns a store rooted there.
func NewChunkStore(fsys afero.Fs, dir string) (*ChunkStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve temp dir %s: %w", dir, err)
	}
	if err := fsys.MkdirAll(abs, 0o770); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", abs, err)
	}
	return &ChunkStore{fs: fsys, dir: abs}, nil
}

// Dir returns the absolute temporary directory.
func (s *ChunkStore) Dir() string {
	return s.dir
}

// Path returns the chunk file path for key.
func (s *ChunkStore) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// WriteChunk appends payload to the file for key, syncs and closes it.
// Calling it twice for the same chunk duplicates the bytes.
func (s *ChunkStore) WriteChunk(key string, payload []byte) (string, error) {
	path := s.Path(key)

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return "", fmt.Errorf("open chunk file: %w", err)
	}

	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write chunk file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("sync chunk file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close chunk file: %w", err)
	}

	return path, nil
}

// Truncate cuts the chunk file for key back to size bytes.
func (s *ChunkStore) Truncate(key string, size int64) error {
	f, err := s.fs.OpenFile(s.Path(key), os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Truncate(size)
}

// Discard removes path. A missing file is not an error.
func (s *ChunkStore) Discard(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
