package upload

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testTemp = "/var/uploads/tmp"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// appendFailFs refuses to open files for appending while fail is set.
type appendFailFs struct {
	afero.Fs
	mu   sync.Mutex
	fail bool
}

func (f *appendFailFs) set(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *appendFailFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail && flag&os.O_APPEND != 0 {
		return nil, os.ErrPermission
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func newTestManager(t *testing.T, fsys afero.Fs, clock *fakeClock, minInterval time.Duration) *Manager {
	t.Helper()
	opts := Options{
		Fs:                 fsys,
		TempDir:            testTemp,
		MinCleanupInterval: minInterval,
	}
	if clock != nil {
		opts.Clock = clock.Now
	}
	m, err := NewManager(opts)
	require.NoError(t, err)
	return m
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(b)
}

func exists(t *testing.T, fsys afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, path)
	require.NoError(t, err)
	return ok
}

func addAll(t *testing.T, m *Manager, name string, parts ...string) *Handle {
	t.Helper()
	var h *Handle
	for i, p := range parts {
		var err error
		h, err = m.AddChunk(context.Background(), name, len(parts), i, []byte(p))
		require.NoError(t, err)
	}
	return h
}
