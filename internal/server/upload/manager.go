// Package upload assembles files sent as a sequence of chunks identified only
// by a display name and a chunk index, and reclaims uploads that stop midway.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/gophupload/internal/common"
	"github.com/dmitrijs2005/gophupload/internal/logging"
	"github.com/dmitrijs2005/gophupload/internal/server/metrics"
	"github.com/spf13/afero"
)

const (
	DefaultMaxSimultaneousUploads = 100
	DefaultMinCleanupInterval     = 1_000_000_000 * time.Millisecond
)

// Options configures a Manager. Zero values fall back to the defaults:
// OS filesystem, os.TempDir(), 100 uploads per name, no-op logger.
type Options struct {
	Fs                     afero.Fs
	TempDir                string
	MaxSimultaneousUploads int
	MinCleanupInterval     time.Duration
	Logger                 logging.Logger
	Metrics                *metrics.UploadMetrics
	Clock                  func() time.Time
}

// Manager is the entry point used by the transports: AddChunk for every
// chunk, GetCompletedFile once the last chunk is in, Cleanup on a schedule.
type Manager struct {
	registry  *Registry
	store     *ChunkStore
	assembler *Assembler
	reaper    *Reaper
	logger    logging.Logger
	metrics   *metrics.UploadMetrics
	now       func() time.Time
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.MinCleanupInterval == 0 {
		opts.MinCleanupInterval = DefaultMinCleanupInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	store, err := NewChunkStore(opts.Fs, opts.TempDir)
	if err != nil {
		return nil, err
	}

	return &Manager{
		registry:  NewRegistry(opts.MaxSimultaneousUploads),
		store:     store,
		assembler: NewAssembler(opts.Fs),
		reaper:    NewReaper(opts.MinCleanupInterval, opts.Clock),
		logger:    opts.Logger.With("module", "upload"),
		metrics:   opts.Metrics,
		now:       opts.Clock,
	}, nil
}

// TempDir returns the absolute directory holding chunk files.
func (m *Manager) TempDir() string {
	return m.store.Dir()
}

// Size returns the number of in-flight uploads.
func (m *Manager) Size() int {
	return m.registry.Size()
}

// Registered reports whether key names an in-flight upload.
func (m *Manager) Registered(key string) bool {
	return m.registry.Contains(key)
}

// AddChunk resolves the upload chunkIndex belongs to and appends payload to
// its chunk file.
//
// Chunk 0 always starts a new upload: the bare name if free, otherwise the
// first free name_N. Any other index joins the upload of that name whose
// chunk count equals chunkIndex; if there is none, common.ErrUploadNotFound
// is returned and nothing is written.
func (m *Manager) AddChunk(ctx context.Context, name string, totalChunks, chunkIndex int, payload []byte) (*Handle, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: upload name %q", common.ErrInvalidPath, name)
	}
	if totalChunks < 1 || chunkIndex < 0 || chunkIndex >= totalChunks {
		return nil, fmt.Errorf("%w: chunk %d of %d", common.ErrInvalidChunk, chunkIndex, totalChunks)
	}

	var e *entry
	if chunkIndex == 0 {
		e = m.registry.claim(name, totalChunks, m.now())
	} else {
		var err error
		e, err = m.registry.join(name, chunkIndex)
		if err != nil {
			m.metrics.SequencingError()
			m.logger.Warn(ctx, "chunk does not continue any upload", "name", name, "chunk", chunkIndex, "chunks", totalChunks)
			return nil, err
		}
	}
	defer e.mu.Unlock()

	key := e.identity.Key()

	if chunkIndex == 0 {
		// a file left behind by a crashed process must not prefix the new upload
		if err := m.store.Discard(m.store.Path(key)); err != nil {
			m.logger.Warn(ctx, "cannot discard leftover chunk file", "identity", key, "error", err)
		}
	}

	path, err := m.store.WriteChunk(key, payload)
	if err != nil {
		m.metrics.WriteError()
		m.logger.Error(ctx, "chunk write failed", "identity", key, "chunk", chunkIndex, "error", err)
		if len(e.chunks) == 0 {
			_ = m.store.Discard(m.store.Path(key))
			m.registry.release(e)
			m.metrics.SetInFlight(m.registry.Size())
		} else if terr := m.store.Truncate(key, e.size); terr != nil {
			m.logger.Warn(ctx, "cannot roll back partial chunk", "identity", key, "error", terr)
		}
		return nil, fmt.Errorf("store chunk %d of %s: %w", chunkIndex, key, err)
	}

	e.chunks = append(e.chunks, path)
	e.size += int64(len(payload))
	e.updated = m.now()

	m.metrics.ChunkStored(len(payload))
	m.metrics.SetInFlight(m.registry.Size())
	m.logger.Debug(ctx, "chunk stored", "identity", key, "chunk", chunkIndex, "chunks", totalChunks, "recorded", len(e.chunks))

	return e.handle(), nil
}

// GetCompletedFile finalizes the upload behind h into destination, or into
// the temporary directory under name when destination is empty.
//
// The first recorded chunk file holds the whole content and is moved to the
// destination. Whatever happens, the identity is released afterwards and its
// remaining chunk files are deleted. Failures are reported through the
// returned Completion, never as an error.
//
// A file finalized into the temporary directory lives at the chunk path of
// its key, so it is only valid until the next upload claims that key: chunk
// 0 of the new upload replaces it. Callers that need the file afterwards
// must pass a destination or move it before accepting more uploads of name.
//
// A handle whose upload was already finalized or evicted yields no-chunks
// and touches nothing, since its key may belong to a newer upload by now.
func (m *Manager) GetCompletedFile(ctx context.Context, name, destination string, h *Handle) *Completion {
	if destination == "" {
		destination = filepath.Join(m.store.Dir(), name)
	}
	c := &Completion{Path: destination, Outcome: OutcomeNoChunks}

	if h == nil || h.entry == nil {
		m.logger.Error(ctx, "no upload to finalize", "name", name, "destination", destination)
		m.metrics.FinalizeOutcome(c.Outcome.String())
		return c
	}

	e := h.entry
	e.mu.Lock()
	defer e.mu.Unlock()

	c.Identity = e.identity

	if e.closed {
		m.logger.Error(ctx, "upload already finalized or evicted", "identity", e.identity.Key(), "destination", destination)
		m.metrics.FinalizeOutcome(c.Outcome.String())
		return c
	}

	c.Size = e.size

	switch {
	case len(e.chunks) == 0:
		m.logger.Error(ctx, "upload has no chunks", "identity", e.identity.Key(), "destination", destination)
	case samePath(e.chunks[0], destination):
		c.Outcome = OutcomeAlreadyInPlace
	default:
		if err := m.assembler.Move(e.chunks[0], destination); err != nil {
			c.Outcome = OutcomeMoveFailed
			c.Err = err
			m.logger.Error(ctx, "cannot move upload to destination", "identity", e.identity.Key(), "destination", destination, "error", err)
		} else {
			c.Outcome = OutcomeMoved
		}
	}

	m.discard(ctx, e, destination)

	m.metrics.FinalizeOutcome(c.Outcome.String())
	m.metrics.SetInFlight(m.registry.Size())
	m.logger.Info(ctx, "upload finalized", "identity", c.Identity.Key(), "destination", destination, "outcome", c.Outcome.String(), "size", c.Size)

	return c
}

// Evicted describes an upload removed by the reaper.
type Evicted struct {
	Identity Identity
	Chunks   int
	Size     int64
	Idle     time.Duration
}

// CleanupReport summarises one Cleanup call.
type CleanupReport struct {
	Compared bool
	Evicted  []Evicted
}

// Cleanup runs one reaper cycle. Meant to be triggered by a scheduler.
func (m *Manager) Cleanup(ctx context.Context) CleanupReport {
	var report CleanupReport

	report.Compared = m.reaper.Cycle(m.registry.observe, func(key string, seen Observation) {
		e, ok := m.registry.lookup(key)
		if !ok {
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || e.generation != seen.Generation || len(e.chunks) != seen.Chunks {
			return
		}

		m.logger.Info(ctx, "removing incomplete upload", "identity", key, "chunks", len(e.chunks), "of", e.total)
		report.Evicted = append(report.Evicted, Evicted{
			Identity: e.identity,
			Chunks:   len(e.chunks),
			Size:     e.size,
			Idle:     m.now().Sub(e.updated),
		})
		m.discard(ctx, e, "")
	})

	if report.Compared {
		m.logger.Info(ctx, "cleaned pending incomplete uploads", "evicted", len(report.Evicted), "pending", m.registry.Size())
	}
	m.metrics.CleanupRun(len(report.Evicted))
	m.metrics.SetInFlight(m.registry.Size())

	return report
}

// discard deletes the chunk files of e, except keep, and then releases e.
// Files go first so a new upload cannot claim the key and lose its file to
// this removal. The caller holds e.mu.
func (m *Manager) discard(ctx context.Context, e *entry, keep string) {
	defer m.registry.release(e)

	seen := make(map[string]bool, 1)
	for _, p := range e.chunks {
		if seen[p] || (keep != "" && samePath(p, keep)) {
			continue
		}
		seen[p] = true
		if err := m.store.Discard(p); err != nil {
			m.logger.Warn(ctx, "cannot delete chunk file", "path", p, "error", err)
		}
	}
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
