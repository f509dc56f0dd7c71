package upload

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophupload/internal/common"
)

// entry is the registry record of one in-flight upload. All fields except
// identity and generation are guarded by mu.
type entry struct {
	mu sync.Mutex

	identity   Identity
	generation uint64
	total      int
	chunks     []string
	size       int64
	updated    time.Time
	closed     bool
}

func (e *entry) handle() *Handle {
	chunks := make([]string, len(e.chunks))
	copy(chunks, e.chunks)
	return &Handle{Identity: e.identity, Chunks: chunks, entry: e}
}

// Handle is returned by AddChunk and later passed to GetCompletedFile.
type Handle struct {
	Identity Identity
	// Chunks holds the chunk file paths in arrival order at the time the
	// handle was produced.
	Chunks []string

	entry *entry
}

// Key returns the identity key of the upload.
func (h *Handle) Key() string {
	return h.Identity.Key()
}

// Registry maps identity keys to in-flight uploads. Lookups and inserts go
// through sync.Map, so unrelated uploads never contend; a per-entry mutex
// serialises work on one upload.
type Registry struct {
	entries    sync.Map // string -> *entry
	count      atomic.Int64
	gen        atomic.Uint64
	maxPerName int
}

// NewRegistry returns an empty registry. maxPerName bounds the suffix scan
// done when a chunk joins an existing upload.
func NewRegistry(maxPerName int) *Registry {
	if maxPerName <= 0 {
		maxPerName = DefaultMaxSimultaneousUploads
	}
	return &Registry{maxPerName: maxPerName}
}

// claim registers a new upload for name and returns its entry locked.
// The bare name is used when free, otherwise the first unused suffix.
func (r *Registry) claim(name string, total int, now time.Time) *entry {
	e := &entry{
		generation: r.gen.Add(1),
		total:      total,
		updated:    now,
	}
	e.mu.Lock()

	e.identity = bareIdentity(name)
	for n := 0; ; n++ {
		if _, loaded := r.entries.LoadOrStore(e.identity.Key(), e); !loaded {
			r.count.Add(1)
			return e
		}
		e.identity = suffixedIdentity(name, n)
	}
}

// join finds the upload of name whose chunk count equals chunkIndex and
// returns its entry locked. The bare name is tried first, then the suffixes
// below the per-name cap.
func (r *Registry) join(name string, chunkIndex int) (*entry, error) {
	if e := r.lockIfAt(bareIdentity(name).Key(), chunkIndex); e != nil {
		return e, nil
	}
	for n := 0; n < r.maxPerName; n++ {
		if e := r.lockIfAt(suffixedIdentity(name, n).Key(), chunkIndex); e != nil {
			return e, nil
		}
	}
	return nil, common.ErrUploadNotFound
}

func (r *Registry) lockIfAt(key string, chunks int) *entry {
	v, ok := r.entries.Load(key)
	if !ok {
		return nil
	}
	e := v.(*entry)
	e.mu.Lock()
	if e.closed || len(e.chunks) != chunks {
		e.mu.Unlock()
		return nil
	}
	return e
}

// release drops e from the registry. The caller holds e.mu.
func (r *Registry) release(e *entry) {
	if e.closed {
		return
	}
	e.closed = true
	if r.entries.CompareAndDelete(e.identity.Key(), e) {
		r.count.Add(-1)
	}
}

// lookup returns the live entry for key, if any.
func (r *Registry) lookup(key string) (*entry, bool) {
	v, ok := r.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// observe returns the current chunk count of every live upload.
func (r *Registry) observe() Snapshot {
	s := make(Snapshot)
	r.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		if !e.closed {
			s[k.(string)] = Observation{Generation: e.generation, Chunks: len(e.chunks)}
		}
		e.mu.Unlock()
		return true
	})
	return s
}

// Size returns the number of in-flight uploads.
func (r *Registry) Size() int {
	return int(r.count.Load())
}

// Contains reports whether key names a live upload.
func (r *Registry) Contains(key string) bool {
	_, ok := r.lookup(key)
	return ok
}
