package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophupload/internal/dbx"
	"github.com/dmitrijs2005/gophupload/internal/filex"
	"github.com/dmitrijs2005/gophupload/internal/logging"
	"github.com/dmitrijs2005/gophupload/internal/server/models"
	"github.com/dmitrijs2005/gophupload/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophupload/internal/server/upload"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// UploadRequest is one chunk as received by a transport. Chunks == 0 means
// Payload is a complete file.
type UploadRequest struct {
	Name       string
	TargetName string
	Folder     string
	Chunks     int
	Chunk      int
	Payload    []byte
}

// UploadResult tells the transport what to answer. Completion is nil until
// the last chunk has been processed.
type UploadResult struct {
	Handle      *upload.Handle
	Completion  *upload.Completion
	ContentType string
	Publication *Publication
	PublishErr  error
	Pending     int
}

// UploadService glues the chunk manager to destinations, the ledger and
// object storage.
type UploadService struct {
	manager     *upload.Manager
	fs          afero.Fs
	rootDir     string
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   Publisher
	logger      logging.Logger
	now         func() time.Time
}

// UploadServiceOptions configures NewUploadService. DB and Publisher are
// optional.
type UploadServiceOptions struct {
	Manager     *upload.Manager
	Fs          afero.Fs
	RootDir     string
	DB          *sql.DB
	RepoManager repomanager.RepositoryManager
	Publisher   Publisher
	Logger      logging.Logger
}

func NewUploadService(opts UploadServiceOptions) *UploadService {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	return &UploadService{
		manager:     opts.Manager,
		fs:          opts.Fs,
		rootDir:     opts.RootDir,
		db:          opts.DB,
		repomanager: opts.RepoManager,
		publisher:   opts.Publisher,
		logger:      opts.Logger.With("module", "upload_service"),
		now:         time.Now,
	}
}

// Destination resolves folder/targetName under the upload root.
func (s *UploadService) Destination(folder, targetName string) (string, error) {
	return filex.SafeJoin(s.rootDir, folder, targetName)
}

// Upload stores one chunk and finalizes the file when it was the last one.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	targetName := req.TargetName
	if targetName == "" {
		targetName = req.Name
	}
	destination, err := s.Destination(req.Folder, targetName)
	if err != nil {
		return nil, err
	}

	chunks, chunk := req.Chunks, req.Chunk
	if chunks == 0 {
		chunks, chunk = 1, 0
	}

	h, err := s.manager.AddChunk(ctx, req.Name, chunks, chunk, req.Payload)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{Handle: h}
	if chunk == chunks-1 {
		result.Completion = s.manager.GetCompletedFile(ctx, req.Name, destination, h)
		s.afterCompletion(ctx, req.Name, result)
	}
	result.Pending = s.manager.Size()

	s.logger.Debug(ctx, "chunk processed", "identity", h.Key(), "chunk", chunk, "chunks", chunks, "pending", result.Pending)
	return result, nil
}

func (s *UploadService) afterCompletion(ctx context.Context, name string, result *UploadResult) {
	c := result.Completion

	if c.Outcome.Completed() {
		if mt, err := s.detect(c.Path); err != nil {
			s.logger.Warn(ctx, "cannot detect content type", "path", c.Path, "error", err)
		} else {
			result.ContentType = mt
		}

		if s.publisher != nil {
			pub, err := s.publisher.Publish(ctx, c.Path, result.ContentType)
			result.Publication = pub
			if err != nil {
				result.PublishErr = err
				s.logger.Error(ctx, "publishing failed", "path", c.Path, "error", err)
			}
		}
	}

	if s.db == nil || s.repomanager == nil {
		return
	}

	rec := &models.CompletedUpload{
		ID:          uuid.NewString(),
		IdentityKey: c.Identity.Key(),
		Name:        name,
		Destination: c.Path,
		Size:        c.Size,
		ContentType: result.ContentType,
		Outcome:     c.Outcome.String(),
		FinalizedAt: s.now().UTC(),
	}
	if result.Publication != nil {
		rec.StorageKey = result.Publication.StorageKey
	}
	if err := s.repomanager.Uploads(s.db).InsertCompleted(ctx, rec); err != nil {
		s.logger.Error(ctx, "cannot record completed upload", "identity", rec.IdentityKey, "error", err)
	}
}

func (s *UploadService) detect(path string) (string, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// Cleanup runs one reaper cycle and records what it evicted.
func (s *UploadService) Cleanup(ctx context.Context) upload.CleanupReport {
	report := s.manager.Cleanup(ctx)

	if len(report.Evicted) == 0 || s.db == nil || s.repomanager == nil {
		return report
	}

	at := s.now().UTC()
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Uploads(tx)
		for _, ev := range report.Evicted {
			if err := repo.InsertEvicted(ctx, &models.EvictedUpload{
				ID:          uuid.NewString(),
				IdentityKey: ev.Identity.Key(),
				Chunks:      ev.Chunks,
				Size:        ev.Size,
				Idle:        ev.Idle,
				EvictedAt:   at,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "cannot record evicted uploads", "count", len(report.Evicted), "error", err)
	}

	return report
}

// Recent lists the latest completion records. Without a ledger it returns
// an empty list.
func (s *UploadService) Recent(ctx context.Context, limit int) ([]*models.CompletedUpload, error) {
	if s.db == nil || s.repomanager == nil {
		return nil, nil
	}
	items, err := s.repomanager.Uploads(s.db).SelectRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent uploads: %w", err)
	}
	return items, nil
}

// Pending returns the number of in-flight uploads.
func (s *UploadService) Pending() int {
	return s.manager.Size()
}
