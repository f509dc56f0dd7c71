package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophupload/internal/common"
	"github.com/dmitrijs2005/gophupload/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophupload/internal/server/upload"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTemp = "/var/tmp/chunks"
	testRoot = "/srv/uploads"
)

type fakePublisher struct {
	paths []string
	types []string
	pub   *Publication
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, path, contentType string) (*Publication, error) {
	f.paths = append(f.paths, path)
	f.types = append(f.types, contentType)
	return f.pub, f.err
}

type fixture struct {
	fs      afero.Fs
	clock   time.Time
	manager *upload.Manager
	svc     *UploadService
}

func newFixture(t *testing.T, db *sql.DB, pub Publisher) *fixture {
	t.Helper()
	f := &fixture{fs: afero.NewMemMapFs(), clock: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	m, err := upload.NewManager(upload.Options{
		Fs:                 f.fs,
		TempDir:            testTemp,
		MinCleanupInterval: time.Minute,
		Clock:              func() time.Time { return f.clock },
	})
	require.NoError(t, err)
	f.manager = m

	opts := UploadServiceOptions{Manager: m, Fs: f.fs, RootDir: testRoot, Publisher: pub}
	if db != nil {
		opts.DB = db
		opts.RepoManager = &repomanager.PostgresRepositoryManager{}
	}
	f.svc = NewUploadService(opts)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) read(t *testing.T, path string) string {
	t.Helper()
	b, err := afero.ReadFile(f.fs, path)
	require.NoError(t, err)
	return string(b)
}

func TestUpload_ChunkedIntoFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)

	parts := []string{"col1,col2\n", "a,b\n", "c,d\n"}
	var res *UploadResult
	for i, p := range parts {
		var err error
		res, err = f.svc.Upload(ctx, UploadRequest{Name: "report.csv", Folder: "2024/q1", Chunks: 3, Chunk: i, Payload: []byte(p)})
		require.NoError(t, err)
		if i < 2 {
			assert.Nil(t, res.Completion, "chunk %d must not finalize", i)
			assert.Equal(t, 1, res.Pending)
		}
	}

	require.NotNil(t, res.Completion)
	assert.Equal(t, upload.OutcomeMoved, res.Completion.Outcome)
	assert.Equal(t, "/srv/uploads/2024/q1/report.csv", res.Completion.Path)
	assert.Equal(t, "col1,col2\na,b\nc,d\n", f.read(t, res.Completion.Path))
	assert.Contains(t, res.ContentType, "text/csv")
	assert.Equal(t, 0, res.Pending)
}

func TestUpload_SingleShotWithTargetName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)

	res, err := f.svc.Upload(ctx, UploadRequest{Name: "blob", TargetName: "renamed.txt", Payload: []byte("plain text body")})
	require.NoError(t, err)

	require.NotNil(t, res.Completion)
	assert.Equal(t, "/srv/uploads/renamed.txt", res.Completion.Path)
	assert.Equal(t, "plain text body", f.read(t, "/srv/uploads/renamed.txt"))
	assert.Contains(t, res.ContentType, "text/plain")
}

func TestUpload_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)

	for _, req := range []UploadRequest{
		{Name: "x", Folder: "../../etc", Payload: []byte("p")},
		{Name: "x", TargetName: "../outside", Payload: []byte("p")},
		{Name: "x", Folder: "/abs", Payload: []byte("p")},
	} {
		_, err := f.svc.Upload(ctx, req)
		assert.ErrorIs(t, err, common.ErrInvalidPath, "%+v", req)
	}
	assert.Equal(t, 0, f.svc.Pending())
}

func TestUpload_SequencingErrorPassesThrough(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.Upload(context.Background(), UploadRequest{Name: "x", Chunks: 2, Chunk: 1, Payload: []byte("p")})
	assert.ErrorIs(t, err, common.ErrUploadNotFound)
}

func TestUpload_PublishesCompletedFile(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{pub: &Publication{StorageKey: "uploads/k", DownloadURL: "http://s3/k"}}
	f := newFixture(t, nil, pub)

	res, err := f.svc.Upload(ctx, UploadRequest{Name: "a.json", Payload: []byte(`{"a":1}`)})
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/uploads/a.json"}, pub.paths)
	assert.Equal(t, []string{"application/json"}, pub.types)
	assert.Equal(t, "http://s3/k", res.Publication.DownloadURL)
	assert.NoError(t, res.PublishErr)
}

func TestUpload_PublishFailureIsSoft(t *testing.T) {
	pub := &fakePublisher{err: errors.New("s3 down")}
	f := newFixture(t, nil, pub)

	res, err := f.svc.Upload(context.Background(), UploadRequest{Name: "a.txt", Payload: []byte("x")})
	require.NoError(t, err)

	assert.Equal(t, upload.OutcomeMoved, res.Completion.Outcome)
	assert.EqualError(t, res.PublishErr, "s3 down")
}

func TestUpload_MoveFailureSkipsPublishing(t *testing.T) {
	pub := &fakePublisher{}
	f := newFixture(t, nil, pub)
	require.NoError(t, f.fs.MkdirAll("/srv/uploads/taken", 0o755))

	res, err := f.svc.Upload(context.Background(), UploadRequest{Name: "taken", Payload: []byte("x")})
	require.NoError(t, err)

	assert.Equal(t, upload.OutcomeMoveFailed, res.Completion.Outcome)
	assert.Empty(t, pub.paths)
	assert.Empty(t, res.ContentType)
}

func TestUpload_RecordsLedger(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	f := newFixture(t, db, nil)

	mock.ExpectExec(`INSERT\s+INTO\s+completed_uploads`).
		WithArgs(sqlmock.AnyArg(), "doc.txt", "doc.txt", "/srv/uploads/docs/doc.txt", int64(5), "text/plain; charset=utf-8", "moved", "", f.clock).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err = f.svc.Upload(context.Background(), UploadRequest{Name: "doc.txt", Folder: "docs", Payload: []byte("hello")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpload_LedgerFailureIsSoft(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	f := newFixture(t, db, nil)
	mock.ExpectExec(`INSERT\s+INTO\s+completed_uploads`).WillReturnError(errors.New("db down"))

	res, err := f.svc.Upload(context.Background(), UploadRequest{Name: "doc.txt", Payload: []byte("hello")})
	require.NoError(t, err)
	assert.True(t, res.Completion.Outcome.Completed())
}

func TestCleanup_RecordsEvictionsInOneTransaction(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	f := newFixture(t, db, nil)

	_, err = f.svc.Upload(ctx, UploadRequest{Name: "a", Chunks: 2, Chunk: 0, Payload: []byte("1")})
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, UploadRequest{Name: "b", Chunks: 3, Chunk: 0, Payload: []byte("22")})
	require.NoError(t, err)

	report := f.svc.Cleanup(ctx)
	assert.Empty(t, report.Evicted)

	f.clock = f.clock.Add(2 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+evicted_uploads`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+evicted_uploads`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	report = f.svc.Cleanup(ctx)
	assert.Len(t, report.Evicted, 2)
	assert.Equal(t, 0, f.svc.Pending())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanup_RollsBackOnInsertError(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	f := newFixture(t, db, nil)
	_, err = f.svc.Upload(ctx, UploadRequest{Name: "a", Chunks: 2, Chunk: 0, Payload: []byte("1")})
	require.NoError(t, err)

	f.svc.Cleanup(ctx)
	f.clock = f.clock.Add(2 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+evicted_uploads`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	report := f.svc.Cleanup(ctx)
	assert.Len(t, report.Evicted, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecent_WithoutLedger(t *testing.T) {
	f := newFixture(t, nil, nil)
	items, err := f.svc.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, items)
}
