package uploads

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophupload/internal/dbx"
	"github.com/dmitrijs2005/gophupload/internal/server/models"
)

// PostgresRepository implements the upload ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertCompleted appends a finalize record. Exactly one row must be affected.
func (r *PostgresRepository) InsertCompleted(ctx context.Context, u *models.CompletedUpload) error {
	query := `
		INSERT INTO completed_uploads (id, identity_key, name, destination, size, content_type, outcome, storage_key, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.IdentityKey, u.Name, u.Destination, u.Size, u.ContentType, u.Outcome, u.StorageKey, u.FinalizedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// InsertEvicted appends a reaper eviction record.
func (r *PostgresRepository) InsertEvicted(ctx context.Context, u *models.EvictedUpload) error {
	query := `
		INSERT INTO evicted_uploads (id, identity_key, chunks, size, idle_seconds, evicted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.IdentityKey, u.Chunks, u.Size, int64(u.Idle.Seconds()), u.EvictedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// SelectRecent returns up to limit completion records, newest first.
func (r *PostgresRepository) SelectRecent(ctx context.Context, limit int) ([]*models.CompletedUpload, error) {
	query := `SELECT id, identity_key, name, destination, size, content_type, outcome, storage_key, finalized_at
		FROM completed_uploads ORDER BY finalized_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select uploads: %w", err)
	}
	defer rows.Close()

	var result []*models.CompletedUpload
	for rows.Next() {
		var item models.CompletedUpload
		if err := rows.Scan(&item.ID, &item.IdentityKey, &item.Name, &item.Destination, &item.Size,
			&item.ContentType, &item.Outcome, &item.StorageKey, &item.FinalizedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func expectOneRow(res rowsAffecter) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
