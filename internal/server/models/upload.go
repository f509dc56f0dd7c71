package models

import "time"

// CompletedUpload is one row of the completion ledger.
type CompletedUpload struct {
	ID          string    `db:"id"`
	IdentityKey string    `db:"identity_key"`
	Name        string    `db:"name"`
	Destination string    `db:"destination"`
	Size        int64     `db:"size"`
	ContentType string    `db:"content_type"`
	Outcome     string    `db:"outcome"`
	StorageKey  string    `db:"storage_key"`
	FinalizedAt time.Time `db:"finalized_at"`
}

// EvictedUpload records an abandoned upload removed by the reaper.
type EvictedUpload struct {
	ID          string        `db:"id"`
	IdentityKey string        `db:"identity_key"`
	Chunks      int           `db:"chunks"`
	Size        int64         `db:"size"`
	Idle        time.Duration `db:"idle_seconds"`
	EvictedAt   time.Time     `db:"evicted_at"`
}
