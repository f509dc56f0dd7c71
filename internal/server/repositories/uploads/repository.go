package uploads

import (
	"context"

	"github.com/dmitrijs2005/gophupload/internal/server/models"
)

type Repository interface {
	InsertCompleted(ctx context.Context, u *models.CompletedUpload) error
	InsertEvicted(ctx context.Context, u *models.EvictedUpload) error
	SelectRecent(ctx context.Context, limit int) ([]*models.CompletedUpload, error)
}
