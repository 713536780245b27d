package shares

import (
	"context"

	"github.com/dbelyaev/cloudstash/internal/server/models"
)

// Repository persists share tokens. Shares are owned by their file, not
// directly by the user, so ownership checks go through the file's owner.
type Repository interface {
	Create(ctx context.Context, share *models.FileShare) (*models.FileShare, error)

	// GetByIDAndFileOwner returns the share only when its file belongs to
	// username.
	GetByIDAndFileOwner(ctx context.Context, id int64, username string) (*models.FileShare, error)

	// GetByToken is the unauthenticated lookup used by public resolution.
	GetByToken(ctx context.Context, token string) (*models.FileShare, error)

	// ListByFileAndOwner returns the file's shares, newest first.
	ListByFileAndOwner(ctx context.Context, fileID int64, username string) ([]*models.FileShare, error)

	MarkRevoked(ctx context.Context, id int64) error
}
