package files

import (
	"context"

	"github.com/dbelyaev/cloudstash/internal/server/models"
)

// Repository persists file metadata rows. The blob bytes live in the blob
// store; only the services coordinate the two.
type Repository interface {
	Create(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error)
	GetByIDAndOwner(ctx context.Context, id int64, username string) (*models.StoredFile, error)

	// GetByID looks a file up without an ownership filter; only public
	// share resolution may use it.
	GetByID(ctx context.Context, id int64) (*models.StoredFile, error)

	// List returns the owner's files in folderID (nil for the root level),
	// newest upload first. An unknown folder yields an empty list; callers
	// needing a not-found distinction check the folder first.
	List(ctx context.Context, username string, folderID *int64) ([]*models.StoredFile, error)

	// ListAllByOwner returns every file of the owner, newest first.
	ListAllByOwner(ctx context.Context, username string) ([]*models.StoredFile, error)

	// StorageKeysInFolders returns the blob keys of all files located in
	// any of the given folders, for pre-delete blob cleanup.
	StorageKeysInFolders(ctx context.Context, username string, folderIDs []int64) ([]string, error)

	UpdateFolder(ctx context.Context, id int64, folderID *int64) error
	Delete(ctx context.Context, id int64) error
}
