package folders

import (
	"context"

	"github.com/dbelyaev/cloudstash/internal/server/models"
)

// Repository persists the folder tree. Every read is scoped by the owning
// username; parent references stay inside one owner's tree by construction.
type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByIDAndOwner(ctx context.Context, id int64, username string) (*models.Folder, error)

	// ListChildren returns the direct children of parentID (nil for the
	// root level), creation-time ascending.
	ListChildren(ctx context.Context, username string, parentID *int64) ([]*models.Folder, error)

	// ListAllByOwner returns every folder of the owner in one pass,
	// creation-time ascending, for in-memory tree assembly.
	ListAllByOwner(ctx context.Context, username string) ([]*models.Folder, error)

	// SiblingNameExists reports whether the owner already has a folder
	// called name under parentID (nil for the root level).
	SiblingNameExists(ctx context.Context, username string, parentID *int64, name string) (bool, error)

	UpdateName(ctx context.Context, id int64, name string) error
	UpdateParent(ctx context.Context, id int64, parentID *int64) error

	// SubtreeIDs resolves rootID plus every transitive descendant, scoped
	// to the owner. An empty result means the root is absent or foreign.
	SubtreeIDs(ctx context.Context, username string, rootID int64) ([]int64, error)

	// DeleteOwnedRoot removes the root folder row if owned by username and
	// returns the number of rows affected. Descendant folders and files go
	// with it through the schema's cascade rules.
	DeleteOwnedRoot(ctx context.Context, username string, id int64) (int64, error)
}
