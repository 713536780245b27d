// Package services implements the namespace, file and share managers on top
// of the metadata repositories and the blob store. Every operation takes an
// already-authenticated owner username plus primitive arguments; ownership
// equality is the only authorization rule applied here.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dbelyaev/cloudstash/internal/blob"
	"github.com/dbelyaev/cloudstash/internal/common"
	"github.com/dbelyaev/cloudstash/internal/dbx"
	"github.com/dbelyaev/cloudstash/internal/logging"
	"github.com/dbelyaev/cloudstash/internal/server/models"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/repomanager"
)

// FolderService owns folder-tree mutation: creation, listing, tree
// assembly, rename, move, subtree delete and breadcrumb resolution.
// It enforces the cycle and sibling-uniqueness invariants; the DB
// constraint backs the uniqueness check up against concurrent writers.
type FolderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	logger      logging.Logger
	now         func() time.Time
}

func NewFolderService(db *sql.DB, rm repomanager.RepositoryManager, blobs blob.Store, logger logging.Logger) *FolderService {
	return &FolderService{db: db, repomanager: rm, blobs: blobs, logger: logger, now: time.Now}
}

// cleanFolderName trims the name and rejects empty results, path
// separators and the "." / ".." literals.
func cleanFolderName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: folder name cannot be empty", common.ErrInvalidArgument)
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return "", fmt.Errorf("%w: invalid folder name %q", common.ErrInvalidArgument, trimmed)
	}
	return trimmed, nil
}

func equalID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Create adds a folder under parentID (nil for the root level). The acting
// owner must resolve to a known user and the parent, when given, must
// belong to them.
func (s *FolderService) Create(ctx context.Context, username, name string, parentID *int64) (*models.Folder, error) {
	trimmed, err := cleanFolderName(name)
	if err != nil {
		return nil, err
	}

	var created *models.Folder
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userRepo := s.repomanager.Users(tx)
		folderRepo := s.repomanager.Folders(tx)

		owner, err := userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}

		if parentID != nil {
			if _, err := folderRepo.GetByIDAndOwner(ctx, *parentID, username); err != nil {
				return err
			}
		}

		exists, err := folderRepo.SiblingNameExists(ctx, username, parentID, trimmed)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrConflict
		}

		created, err = folderRepo.Create(ctx, &models.Folder{
			OwnerID:   owner.ID,
			ParentID:  parentID,
			Name:      trimmed,
			CreatedAt: s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListChildren lists the direct children of parentID (nil for the root
// level), creation-time ascending. Callers re-sort in memory via
// SortFolders when another order is wanted.
func (s *FolderService) ListChildren(ctx context.Context, username string, parentID *int64) ([]*models.Folder, error) {
	folderRepo := s.repomanager.Folders(s.db)

	if parentID != nil {
		if _, err := folderRepo.GetByIDAndOwner(ctx, *parentID, username); err != nil {
			return nil, err
		}
	}

	return folderRepo.ListChildren(ctx, username, parentID)
}

// GetTree returns the owner's full folder forest. All folders are fetched
// in one pass, a node is built per row, then a second pass links children
// to parents by id. A folder whose parent is missing from the fetched set
// is treated as a root.
func (s *FolderService) GetTree(ctx context.Context, username string) ([]*models.FolderTreeNode, error) {
	all, err := s.repomanager.Folders(s.db).ListAllByOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*models.FolderTreeNode, len(all))
	for _, f := range all {
		nodes[f.ID] = &models.FolderTreeNode{
			ID:        f.ID,
			Name:      f.Name,
			ParentID:  f.ParentID,
			CreatedAt: f.CreatedAt,
			Children:  []*models.FolderTreeNode{},
		}
	}

	roots := make([]*models.FolderTreeNode, 0, len(all))
	for _, f := range all {
		node := nodes[f.ID]
		if f.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*f.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots, nil
}

// Rename changes a folder's name in place. Renaming to the current name is
// a no-op that skips the uniqueness check and the write.
func (s *FolderService) Rename(ctx context.Context, username string, folderID int64, newName string) (*models.Folder, error) {
	trimmed, err := cleanFolderName(newName)
	if err != nil {
		return nil, err
	}

	var renamed *models.Folder
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		folderRepo := s.repomanager.Folders(tx)

		folder, err := folderRepo.GetByIDAndOwner(ctx, folderID, username)
		if err != nil {
			return err
		}

		if trimmed == folder.Name {
			renamed = folder
			return nil
		}

		exists, err := folderRepo.SiblingNameExists(ctx, username, folder.ParentID, trimmed)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrConflict
		}

		if err := folderRepo.UpdateName(ctx, folder.ID, trimmed); err != nil {
			return err
		}
		folder.Name = trimmed
		renamed = folder
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// Move reparents a folder under newParentID (nil for the root level).
// Moving a folder into itself or any of its descendants is rejected;
// moving it to its current parent is a no-op.
func (s *FolderService) Move(ctx context.Context, username string, folderID int64, newParentID *int64) (*models.Folder, error) {
	var moved *models.Folder
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		folderRepo := s.repomanager.Folders(tx)

		folder, err := folderRepo.GetByIDAndOwner(ctx, folderID, username)
		if err != nil {
			return err
		}

		if newParentID != nil {
			target, err := folderRepo.GetByIDAndOwner(ctx, *newParentID, username)
			if err != nil {
				return err
			}

			// Walk the target's ancestor chain upward, re-fetching parent
			// keys row by row; finding the moved folder there (the target
			// included) would create a cycle. The walk terminates at the
			// first nil parent.
			for cursor := target; ; {
				if cursor.ID == folder.ID {
					return fmt.Errorf("%w: cannot move folder into itself or its descendant", common.ErrInvalidArgument)
				}
				if cursor.ParentID == nil {
					break
				}
				cursor, err = folderRepo.GetByIDAndOwner(ctx, *cursor.ParentID, username)
				if err != nil {
					return err
				}
			}
		}

		if equalID(folder.ParentID, newParentID) {
			moved = folder
			return nil
		}

		exists, err := folderRepo.SiblingNameExists(ctx, username, newParentID, folder.Name)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrConflict
		}

		if err := folderRepo.UpdateParent(ctx, folder.ID, newParentID); err != nil {
			return err
		}
		folder.ParentID = newParentID
		moved = folder
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Delete removes a folder with its whole subtree. Blobs of all files in the
// subtree are removed first, best-effort; the root row delete then cascades
// to descendant folders, files and shares. A crash between the two steps
// can leave metadata referencing a deleted blob, never the reverse.
func (s *FolderService) Delete(ctx context.Context, username string, folderID int64) error {
	folderRepo := s.repomanager.Folders(s.db)
	fileRepo := s.repomanager.Files(s.db)

	ids, err := folderRepo.SubtreeIDs(ctx, username, folderID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return common.ErrNotFound
	}

	keys, err := fileRepo.StorageKeysInFolders(ctx, username, ids)
	if err != nil {
		return err
	}

	// One stuck blob must not block the rest of the cleanup; failures are
	// logged and skipped, leaving an orphan for the out-of-band sweep.
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn(ctx, "blob delete failed during folder delete",
				"storage_key", key, "error", err)
		}
	}

	affected, err := folderRepo.DeleteOwnedRoot(ctx, username, folderID)
	if err != nil {
		return err
	}
	if affected == 0 {
		// Concurrent delete won the race.
		return common.ErrNotFound
	}
	return nil
}

// GetPath returns the breadcrumb from the root ancestor down to the folder,
// the folder itself last. Parent keys are re-fetched iteratively, bounding
// the walk by the actual tree depth.
func (s *FolderService) GetPath(ctx context.Context, username string, folderID int64) ([]*models.FolderPathItem, error) {
	folderRepo := s.repomanager.Folders(s.db)

	current, err := folderRepo.GetByIDAndOwner(ctx, folderID, username)
	if err != nil {
		return nil, err
	}

	var path []*models.FolderPathItem
	for {
		path = append([]*models.FolderPathItem{{ID: current.ID, Name: current.Name}}, path...)
		if current.ParentID == nil {
			return path, nil
		}
		current, err = folderRepo.GetByIDAndOwner(ctx, *current.ParentID, username)
		if err != nil {
			return nil, err
		}
	}
}
