package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dbelyaev/cloudstash/internal/blob"
	"github.com/dbelyaev/cloudstash/internal/common"
	"github.com/dbelyaev/cloudstash/internal/dbx"
	"github.com/dbelyaev/cloudstash/internal/logging"
	"github.com/dbelyaev/cloudstash/internal/server/models"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/repomanager"
)

// UploadInput carries the byte source handed over by the transport layer
// together with the client-supplied metadata.
type UploadInput struct {
	Content     io.Reader
	FileName    string
	ContentType string
	SizeBytes   int64
}

// FileService coordinates file metadata rows with blob-store content.
// The two stores are not updated atomically; the ordering of every
// operation is chosen so that a crash can only leave orphan blobs,
// never metadata pointing at bytes that were supposed to exist.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	logger      logging.Logger
	now         func() time.Time
}

func NewFileService(db *sql.DB, rm repomanager.RepositoryManager, blobs blob.Store, logger logging.Logger) *FileService {
	return &FileService{db: db, repomanager: rm, blobs: blobs, logger: logger, now: time.Now}
}

// NewStorageKey returns a fresh blob key: 32 hex characters derived from a
// random UUID, carrying no trace of the original file name.
func NewStorageKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// openDownload resolves a metadata row to its blob content. A missing or
// unreadable blob maps to ErrUnavailable: the row exists, the bytes do not.
func openDownload(ctx context.Context, blobs blob.Store, file *models.StoredFile) (*models.FileDownload, error) {
	rc, err := blobs.Get(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrBlobNotFound) {
			return nil, fmt.Errorf("%w: blob %s is missing", common.ErrUnavailable, file.StorageKey)
		}
		return nil, fmt.Errorf("%w: reading blob %s: %v", common.ErrUnavailable, file.StorageKey, err)
	}

	return &models.FileDownload{
		Content:     rc,
		FileName:    file.OriginalName,
		ContentType: file.ContentType,
		SizeBytes:   file.SizeBytes,
	}, nil
}

// Upload stores the content under a fresh storage key and records the
// metadata row. The blob is written first; if the row insert then fails
// the blob stays behind as an orphan and the error is returned.
func (s *FileService) Upload(ctx context.Context, in UploadInput, username string, folderID *int64) (*models.StoredFile, error) {
	if in.Content == nil || in.SizeBytes <= 0 {
		return nil, fmt.Errorf("%w: empty file", common.ErrInvalidArgument)
	}

	userRepo := s.repomanager.Users(s.db)
	folderRepo := s.repomanager.Folders(s.db)
	fileRepo := s.repomanager.Files(s.db)

	owner, err := userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if folderID != nil {
		if _, err := folderRepo.GetByIDAndOwner(ctx, *folderID, username); err != nil {
			return nil, err
		}
	}

	key := NewStorageKey()
	if err := s.blobs.Put(ctx, key, in.Content, in.SizeBytes); err != nil {
		return nil, fmt.Errorf("%w: storing blob: %v", common.ErrInternal, err)
	}

	created, err := fileRepo.Create(ctx, &models.StoredFile{
		OwnerID:      owner.ID,
		FolderID:     folderID,
		OriginalName: in.FileName,
		StorageKey:   key,
		ContentType:  in.ContentType,
		SizeBytes:    in.SizeBytes,
		UploadedAt:   s.now().UTC(),
	})
	if err != nil {
		s.logger.Error(ctx, "file row insert failed after blob write, orphan blob left behind",
			"storage_key", key, "error", err)
		return nil, err
	}

	return created, nil
}

// List returns the owner's files in folderID (nil for the root level),
// newest upload first. The folder itself is not checked for existence;
// listing an unknown folder yields an empty result. Callers that need the
// distinction check the folder first.
func (s *FileService) List(ctx context.Context, username string, folderID *int64) ([]*models.StoredFile, error) {
	return s.repomanager.Files(s.db).List(ctx, username, folderID)
}

// ListAll returns every file the owner has, regardless of folder, newest
// upload first.
func (s *FileService) ListAll(ctx context.Context, username string) ([]*models.StoredFile, error) {
	return s.repomanager.Files(s.db).ListAllByOwner(ctx, username)
}

// GetFile opens the file's content for download. The caller owns the
// returned reader and must close it.
func (s *FileService) GetFile(ctx context.Context, id int64, username string) (*models.FileDownload, error) {
	file, err := s.repomanager.Files(s.db).GetByIDAndOwner(ctx, id, username)
	if err != nil {
		return nil, err
	}
	return openDownload(ctx, s.blobs, file)
}

// Move places the file into folderID (nil for the root level). The target
// folder must exist and belong to the owner; file names are not unique, so
// no sibling check applies.
func (s *FileService) Move(ctx context.Context, username string, fileID int64, folderID *int64) (*models.StoredFile, error) {
	var moved *models.StoredFile
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		fileRepo := s.repomanager.Files(tx)
		folderRepo := s.repomanager.Folders(tx)

		file, err := fileRepo.GetByIDAndOwner(ctx, fileID, username)
		if err != nil {
			return err
		}

		if folderID != nil {
			if _, err := folderRepo.GetByIDAndOwner(ctx, *folderID, username); err != nil {
				return err
			}
		}

		if err := fileRepo.UpdateFolder(ctx, file.ID, folderID); err != nil {
			return err
		}
		file.FolderID = folderID
		moved = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Delete removes the blob and then the metadata row. A blob-store failure
// is logged and swallowed so it cannot strand a row whose content is
// already unreachable.
func (s *FileService) Delete(ctx context.Context, id int64, username string) error {
	fileRepo := s.repomanager.Files(s.db)

	file, err := fileRepo.GetByIDAndOwner(ctx, id, username)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Warn(ctx, "blob delete failed, removing metadata anyway",
			"storage_key", file.StorageKey, "error", err)
	}

	return fileRepo.Delete(ctx, file.ID)
}
