package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dbelyaev/cloudstash/internal/blob"
	"github.com/dbelyaev/cloudstash/internal/common"
	"github.com/dbelyaev/cloudstash/internal/server/models"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/repomanager"
)

// 16 random bytes, 32 hex characters on the wire.
const shareTokenBytes = 16

// ShareService mints and resolves public download tokens. Creation and
// revocation require the file's owner; resolution is unauthenticated and
// the token is the whole capability.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	now         func() time.Time
}

func NewShareService(db *sql.DB, rm repomanager.RepositoryManager, blobs blob.Store) *ShareService {
	return &ShareService{db: db, repomanager: rm, blobs: blobs, now: time.Now}
}

// CreateShare mints a token for the owner's file. expiresAt is optional;
// when given it must lie in the future. Several live shares per file are
// allowed.
func (s *ShareService) CreateShare(ctx context.Context, username string, fileID int64, expiresAt *time.Time) (*models.FileShare, error) {
	fileRepo := s.repomanager.Files(s.db)
	shareRepo := s.repomanager.Shares(s.db)

	file, err := fileRepo.GetByIDAndOwner(ctx, fileID, username)
	if err != nil {
		return nil, err
	}

	if expiresAt != nil && !expiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", common.ErrInvalidArgument)
	}

	token, err := common.MakeRandHexString(shareTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: generating share token: %v", common.ErrInternal, err)
	}

	return shareRepo.Create(ctx, &models.FileShare{
		FileID:    file.ID,
		Token:     token,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expiresAt,
	})
}

// ListSharesForFile returns all shares of the owner's file, live or not,
// newest first.
func (s *ShareService) ListSharesForFile(ctx context.Context, username string, fileID int64) ([]*models.FileShare, error) {
	if _, err := s.repomanager.Files(s.db).GetByIDAndOwner(ctx, fileID, username); err != nil {
		return nil, err
	}
	return s.repomanager.Shares(s.db).ListByFileAndOwner(ctx, fileID, username)
}

// Revoke permanently disables a share. Revoking an already-revoked share
// succeeds without effect; there is no un-revoke.
func (s *ShareService) Revoke(ctx context.Context, username string, shareID int64) error {
	shareRepo := s.repomanager.Shares(s.db)

	share, err := shareRepo.GetByIDAndFileOwner(ctx, shareID, username)
	if err != nil {
		return err
	}
	if share.Revoked {
		return nil
	}
	return shareRepo.MarkRevoked(ctx, share.ID)
}

// ResolvePublicDownload exchanges a token for the shared file's content.
// Revocation is checked before expiry, so a share that is both revoked and
// expired reports ErrShareRevoked.
func (s *ShareService) ResolvePublicDownload(ctx context.Context, token string) (*models.FileDownload, error) {
	share, err := s.repomanager.Shares(s.db).GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if share.Revoked {
		return nil, common.ErrShareRevoked
	}
	if share.ExpiresAt != nil && !share.ExpiresAt.After(s.now()) {
		return nil, common.ErrShareExpired
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, share.FileID)
	if err != nil {
		return nil, err
	}

	return openDownload(ctx, s.blobs, file)
}
