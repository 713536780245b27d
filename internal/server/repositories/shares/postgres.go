package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dbelyaev/cloudstash/internal/common"
	"github.com/dbelyaev/cloudstash/internal/dbx"
	"github.com/dbelyaev/cloudstash/internal/server/models"
)

// PostgresRepository implements share storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, share *models.FileShare) (*models.FileShare, error) {
	query := `
		INSERT INTO file_shares (file_id, token, created_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		share.FileID, share.Token, share.CreatedAt, share.ExpiresAt, share.Revoked).Scan(&share.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return share, nil
}

func (r *PostgresRepository) GetByIDAndFileOwner(ctx context.Context, id int64, username string) (*models.FileShare, error) {
	query := `
		SELECT s.id, s.file_id, s.token, s.created_at, s.expires_at, s.revoked
		FROM file_shares s
		JOIN files f ON f.id = s.file_id
		JOIN users u ON u.id = f.owner_id
		WHERE s.id = $1 AND u.username = $2
	`

	share := &models.FileShare{}
	err := r.db.QueryRowContext(ctx, query, id, username).Scan(
		&share.ID, &share.FileID, &share.Token, &share.CreatedAt, &share.ExpiresAt, &share.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return share, nil
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.FileShare, error) {
	query := `
		SELECT id, file_id, token, created_at, expires_at, revoked
		FROM file_shares
		WHERE token = $1
	`

	share := &models.FileShare{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&share.ID, &share.FileID, &share.Token, &share.CreatedAt, &share.ExpiresAt, &share.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return share, nil
}

func (r *PostgresRepository) ListByFileAndOwner(ctx context.Context, fileID int64, username string) ([]*models.FileShare, error) {
	query := `
		SELECT s.id, s.file_id, s.token, s.created_at, s.expires_at, s.revoked
		FROM file_shares s
		JOIN files f ON f.id = s.file_id
		JOIN users u ON u.id = f.owner_id
		WHERE s.file_id = $1 AND u.username = $2
		ORDER BY s.created_at DESC, s.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, fileID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to select shares: %w", err)
	}
	defer rows.Close()

	var result []*models.FileShare
	for rows.Next() {
		var item models.FileShare
		if err := rows.Scan(&item.ID, &item.FileID, &item.Token,
			&item.CreatedAt, &item.ExpiresAt, &item.Revoked); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkRevoked(ctx context.Context, id int64) error {
	query := `UPDATE file_shares SET revoked = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke share: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}
