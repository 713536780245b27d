package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dbelyaev/cloudstash/internal/common"
	"github.com/dbelyaev/cloudstash/internal/dbx"
	"github.com/dbelyaev/cloudstash/internal/server/models"
)

// PostgresRepository implements file-metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error) {
	query := `
		INSERT INTO files (owner_id, folder_id, original_name, storage_key, content_type, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.FolderID, file.OriginalName, file.StorageKey,
		file.ContentType, file.SizeBytes, file.UploadedAt).Scan(&file.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id int64, username string) (*models.StoredFile, error) {
	query := `
		SELECT f.id, f.owner_id, f.folder_id, f.original_name, f.storage_key, f.content_type, f.size_bytes, f.uploaded_at
		FROM files f
		JOIN users u ON u.id = f.owner_id
		WHERE f.id = $1 AND u.username = $2
	`

	file := &models.StoredFile{}
	err := r.db.QueryRowContext(ctx, query, id, username).Scan(
		&file.ID, &file.OwnerID, &file.FolderID, &file.OriginalName,
		&file.StorageKey, &file.ContentType, &file.SizeBytes, &file.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.StoredFile, error) {
	query := `
		SELECT id, owner_id, folder_id, original_name, storage_key, content_type, size_bytes, uploaded_at
		FROM files
		WHERE id = $1
	`

	file := &models.StoredFile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.OwnerID, &file.FolderID, &file.OriginalName,
		&file.StorageKey, &file.ContentType, &file.SizeBytes, &file.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) List(ctx context.Context, username string, folderID *int64) ([]*models.StoredFile, error) {
	var rows *sql.Rows
	var err error

	if folderID == nil {
		query := `
			SELECT f.id, f.owner_id, f.folder_id, f.original_name, f.storage_key, f.content_type, f.size_bytes, f.uploaded_at
			FROM files f
			JOIN users u ON u.id = f.owner_id
			WHERE u.username = $1 AND f.folder_id IS NULL
			ORDER BY f.uploaded_at DESC, f.id DESC
		`
		rows, err = r.db.QueryContext(ctx, query, username)
	} else {
		query := `
			SELECT f.id, f.owner_id, f.folder_id, f.original_name, f.storage_key, f.content_type, f.size_bytes, f.uploaded_at
			FROM files f
			JOIN users u ON u.id = f.owner_id
			WHERE u.username = $1 AND f.folder_id = $2
			ORDER BY f.uploaded_at DESC, f.id DESC
		`
		rows, err = r.db.QueryContext(ctx, query, username, *folderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

func (r *PostgresRepository) ListAllByOwner(ctx context.Context, username string) ([]*models.StoredFile, error) {
	query := `
		SELECT f.id, f.owner_id, f.folder_id, f.original_name, f.storage_key, f.content_type, f.size_bytes, f.uploaded_at
		FROM files f
		JOIN users u ON u.id = f.owner_id
		WHERE u.username = $1
		ORDER BY f.uploaded_at DESC, f.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

func (r *PostgresRepository) StorageKeysInFolders(ctx context.Context, username string, folderIDs []int64) ([]string, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(folderIDs))
	args := make([]any, 0, len(folderIDs)+1)
	args = append(args, username)
	for i, id := range folderIDs {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT f.storage_key
		FROM files f
		JOIN users u ON u.id = f.owner_id
		WHERE u.username = $1 AND f.folder_id IN (%s)
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select storage keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *PostgresRepository) UpdateFolder(ctx context.Context, id int64, folderID *int64) error {
	query := `UPDATE files SET folder_id = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, folderID, id)
	if err != nil {
		return fmt.Errorf("failed to move file: %w", err)
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

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM files WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
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

func scanFiles(rows *sql.Rows) ([]*models.StoredFile, error) {
	var result []*models.StoredFile
	for rows.Next() {
		var item models.StoredFile
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.FolderID, &item.OriginalName,
			&item.StorageKey, &item.ContentType, &item.SizeBytes, &item.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
