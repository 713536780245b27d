package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dbelyaev/cloudstash/internal/common"
	"github.com/dbelyaev/cloudstash/internal/dbx"
	"github.com/dbelyaev/cloudstash/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// isUniqueViolation matches the sibling-name constraint firing, under pgx
// (SQLSTATE 23505) and under the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts a folder row. The sibling-uniqueness constraint is the
// race backstop behind the service-level check: a concurrent duplicate
// surfaces here as common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query := `
		INSERT INTO folders (owner_id, parent_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		folder.OwnerID, folder.ParentID, folder.Name, folder.CreatedAt).Scan(&folder.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id int64, username string) (*models.Folder, error) {
	query := `
		SELECT f.id, f.owner_id, f.parent_id, f.name, f.created_at
		FROM folders f
		JOIN users u ON u.id = f.owner_id
		WHERE f.id = $1 AND u.username = $2
	`

	folder := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, id, username).Scan(
		&folder.ID, &folder.OwnerID, &folder.ParentID, &folder.Name, &folder.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

func (r *PostgresRepository) ListChildren(ctx context.Context, username string, parentID *int64) ([]*models.Folder, error) {
	var rows *sql.Rows
	var err error

	if parentID == nil {
		query := `
			SELECT f.id, f.owner_id, f.parent_id, f.name, f.created_at
			FROM folders f
			JOIN users u ON u.id = f.owner_id
			WHERE u.username = $1 AND f.parent_id IS NULL
			ORDER BY f.created_at ASC, f.id ASC
		`
		rows, err = r.db.QueryContext(ctx, query, username)
	} else {
		query := `
			SELECT f.id, f.owner_id, f.parent_id, f.name, f.created_at
			FROM folders f
			JOIN users u ON u.id = f.owner_id
			WHERE u.username = $1 AND f.parent_id = $2
			ORDER BY f.created_at ASC, f.id ASC
		`
		rows, err = r.db.QueryContext(ctx, query, username, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

func (r *PostgresRepository) ListAllByOwner(ctx context.Context, username string) ([]*models.Folder, error) {
	query := `
		SELECT f.id, f.owner_id, f.parent_id, f.name, f.created_at
		FROM folders f
		JOIN users u ON u.id = f.owner_id
		WHERE u.username = $1
		ORDER BY f.created_at ASC, f.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

func (r *PostgresRepository) SiblingNameExists(ctx context.Context, username string, parentID *int64, name string) (bool, error) {
	var err error
	var n int

	if parentID == nil {
		query := `
			SELECT COUNT(*) FROM folders f
			JOIN users u ON u.id = f.owner_id
			WHERE u.username = $1 AND f.parent_id IS NULL AND f.name = $2
		`
		err = r.db.QueryRowContext(ctx, query, username, name).Scan(&n)
	} else {
		query := `
			SELECT COUNT(*) FROM folders f
			JOIN users u ON u.id = f.owner_id
			WHERE u.username = $1 AND f.parent_id = $2 AND f.name = $3
		`
		err = r.db.QueryRowContext(ctx, query, username, *parentID, name).Scan(&n)
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n > 0, nil
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id int64, name string) error {
	query := `UPDATE folders SET name = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("failed to rename folder: %w", err)
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

func (r *PostgresRepository) UpdateParent(ctx context.Context, id int64, parentID *int64) error {
	query := `UPDATE folders SET parent_id = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, parentID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("failed to reparent folder: %w", err)
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

func (r *PostgresRepository) SubtreeIDs(ctx context.Context, username string, rootID int64) ([]int64, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT f.id FROM folders f
			JOIN users u ON u.id = f.owner_id
			WHERE f.id = $1 AND u.username = $2
			UNION ALL
			SELECT c.id FROM folders c
			JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree
	`

	rows, err := r.db.QueryContext(ctx, query, rootID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subtree: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresRepository) DeleteOwnedRoot(ctx context.Context, username string, id int64) (int64, error) {
	query := `
		DELETE FROM folders
		WHERE id = $1 AND owner_id = (SELECT id FROM users WHERE username = $2)
	`

	result, err := r.db.ExecContext(ctx, query, id, username)
	if err != nil {
		return 0, fmt.Errorf("failed to delete folder: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return ra, nil
}

func scanFolders(rows *sql.Rows) ([]*models.Folder, error) {
	var result []*models.Folder
	for rows.Next() {
		var item models.Folder
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.ParentID, &item.Name, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
