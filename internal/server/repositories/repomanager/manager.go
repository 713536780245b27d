// Package repomanager hands out per-entity repositories bound to a DBTX,
// so services can run several repositories inside one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dbelyaev/cloudstash/internal/dbx"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/files"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/folders"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/shares"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
	Shares(db dbx.DBTX) shares.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
