package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dbelyaev/cloudstash/internal/blob"
	"github.com/dbelyaev/cloudstash/internal/logging"
	"github.com/dbelyaev/cloudstash/internal/server/models"
	"github.com/dbelyaev/cloudstash/internal/server/repositories/repomanager"
)

// The service tests run against an in-memory SQLite database with a schema
// mirroring the Postgres migration. SQLite's $N parameters, RETURNING
// clause and recursive CTEs line up with the queries the repositories
// issue; the sibling-uniqueness constraint is expressed as a unique index
// over IFNULL(parent_id, 0) because SQLite treats NULLs as distinct.
const testSchema = `
	PRAGMA foreign_keys = ON;

	CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE folders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		parent_id INTEGER REFERENCES folders(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE UNIQUE INDEX ux_folders_sibling_name ON folders (owner_id, IFNULL(parent_id, 0), name);

	CREATE TABLE files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		folder_id INTEGER REFERENCES folders(id) ON DELETE CASCADE,
		original_name TEXT NOT NULL,
		storage_key TEXT NOT NULL UNIQUE,
		content_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		uploaded_at TIMESTAMP NOT NULL
	);

	CREATE TABLE file_shares (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP,
		revoked BOOLEAN NOT NULL DEFAULT FALSE
	);
`

// fakeClock stands in for time.Now so expiry and ordering tests control
// the timeline.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	db      *sql.DB
	blobs   blob.Store
	clock   *fakeClock
	folders *FolderService
	files   *FileService
	shares  *ShareService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// a second pool connection would see an empty in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rm := repomanager.NewPostgresRepositoryManager()
	clock := newFakeClock()

	folderSvc := NewFolderService(db, rm, store, logger)
	folderSvc.now = clock.Now
	fileSvc := NewFileService(db, rm, store, logger)
	fileSvc.now = clock.Now
	shareSvc := NewShareService(db, rm, store)
	shareSvc.now = clock.Now

	env := &testEnv{
		db:      db,
		blobs:   store,
		clock:   clock,
		folders: folderSvc,
		files:   fileSvc,
		shares:  shareSvc,
	}
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")
	return env
}

func (e *testEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	rm := repomanager.NewPostgresRepositoryManager()
	user, err := rm.Users(e.db).Create(context.Background(), &models.User{
		Username:  username,
		CreatedAt: e.clock.Now(),
	})
	require.NoError(t, err)
	return user
}

// mustCreateFolder is a test shorthand; it advances the clock so sibling
// rows never share a creation time.
func (e *testEnv) mustCreateFolder(t *testing.T, username, name string, parentID *int64) *models.Folder {
	t.Helper()
	folder, err := e.folders.Create(context.Background(), username, name, parentID)
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	return folder
}

func (e *testEnv) mustUpload(t *testing.T, username, name, content string, folderID *int64) *models.StoredFile {
	t.Helper()
	file, err := e.files.Upload(context.Background(), UploadInput{
		Content:     strings.NewReader(content),
		FileName:    name,
		ContentType: "text/plain",
		SizeBytes:   int64(len(content)),
	}, username, folderID)
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	return file
}

func ptr(v int64) *int64 { return &v }

func readAll(t *testing.T, d *models.FileDownload) string {
	t.Helper()
	defer d.Content.Close()
	b, err := io.ReadAll(d.Content)
	require.NoError(t, err)
	return string(b)
}
