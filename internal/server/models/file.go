package models

import (
	"io"
	"time"
)

// StoredFile describes metadata for an uploaded file. The bytes themselves
// live in the blob store under StorageKey, which is generated at upload
// time, is unrelated to OriginalName and never changes for the life of the
// record.
type StoredFile struct {
	ID           int64
	OwnerID      int64
	FolderID     *int64 // nil means root level
	OriginalName string
	StorageKey   string
	ContentType  string
	SizeBytes    int64
	UploadedAt   time.Time
}

// FileDownload bundles a readable blob handle with the display metadata a
// transport layer needs to serve the bytes. The caller must close Content.
type FileDownload struct {
	Content     io.ReadCloser
	FileName    string
	ContentType string
	SizeBytes   int64
}
