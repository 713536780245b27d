package models

import "time"

// FileShare grants unauthenticated, time-bounded read access to one stored
// file via an opaque token. Token and ExpiresAt are fixed at creation;
// Revoked only ever flips from false to true.
type FileShare struct {
	ID        int64
	FileID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt *time.Time
	Revoked   bool
}
