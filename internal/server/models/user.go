// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the owner identity scoping folders, files and shares. Ownership
// equality is the only authorization rule applied by the services.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}
