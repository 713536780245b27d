package models

import "time"

// Folder is a node in an owner's folder tree. A nil ParentID means the
// folder sits at the root level. Sibling names are case-sensitively unique
// per (owner, parent); the services check first and a DB constraint backs
// the check up against races.
type Folder struct {
	ID        int64
	OwnerID   int64
	ParentID  *int64
	Name      string
	CreatedAt time.Time
}

// FolderTreeNode is an in-memory node of the folder forest returned by the
// tree operation. Children are linked by id after a single fetch of all of
// the owner's folders.
type FolderTreeNode struct {
	ID        int64
	Name      string
	ParentID  *int64
	CreatedAt time.Time
	Children  []*FolderTreeNode
}

// FolderPathItem is one breadcrumb on the path from a root folder down to a
// given folder, the folder itself included last.
type FolderPathItem struct {
	ID   int64
	Name string
}
