package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbelyaev/cloudstash/internal/blob"
	"github.com/dbelyaev/cloudstash/internal/common"
)

func TestFolderService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("creates at root level", func(t *testing.T) {
		folder, err := env.folders.Create(ctx, "alice", "Documents", nil)
		require.NoError(t, err)
		assert.NotZero(t, folder.ID)
		assert.Nil(t, folder.ParentID)
		assert.Equal(t, "Documents", folder.Name)
	})

	t.Run("creates nested and trims the name", func(t *testing.T) {
		parent := env.mustCreateFolder(t, "alice", "Photos", nil)

		child, err := env.folders.Create(ctx, "alice", "  Trips  ", ptr(parent.ID))
		require.NoError(t, err)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, parent.ID, *child.ParentID)
		assert.Equal(t, "Trips", child.Name)
	})

	t.Run("rejects empty and invalid names", func(t *testing.T) {
		for _, name := range []string{"", "   ", "a/b", `a\b`, ".", ".."} {
			_, err := env.folders.Create(ctx, "alice", name, nil)
			assert.ErrorIs(t, err, common.ErrInvalidArgument, "name %q", name)
		}
	})

	t.Run("duplicate sibling name conflicts", func(t *testing.T) {
		parent := env.mustCreateFolder(t, "alice", "Music", nil)
		env.mustCreateFolder(t, "alice", "Rock", ptr(parent.ID))

		_, err := env.folders.Create(ctx, "alice", "Rock", ptr(parent.ID))
		assert.ErrorIs(t, err, common.ErrConflict)

		// a trimmed duplicate is still a duplicate
		_, err = env.folders.Create(ctx, "alice", " Rock ", ptr(parent.ID))
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("same name allowed under different parents", func(t *testing.T) {
		a := env.mustCreateFolder(t, "alice", "ParentA", nil)
		b := env.mustCreateFolder(t, "alice", "ParentB", nil)

		_, err := env.folders.Create(ctx, "alice", "Shared", ptr(a.ID))
		require.NoError(t, err)
		_, err = env.folders.Create(ctx, "alice", "Shared", ptr(b.ID))
		require.NoError(t, err)
	})

	t.Run("same name allowed for different owners", func(t *testing.T) {
		_, err := env.folders.Create(ctx, "alice", "Inbox", nil)
		require.NoError(t, err)
		_, err = env.folders.Create(ctx, "bob", "Inbox", nil)
		require.NoError(t, err)
	})

	t.Run("unknown parent is not found", func(t *testing.T) {
		_, err := env.folders.Create(ctx, "alice", "Orphan", ptr(99999))
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("another owner's parent is not found", func(t *testing.T) {
		bobs := env.mustCreateFolder(t, "bob", "Private", nil)

		_, err := env.folders.Create(ctx, "alice", "Sneaky", ptr(bobs.ID))
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("unknown owner is not found", func(t *testing.T) {
		_, err := env.folders.Create(ctx, "mallory", "Anything", nil)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestFolderService_ListChildren(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustCreateFolder(t, "alice", "Root", nil)
	first := env.mustCreateFolder(t, "alice", "B-first", ptr(root.ID))
	second := env.mustCreateFolder(t, "alice", "A-second", ptr(root.ID))

	t.Run("orders by creation time ascending", func(t *testing.T) {
		children, err := env.folders.ListChildren(ctx, "alice", ptr(root.ID))
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, first.ID, children[0].ID)
		assert.Equal(t, second.ID, children[1].ID)
	})

	t.Run("nil parent lists the root level", func(t *testing.T) {
		rootLevel, err := env.folders.ListChildren(ctx, "alice", nil)
		require.NoError(t, err)
		require.Len(t, rootLevel, 1)
		assert.Equal(t, root.ID, rootLevel[0].ID)
	})

	t.Run("empty folder yields empty list", func(t *testing.T) {
		children, err := env.folders.ListChildren(ctx, "alice", ptr(first.ID))
		require.NoError(t, err)
		assert.Empty(t, children)
	})

	t.Run("unknown parent is not found", func(t *testing.T) {
		_, err := env.folders.ListChildren(ctx, "alice", ptr(99999))
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		rootLevel, err := env.folders.ListChildren(ctx, "bob", nil)
		require.NoError(t, err)
		assert.Empty(t, rootLevel)
	})
}

func TestFolderService_GetTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	//	RootA
	//	  Child1
	//	    Grand
	//	  Child2
	//	RootB
	rootA := env.mustCreateFolder(t, "alice", "RootA", nil)
	child1 := env.mustCreateFolder(t, "alice", "Child1", ptr(rootA.ID))
	child2 := env.mustCreateFolder(t, "alice", "Child2", ptr(rootA.ID))
	grand := env.mustCreateFolder(t, "alice", "Grand", ptr(child1.ID))
	rootB := env.mustCreateFolder(t, "alice", "RootB", nil)

	tree, err := env.folders.GetTree(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, tree, 2)

	assert.Equal(t, rootA.ID, tree[0].ID)
	assert.Equal(t, rootB.ID, tree[1].ID)

	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, child1.ID, tree[0].Children[0].ID)
	assert.Equal(t, child2.ID, tree[0].Children[1].ID)

	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, grand.ID, tree[0].Children[0].Children[0].ID)
	assert.Empty(t, tree[0].Children[0].Children[0].Children)

	t.Run("empty forest for fresh owner", func(t *testing.T) {
		tree, err := env.folders.GetTree(ctx, "bob")
		require.NoError(t, err)
		assert.Empty(t, tree)
	})
}

func TestFolderService_Rename(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("renames within the same parent", func(t *testing.T) {
		folder := env.mustCreateFolder(t, "alice", "Old", nil)

		renamed, err := env.folders.Rename(ctx, "alice", folder.ID, " New ")
		require.NoError(t, err)
		assert.Equal(t, "New", renamed.Name)

		got, err := env.folders.ListChildren(ctx, "alice", nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "New", got[0].Name)
	})

	t.Run("same name is a silent no-op", func(t *testing.T) {
		folder := env.mustCreateFolder(t, "alice", "Keep", nil)

		renamed, err := env.folders.Rename(ctx, "alice", folder.ID, "Keep")
		require.NoError(t, err)
		assert.Equal(t, "Keep", renamed.Name)
	})

	t.Run("sibling name collision conflicts", func(t *testing.T) {
		env.mustCreateFolder(t, "alice", "Taken", nil)
		folder := env.mustCreateFolder(t, "alice", "Free", nil)

		_, err := env.folders.Rename(ctx, "alice", folder.ID, "Taken")
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("unknown folder is not found", func(t *testing.T) {
		_, err := env.folders.Rename(ctx, "alice", 99999, "Whatever")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("other owner's folder is not found", func(t *testing.T) {
		bobs := env.mustCreateFolder(t, "bob", "Bobs", nil)

		_, err := env.folders.Rename(ctx, "alice", bobs.ID, "Mine")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestFolderService_Move(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("moves under a new parent and back to root", func(t *testing.T) {
		src := env.mustCreateFolder(t, "alice", "Src", nil)
		dst := env.mustCreateFolder(t, "alice", "Dst", nil)

		moved, err := env.folders.Move(ctx, "alice", src.ID, ptr(dst.ID))
		require.NoError(t, err)
		require.NotNil(t, moved.ParentID)
		assert.Equal(t, dst.ID, *moved.ParentID)

		moved, err = env.folders.Move(ctx, "alice", src.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, moved.ParentID)
	})

	t.Run("same parent is a silent no-op", func(t *testing.T) {
		parent := env.mustCreateFolder(t, "alice", "NoopParent", nil)
		child := env.mustCreateFolder(t, "alice", "NoopChild", ptr(parent.ID))

		moved, err := env.folders.Move(ctx, "alice", child.ID, ptr(parent.ID))
		require.NoError(t, err)
		require.NotNil(t, moved.ParentID)
		assert.Equal(t, parent.ID, *moved.ParentID)
	})

	t.Run("into itself is rejected", func(t *testing.T) {
		folder := env.mustCreateFolder(t, "alice", "Selfish", nil)

		_, err := env.folders.Move(ctx, "alice", folder.ID, ptr(folder.ID))
		assert.ErrorIs(t, err, common.ErrInvalidArgument)
	})

	t.Run("into a transitive descendant is rejected", func(t *testing.T) {
		top := env.mustCreateFolder(t, "alice", "Top", nil)
		mid := env.mustCreateFolder(t, "alice", "Mid", ptr(top.ID))
		leaf := env.mustCreateFolder(t, "alice", "Leaf", ptr(mid.ID))

		_, err := env.folders.Move(ctx, "alice", top.ID, ptr(leaf.ID))
		assert.ErrorIs(t, err, common.ErrInvalidArgument)
	})

	t.Run("sibling name collision at target conflicts", func(t *testing.T) {
		dst := env.mustCreateFolder(t, "alice", "Target", nil)
		env.mustCreateFolder(t, "alice", "Clash", ptr(dst.ID))
		mover := env.mustCreateFolder(t, "alice", "Clash", nil)

		_, err := env.folders.Move(ctx, "alice", mover.ID, ptr(dst.ID))
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("unknown target parent is not found", func(t *testing.T) {
		folder := env.mustCreateFolder(t, "alice", "Homeless", nil)

		_, err := env.folders.Move(ctx, "alice", folder.ID, ptr(99999))
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("target owned by someone else is not found", func(t *testing.T) {
		mine := env.mustCreateFolder(t, "alice", "Mine", nil)
		theirs := env.mustCreateFolder(t, "bob", "Theirs", nil)

		_, err := env.folders.Move(ctx, "alice", mine.ID, ptr(theirs.ID))
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestFolderService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("removes the whole subtree with files and blobs", func(t *testing.T) {
		root := env.mustCreateFolder(t, "alice", "DeleteMe", nil)
		sub := env.mustCreateFolder(t, "alice", "Sub", ptr(root.ID))
		keep := env.mustCreateFolder(t, "alice", "KeepMe", nil)

		inRoot := env.mustUpload(t, "alice", "a.txt", "root content", ptr(root.ID))
		inSub := env.mustUpload(t, "alice", "b.txt", "sub content", ptr(sub.ID))
		kept := env.mustUpload(t, "alice", "c.txt", "kept content", ptr(keep.ID))

		require.NoError(t, env.folders.Delete(ctx, "alice", root.ID))

		_, err := env.folders.ListChildren(ctx, "alice", ptr(root.ID))
		assert.ErrorIs(t, err, common.ErrNotFound)
		_, err = env.folders.ListChildren(ctx, "alice", ptr(sub.ID))
		assert.ErrorIs(t, err, common.ErrNotFound)

		// blobs of the subtree are gone, the unrelated one survives
		_, err = env.blobs.Get(ctx, inRoot.StorageKey)
		assert.ErrorIs(t, err, blob.ErrBlobNotFound)
		_, err = env.blobs.Get(ctx, inSub.StorageKey)
		assert.ErrorIs(t, err, blob.ErrBlobNotFound)

		download, err := env.files.GetFile(ctx, kept.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, "kept content", readAll(t, download))
	})

	t.Run("delete proceeds when a blob is already gone", func(t *testing.T) {
		folder := env.mustCreateFolder(t, "alice", "HalfGone", nil)
		file := env.mustUpload(t, "alice", "gone.txt", "bytes", ptr(folder.ID))

		require.NoError(t, env.blobs.Delete(ctx, file.StorageKey))
		require.NoError(t, env.folders.Delete(ctx, "alice", folder.ID))
	})

	t.Run("unknown folder is not found", func(t *testing.T) {
		err := env.folders.Delete(ctx, "alice", 99999)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("other owner's folder is not found", func(t *testing.T) {
		bobs := env.mustCreateFolder(t, "bob", "BobsToDelete", nil)

		err := env.folders.Delete(ctx, "alice", bobs.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)

		// still there for bob
		_, err = env.folders.GetPath(ctx, "bob", bobs.ID)
		require.NoError(t, err)
	})
}

func TestFolderService_GetPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustCreateFolder(t, "alice", "Top", nil)
	mid := env.mustCreateFolder(t, "alice", "Middle", ptr(root.ID))
	leaf := env.mustCreateFolder(t, "alice", "Bottom", ptr(mid.ID))

	t.Run("breadcrumb runs root to leaf", func(t *testing.T) {
		path, err := env.folders.GetPath(ctx, "alice", leaf.ID)
		require.NoError(t, err)
		require.Len(t, path, 3)
		assert.Equal(t, "Top", path[0].Name)
		assert.Equal(t, "Middle", path[1].Name)
		assert.Equal(t, "Bottom", path[2].Name)
	})

	t.Run("root folder is its own path", func(t *testing.T) {
		path, err := env.folders.GetPath(ctx, "alice", root.ID)
		require.NoError(t, err)
		require.Len(t, path, 1)
		assert.Equal(t, root.ID, path[0].ID)
	})

	t.Run("unknown folder is not found", func(t *testing.T) {
		_, err := env.folders.GetPath(ctx, "alice", 99999)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestCleanFolderName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Photos", want: "Photos"},
		{in: "  Photos  ", want: "Photos"},
		{in: "with space", want: "with space"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "a/b", wantErr: true},
		{in: `a\b`, wantErr: true},
		{in: ".", wantErr: true},
		{in: "..", wantErr: true},
		{in: "...", want: "..."},
	}

	for _, tt := range tests {
		got, err := cleanFolderName(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, common.ErrInvalidArgument), "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}
