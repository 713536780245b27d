package services

import (
	"fmt"
	"sort"

	"github.com/dbelyaev/cloudstash/internal/common"
	"github.com/dbelyaev/cloudstash/internal/server/models"
)

// SortField selects the attribute an in-memory re-sort uses. For files the
// creation time is the upload time.
type SortField string

const (
	SortByName      SortField = "name"
	SortByCreatedAt SortField = "createdAt"
)

// SortFolders returns a sorted copy of items; the input slice is left
// untouched. The sort is stable, so rows equal under the chosen field keep
// their repository order.
func SortFolders(items []*models.Folder, field SortField, asc bool) ([]*models.Folder, error) {
	var less func(a, b *models.Folder) bool
	switch field {
	case SortByName:
		less = func(a, b *models.Folder) bool { return a.Name < b.Name }
	case SortByCreatedAt:
		less = func(a, b *models.Folder) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return nil, fmt.Errorf("%w: unsupported sort field %q", common.ErrInvalidArgument, field)
	}

	sorted := make([]*models.Folder, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if asc {
			return less(sorted[i], sorted[j])
		}
		return less(sorted[j], sorted[i])
	})
	return sorted, nil
}

// SortFiles is the file counterpart of SortFolders, comparing original
// names or upload times.
func SortFiles(items []*models.StoredFile, field SortField, asc bool) ([]*models.StoredFile, error) {
	var less func(a, b *models.StoredFile) bool
	switch field {
	case SortByName:
		less = func(a, b *models.StoredFile) bool { return a.OriginalName < b.OriginalName }
	case SortByCreatedAt:
		less = func(a, b *models.StoredFile) bool { return a.UploadedAt.Before(b.UploadedAt) }
	default:
		return nil, fmt.Errorf("%w: unsupported sort field %q", common.ErrInvalidArgument, field)
	}

	sorted := make([]*models.StoredFile, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if asc {
			return less(sorted[i], sorted[j])
		}
		return less(sorted[j], sorted[i])
	})
	return sorted, nil
}
