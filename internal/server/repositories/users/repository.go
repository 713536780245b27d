package users

import (
	"context"

	"github.com/dbelyaev/cloudstash/internal/server/models"
)

// Repository is the identity resolver: it maps a username to an existing
// owner record. Ownership checks elsewhere are scoped by username directly.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
