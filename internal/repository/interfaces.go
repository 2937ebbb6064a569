package repository

import (
	"context"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
)

// UserRepository exposes persistence for users. Lookups are by id or
// email only; mutations are single-row field updates so that concurrent
// writers for the same account serialize at the storage layer.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	Insert(ctx context.Context, user domain.User) (domain.User, error)
	// UpdateSessionToken replaces the stored session token. An empty
	// value clears it.
	UpdateSessionToken(ctx context.Context, userID int64, token string) error
	// UpdatePassword replaces the password hash and clears the stored
	// session token in the same statement.
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}
