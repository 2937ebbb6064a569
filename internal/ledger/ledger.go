// Package ledger owns the canonical user identity records: password
// hashes, the single live session token per account, and account
// creation defaults. All mutations are explicit; nothing happens as a
// hidden side effect of persistence.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/password"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/repository"
)

// Ledger mediates access to user records.
type Ledger struct {
	users  repository.UserRepository
	ids    *snowflake.Node
	logger *zap.Logger
}

func New(users repository.UserRepository, ids *snowflake.Node, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.L()
	}
	return &Ledger{users: users, ids: ids, logger: logger}
}

// CreateParams carries the fields for a new account. Password is the
// plaintext and may be empty for accounts federated from an external
// provider; it is hashed before storage and never logged.
type CreateParams struct {
	Email         string
	FirstName     string
	LastName      string
	Password      string
	AvatarURL     string
	EmailVerified bool
}

// FindByEmail looks up a user by its email identity key.
func (l *Ledger) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return l.users.GetByEmail(ctx, email)
}

// FindByID looks up a user by id.
func (l *Ledger) FindByID(ctx context.Context, id int64) (domain.User, error) {
	return l.users.GetByID(ctx, id)
}

// Create registers a new user. Duplicate emails fail with Conflict
// before any write.
func (l *Ledger) Create(ctx context.Context, p CreateParams) (domain.User, error) {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return domain.User{}, domain.E(domain.KindBadRequest, "Email is required!")
	}

	if _, err := l.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.E(domain.KindConflict, "Email already exists!")
	} else if !domain.IsKind(err, domain.KindNotFound) {
		return domain.User{}, fmt.Errorf("check existing user: %w", err)
	}

	var hash string
	if p.Password != "" {
		var err error
		if hash, err = password.Hash(p.Password); err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
	}

	user := domain.User{
		ID:            l.ids.Generate().Int64(),
		Email:         email,
		FirstName:     strings.TrimSpace(p.FirstName),
		LastName:      strings.TrimSpace(p.LastName),
		PasswordHash:  hash,
		AvatarURL:     p.AvatarURL,
		EmailVerified: p.EmailVerified,
		Role:          domain.RoleUser,
	}

	created, err := l.users.Insert(ctx, user)
	if err != nil {
		return domain.User{}, err
	}

	l.logger.Info("user created", zap.Int64("user_id", created.ID))
	return created, nil
}

// SetPassword rehashes and replaces the stored password. The stored
// session token is cleared in the same update so a stale token cannot
// outlive a credential change.
func (l *Ledger) SetPassword(ctx context.Context, userID int64, plaintext string) error {
	hash, err := password.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := l.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	l.logger.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

// SetSessionToken stores token as the account's one valid session
// token, superseding any previous value.
func (l *Ledger) SetSessionToken(ctx context.Context, userID int64, token string) error {
	return l.users.UpdateSessionToken(ctx, userID, token)
}

// ClearSessionToken removes the stored session token. Clearing an
// already-empty token is a no-op, which makes logout idempotent.
func (l *Ledger) ClearSessionToken(ctx context.Context, userID int64) error {
	return l.users.UpdateSessionToken(ctx, userID, "")
}

// VerifyPassword compares plaintext against the stored hash in constant
// time. Accounts without a password (pure OAuth) always fail closed.
func (l *Ledger) VerifyPassword(user domain.User, plaintext string) bool {
	if !user.HasPassword() {
		return false
	}
	ok, err := password.Verify(plaintext, user.PasswordHash)
	if err != nil {
		l.logger.Warn("stored password hash unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
		return false
	}
	return ok
}
