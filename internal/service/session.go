package service

import (
	"context"
	"strings"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/ledger"
)

// Register creates a password account and logs it in.
func (s *AuthService) Register(ctx context.Context, firstName, lastName, email, plaintext string) (Session, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	user, err := s.ledger.Create(ctx, ledger.CreateParams{
		Email:     normalizeEmail(email),
		FirstName: firstName,
		LastName:  lastName,
		Password:  plaintext,
	})
	if err != nil {
		span.RecordError(err)
		return Session{}, err
	}

	signed, err := s.issuer.Issue(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return Session{}, err
	}

	s.audit("register.success", "user_id", user.ID)
	return Session{Token: signed, UserID: user.ID}, nil
}

// Login authenticates with email/password and issues a fresh session
// token, superseding any previous one.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (Session, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.ledger.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		span.RecordError(err)
		if domain.IsKind(err, domain.KindNotFound) {
			return Session{}, domain.E(domain.KindNotFound, "Email does not exist!")
		}
		return Session{}, err
	}

	if !s.ledger.VerifyPassword(user, plaintext) {
		return Session{}, domain.E(domain.KindBadRequest, "Invalid password!")
	}

	signed, err := s.issuer.Issue(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return Session{}, err
	}

	s.audit("login.success", "user_id", user.ID)
	return Session{Token: signed, UserID: user.ID}, nil
}

// CheckSession validates a presented token. A token passes only when
// its signature and expiry hold AND it equals the value currently
// stored on the user record; the second check is what turns logout and
// elsewhere-login into immediate invalidation without a revocation
// list.
func (s *AuthService) CheckSession(ctx context.Context, raw string) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.CheckSession")
	defer span.End()

	userID, err := s.issuer.Verify(raw)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.ledger.FindByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if domain.IsKind(err, domain.KindNotFound) {
			return domain.User{}, domain.E(domain.KindNotFound, "User does not exist!")
		}
		return domain.User{}, err
	}

	if user.SessionToken != raw {
		return domain.User{}, domain.E(domain.KindUnauthorized, "Have not logged in!")
	}
	return user, nil
}

// Logout clears the stored session token unconditionally. Calling it
// for an already logged-out user succeeds.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	ctx, span := s.startSpan(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.ledger.ClearSessionToken(ctx, userID); err != nil {
		span.RecordError(err)
		if domain.IsKind(err, domain.KindNotFound) {
			return domain.E(domain.KindNotFound, "User does not exist!")
		}
		return err
	}
	s.audit("logout.success", "user_id", userID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
