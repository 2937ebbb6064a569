package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
)

// ForgotPassword creates a recovery code for a known email and hands
// it to the mailer. The result reflects dispatch only; a delivery
// failure is logged, not returned, so an attacker cannot distinguish
// deliverable addresses by probing this endpoint.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := s.startSpan(ctx, "AuthService.ForgotPassword")
	defer span.End()

	normalized := normalizeEmail(email)
	if _, err := s.ledger.FindByEmail(ctx, normalized); err != nil {
		span.RecordError(err)
		if domain.IsKind(err, domain.KindNotFound) {
			return domain.E(domain.KindNotFound, "Email does not exist!")
		}
		return err
	}

	code, err := s.codes.Create(normalized)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.mail.SendRecoveryCode(ctx, normalized, code); err != nil {
		s.log().Warn("recovery code dispatch failed", zap.String("email", normalized), zap.Error(err))
	}

	s.audit("password_forgot.request", "email", normalized)
	return nil
}

// VerifyCode checks a submitted recovery code against the live entry.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) error {
	_, span := s.startSpan(ctx, "AuthService.VerifyCode")
	defer span.End()
	return s.codes.Verify(normalizeEmail(email), code)
}

// CheckVerified reports whether the recovery entry is still awaiting
// its code: it fails once the code is verified, expired, or gone.
func (s *AuthService) CheckVerified(ctx context.Context, email string) error {
	_, span := s.startSpan(ctx, "AuthService.CheckVerified")
	defer span.End()
	return s.codes.CheckStillPending(normalizeEmail(email))
}

// CheckResetReady reports whether the entry has been verified and may
// proceed to the reset step.
func (s *AuthService) CheckResetReady(ctx context.Context, email string) error {
	_, span := s.startSpan(ctx, "AuthService.CheckResetReady")
	defer span.End()
	return s.codes.CheckConfirmed(normalizeEmail(email))
}

// ResetPassword replaces the password behind a confirmed recovery code.
// The code entry is discarded whether or not the reset goes through,
// and a successful reset also invalidates the stored session token via
// the ledger's password update.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	ctx, span := s.startSpan(ctx, "AuthService.ResetPassword")
	defer span.End()

	normalized := normalizeEmail(email)
	if err := s.codes.ConsumeForReset(normalized); err != nil {
		span.RecordError(err)
		if domain.IsKind(err, domain.KindNotFound) {
			return err
		}
		return domain.E(domain.KindBadRequest, "Code is expired or unverified!")
	}

	user, err := s.ledger.FindByEmail(ctx, normalized)
	if err != nil {
		span.RecordError(err)
		s.codes.Delete(normalized)
		return err
	}

	if err := s.ledger.SetPassword(ctx, user.ID, newPassword); err != nil {
		span.RecordError(err)
		s.codes.Delete(normalized)
		return err
	}

	s.codes.Delete(normalized)
	s.audit("password_reset.success", "user_id", user.ID)
	return nil
}
