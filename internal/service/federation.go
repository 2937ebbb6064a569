package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/provider"
)

// StartProviderLogin prepares the authorize redirect for a provider and
// persists the CSRF state for the callback leg.
func (s *AuthService) StartProviderLogin(ctx context.Context, providerName string) (string, error) {
	ctx, span := s.startSpan(ctx, "AuthService.StartProviderLogin")
	defer span.End()

	state, err := secureRandomString(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	authURL, err := s.federation.AuthCodeURL(providerName, state)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if err := s.states.Save(ctx, provider.State{
		State:     state,
		Provider:  providerName,
		CreatedAt: time.Now().UTC(),
	}, provider.StateTTL); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("persist state: %w", err)
	}

	return authURL, nil
}

// CompleteProviderLogin redeems the callback state and finishes the
// federated login. A state is valid exactly once.
func (s *AuthService) CompleteProviderLogin(ctx context.Context, providerName, state, code string) (ProviderSession, error) {
	ctx, span := s.startSpan(ctx, "AuthService.CompleteProviderLogin")
	defer span.End()

	stored, err := s.states.Take(ctx, state)
	if err != nil {
		span.RecordError(err)
		return ProviderSession{}, fmt.Errorf("load state: %w", err)
	}
	if stored == nil || stored.Provider != providerName {
		return ProviderSession{}, domain.E(domain.KindInvalid, "Invalid or expired state!")
	}

	return s.LoginWithProvider(ctx, providerName, code)
}

// LoginWithProvider exchanges the provider authorization code, resolves
// the profile to a local account, and always issues a session token on
// success, first login included.
func (s *AuthService) LoginWithProvider(ctx context.Context, providerName, code string) (ProviderSession, error) {
	ctx, span := s.startSpan(ctx, "AuthService.LoginWithProvider")
	defer span.End()

	profile, err := s.federation.ExchangeAndFetchProfile(ctx, providerName, code)
	if err != nil {
		span.RecordError(err)
		return ProviderSession{}, err
	}

	user, isNew, err := s.federation.ResolveOrCreateUser(ctx, profile)
	if err != nil {
		span.RecordError(err)
		return ProviderSession{}, err
	}

	signed, err := s.issuer.Issue(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return ProviderSession{}, err
	}

	s.audit("provider_login.success", "user_id", user.ID, "provider", providerName, "new_account", isNew)
	return ProviderSession{
		Session:      Session{Token: signed, UserID: user.ID},
		IsNewAccount: isNew,
	}, nil
}

func secureRandomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
