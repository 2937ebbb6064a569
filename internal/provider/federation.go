package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/ledger"
)

// Federation normalizes provider callbacks into ledger lookups and
// creates. It never issues session tokens; that stays with the caller
// so every successful resolution, first login included, goes through
// the same issuing path.
type Federation struct {
	registry *Registry
	client   *Client
	ledger   *ledger.Ledger
	logger   *zap.Logger
}

func NewFederation(registry *Registry, client *Client, led *ledger.Ledger, logger *zap.Logger) *Federation {
	if logger == nil {
		logger = zap.L()
	}
	return &Federation{registry: registry, client: client, ledger: led, logger: logger}
}

// AuthCodeURL builds the authorization URL for the named provider.
func (f *Federation) AuthCodeURL(providerName, state string) (string, error) {
	ep, err := f.registry.Get(providerName)
	if err != nil {
		return "", err
	}
	return ep.AuthCodeURL(state)
}

// ExchangeAndFetchProfile redeems the authorization code and fetches
// the provider's profile for it.
func (f *Federation) ExchangeAndFetchProfile(ctx context.Context, providerName, code string) (domain.FederatedProfile, error) {
	ep, err := f.registry.Get(providerName)
	if err != nil {
		return domain.FederatedProfile{}, err
	}

	accessToken, err := f.client.ExchangeCode(ctx, ep, code)
	if err != nil {
		return domain.FederatedProfile{}, err
	}

	profile, err := f.client.FetchProfile(ctx, ep, accessToken)
	if err != nil {
		return domain.FederatedProfile{}, err
	}
	return profile, nil
}

// ResolveOrCreateUser maps a federated profile onto a local user,
// creating a passwordless account on first sight of the email.
func (f *Federation) ResolveOrCreateUser(ctx context.Context, profile domain.FederatedProfile) (domain.User, bool, error) {
	user, err := f.ledger.FindByEmail(ctx, profile.Email)
	if err == nil {
		return user, false, nil
	}
	if !domain.IsKind(err, domain.KindNotFound) {
		return domain.User{}, false, fmt.Errorf("resolve federated user: %w", err)
	}

	created, err := f.ledger.Create(ctx, ledger.CreateParams{
		Email:         profile.Email,
		FirstName:     profile.GivenName,
		LastName:      profile.FamilyName,
		AvatarURL:     profile.AvatarURL,
		EmailVerified: profile.EmailVerified,
	})
	if err != nil {
		return domain.User{}, false, err
	}

	f.logger.Info("federated account created",
		zap.Int64("user_id", created.ID),
		zap.String("provider", profile.Provider),
	)
	return created, true, nil
}
