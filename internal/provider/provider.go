// Package provider federates external identity providers (Google,
// GitHub) into local user identities.
package provider

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/config"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
)

// Provider names accepted on the wire.
const (
	Google = "google"
	GitHub = "github"
)

// Endpoints describes one external provider.
type Endpoints struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	// EmailsURL is the secondary endpoint for providers that omit the
	// address from the main profile payload (GitHub).
	EmailsURL string
	Scopes    []string
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[string]Endpoints
}

// NewRegistry builds the provider set from configuration. Providers
// without a client id are left unregistered.
func NewRegistry(cfg config.Config) *Registry {
	r := &Registry{providers: make(map[string]Endpoints)}

	if cfg.GoogleClientID != "" {
		r.providers[Google] = Endpoints{
			Name:         Google,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserInfoURL:  "https://www.googleapis.com/oauth2/v3/userinfo",
			Scopes:       []string{"openid", "profile", "email"},
		}
	}
	if cfg.GitHubClientID != "" {
		r.providers[GitHub] = Endpoints{
			Name:         GitHub,
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubRedirectURL,
			AuthURL:      "https://github.com/login/oauth/authorize",
			TokenURL:     "https://github.com/login/oauth/access_token",
			UserInfoURL:  "https://api.github.com/user",
			EmailsURL:    "https://api.github.com/user/emails",
			Scopes:       []string{"read:user", "user:email"},
		}
	}
	return r
}

// NewStaticRegistry builds a registry from explicit endpoint sets,
// bypassing configuration. Useful for self-hosted or mock providers.
func NewStaticRegistry(endpoints ...Endpoints) *Registry {
	r := &Registry{providers: make(map[string]Endpoints, len(endpoints))}
	for _, ep := range endpoints {
		r.providers[strings.ToLower(ep.Name)] = ep
	}
	return r
}

// Get returns the endpoints for name.
func (r *Registry) Get(name string) (Endpoints, error) {
	ep, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Endpoints{}, domain.Ef(domain.KindNotFound, "Unknown provider %q!", name)
	}
	return ep, nil
}

// AuthCodeURL builds the provider authorization URL carrying state.
func (ep Endpoints) AuthCodeURL(state string) (string, error) {
	u, err := url.Parse(ep.AuthURL)
	if err != nil {
		return "", fmt.Errorf("parse auth url: %w", err)
	}
	q := u.Query()
	q.Set("client_id", ep.ClientID)
	q.Set("redirect_uri", ep.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(ep.Scopes, " "))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
