package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
)

const maxResponseBytes = 1 << 20

// Client performs the outbound HTTP calls to external IdPs. Failures
// here are the provider's fault, not the end user's, and surface as
// ProviderUnavailable so they are never mistaken for bad credentials.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs the default provider client. A nil http.Client
// gets a 10 second timeout so callback handling cannot hang.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{httpClient: client}
}

// ExchangeCode swaps an authorization code for a provider access token.
func (c *Client) ExchangeCode(ctx context.Context, ep Endpoints, code string) (string, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", ep.RedirectURL)
	data.Set("client_id", ep.ClientID)
	data.Set("client_secret", ep.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var payload struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := c.doJSON(req, &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", domain.Ef(domain.KindProviderUnavailable, "%s token exchange failed!", ep.Name)
	}
	return payload.AccessToken, nil
}

// FetchProfile loads and normalizes the provider's user-info payload.
// For GitHub it additionally resolves the account's primary email.
func (c *Client) FetchProfile(ctx context.Context, ep Endpoints, accessToken string) (domain.FederatedProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.UserInfoURL, nil)
	if err != nil {
		return domain.FederatedProfile{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	var raw struct {
		// OIDC userinfo fields (Google).
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
		// GitHub /user fields.
		Name      string `json:"name"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.doJSON(req, &raw); err != nil {
		return domain.FederatedProfile{}, err
	}

	profile := domain.FederatedProfile{
		Provider:      ep.Name,
		Email:         raw.Email,
		GivenName:     raw.GivenName,
		FamilyName:    raw.FamilyName,
		AvatarURL:     firstNonEmpty(raw.Picture, raw.AvatarURL),
		EmailVerified: raw.EmailVerified,
	}
	if profile.GivenName == "" {
		profile.GivenName, profile.FamilyName = splitName(firstNonEmpty(raw.Name, raw.Login))
	}

	if profile.Email == "" && ep.EmailsURL != "" {
		email, verified, err := c.fetchPrimaryEmail(ctx, ep, accessToken)
		if err != nil {
			return domain.FederatedProfile{}, err
		}
		profile.Email = email
		profile.EmailVerified = verified
	}

	if profile.Email == "" {
		return domain.FederatedProfile{}, domain.Ef(domain.KindProviderUnavailable, "%s returned no email!", ep.Name)
	}
	return profile, nil
}

func (c *Client) fetchPrimaryEmail(ctx context.Context, ep Endpoints, accessToken string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.EmailsURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("build emails request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := c.doJSON(req, &emails); err != nil {
		return "", false, err
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, e.Verified, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, emails[0].Verified, nil
	}
	return "", false, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Ef(domain.KindProviderUnavailable, "Provider request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Ef(domain.KindProviderUnavailable, "Provider response unreadable: %v", err)
	}
	if resp.StatusCode >= 300 {
		return domain.Ef(domain.KindProviderUnavailable, "Provider returned status %d!", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Ef(domain.KindProviderUnavailable, "Provider response undecodable: %v", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
