package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/provider"
)

// newFakeIdP spins up an OIDC-shaped identity provider that accepts one
// authorization code and serves one profile.
func newFakeIdP(t *testing.T, email string) provider.Endpoints {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("code") != "valid-code" {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "idp-access-token"})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer idp-access-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"email":          email,
			"email_verified": true,
			"given_name":     "Ada",
			"family_name":    "Lovelace",
			"picture":        "https://idp.example.com/ada.png",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return provider.Endpoints{
		Name:        provider.Google,
		ClientID:    "client-id",
		RedirectURL: "https://app.example.com/callback",
		AuthURL:     srv.URL + "/authorize",
		TokenURL:    srv.URL + "/token",
		UserInfoURL: srv.URL + "/userinfo",
		Scopes:      []string{"openid", "profile", "email"},
	}
}

func startLogin(t *testing.T, h *harness, providerName string) string {
	t.Helper()
	authURL, err := h.svc.StartProviderLogin(context.Background(), providerName)
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestStartProviderLoginUnknownProvider(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.StartProviderLogin(context.Background(), "myspace")
	require.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestProviderLoginFirstAndRepeat(t *testing.T) {
	ep := newFakeIdP(t, "ada@example.com")
	h := newHarness(t, ep)
	ctx := context.Background()

	state := startLogin(t, h, provider.Google)

	// First callback creates the account and still issues a token.
	first, err := h.svc.CompleteProviderLogin(ctx, provider.Google, state, "valid-code")
	require.NoError(t, err)
	require.True(t, first.IsNewAccount)
	require.NotEmpty(t, first.Token)
	require.Len(t, h.repo.users, 1)

	user, err := h.svc.CheckSession(ctx, first.Token)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.False(t, user.HasPassword())

	// Second login resolves to the same account.
	state = startLogin(t, h, provider.Google)
	second, err := h.svc.CompleteProviderLogin(ctx, provider.Google, state, "valid-code")
	require.NoError(t, err)
	require.False(t, second.IsNewAccount)
	require.Equal(t, first.UserID, second.UserID)
	require.Len(t, h.repo.users, 1)

	// The fresh token supersedes the first one.
	_, err = h.svc.CheckSession(ctx, first.Token)
	require.True(t, domain.IsKind(err, domain.KindUnauthorized))
	_, err = h.svc.CheckSession(ctx, second.Token)
	require.NoError(t, err)
}

func TestProviderLoginLinksExistingPasswordAccount(t *testing.T) {
	ep := newFakeIdP(t, "ada@example.com")
	h := newHarness(t, ep)
	ctx := context.Background()

	registered, err := h.svc.Register(ctx, "Ada", "Lovelace", "ada@example.com", "s3cret-passw0rd")
	require.NoError(t, err)

	state := startLogin(t, h, provider.Google)
	session, err := h.svc.CompleteProviderLogin(ctx, provider.Google, state, "valid-code")
	require.NoError(t, err)
	require.False(t, session.IsNewAccount)
	require.Equal(t, registered.UserID, session.UserID)
	require.Len(t, h.repo.users, 1)

	// Password login still works afterwards.
	_, err = h.svc.Login(ctx, "ada@example.com", "s3cret-passw0rd")
	require.NoError(t, err)
}

func TestProviderStateIsSingleUse(t *testing.T) {
	ep := newFakeIdP(t, "ada@example.com")
	h := newHarness(t, ep)
	ctx := context.Background()

	state := startLogin(t, h, provider.Google)

	_, err := h.svc.CompleteProviderLogin(ctx, provider.Google, state, "valid-code")
	require.NoError(t, err)

	_, err = h.svc.CompleteProviderLogin(ctx, provider.Google, state, "valid-code")
	require.True(t, domain.IsKind(err, domain.KindInvalid))
}

func TestProviderStateMismatch(t *testing.T) {
	googleEP := newFakeIdP(t, "ada@example.com")
	githubEP := googleEP
	githubEP.Name = provider.GitHub
	h := newHarness(t, googleEP, githubEP)
	ctx := context.Background()

	// A state minted for Google must not redeem a GitHub callback.
	state := startLogin(t, h, provider.Google)
	_, err := h.svc.CompleteProviderLogin(ctx, provider.GitHub, state, "valid-code")
	require.True(t, domain.IsKind(err, domain.KindInvalid))

	_, err = h.svc.CompleteProviderLogin(ctx, provider.Google, "forged-state", "valid-code")
	require.True(t, domain.IsKind(err, domain.KindInvalid))
}

func TestProviderExchangeFailure(t *testing.T) {
	ep := newFakeIdP(t, "ada@example.com")
	h := newHarness(t, ep)
	ctx := context.Background()

	state := startLogin(t, h, provider.Google)
	_, err := h.svc.CompleteProviderLogin(ctx, provider.Google, state, "stolen-code")
	require.True(t, domain.IsKind(err, domain.KindProviderUnavailable))
	require.Empty(t, h.repo.users)
}
