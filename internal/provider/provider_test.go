package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/ledger"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/provider"
)

func TestRegistryUnknownProvider(t *testing.T) {
	registry := provider.NewStaticRegistry()
	_, err := registry.Get("myspace")
	require.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	ep := provider.Endpoints{
		Name:        provider.Google,
		ClientID:    "client-id",
		RedirectURL: "https://app.example.com/callback",
		AuthURL:     "https://accounts.example.com/authorize",
		Scopes:      []string{"openid", "email"},
	}

	raw, err := ep.AuthCodeURL("state-token")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "client-id", q.Get("client_id"))
	require.Equal(t, "state-token", q.Get("state"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "openid email", q.Get("scope"))
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("code") != "good-code" {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "provider-token"})
	}))
	defer srv.Close()

	client := provider.NewClient(srv.Client())
	ep := provider.Endpoints{Name: provider.Google, TokenURL: srv.URL}

	token, err := client.ExchangeCode(context.Background(), ep, "good-code")
	require.NoError(t, err)
	require.Equal(t, "provider-token", token)

	_, err = client.ExchangeCode(context.Background(), ep, "bad-code")
	require.True(t, domain.IsKind(err, domain.KindProviderUnavailable))
}

func TestFetchProfileOIDC(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer provider-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"email":          "ada@example.com",
			"email_verified": true,
			"given_name":     "Ada",
			"family_name":    "Lovelace",
			"picture":        "https://lh3.example.com/ada",
		})
	}))
	defer srv.Close()

	client := provider.NewClient(srv.Client())
	ep := provider.Endpoints{Name: provider.Google, UserInfoURL: srv.URL}

	profile, err := client.FetchProfile(context.Background(), ep, "provider-token")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", profile.Email)
	require.Equal(t, "Ada", profile.GivenName)
	require.Equal(t, "Lovelace", profile.FamilyName)
	require.Equal(t, "https://lh3.example.com/ada", profile.AvatarURL)
	require.True(t, profile.EmailVerified)
}

func TestFetchProfileGitHubPrimaryEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"login":      "ghopper",
			"name":       "Grace Hopper",
			"avatar_url": "https://avatars.example.com/ghopper",
		})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"email": "secondary@example.com", "primary": false, "verified": false},
			{"email": "grace@example.com", "primary": true, "verified": true},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := provider.NewClient(srv.Client())
	ep := provider.Endpoints{
		Name:        provider.GitHub,
		UserInfoURL: srv.URL + "/user",
		EmailsURL:   srv.URL + "/user/emails",
	}

	profile, err := client.FetchProfile(context.Background(), ep, "provider-token")
	require.NoError(t, err)
	require.Equal(t, "grace@example.com", profile.Email)
	require.Equal(t, "Grace", profile.GivenName)
	require.Equal(t, "Hopper", profile.FamilyName)
	require.True(t, profile.EmailVerified)
}

func TestFetchProfileNoEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"login": "ghost"})
	}))
	defer srv.Close()

	client := provider.NewClient(srv.Client())
	ep := provider.Endpoints{Name: provider.GitHub, UserInfoURL: srv.URL}

	_, err := client.FetchProfile(context.Background(), ep, "provider-token")
	require.True(t, domain.IsKind(err, domain.KindProviderUnavailable))
}

func TestFetchProfileProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := provider.NewClient(srv.Client())
	ep := provider.Endpoints{Name: provider.Google, UserInfoURL: srv.URL}

	_, err := client.FetchProfile(context.Background(), ep, "provider-token")
	require.True(t, domain.IsKind(err, domain.KindProviderUnavailable))
}

func TestResolveOrCreateUser(t *testing.T) {
	repo := &memoryUserRepo{users: make(map[int64]domain.User)}
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	led := ledger.New(repo, node, zap.NewNop())
	federation := provider.NewFederation(provider.NewStaticRegistry(), provider.NewClient(nil), led, zap.NewNop())

	profile := domain.FederatedProfile{
		Provider:      provider.Google,
		Email:         "ada@example.com",
		GivenName:     "Ada",
		FamilyName:    "Lovelace",
		AvatarURL:     "https://lh3.example.com/ada",
		EmailVerified: true,
	}

	created, isNew, err := federation.ResolveOrCreateUser(context.Background(), profile)
	require.NoError(t, err)
	require.True(t, isNew)
	require.NotZero(t, created.ID)
	require.False(t, created.HasPassword())

	again, isNew, err := federation.ResolveOrCreateUser(context.Background(), profile)
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, created.ID, again.ID)
	require.Len(t, repo.users, 1)
}

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.E(domain.KindNotFound, "User does not exist!")
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.E(domain.KindNotFound, "User does not exist!")
	}
	return u, nil
}

func (m *memoryUserRepo) Insert(ctx context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryUserRepo) UpdateSessionToken(ctx context.Context, userID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.E(domain.KindNotFound, "User does not exist!")
	}
	u.SessionToken = token
	m.users[userID] = u
	return nil
}

func (m *memoryUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.E(domain.KindNotFound, "User does not exist!")
	}
	u.PasswordHash = passwordHash
	u.SessionToken = ""
	m.users[userID] = u
	return nil
}
