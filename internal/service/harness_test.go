package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/ledger"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/mailer"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/provider"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/recovery"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/service"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/token"
)

type harness struct {
	svc    *service.AuthService
	repo   *memoryUserRepo
	issuer *token.Issuer
	mailer *fakeMailer
	states *memoryStateStore
	clock  *fakeClock
}

// newHarness wires a full AuthService against in-memory collaborators.
// Provider endpoints, when given, should point at test servers.
func newHarness(t *testing.T, endpoints ...provider.Endpoints) *harness {
	t.Helper()

	repo := &memoryUserRepo{users: make(map[int64]domain.User)}
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	logger := zap.NewNop()
	led := ledger.New(repo, node, logger)
	issuer := token.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), "socialnetwork", time.Hour, led)

	clock := &fakeClock{now: time.Now()}
	codes := recovery.NewStore(10*time.Minute, logger, recovery.WithClock(clock.Now))

	registry := provider.NewStaticRegistry(endpoints...)
	federation := provider.NewFederation(registry, provider.NewClient(nil), led, logger)

	mail := &fakeMailer{}
	states := &memoryStateStore{entries: make(map[string]provider.State)}

	return &harness{
		svc:    service.NewAuthService(led, issuer, codes, federation, states, mail, logger),
		repo:   repo,
		issuer: issuer,
		mailer: mail,
		states: states,
		clock:  clock,
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeMailer struct {
	lastEmail string
	lastCode  string
	fail      bool
}

var _ mailer.Mailer = (*fakeMailer)(nil)

func (m *fakeMailer) SendRecoveryCode(ctx context.Context, email, code string) error {
	if m.fail {
		return domain.E(domain.KindDeliveryFailed, "Could not send recovery email!")
	}
	m.lastEmail = email
	m.lastCode = code
	return nil
}

type memoryStateStore struct {
	mu      sync.Mutex
	entries map[string]provider.State
}

var _ provider.StateStore = (*memoryStateStore)(nil)

func (s *memoryStateStore) Save(ctx context.Context, state provider.State, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[state.State] = state
	s.mu.Unlock()
	return nil
}

func (s *memoryStateStore) Take(ctx context.Context, stateValue string) (*provider.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.entries[stateValue]
	if !ok {
		return nil, nil
	}
	delete(s.entries, stateValue)
	return &state, nil
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
