package token_test

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
)

func newTestNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
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
	if m.users == nil {
		m.users = make(map[int64]domain.User)
	}
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
