package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statePrefix = "oauth:state:"
	// StateTTL bounds how long an authorize redirect may stay pending.
	StateTTL = 5 * time.Minute
)

// State is the CSRF token persisted between the authorize redirect and
// the provider callback.
type State struct {
	State     string    `json:"state"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// StateStore persists pending authorize states.
type StateStore interface {
	Save(ctx context.Context, state State, ttl time.Duration) error
	// Take loads and deletes the state in one step; a state is only
	// redeemable once. A missing state returns (nil, nil).
	Take(ctx context.Context, stateValue string) (*State, error)
}

// RedisStateStore implements StateStore backed by Redis.
type RedisStateStore struct {
	client redis.UniversalClient
}

var _ StateStore = (*RedisStateStore)(nil)

func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, state State, ttl time.Duration) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, statePrefix+state.State, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Take(ctx context.Context, stateValue string) (*State, error) {
	key := statePrefix + stateValue
	bytes, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	var state State
	if err := json.Unmarshal(bytes, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}
