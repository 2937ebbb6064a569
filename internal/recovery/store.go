// Package recovery holds the ephemeral email-keyed recovery codes that
// gate password resets. Entries live in process memory only; expiry is
// decided by timestamp checks on every read, with a periodic sweep as a
// memory bound.
package recovery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
)

const codeBytes = 3 // 6 hex characters

type entry struct {
	code      string
	createdAt time.Time
	expiresAt time.Time
	verified  bool
}

// Store is a keyed recovery-code cache with one live code per email.
// All mutations take the store lock, so create/verify/consume for the
// same key cannot interleave.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	testEmail string
	testCode  string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the time source, letting tests drive expiry
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTestCode pins a deterministic code for one designated address,
// used by e2e suites that cannot read email.
func WithTestCode(email, code string) Option {
	return func(s *Store) {
		s.testEmail = email
		s.testCode = code
	}
}

func NewStore(ttl time.Duration, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.L()
	}
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create generates a fresh code for email, overwriting any prior live
// code, and returns the plaintext for delivery.
func (s *Store) Create(email string) (string, error) {
	code, err := s.generate(email)
	if err != nil {
		return "", err
	}

	now := s.now()
	s.mu.Lock()
	s.entries[email] = &entry{
		code:      code,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}
	s.mu.Unlock()

	s.logger.Info("recovery code created", zap.String("email", email))
	return code, nil
}

// Verify flips the entry to verified when the code matches, the entry
// is unexpired, and it has not been verified before. Mismatch, expiry,
// and re-verification all fail with the same kind so a caller probing
// codes learns nothing about the entry's state.
func (s *Store) Verify(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return domain.E(domain.KindNotFound, "Code does not exist!")
	}
	if e.verified || s.expired(e) || e.code != code {
		return domain.E(domain.KindInvalid, "Code is invalid!")
	}
	e.verified = true
	return nil
}

// CheckStillPending succeeds only while the entry exists, is unexpired,
// and has NOT been verified yet. Already-verified is a failure here:
// this check answers "is the user still on the enter-code step", which
// is the opposite precondition from CheckConfirmed.
func (s *Store) CheckStillPending(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return domain.E(domain.KindNotFound, "Code does not exist!")
	}
	if e.verified || s.expired(e) {
		return domain.E(domain.KindBadRequest, "Code is no longer pending!")
	}
	return nil
}

// CheckConfirmed succeeds only when the entry exists, is unexpired, and
// has been verified. This is the gate consulted right before a reset.
func (s *Store) CheckConfirmed(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmedLocked(email)
}

// ConsumeForReset authorizes a password reset under the same condition
// as CheckConfirmed. On failure the entry is deleted regardless of why,
// so a dead code cannot be retried. On success the caller performs the
// password change and then calls Delete.
func (s *Store) ConsumeForReset(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.confirmedLocked(email); err != nil {
		delete(s.entries, email)
		return err
	}
	return nil
}

// Delete removes the entry for email, if any.
func (s *Store) Delete(email string) {
	s.mu.Lock()
	delete(s.entries, email)
	s.mu.Unlock()
}

// Run sweeps expired entries until ctx is done. Correctness never
// depends on the sweep; it only bounds memory.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Debug("recovery codes swept", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for email, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, email)
			removed++
		}
	}
	return removed
}

func (s *Store) confirmedLocked(email string) error {
	e, ok := s.entries[email]
	if !ok {
		return domain.E(domain.KindNotFound, "Code does not exist!")
	}
	if s.expired(e) {
		return domain.E(domain.KindBadRequest, "Code has expired!")
	}
	if !e.verified {
		return domain.E(domain.KindBadRequest, "Code has not been verified!")
	}
	return nil
}

func (s *Store) expired(e *entry) bool {
	return !s.now().Before(e.expiresAt)
}

func (s *Store) generate(email string) (string, error) {
	if s.testEmail != "" && email == s.testEmail {
		return s.testCode, nil
	}
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
