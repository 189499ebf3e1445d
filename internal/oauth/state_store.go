package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/craftpanel/internal/logging"
)

type stateEntry struct {
	created  time.Time
	consumed bool
}

// StateStore holds issued OAuth state tokens in memory.
type StateStore struct {
	mu     sync.Mutex
	states map[string]*stateEntry
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewStateStore creates an empty store using StateTTL.
func NewStateStore(logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{
		states: make(map[string]*stateEntry),
		ttl:    StateTTL,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *StateStore) WithClock(now func() time.Time) *StateStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Issue sweeps expired tokens and returns a fresh one.
func (s *StateStore) Issue() (string, error) {
	b := make([]byte, StateTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	swept := s.sweepLocked(now)
	s.states[token] = &stateEntry{created: now}

	s.logger.Debug("Issued OAuth state token",
		slog.String("token", logging.SanitizeToken(token)),
		slog.Int("swept", swept),
		slog.Int("outstanding", len(s.states)),
	)

	return token, nil
}

// Validate consumes token. It returns ErrStateNotFound for unknown or expired
// tokens and ErrStateConsumed for tokens that were already validated once.
func (s *StateStore) Validate(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[token]
	if !ok || s.now().Sub(entry.created) > s.ttl {
		return ErrStateNotFound
	}
	if entry.consumed {
		s.logger.Warn("OAuth state token replay rejected",
			slog.String("token", logging.SanitizeToken(token)))
		return ErrStateConsumed
	}

	// Flag rather than delete so a replay is reported as such until swept.
	entry.consumed = true
	return nil
}

// Len returns the number of tokens currently held, including consumed ones.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func (s *StateStore) sweepLocked(now time.Time) int {
	swept := 0
	for token, entry := range s.states {
		if now.Sub(entry.created) > s.ttl {
			delete(s.states, token)
			swept++
		}
	}
	return swept
}
