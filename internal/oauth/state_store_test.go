package oauth

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore() (*StateStore, *testClock) {
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewStateStore(slog.Default()).WithClock(clock.Now), clock
}

func TestStateStore_ValidatesExactlyOnce(t *testing.T) {
	store, _ := newTestStore()

	token, err := store.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, store.Validate(token))
	assert.ErrorIs(t, store.Validate(token), ErrStateConsumed)
	assert.ErrorIs(t, store.Validate(token), ErrStateConsumed)
}

func TestStateStore_UnknownToken(t *testing.T) {
	store, _ := newTestStore()
	assert.ErrorIs(t, store.Validate("never-issued"), ErrStateNotFound)
	assert.ErrorIs(t, store.Validate(""), ErrStateNotFound)
}

func TestStateStore_ExpiredTokenIsNotFound(t *testing.T) {
	store, clock := newTestStore()

	token, err := store.Issue()
	require.NoError(t, err)

	clock.Advance(StateTTL + time.Second)

	// Not swept yet, still rejected.
	assert.Equal(t, 1, store.Len())
	assert.ErrorIs(t, store.Validate(token), ErrStateNotFound)
}

func TestStateStore_TokenValidJustBeforeExpiry(t *testing.T) {
	store, clock := newTestStore()

	token, err := store.Issue()
	require.NoError(t, err)

	clock.Advance(StateTTL - time.Second)
	assert.NoError(t, store.Validate(token))
}

func TestStateStore_IssueSweepsExpiredEntries(t *testing.T) {
	store, clock := newTestStore()

	consumed, err := store.Issue()
	require.NoError(t, err)
	require.NoError(t, store.Validate(consumed))
	_, err = store.Issue()
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	clock.Advance(StateTTL + time.Minute)
	fresh, err := store.Issue()
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.ErrorIs(t, store.Validate(consumed), ErrStateNotFound)
	assert.NoError(t, store.Validate(fresh))
}

func TestStateStore_TokensAreUnique(t *testing.T) {
	store, _ := newTestStore()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := store.Issue()
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token issued")
		assert.GreaterOrEqual(t, len(token), 43)
		seen[token] = true
	}
}

func TestStateStore_ConcurrentValidateSucceedsOnce(t *testing.T) {
	store, _ := newTestStore()
	token, err := store.Issue()
	require.NoError(t, err)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.Validate(token) == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
}
