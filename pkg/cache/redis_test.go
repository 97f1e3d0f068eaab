package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"temple-backend/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := NewStore(utils.RedisConfig{
		Host: mr.Host(),
		Port: mr.Port(),
	}, zap.NewNop())
	require.True(t, store.Available())
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestStoreDisabledWithoutConfig(t *testing.T) {
	store := NewStore(utils.RedisConfig{}, zap.NewNop())
	ctx := context.Background()

	assert.False(t, store.Available())

	// Every operation degrades silently instead of erroring
	store.Issue(ctx, NamespaceOTP, "a@b.com", "123456", time.Minute)

	_, ok := store.Read(ctx, NamespaceOTP, "a@b.com")
	assert.False(t, ok)

	_, ok = store.ConsumeOnce(ctx, NamespaceOTP, "a@b.com")
	assert.False(t, ok)

	assert.EqualValues(t, 0, store.IncrementWithWindow(ctx, NamespaceOTPAttempts, "a@b.com", time.Minute))
	assert.EqualValues(t, -1, store.TTL(ctx, NamespaceOTP, "a@b.com"))

	store.Delete(ctx, NamespaceOTP, "a@b.com")
	store.RevokeAllForSubject(ctx, NamespaceRefresh, "user")
	assert.NoError(t, store.Close())
}

func TestStoreDisabledOnUnreachableTarget(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Host()
	port := mr.Port()
	mr.Close()

	store := NewStore(utils.RedisConfig{Host: addr, Port: port}, zap.NewNop())
	assert.False(t, store.Available())
}

func TestIssueAndRead(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	store.Issue(ctx, NamespaceOTP, "a@b.com", "482917", 5*time.Minute)

	value, ok := store.Read(ctx, NamespaceOTP, "a@b.com")
	require.True(t, ok)
	assert.Equal(t, "482917", value)

	// Keys are namespaced
	got, err := mr.Get("otp:a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "482917", got)

	// Re-issue overwrites
	store.Issue(ctx, NamespaceOTP, "a@b.com", "000111", 5*time.Minute)
	value, ok = store.Read(ctx, NamespaceOTP, "a@b.com")
	require.True(t, ok)
	assert.Equal(t, "000111", value)
}

func TestReadAbsentAndExpired(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, ok := store.Read(ctx, NamespaceOTP, "missing@b.com")
	assert.False(t, ok)

	store.Issue(ctx, NamespaceOTP, "a@b.com", "482917", time.Minute)
	mr.FastForward(2 * time.Minute)

	_, ok = store.Read(ctx, NamespaceOTP, "a@b.com")
	assert.False(t, ok)
}

func TestConsumeOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Issue(ctx, NamespaceSession, "token-1", "payload", time.Minute)

	value, ok := store.ConsumeOnce(ctx, NamespaceSession, "token-1")
	require.True(t, ok)
	assert.Equal(t, "payload", value)

	// Gone after the first consume
	_, ok = store.ConsumeOnce(ctx, NamespaceSession, "token-1")
	assert.False(t, ok)
	_, ok = store.Read(ctx, NamespaceSession, "token-1")
	assert.False(t, ok)
}

func TestConsumeOnceSingleWinner(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Issue(ctx, NamespaceSession, "token-race", "payload", time.Minute)

	const consumers = 20
	var wg sync.WaitGroup
	wins := make(chan string, consumers)

	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if value, ok := store.ConsumeOnce(ctx, NamespaceSession, "token-race"); ok {
				wins <- value
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []string
	for value := range wins {
		winners = append(winners, value)
	}

	require.Len(t, winners, 1)
	assert.Equal(t, "payload", winners[0])
}

func TestIncrementWithWindow(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	assert.EqualValues(t, 1, store.IncrementWithWindow(ctx, NamespaceOTPAttempts, "a@b.com:req", time.Hour))
	assert.EqualValues(t, 2, store.IncrementWithWindow(ctx, NamespaceOTPAttempts, "a@b.com:req", time.Hour))
	assert.EqualValues(t, 3, store.IncrementWithWindow(ctx, NamespaceOTPAttempts, "a@b.com:req", time.Hour))

	// Fixed window: the TTL is pinned by the first increment, later ones
	// must not extend it
	ttlBefore := mr.TTL("otp_attempts:a@b.com:req")
	store.IncrementWithWindow(ctx, NamespaceOTPAttempts, "a@b.com:req", time.Hour)
	assert.LessOrEqual(t, mr.TTL("otp_attempts:a@b.com:req"), ttlBefore)

	// Window elapses, counter starts over
	mr.FastForward(2 * time.Hour)
	assert.EqualValues(t, 1, store.IncrementWithWindow(ctx, NamespaceOTPAttempts, "a@b.com:req", time.Hour))
}

func TestTTL(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Issue(ctx, NamespaceOTP, "a@b.com", "482917", 5*time.Minute)

	ttl := store.TTL(ctx, NamespaceOTP, "a@b.com")
	assert.Greater(t, ttl, int64(0))
	assert.LessOrEqual(t, ttl, int64(300))

	assert.EqualValues(t, -1, store.TTL(ctx, NamespaceOTP, "missing@b.com"))
}

func TestRevokeAllForSubject(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Issue(ctx, NamespaceRefresh, "user-1:device-a", "hash-a", time.Hour)
	store.Issue(ctx, NamespaceRefresh, "user-1:device-b", "hash-b", time.Hour)
	store.Issue(ctx, NamespaceRefresh, "user-2:device-a", "hash-c", time.Hour)

	store.RevokeAllForSubject(ctx, NamespaceRefresh, "user-1")

	_, ok := store.Read(ctx, NamespaceRefresh, "user-1:device-a")
	assert.False(t, ok)
	_, ok = store.Read(ctx, NamespaceRefresh, "user-1:device-b")
	assert.False(t, ok)

	// Other subjects are untouched
	value, ok := store.Read(ctx, NamespaceRefresh, "user-2:device-a")
	require.True(t, ok)
	assert.Equal(t, "hash-c", value)
}

func TestNamespaceIsolation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Issue(ctx, NamespaceOTP, "subject", "in-otp", time.Minute)

	_, ok := store.Read(ctx, NamespaceSession, "subject")
	assert.False(t, ok)

	value, ok := store.Read(ctx, NamespaceOTP, "subject")
	require.True(t, ok)
	assert.Equal(t, "in-otp", value)
}
