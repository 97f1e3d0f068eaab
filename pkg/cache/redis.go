package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"temple-backend/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Namespace prefixes every credential key so unrelated secrets can never
// collide: otp codes, otp attempt counters, short-lived session tokens,
// per-device refresh token hashes.
type Namespace string

const (
	NamespaceOTP         Namespace = "otp"
	NamespaceOTPAttempts Namespace = "otp_attempts"
	NamespaceSession     Namespace = "session"
	NamespaceRefresh     Namespace = "refresh"
)

const (
	connectTimeout = 3 * time.Second
	// minimum TTL yang dipakai kalau caller kasih ttl <= 0 (defect)
	minTTL = time.Second
	// how often a downed store re-probes the server on the next operation
	reconnectProbeInterval = 30 * time.Second
)

// GET and DEL in one server-side step, so two concurrent consumers can
// never both observe the same value.
const consumeOnceScript = `
local value = redis.call("GET", KEYS[1])
if value then
  redis.call("DEL", KEYS[1])
end
return value
`

var consumeOnceLua = redis.NewScript(consumeOnceScript)

// Store is a namespace-scoped, TTL-bound credential store on top of Redis.
//
// Every operation checks the connection flag first: when Redis is not
// configured or unreachable, writes are silent no-ops and reads return
// absent. Transport failures are never surfaced to callers - this store
// backs security checks that must default to reject, and the application
// has functional fallbacks (re-request a code, re-login).
type Store struct {
	client      redis.UniversalClient
	connected   atomic.Bool
	lastProbeAt atomic.Int64
	log         *zap.Logger
}

// NewStore connects eagerly once. No Redis configuration at all is a
// supported mode: the store is returned permanently disabled, without error.
// An unreachable target is logged once and also ends up disabled.
func NewStore(config utils.RedisConfig, log *zap.Logger) *Store {
	s := &Store{
		log: log.With(zap.String("component", "cache")),
	}

	if config.URL == "" && config.Host == "" {
		s.log.Info("No Redis configuration found, credential store disabled")
		return s
	}

	var opts *redis.Options
	if config.URL != "" {
		parsed, err := redis.ParseURL(config.URL)
		if err != nil {
			s.log.Warn("Invalid Redis URL, credential store disabled", zap.Error(err))
			return s
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     config.Host + ":" + config.Port,
			Password: config.Password,
		}
		if config.TLS {
			opts.TLSConfig = &tls.Config{}
		}
	}

	opts.MaxRetries = 3
	opts.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
		s.connected.Store(true)
		return nil
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		s.log.Warn("Redis connection failed, credential store disabled", zap.Error(err))
		client.Close()
		return s
	}

	s.client = client
	s.connected.Store(true)
	s.log.Info("Redis connected", zap.String("addr", opts.Addr))

	return s
}

// Available reports whether the store will currently attempt operations.
func (s *Store) Available() bool {
	return s.available()
}

// Close releases the underlying connection. Safe on a disabled store.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Issue stores value under the namespaced subject key, overwriting any
// previous value. TTL is mandatory - every credential must self-expire.
func (s *Store) Issue(ctx context.Context, ns Namespace, subject, value string, ttl time.Duration) {
	if !s.available() {
		return
	}

	if ttl < minTTL {
		s.log.Warn("Credential issued without a sane TTL, clamping",
			zap.String("namespace", string(ns)),
			zap.Duration("ttl", ttl))
		ttl = minTTL
	}

	if err := s.client.Set(ctx, s.key(ns, subject), value, ttl).Err(); err != nil {
		s.fail("issue", err)
	}
}

// Read returns the value for the subject, or absent. Never errors:
// a miss, a disabled store and a transport failure all read the same.
func (s *Store) Read(ctx context.Context, ns Namespace, subject string) (string, bool) {
	if !s.available() {
		return "", false
	}

	value, err := s.client.Get(ctx, s.key(ns, subject)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.fail("read", err)
		}
		return "", false
	}

	return value, true
}

// ConsumeOnce atomically reads and deletes the value in a single round
// trip. Of any number of concurrent consumers, exactly one observes the
// value; the rest get absent.
func (s *Store) ConsumeOnce(ctx context.Context, ns Namespace, subject string) (string, bool) {
	if !s.available() {
		return "", false
	}

	result, err := consumeOnceLua.Run(ctx, s.client, []string{s.key(ns, subject)}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.fail("consume", err)
		}
		return "", false
	}

	value, ok := result.(string)
	if !ok {
		return "", false
	}

	return value, true
}

// Delete removes the subject's credential. Idempotent.
func (s *Store) Delete(ctx context.Context, ns Namespace, subject string) {
	if !s.available() {
		return
	}

	if err := s.client.Del(ctx, s.key(ns, subject)).Err(); err != nil {
		s.fail("delete", err)
	}
}

// IncrementWithWindow bumps a fixed-window counter and returns the new
// count. The TTL is set only on the 0 -> 1 transition; later increments do
// not extend the window. Returns 0 when the store is unavailable.
func (s *Store) IncrementWithWindow(ctx context.Context, ns Namespace, subject string, ttl time.Duration) int64 {
	if !s.available() {
		return 0
	}

	key := s.key(ns, subject)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		s.fail("increment", err)
		return 0
	}

	// Fixed window: TTL hanya di hit pertama. Two racing first-increments
	// both setting the same TTL is harmless.
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			s.fail("increment", err)
		}
	}

	return count
}

// TTL returns the remaining lifetime of the subject's credential in whole
// seconds, or -1 when absent or the store is unavailable.
func (s *Store) TTL(ctx context.Context, ns Namespace, subject string) int64 {
	if !s.available() {
		return -1
	}

	ttl, err := s.client.TTL(ctx, s.key(ns, subject)).Result()
	if err != nil {
		s.fail("ttl", err)
		return -1
	}
	if ttl <= 0 {
		return -1
	}

	return int64(ttl.Seconds())
}

// RevokeAllForSubject deletes every credential under the subject's prefix,
// e.g. all refresh tokens a user holds across devices. SCAN keeps the
// operation safe for an unbounded key count.
func (s *Store) RevokeAllForSubject(ctx context.Context, ns Namespace, subject string) {
	if !s.available() {
		return
	}

	pattern := s.key(ns, subject) + ":*"
	var cursor uint64

	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			s.fail("revoke_all", err)
			return
		}

		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				s.fail("revoke_all", err)
				return
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
}

// ==================== INTERNAL ====================

func (s *Store) key(ns Namespace, subject string) string {
	return fmt.Sprintf("%s:%s", ns, subject)
}

// available gates every operation on the connection flag. A downed store
// lets one operation through per probe interval so a recovered Redis is
// picked up again without a restart; there is no foreground retry loop.
func (s *Store) available() bool {
	if s.client == nil {
		return false
	}
	if s.connected.Load() {
		return true
	}

	last := s.lastProbeAt.Load()
	now := time.Now().UnixNano()
	if now-last >= int64(reconnectProbeInterval) && s.lastProbeAt.CompareAndSwap(last, now) {
		return true
	}

	return false
}

// fail flips the connection flag down and logs once per outage.
func (s *Store) fail(op string, err error) {
	if s.connected.Swap(false) {
		s.log.Warn("Redis unavailable, operations degrade to absent",
			zap.String("op", op),
			zap.Error(err))
	}
}
