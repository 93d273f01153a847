package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"courtbook/internal/status"
	"courtbook/models"
	"courtbook/utils"

	"github.com/redis/go-redis/v9"
)

// LockStore is the admission gate in front of booking creation. Acquire is a
// single atomic attempt: under N concurrent callers for the same key exactly
// one wins, the rest fail immediately with status.ErrSlotNotAvailable. Locks
// self-expire after their TTL; no cleanup process is required for
// correctness.
type LockStore interface {
	Acquire(ctx context.Context, key models.SlotKey, ownerHint string, ttl time.Duration) (*models.SlotLock, error)
	Renew(ctx context.Context, key models.SlotKey, token string, ttl time.Duration) (*models.SlotLock, error)
	// Release is idempotent: releasing an absent or expired lock is not an
	// error. Releasing with a foreign token is.
	Release(ctx context.Context, key models.SlotKey, token string) error
	// Inspect returns the live lock for key, or nil when the key is free.
	Inspect(ctx context.Context, key models.SlotKey) (*models.SlotLock, error)
}

// LockSweeper is the optional maintenance hook used by the expiry reaper.
type LockSweeper interface {
	// SweepExpired drops observably-expired entries and reports how many
	// were removed and how many live locks remain.
	SweepExpired(ctx context.Context) (removed, live int, err error)
}

// Compare-token scripts. Ownership is proven by the token inside the stored
// payload; GET+check+write must be one atomic unit or two owners could
// interleave.
const renewLockScript = `
local raw = redis.call("GET", KEYS[1])
if not raw then return 0 end
local lock = cjson.decode(raw)
if lock.token ~= ARGV[1] then return -1 end
lock.expires_at = ARGV[2]
local updated = cjson.encode(lock)
redis.call("SET", KEYS[1], updated, "PX", ARGV[3])
return updated
`

const releaseLockScript = `
local raw = redis.call("GET", KEYS[1])
if not raw then return 1 end
local lock = cjson.decode(raw)
if lock.token ~= ARGV[1] then return -1 end
redis.call("DEL", KEYS[1])
return 1
`

// RedisLockStore backs the lock namespace with Redis. SET NX EX gives
// linearizable acquire; Redis expiry enforces the TTL server-side.
type RedisLockStore struct {
	Redis *redis.Client

	now      func() time.Time
	newToken func() (string, error)
}

func NewRedisLockStore(redisClient *redis.Client) *RedisLockStore {
	return &RedisLockStore{
		Redis:    redisClient,
		now:      time.Now,
		newToken: utils.NewLockToken,
	}
}

func (s *RedisLockStore) Acquire(ctx context.Context, key models.SlotKey, ownerHint string, ttl time.Duration) (*models.SlotLock, error) {
	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	lock := &models.SlotLock{
		Key:       key,
		Token:     token,
		OwnerHint: ownerHint,
		ExpiresAt: s.now().Add(ttl),
	}

	data, err := json.Marshal(lock)
	if err != nil {
		return nil, err
	}

	ok, err := s.Redis.SetNX(ctx, key.String(), string(data), ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return nil, status.ErrSlotNotAvailable
	}

	return lock, nil
}

// Renew extends the lease in place. The script rewrites only the expiry
// inside the stored payload, so the owner hint set at acquire time survives
// every renewal.
func (s *RedisLockStore) Renew(ctx context.Context, key models.SlotKey, token string, ttl time.Duration) (*models.SlotLock, error) {
	expiresAt := s.now().Add(ttl)

	res, err := s.Redis.Eval(ctx, renewLockScript, []string{key.String()},
		token, expiresAt.Format(time.RFC3339Nano), ttl.Milliseconds()).Result()
	if err != nil {
		return nil, fmt.Errorf("renew slot lock: %w", err)
	}

	raw, ok := res.(string)
	if !ok {
		// 0 = expired/absent, -1 = foreign token
		return nil, status.ErrSlotLockInvalid
	}

	var lock models.SlotLock
	if err := json.Unmarshal([]byte(raw), &lock); err != nil {
		return nil, fmt.Errorf("decode renewed slot lock: %w", err)
	}
	return &lock, nil
}

func (s *RedisLockStore) Release(ctx context.Context, key models.SlotKey, token string) error {
	res, err := s.Redis.Eval(ctx, releaseLockScript, []string{key.String()}, token).Int()
	if err != nil {
		return fmt.Errorf("release slot lock: %w", err)
	}
	if res == -1 {
		return status.ErrSlotLockInvalid
	}
	return nil
}

func (s *RedisLockStore) Inspect(ctx context.Context, key models.SlotKey) (*models.SlotLock, error) {
	raw, err := s.Redis.Get(ctx, key.String()).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("inspect slot lock: %w", err)
	}

	var lock models.SlotLock
	if err := json.Unmarshal([]byte(raw), &lock); err != nil {
		return nil, fmt.Errorf("decode slot lock: %w", err)
	}

	// Redis expiry already removes dead keys; the payload check only guards
	// against clock drift between writer and store.
	if lock.Expired(s.now()) {
		return nil, nil
	}

	return &lock, nil
}

// SweepExpired counts live lock keys. Redis drops expired entries on its
// own, so the sweep is pure bookkeeping for the availability gauges.
func (s *RedisLockStore) SweepExpired(ctx context.Context) (int, int, error) {
	var (
		cursor uint64
		live   int
	)

	for {
		keys, next, err := s.Redis.Scan(ctx, cursor, "slotlock:*", 100).Result()
		if err != nil {
			return 0, 0, fmt.Errorf("scan slot locks: %w", err)
		}
		live += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return 0, live, nil
}
