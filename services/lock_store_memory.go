package services

import (
	"context"
	"sync"
	"time"

	"courtbook/internal/status"
	"courtbook/models"
	"courtbook/utils"
)

// MemoryLockStore is the single-process LockStore: a mutex-guarded map with
// lazy expiry on read. It carries the same contract as the Redis store and
// backs tests and small single-node deployments.
type MemoryLockStore struct {
	mu    sync.Mutex
	locks map[string]*models.SlotLock

	now      func() time.Time
	newToken func() (string, error)
}

func NewMemoryLockStore() *MemoryLockStore {
	return &MemoryLockStore{
		locks:    make(map[string]*models.SlotLock),
		now:      time.Now,
		newToken: utils.NewLockToken,
	}
}

// live returns the unexpired lock for k, dropping a dead entry on the way.
// Callers must hold mu.
func (s *MemoryLockStore) live(k string) *models.SlotLock {
	lock, ok := s.locks[k]
	if !ok {
		return nil
	}
	if lock.Expired(s.now()) {
		delete(s.locks, k)
		return nil
	}
	return lock
}

func (s *MemoryLockStore) Acquire(ctx context.Context, key models.SlotKey, ownerHint string, ttl time.Duration) (*models.SlotLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live(key.String()) != nil {
		return nil, status.ErrSlotNotAvailable
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}

	lock := &models.SlotLock{
		Key:       key,
		Token:     token,
		OwnerHint: ownerHint,
		ExpiresAt: s.now().Add(ttl),
	}
	s.locks[key.String()] = lock

	copy := *lock
	return &copy, nil
}

func (s *MemoryLockStore) Renew(ctx context.Context, key models.SlotKey, token string, ttl time.Duration) (*models.SlotLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := s.live(key.String())
	if lock == nil || lock.Token != token {
		return nil, status.ErrSlotLockInvalid
	}

	lock.ExpiresAt = s.now().Add(ttl)
	copy := *lock
	return &copy, nil
}

func (s *MemoryLockStore) Release(ctx context.Context, key models.SlotKey, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := s.live(key.String())
	if lock == nil {
		// already expired or never held: releasing is idempotent
		return nil
	}
	if lock.Token != token {
		return status.ErrSlotLockInvalid
	}

	delete(s.locks, key.String())
	return nil
}

func (s *MemoryLockStore) Inspect(ctx context.Context, key models.SlotKey) (*models.SlotLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := s.live(key.String())
	if lock == nil {
		return nil, nil
	}

	copy := *lock
	return &copy, nil
}

// SweepExpired removes every expired entry so the map does not grow without
// bound between reads of cold keys.
func (s *MemoryLockStore) SweepExpired(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, lock := range s.locks {
		if lock.Expired(now) {
			delete(s.locks, k)
			removed++
		}
	}

	return removed, len(s.locks), nil
}
