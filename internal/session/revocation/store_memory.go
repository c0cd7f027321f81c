package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process revocation list for unit tests and single-instance
// dev deployments. Expired entries are purged lazily on access.
type Memory struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemory constructs an empty in-memory revocation list.
func NewMemory() *Memory {
	return &Memory{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *Memory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = m.now().Add(ttl)
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if m.now().After(expiry) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}
