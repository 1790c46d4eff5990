// Package devreset keeps issued temporary passwords in memory so they can be read back over the
// dev-only DevService. Only wired when APP_ENV is not production and DEV_RESET_DELIVERY is set.
package devreset

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a delivered temporary password stays readable.
const DefaultTTL = 15 * time.Minute

type entry struct {
	password  string
	expiresAt time.Time
}

// MemoryStore holds the latest temporary password per email. It implements the password reset
// Deliverer interface.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	ttl  time.Duration
	nowF func() time.Time
}

// NewMemoryStore returns a store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		m:    make(map[string]entry),
		ttl:  ttl,
		nowF: time.Now,
	}
}

// Deliver stores tempPassword for email, replacing any earlier one.
func (s *MemoryStore) Deliver(ctx context.Context, email, tempPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key(email)] = entry{password: tempPassword, expiresAt: s.nowF().Add(s.ttl)}
	log.Printf("devreset: temporary password held for email=%s", email)
	return nil
}

// Get returns the temporary password for email if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, email string) (string, bool) {
	k := key(email)
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, k)
		s.mu.Unlock()
		return "", false
	}
	return e.password, true
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
