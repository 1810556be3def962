package cache

import (
	"context"
	"sync"
	"time"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
)

var _ billing.IdempotencyStore = (*MemoryStore)(nil)

// MemoryStore IdempotencyStore en proceso. Sólo válido con una única instancia.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]time.Time // clave -> expiración
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.keys[key] = now.Add(ttl)
	s.sweep(now)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// sweep elimina claves expiradas; se llama con el mutex tomado.
func (s *MemoryStore) sweep(now time.Time) {
	if len(s.keys) < 1024 {
		return
	}
	for k, exp := range s.keys {
		if !now.Before(exp) {
			delete(s.keys, k)
		}
	}
}
