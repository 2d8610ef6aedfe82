package pending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

const cleanupInterval = time.Minute

type entry struct {
	tmp       models.TemporaryCredential
	expiresAt time.Time
}

// MemoryStore keeps temporary credentials in process memory.
// Entries are lost on restart, which only forces the user to reconnect.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	stopGC  chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a store and starts a goroutine that reaps expired entries.
// Call Stop to end it.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		stopGC:  make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

// Stop terminates the background cleanup goroutine. It is safe to call more than once.
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.stopGC) })
}

func (s *MemoryStore) gcLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopGC:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// Put stores tmp under its token, replacing any previous entry.
func (s *MemoryStore) Put(_ context.Context, tmp models.TemporaryCredential) error {
	if tmp.Token == "" || tmp.Secret == "" {
		return fmt.Errorf("%w: temporary credential requires token and secret", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	s.entries[tmp.Token] = entry{tmp: tmp, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Take removes and returns the credential for token.
func (s *MemoryStore) Take(_ context.Context, token string) (models.TemporaryCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return models.TemporaryCredential{}, shared.ErrHandshakeExpired
	}
	delete(s.entries, token)

	if s.now().After(e.expiresAt) {
		return models.TemporaryCredential{}, shared.ErrHandshakeExpired
	}
	return e.tmp, nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
