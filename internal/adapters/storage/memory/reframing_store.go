package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

type ReframingStore struct {
	mu     sync.RWMutex
	byUser map[domain.UserID][]*domain.SavedReframing
}

func NewReframingStore() *ReframingStore {
	return &ReframingStore{
		byUser: make(map[domain.UserID][]*domain.SavedReframing),
	}
}

func (s *ReframingStore) SaveReframing(_ context.Context, r *domain.SavedReframing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUser[r.UserID] = append(s.byUser[r.UserID], r)
	return nil
}

// ListReframingsByUser returns the last `limit` saved reframings, oldest first.
func (s *ReframingStore) ListReframingsByUser(_ context.Context, userID domain.UserID, limit int) ([]*domain.SavedReframing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return tail(s.byUser[userID], limit), nil
}
