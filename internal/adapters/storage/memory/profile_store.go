package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]*domain.Profile
	now      func() time.Time
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[domain.UserID]*domain.Profile),
		now:      time.Now,
	}
}

func (s *ProfileStore) GetProfile(_ context.Context, userID domain.UserID) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return &domain.Profile{UserID: userID, IssueCounts: map[string]int{}}, nil
	}
	return clone(p), nil
}

// UpsertProfile replaces name and MBTI fields. Issue counters are only
// changed through IncrementIssueCounts.
func (s *ProfileStore) UpsertProfile(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreate(profile.UserID)
	p.Name = profile.Name
	p.MBTIType = profile.MBTIType
	p.UpdatedAt = s.now()
	return nil
}

func (s *ProfileStore) IncrementIssueCounts(_ context.Context, userID domain.UserID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreate(userID)
	for _, tag := range tags {
		p.IssueCounts[tag]++
	}
	p.UpdatedAt = s.now()
	return nil
}

func (s *ProfileStore) getOrCreate(userID domain.UserID) *domain.Profile {
	p, ok := s.profiles[userID]
	if !ok {
		p = &domain.Profile{UserID: userID, IssueCounts: map[string]int{}}
		s.profiles[userID] = p
	}
	return p
}

func clone(p *domain.Profile) *domain.Profile {
	cp := *p
	cp.IssueCounts = maps.Clone(p.IssueCounts)
	if cp.IssueCounts == nil {
		cp.IssueCounts = map[string]int{}
	}
	return &cp
}
