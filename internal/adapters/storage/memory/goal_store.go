package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

type GoalStore struct {
	mu    sync.RWMutex
	goals map[domain.UserID]map[domain.GoalID]*domain.Goal
	seq   map[domain.GoalID]int // insertion order, breaks CreatedAt ties
}

func NewGoalStore() *GoalStore {
	return &GoalStore{
		goals: make(map[domain.UserID]map[domain.GoalID]*domain.Goal),
		seq:   make(map[domain.GoalID]int),
	}
}

// SaveGoal inserts or replaces a goal.
func (s *GoalStore) SaveGoal(_ context.Context, goal *domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.goals[goal.UserID]
	if !ok {
		byID = make(map[domain.GoalID]*domain.Goal)
		s.goals[goal.UserID] = byID
	}
	if _, seen := s.seq[goal.ID]; !seen {
		s.seq[goal.ID] = len(s.seq)
	}
	cp := *goal
	byID[goal.ID] = &cp
	return nil
}

func (s *GoalStore) GetGoal(_ context.Context, userID domain.UserID, id domain.GoalID) (*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[userID][id]
	if !ok {
		return nil, fmt.Errorf("goal %s: %w", id, domain.ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

// ListGoalsByUser returns goals oldest first. An empty status returns all.
func (s *GoalStore) ListGoalsByUser(_ context.Context, userID domain.UserID, status domain.GoalStatus) ([]*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Goal{}
	for _, g := range s.goals[userID] {
		if status != "" && g.Status != status {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] < s.seq[out[j].ID]
	})
	return out, nil
}
