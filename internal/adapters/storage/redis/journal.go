package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// ─────────────────────────────────────────
// GoalStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveGoal(ctx context.Context, goal *domain.Goal) error {
	data, err := json.Marshal(goal)
	if err != nil {
		return fmt.Errorf("marshal goal: %w", err)
	}
	if err := s.rdb.HSet(ctx, userKey(goal.UserID, "goals"), string(goal.ID), data).Err(); err != nil {
		return fmt.Errorf("redis SaveGoal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, userID domain.UserID, id domain.GoalID) (*domain.Goal, error) {
	data, err := s.rdb.HGet(ctx, userKey(userID, "goals"), string(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: goal %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis GetGoal: %w", err)
	}

	var g domain.Goal
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal goal: %w", err)
	}
	return &g, nil
}

// ListGoalsByUser returns goals oldest first. An empty status returns all.
func (s *Store) ListGoalsByUser(ctx context.Context, userID domain.UserID, status domain.GoalStatus) ([]*domain.Goal, error) {
	all, err := s.rdb.HGetAll(ctx, userKey(userID, "goals")).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ListGoalsByUser: %w", err)
	}

	out := make([]*domain.Goal, 0, len(all))
	for _, raw := range all {
		var g domain.Goal
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return nil, fmt.Errorf("unmarshal goal: %w", err)
		}
		if status != "" && g.Status != status {
			continue
		}
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ─────────────────────────────────────────
// NotebookStore / ReframingStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendNotebookEntry(ctx context.Context, entry *domain.NotebookEntry) error {
	return s.push(ctx, userKey(entry.UserID, "notebook"), entry)
}

func (s *Store) ListNotebookEntriesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.NotebookEntry, error) {
	out, err := tail[*domain.NotebookEntry](ctx, s.rdb, userKey(userID, "notebook"), limit)
	if err != nil {
		return nil, fmt.Errorf("redis ListNotebookEntriesByUser: %w", err)
	}
	return out, nil
}

func (s *Store) SaveReframing(ctx context.Context, r *domain.SavedReframing) error {
	return s.push(ctx, userKey(r.UserID, "reframings"), r)
}

func (s *Store) ListReframingsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.SavedReframing, error) {
	out, err := tail[*domain.SavedReframing](ctx, s.rdb, userKey(userID, "reframings"), limit)
	if err != nil {
		return nil, fmt.Errorf("redis ListReframingsByUser: %w", err)
	}
	return out, nil
}

func (s *Store) push(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s item: %w", key, err)
	}
	if err := s.rdb.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("redis push %s: %w", key, err)
	}
	return nil
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	var fields *redis.MapStringStringCmd
	var counts *redis.MapStringStringCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		fields = p.HGetAll(ctx, userKey(userID, "profile"))
		counts = p.HGetAll(ctx, userKey(userID, "issues"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis GetProfile: %w", err)
	}

	p := &domain.Profile{UserID: userID, IssueCounts: map[string]int{}}
	f := fields.Val()
	p.Name = f["name"]
	p.MBTIType = f["mbti_type"]
	if ts := f["updated_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			p.UpdatedAt = t
		}
	}
	for tag, raw := range counts.Val() {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("issue counter %q: %w", tag, err)
		}
		p.IssueCounts[tag] = n
	}
	return p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	err := s.rdb.HSet(ctx, userKey(profile.UserID, "profile"),
		"name", profile.Name,
		"mbti_type", profile.MBTIType,
		"updated_at", s.now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("redis UpsertProfile: %w", err)
	}
	return nil
}

func (s *Store) IncrementIssueCounts(ctx context.Context, userID domain.UserID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	key := userKey(userID, "issues")
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, tag := range tags {
			p.HIncrBy(ctx, key, tag, 1)
		}
		p.HSet(ctx, userKey(userID, "profile"), "updated_at", s.now().UTC().Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis IncrementIssueCounts: %w", err)
	}
	return nil
}
