package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

type goalDoc struct {
	Text        string     `firestore:"text"`
	Status      string     `firestore:"status"`
	SessionID   string     `firestore:"session_id"`
	CreatedAt   time.Time  `firestore:"created_at"`
	CompletedAt *time.Time `firestore:"completed_at"`
}

func (d goalDoc) toDomain(userID domain.UserID, id string) *domain.Goal {
	return &domain.Goal{
		ID:          domain.GoalID(id),
		UserID:      userID,
		Text:        d.Text,
		Status:      domain.GoalStatus(d.Status),
		SessionID:   domain.SessionID(d.SessionID),
		CreatedAt:   d.CreatedAt,
		CompletedAt: d.CompletedAt,
	}
}

type notebookDoc struct {
	SessionID string    `firestore:"session_id"`
	Title     string    `firestore:"title"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"created_at"`
}

type reframingDoc struct {
	SessionID              string    `firestore:"session_id"`
	OriginalThought        string    `firestore:"original_thought"`
	ReframedThought        string    `firestore:"reframed_thought"`
	AlternativePerspective string    `firestore:"alternative_perspective"`
	SupportingEvidence     []string  `firestore:"supporting_evidence"`
	CreatedAt              time.Time `firestore:"created_at"`
}

type profileDoc struct {
	Name        string         `firestore:"name"`
	MBTIType    string         `firestore:"mbti_type"`
	IssueCounts map[string]int `firestore:"issue_counts"`
	UpdatedAt   time.Time      `firestore:"updated_at"`
}

// ─────────────────────────────────────────
// GoalStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveGoal(ctx context.Context, goal *domain.Goal) error {
	doc := goalDoc{
		Text:        goal.Text,
		Status:      string(goal.Status),
		SessionID:   string(goal.SessionID),
		CreatedAt:   goal.CreatedAt,
		CompletedAt: goal.CompletedAt,
	}
	if _, err := s.userCol(goal.UserID, "goals").Doc(string(goal.ID)).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveGoal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, userID domain.UserID, id domain.GoalID) (*domain.Goal, error) {
	snap, err := s.userCol(userID, "goals").Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: goal %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("firestore GetGoal: %w", err)
	}

	var doc goalDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetGoal decode: %w", err)
	}
	return doc.toDomain(userID, snap.Ref.ID), nil
}

func (s *Store) ListGoalsByUser(ctx context.Context, userID domain.UserID, st domain.GoalStatus) ([]*domain.Goal, error) {
	q := s.userCol(userID, "goals").Query
	if st != "" {
		q = q.Where("status", "==", string(st))
	}

	out, err := collect(q.OrderBy("created_at", firestore.Asc).Documents(ctx), func(snap *firestore.DocumentSnapshot) (*domain.Goal, error) {
		var doc goalDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode goalDoc: %w", err)
		}
		return doc.toDomain(userID, snap.Ref.ID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore ListGoalsByUser: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// NotebookStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendNotebookEntry(ctx context.Context, entry *domain.NotebookEntry) error {
	doc := notebookDoc{
		SessionID: string(entry.SessionID),
		Title:     entry.Title,
		Text:      entry.Text,
		CreatedAt: entry.CreatedAt,
	}
	if _, err := s.userCol(entry.UserID, "notebook").Doc(string(entry.ID)).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendNotebookEntry: %w", err)
	}
	return nil
}

func (s *Store) ListNotebookEntriesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.NotebookEntry, error) {
	out, err := lastN(ctx, s.userCol(userID, "notebook").Query, limit, func(snap *firestore.DocumentSnapshot) (*domain.NotebookEntry, error) {
		var doc notebookDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode notebookDoc: %w", err)
		}
		return &domain.NotebookEntry{
			ID:        domain.NotebookEntryID(snap.Ref.ID),
			UserID:    userID,
			SessionID: domain.SessionID(doc.SessionID),
			Title:     doc.Title,
			Text:      doc.Text,
			CreatedAt: doc.CreatedAt,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore ListNotebookEntriesByUser: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// ReframingStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveReframing(ctx context.Context, r *domain.SavedReframing) error {
	doc := reframingDoc{
		SessionID:              string(r.SessionID),
		OriginalThought:        r.Result.OriginalThought,
		ReframedThought:        r.Result.ReframedThought,
		AlternativePerspective: r.Result.AlternativePerspective,
		SupportingEvidence:     r.Result.SupportingEvidence,
		CreatedAt:              r.CreatedAt,
	}
	if _, err := s.userCol(r.UserID, "reframings").Doc(string(r.ID)).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveReframing: %w", err)
	}
	return nil
}

func (s *Store) ListReframingsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.SavedReframing, error) {
	out, err := lastN(ctx, s.userCol(userID, "reframings").Query, limit, func(snap *firestore.DocumentSnapshot) (*domain.SavedReframing, error) {
		var doc reframingDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode reframingDoc: %w", err)
		}
		return &domain.SavedReframing{
			ID:        domain.ReframingID(snap.Ref.ID),
			UserID:    userID,
			SessionID: domain.SessionID(doc.SessionID),
			Result: domain.ReframingResult{
				OriginalThought:        doc.OriginalThought,
				ReframedThought:        doc.ReframedThought,
				AlternativePerspective: doc.AlternativePerspective,
				SupportingEvidence:     doc.SupportingEvidence,
			},
			CreatedAt: doc.CreatedAt,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore ListReframingsByUser: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	snap, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return &domain.Profile{UserID: userID, IssueCounts: map[string]int{}}, nil
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}
	if doc.IssueCounts == nil {
		doc.IssueCounts = map[string]int{}
	}
	return &domain.Profile{
		UserID:      userID,
		Name:        doc.Name,
		MBTIType:    doc.MBTIType,
		IssueCounts: doc.IssueCounts,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// UpsertProfile merges name and MBTI fields, leaving counters untouched.
func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	doc := map[string]interface{}{
		"name":       profile.Name,
		"mbti_type":  profile.MBTIType,
		"updated_at": s.now(),
	}
	if _, err := s.userDoc(profile.UserID).Set(ctx, doc, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore UpsertProfile: %w", err)
	}
	return nil
}

// IncrementIssueCounts bumps counters server-side so concurrent turns never
// lose an increment.
func (s *Store) IncrementIssueCounts(ctx context.Context, userID domain.UserID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	counts := make(map[string]interface{}, len(tags))
	for _, tag := range tags {
		counts[tag] = firestore.Increment(1)
	}
	doc := map[string]interface{}{
		"issue_counts": counts,
		"updated_at":   s.now(),
	}
	if _, err := s.userDoc(userID).Set(ctx, doc, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore IncrementIssueCounts: %w", err)
	}
	return nil
}
