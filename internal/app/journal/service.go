package journal

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/mira-agent/internal/app/tools"
	"github.com/PabloGalante/mira-agent/internal/domain"
	"github.com/PabloGalante/mira-agent/internal/observability"
)

const (
	defaultListLimit = 20
	summaryTopTags   = 5
)

var mbtiPattern = regexp.MustCompile(`^[EI][SN][TF][JP]$`)

// Service holds the logic of reading and writing a user's journal:
// goals, notebook entries, saved reframings and profile.
type Service struct {
	goals      domain.GoalStore
	reframings domain.ReframingStore
	notebook   domain.NotebookStore
	profiles   domain.ProfileStore
	writer     *tools.NotebookTool
	now        func() time.Time
}

// NewService creates a journal service over the given stores.
func NewService(stores domain.Stores) *Service {
	return &Service{
		goals:      stores.Goals,
		reframings: stores.Reframings,
		notebook:   stores.Notebook,
		profiles:   stores.Profiles,
		writer:     tools.NewNotebookTool(stores.Notebook),
		now:        time.Now,
	}
}

func requireUser(userID domain.UserID) error {
	if strings.TrimSpace(string(userID)) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// ─────────────────────────────────────────
// Goals
// ─────────────────────────────────────────

// ListGoals returns a user's goals, oldest first. An empty status lists all.
func (s *Service) ListGoals(ctx context.Context, userID domain.UserID, status domain.GoalStatus) ([]*domain.Goal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	switch status {
	case "", domain.GoalStatusActive, domain.GoalStatusCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown goal status %q", domain.ErrInvalidInput, status)
	}
	return s.goals.ListGoalsByUser(ctx, userID, status)
}

// ActiveGoal returns the most recently accepted active goal, or nil.
func (s *Service) ActiveGoal(ctx context.Context, userID domain.UserID) (*domain.Goal, error) {
	active, err := s.goals.ListGoalsByUser(ctx, userID, domain.GoalStatusActive)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}
	return active[len(active)-1], nil
}

type AcceptGoalInput struct {
	UserID    domain.UserID
	SessionID domain.SessionID
	Text      string
}

// AcceptGoal stores a goal the user accepted, usually one Mira suggested.
func (s *Service) AcceptGoal(ctx context.Context, in AcceptGoalInput) (*domain.Goal, error) {
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: goal text is required", domain.ErrInvalidInput)
	}

	goal := &domain.Goal{
		ID:        domain.GoalID(uuid.NewString()),
		UserID:    in.UserID,
		Text:      text,
		Status:    domain.GoalStatusActive,
		SessionID: in.SessionID,
		CreatedAt: s.now(),
	}
	if err := s.goals.SaveGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("goal accepted", "user_id", in.UserID, "goal_id", goal.ID)
	return goal, nil
}

// CompleteGoal marks a goal completed. Completing twice is a no-op.
func (s *Service) CompleteGoal(ctx context.Context, userID domain.UserID, goalID domain.GoalID) (*domain.Goal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	goal, err := s.goals.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status == domain.GoalStatusCompleted {
		return goal, nil
	}

	done := s.now()
	goal.Status = domain.GoalStatusCompleted
	goal.CompletedAt = &done
	if err := s.goals.SaveGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("goal completed", "user_id", userID, "goal_id", goalID)
	return goal, nil
}

// ─────────────────────────────────────────
// Notebook
// ─────────────────────────────────────────

// ListNotebook returns the last `limit` notebook entries for a user.
// If limit <= 0, a default is used.
func (s *Service) ListNotebook(ctx context.Context, userID domain.UserID, limit int) ([]*domain.NotebookEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.notebook.ListNotebookEntriesByUser(ctx, userID, listLimit(limit))
}

type AddNotebookEntryInput struct {
	UserID    domain.UserID
	SessionID domain.SessionID
	Title     string
	Text      string
}

// AddNotebookEntry writes through the same path the model's notebook tool uses.
func (s *Service) AddNotebookEntry(ctx context.Context, in AddNotebookEntryInput) (*domain.NotebookEntry, error) {
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}
	return s.writer.Save(ctx, in.UserID, in.SessionID, in.Title, in.Text)
}

// CommitNotebookEntry stores an entry the model drafted during a turn.
func (s *Service) CommitNotebookEntry(ctx context.Context, entry *domain.NotebookEntry) error {
	if entry == nil {
		return nil
	}
	if err := requireUser(entry.UserID); err != nil {
		return err
	}
	return s.writer.Commit(ctx, entry)
}

// ─────────────────────────────────────────
// Reframings
// ─────────────────────────────────────────

func (s *Service) ListReframings(ctx context.Context, userID domain.UserID, limit int) ([]*domain.SavedReframing, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.reframings.ListReframingsByUser(ctx, userID, listLimit(limit))
}

// SaveReframing stores a reframing result in the user's journal.
func (s *Service) SaveReframing(
	ctx context.Context,
	userID domain.UserID,
	sessionID domain.SessionID,
	result domain.ReframingResult,
) (*domain.SavedReframing, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	saved := &domain.SavedReframing{
		ID:        domain.ReframingID(uuid.NewString()),
		UserID:    userID,
		SessionID: sessionID,
		Result:    result,
		CreatedAt: s.now(),
	}
	if err := s.reframings.SaveReframing(ctx, saved); err != nil {
		return nil, fmt.Errorf("save reframing: %w", err)
	}
	return saved, nil
}

// ─────────────────────────────────────────
// Profile
// ─────────────────────────────────────────

func (s *Service) GetProfile(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.profiles.GetProfile(ctx, userID)
}

// UpdateProfileInput changes only the fields that are non-nil.
type UpdateProfileInput struct {
	UserID   domain.UserID
	Name     *string
	MBTIType *string
}

func (s *Service) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*domain.Profile, error) {
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}

	p, err := s.profiles.GetProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.MBTIType != nil {
		mbti := strings.ToUpper(strings.TrimSpace(*in.MBTIType))
		if mbti != "" && !mbtiPattern.MatchString(mbti) {
			return nil, fmt.Errorf("%w: %q is not an MBTI type", domain.ErrInvalidInput, *in.MBTIType)
		}
		p.MBTIType = mbti
	}

	if err := s.profiles.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return s.profiles.GetProfile(ctx, in.UserID)
}

// RecordIssues adds one to the counter of every tag.
func (s *Service) RecordIssues(ctx context.Context, userID domain.UserID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	return s.profiles.IncrementIssueCounts(ctx, userID, tags)
}

// DetectedIssuesSummary formats the most frequent tags as
// "anxiety (3 times), work (1 time)". Empty counts give "".
func DetectedIssuesSummary(counts map[string]int) string {
	type tagCount struct {
		tag string
		n   int
	}
	ranked := make([]tagCount, 0, len(counts))
	for tag, n := range counts {
		if n > 0 && strings.TrimSpace(tag) != "" {
			ranked = append(ranked, tagCount{tag, n})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].tag < ranked[j].tag
	})
	if len(ranked) > summaryTopTags {
		ranked = ranked[:summaryTopTags]
	}

	parts := make([]string, len(ranked))
	for i, tc := range ranked {
		unit := "times"
		if tc.n == 1 {
			unit = "time"
		}
		parts[i] = fmt.Sprintf("%s (%d %s)", tc.tag, tc.n, unit)
	}
	return strings.Join(parts, ", ")
}
