package journal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/mira-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/mira-agent/internal/app/journal"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

func newService() *journal.Service {
	return journal.NewService(memory.NewStores())
}

func ptr(s string) *string { return &s }

func TestGoalsLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	active, err := svc.ActiveGoal(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, active)

	first, err := svc.AcceptGoal(ctx, journal.AcceptGoalInput{UserID: "u1", Text: "  Walk for ten minutes "})
	require.NoError(t, err)
	assert.Equal(t, "Walk for ten minutes", first.Text)
	assert.Equal(t, domain.GoalStatusActive, first.Status)

	second, err := svc.AcceptGoal(ctx, journal.AcceptGoalInput{UserID: "u1", SessionID: "s1", Text: "Write one line tonight"})
	require.NoError(t, err)

	active, err = svc.ActiveGoal(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	done, err := svc.CompleteGoal(ctx, "u1", second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	again, err := svc.CompleteGoal(ctx, "u1", second.ID)
	require.NoError(t, err)
	assert.Equal(t, done.CompletedAt, again.CompletedAt)

	goals, err := svc.ListGoals(ctx, "u1", domain.GoalStatusActive)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, first.ID, goals[0].ID)

	_, err = svc.CompleteGoal(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGoalsValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.AcceptGoal(ctx, journal.AcceptGoalInput{UserID: "u1", Text: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AcceptGoal(ctx, journal.AcceptGoalInput{Text: "Walk"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.ListGoals(ctx, "u1", "paused")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNotebook(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	entry, err := svc.AddNotebookEntry(ctx, journal.AddNotebookEntryInput{UserID: "u1", Title: "Gratitude", Text: "Coffee with Sam"})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)

	_, err = svc.AddNotebookEntry(ctx, journal.AddNotebookEntryInput{UserID: "u1", Text: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AddNotebookEntry(ctx, journal.AddNotebookEntryInput{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	entries, err := svc.ListNotebook(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Gratitude", entries[0].Title)
}

func TestReframings(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	result := domain.ReframingResult{
		OriginalThought:    "I always fail",
		ReframedThought:    "I have succeeded before",
		SupportingEvidence: []string{"Finished the course"},
	}
	saved, err := svc.SaveReframing(ctx, "u1", "s1", result)
	require.NoError(t, err)
	assert.Equal(t, result, saved.Result)

	list, err := svc.ListReframings(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	p, err := svc.UpdateProfile(ctx, journal.UpdateProfileInput{UserID: "u1", Name: ptr(" Ana "), MBTIType: ptr("infp")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "INFP", p.MBTIType)

	p, err = svc.UpdateProfile(ctx, journal.UpdateProfileInput{UserID: "u1", Name: ptr("Ana M")})
	require.NoError(t, err)
	assert.Equal(t, "Ana M", p.Name)
	assert.Equal(t, "INFP", p.MBTIType, "nil fields are left alone")

	_, err = svc.UpdateProfile(ctx, journal.UpdateProfileInput{UserID: "u1", MBTIType: ptr("ABCD")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, svc.RecordIssues(ctx, "u1", []string{"anxiety", "sleep"}))
	require.NoError(t, svc.RecordIssues(ctx, "u1", []string{"anxiety"}))
	require.NoError(t, svc.RecordIssues(ctx, "u1", nil))

	p, err = svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"anxiety": 2, "sleep": 1}, p.IssueCounts)
}

func TestDetectedIssuesSummary(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   string
	}{
		{"empty", nil, ""},
		{"singular", map[string]int{"work": 1}, "work (1 time)"},
		{
			"ranked then alphabetical",
			map[string]int{"work": 1, "anxiety": 3, "sleep": 3, "grief": 2},
			"anxiety (3 times), sleep (3 times), grief (2 times), work (1 time)",
		},
		{
			"top five only",
			map[string]int{"a": 6, "b": 5, "c": 4, "d": 3, "e": 2, "f": 1, "zero": 0},
			"a (6 times), b (5 times), c (4 times), d (3 times), e (2 times)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, journal.DetectedIssuesSummary(tt.counts))
		})
	}
}
