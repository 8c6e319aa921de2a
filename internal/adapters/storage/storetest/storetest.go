// Package storetest holds a behaviour suite shared by every storage backend.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Run exercises every port in stores. Each subtest uses its own ids so a
// single backend instance can serve the whole suite.
func Run(t *testing.T, stores domain.Stores) {
	t.Run("Sessions", func(t *testing.T) { testSessions(t, stores.Sessions) })
	t.Run("Messages", func(t *testing.T) { testMessages(t, stores.Messages) })
	t.Run("Goals", func(t *testing.T) { testGoals(t, stores.Goals) })
	t.Run("Notebook", func(t *testing.T) { testNotebook(t, stores.Notebook) })
	t.Run("Reframings", func(t *testing.T) { testReframings(t, stores.Reframings) })
	t.Run("Profiles", func(t *testing.T) { testProfiles(t, stores.Profiles) })
}

func testSessions(t *testing.T, s domain.SessionStore) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateSession(ctx, &domain.Session{
			ID:        domain.SessionID(fmt.Sprintf("sess-%d", i)),
			UserID:    "user-sessions",
			Mode:      domain.ModeFriend,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	assert.Error(t, s.CreateSession(ctx, &domain.Session{ID: "sess-0", UserID: "user-sessions"}))

	_, err := s.GetSession(ctx, "sess-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateSession(ctx, &domain.Session{ID: "sess-missing"}), domain.ErrNotFound)

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	got.Title = "Evening check-in"
	got.Mode = domain.ModeCoach
	require.NoError(t, s.UpdateSession(ctx, got))

	got, err = s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Evening check-in", got.Title)
	assert.Equal(t, domain.ModeCoach, got.Mode)
	assert.Equal(t, domain.UserID("user-sessions"), got.UserID)

	list, err := s.ListSessionsByUser(ctx, "user-sessions", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.SessionID("sess-2"), list[0].ID)
	assert.Equal(t, domain.SessionID("sess-1"), list[1].ID)
}

func testMessages(t *testing.T, s domain.MessageStore) {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := &domain.Message{
			ID:        domain.MessageID(fmt.Sprintf("msg-%d", i)),
			SessionID: "sess-messages",
			Sender:    domain.SenderUser,
			Text:      fmt.Sprintf("text %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if i == 4 {
			reply := domain.MessageID("msg-3")
			msg.Sender = domain.SenderAI
			msg.ReplyTo = &reply
			msg.IssueTags = []string{"stress"}
		}
		require.NoError(t, s.AppendMessage(ctx, msg))
	}

	msgs, err := s.GetMessagesBySession(ctx, "sess-messages", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "text 3", msgs[0].Text)
	assert.Equal(t, "text 4", msgs[1].Text)
	assert.Equal(t, domain.SenderAI, msgs[1].Sender)
	require.NotNil(t, msgs[1].ReplyTo)
	assert.Equal(t, domain.MessageID("msg-3"), *msgs[1].ReplyTo)
	assert.Equal(t, []string{"stress"}, msgs[1].IssueTags)

	all, err := s.GetMessagesBySession(ctx, "sess-messages", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := s.GetMessagesBySession(ctx, "sess-empty", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testGoals(t *testing.T, s domain.GoalStore) {
	ctx := context.Background()
	done := base.Add(2 * time.Hour)

	require.NoError(t, s.SaveGoal(ctx, &domain.Goal{
		ID: "goal-1", UserID: "user-goals", Text: "Walk for ten minutes",
		Status: domain.GoalStatusActive, CreatedAt: base,
	}))
	require.NoError(t, s.SaveGoal(ctx, &domain.Goal{
		ID: "goal-2", UserID: "user-goals", Text: "Call a friend",
		Status: domain.GoalStatusCompleted, CreatedAt: base.Add(time.Hour), CompletedAt: &done,
	}))

	active, err := s.ListGoalsByUser(ctx, "user-goals", domain.GoalStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, domain.GoalID("goal-1"), active[0].ID)

	all, err := s.ListGoalsByUser(ctx, "user-goals", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.GoalID("goal-1"), all[0].ID)
	assert.Equal(t, domain.GoalID("goal-2"), all[1].ID)

	g, err := s.GetGoal(ctx, "user-goals", "goal-2")
	require.NoError(t, err)
	assert.Equal(t, "Call a friend", g.Text)
	require.NotNil(t, g.CompletedAt)
	assert.True(t, done.Equal(*g.CompletedAt))

	_, err = s.GetGoal(ctx, "someone-else", "goal-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testNotebook(t *testing.T, s domain.NotebookStore) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendNotebookEntry(ctx, &domain.NotebookEntry{
			ID:        domain.NotebookEntryID(fmt.Sprintf("note-%d", i)),
			UserID:    "user-notebook",
			Title:     fmt.Sprintf("title %d", i),
			Text:      fmt.Sprintf("note %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := s.ListNotebookEntriesByUser(ctx, "user-notebook", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "note 1", entries[0].Text)
	assert.Equal(t, "note 2", entries[1].Text)
	assert.Equal(t, "title 2", entries[1].Title)
}

func testReframings(t *testing.T, s domain.ReframingStore) {
	ctx := context.Background()

	result := domain.ReframingResult{
		OriginalThought:        "I always fail",
		ReframedThought:        "I sometimes struggle and I also succeed",
		AlternativePerspective: "Setbacks are part of learning",
		SupportingEvidence:     []string{"Passed the last review"},
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, s.SaveReframing(ctx, &domain.SavedReframing{
			ID:        domain.ReframingID(fmt.Sprintf("ref-%d", i)),
			UserID:    "user-reframings",
			SessionID: "sess-x",
			Result:    result,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := s.ListReframingsByUser(ctx, "user-reframings", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.ReframingID("ref-0"), list[0].ID)
	assert.Equal(t, result, list[1].Result)
	assert.Equal(t, domain.SessionID("sess-x"), list[1].SessionID)
}

func testProfiles(t *testing.T, s domain.ProfileStore) {
	ctx := context.Background()

	empty, err := s.GetProfile(ctx, "user-unknown")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("user-unknown"), empty.UserID)
	assert.NotNil(t, empty.IssueCounts)
	assert.Empty(t, empty.IssueCounts)

	require.NoError(t, s.UpsertProfile(ctx, &domain.Profile{UserID: "user-profile", Name: "Ana", MBTIType: "INFP"}))
	require.NoError(t, s.IncrementIssueCounts(ctx, "user-profile", []string{"anxiety", "work"}))
	require.NoError(t, s.IncrementIssueCounts(ctx, "user-profile", []string{"anxiety"}))
	require.NoError(t, s.IncrementIssueCounts(ctx, "user-profile", nil))

	// Upsert must not reset counters.
	require.NoError(t, s.UpsertProfile(ctx, &domain.Profile{UserID: "user-profile", Name: "Ana M", MBTIType: "INFP"}))

	p, err := s.GetProfile(ctx, "user-profile")
	require.NoError(t, err)
	assert.Equal(t, "Ana M", p.Name)
	assert.Equal(t, "INFP", p.MBTIType)
	assert.Equal(t, map[string]int{"anxiety": 2, "work": 1}, p.IssueCounts)
	assert.False(t, p.UpdatedAt.IsZero())
}
