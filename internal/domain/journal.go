package domain

import "time"

// GoalStatus represents the lifecycle of a user goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
)

// Goal is a concrete next step the user committed to, often accepted from
// one of Mira's suggestions.
type Goal struct {
	ID          GoalID     `json:"id"`
	UserID      UserID     `json:"user_id"`
	Text        string     `json:"text"`
	Status      GoalStatus `json:"status"`
	SessionID   SessionID  `json:"session_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NotebookEntry is free text the user (or Mira, on request) saved to the
// user's private notebook.
type NotebookEntry struct {
	ID        NotebookEntryID `json:"id"`
	UserID    UserID          `json:"user_id"`
	SessionID SessionID       `json:"session_id,omitempty"`
	Title     string          `json:"title,omitempty"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"created_at"`
}

// SavedReframing is a ReframingResult the user chose to keep.
type SavedReframing struct {
	ID        ReframingID     `json:"id"`
	UserID    UserID          `json:"user_id"`
	SessionID SessionID       `json:"session_id,omitempty"`
	Result    ReframingResult `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// Profile carries the personalisation fields the prompt composer uses plus
// the cumulative detected-issue counters.
type Profile struct {
	UserID      UserID         `json:"user_id"`
	Name        string         `json:"name,omitempty"`
	MBTIType    string         `json:"mbti_type,omitempty"`
	IssueCounts map[string]int `json:"issue_counts,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
