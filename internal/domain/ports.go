package domain

import (
	"context"
	"encoding/json"
)

// LLMClient defines how the core application interacts with a language model.
// A call returns either final text or a set of tool calls to execute; the
// caller feeds tool outputs back through GenerateRequest.ToolTurns.
type LLMClient interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// GenerateRequest is one model round-trip.
type GenerateRequest struct {
	Instructions string
	Prompt       string

	// History is optional native chat history. Composed prompts already embed
	// the transcript in Prompt, so most callers leave it empty.
	History []ConversationMessage

	Output    *OutputSpec
	Tools     []ToolSpec
	ToolTurns []ToolTurn
}

// OutputSpec declares the JSON shape the final answer must follow.
type OutputSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolSpec describes a callable capability offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is the model asking to run a registered tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage

	// Signature is an opaque provider blob (Gemini thought signature) that
	// must be sent back unchanged when the call is replayed.
	Signature []byte
}

// ToolTurn pairs a tool call with the JSON-encoded output fed back to the model.
// Turns with the same Round were requested together in one model response.
type ToolTurn struct {
	Call   ToolCall
	Output string
	Round  int
}

// GenerateResult holds either the final text or pending tool calls.
type GenerateResult struct {
	Text      string
	ToolCalls []ToolCall
}

// SessionStore defines session persistence
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	UpdateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	ListSessionsByUser(ctx context.Context, userID UserID, limit int) ([]*Session, error)
}

// MessageStore defines message persistence. Messages come back oldest first.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	GetMessagesBySession(ctx context.Context, sessionID SessionID, limit int) ([]*Message, error)
}

type GoalStore interface {
	SaveGoal(ctx context.Context, goal *Goal) error
	GetGoal(ctx context.Context, userID UserID, id GoalID) (*Goal, error)
	ListGoalsByUser(ctx context.Context, userID UserID, status GoalStatus) ([]*Goal, error)
}

type NotebookStore interface {
	AppendNotebookEntry(ctx context.Context, entry *NotebookEntry) error
	ListNotebookEntriesByUser(ctx context.Context, userID UserID, limit int) ([]*NotebookEntry, error)
}

type ReframingStore interface {
	SaveReframing(ctx context.Context, r *SavedReframing) error
	ListReframingsByUser(ctx context.Context, userID UserID, limit int) ([]*SavedReframing, error)
}

// ProfileStore keeps profile fields and cumulative issue counters.
// GetProfile returns an empty profile (not ErrNotFound) for unknown users.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID UserID) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error
	IncrementIssueCounts(ctx context.Context, userID UserID, tags []string) error
}

// Stores bundles every persistence port so backends can be swapped as one.
type Stores struct {
	Sessions   SessionStore
	Messages   MessageStore
	Goals      GoalStore
	Notebook   NotebookStore
	Reframings ReframingStore
	Profiles   ProfileStore
}
