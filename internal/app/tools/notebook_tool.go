package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/mira-agent/internal/domain"
	"github.com/PabloGalante/mira-agent/internal/structured"
)

// NotebookToolName is the name the model uses to save to the notebook.
const NotebookToolName = "save_to_notebook"

// NotebookArgs is the argument shape of the notebook tool.
type NotebookArgs struct {
	Title string `json:"title" jsonschema:"description=Short title for the note. Empty when none."`
	Text  string `json:"text" jsonschema:"description=The exact text to save to the user's private notebook."`
}

// NotebookResult is what the model receives after a save.
type NotebookResult struct {
	Status  string `json:"status"`
	EntryID string `json:"entry_id"`
}

// NotebookTool saves free text to a user's private notebook.
type NotebookTool struct {
	store domain.NotebookStore
	now   func() time.Time
}

// NewNotebookTool creates a new NotebookTool.
// store can be an in-memory, Redis or Firestore implementation.
func NewNotebookTool(store domain.NotebookStore) *NotebookTool {
	return &NotebookTool{
		store: store,
		now:   time.Now,
	}
}

// Tool exposes the notebook as a model-invokable tool.
func (t *NotebookTool) Tool() Tool {
	return Tool{
		Name:        NotebookToolName,
		Description: "Save text to the user's private notebook. Use only when the user explicitly asks to save or note something down.",
		Parameters:  structured.Schema[NotebookArgs](),
		Handler:     t.call,
	}
}

// PendingNote is the handler result of the notebook tool. The entry is not
// stored yet; whoever owns the turn commits it once the turn succeeds.
type PendingNote struct {
	Entry *domain.NotebookEntry
}

// MarshalJSON renders what the model sees after asking for a save.
func (p PendingNote) MarshalJSON() ([]byte, error) {
	return json.Marshal(NotebookResult{Status: "ok", EntryID: string(p.Entry.ID)})
}

func (t *NotebookTool) call(_ context.Context, tctx ToolContext, raw json.RawMessage) (any, error) {
	var args NotebookArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%s: decode arguments: %w", NotebookToolName, err)
	}
	entry, err := t.Draft(domain.UserID(tctx.UserID), domain.SessionID(tctx.SessionID), args.Title, args.Text)
	if err != nil {
		return nil, err
	}
	return PendingNote{Entry: entry}, nil
}

// Draft validates and builds a notebook entry without storing it.
func (t *NotebookTool) Draft(
	userID domain.UserID,
	sessionID domain.SessionID,
	title, text string,
) (*domain.NotebookEntry, error) {

	if userID == "" {
		return nil, fmt.Errorf("%s: missing UserID in ToolContext", NotebookToolName)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w: text is required", NotebookToolName, domain.ErrInvalidInput)
	}

	return &domain.NotebookEntry{
		ID:        domain.NotebookEntryID(uuid.NewString()),
		UserID:    userID,
		SessionID: sessionID,
		Title:     strings.TrimSpace(title),
		Text:      text,
		CreatedAt: t.now(),
	}, nil
}

// Commit stores an entry built by Draft.
func (t *NotebookTool) Commit(ctx context.Context, entry *domain.NotebookEntry) error {
	if err := t.store.AppendNotebookEntry(ctx, entry); err != nil {
		return fmt.Errorf("%s: append failed: %w", NotebookToolName, err)
	}
	return nil
}

// Save drafts and commits an entry for userID.
func (t *NotebookTool) Save(
	ctx context.Context,
	userID domain.UserID,
	sessionID domain.SessionID,
	title, text string,
) (*domain.NotebookEntry, error) {

	entry, err := t.Draft(userID, sessionID, title, text)
	if err != nil {
		return nil, err
	}
	if err := t.Commit(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
