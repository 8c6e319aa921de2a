package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/mira-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/mira-agent/internal/app/tools"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

func echoTool(name string) tools.Tool {
	return tools.Tool{
		Name:       name,
		Parameters: map[string]any{"type": "object"},
		Handler: func(_ context.Context, tctx tools.ToolContext, args json.RawMessage) (any, error) {
			return map[string]string{"user": tctx.UserID, "args": string(args)}, nil
		},
	}
}

func TestRegistry(t *testing.T) {
	r, err := tools.NewRegistry(echoTool("b"), echoTool("a"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	specs := r.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "a", specs[0].Name)

	out, err := r.Call(context.Background(), tools.ToolContext{UserID: "u1"}, domain.ToolCall{Name: "a", Arguments: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user": "u1", "args": "{}"}, out)

	_, err = r.Call(context.Background(), tools.ToolContext{}, domain.ToolCall{Name: "missing"})
	assert.Error(t, err)
}

func TestNewRegistry_RejectsInvalidTools(t *testing.T) {
	_, err := tools.NewRegistry(echoTool("a"), echoTool("a"))
	assert.Error(t, err)

	_, err = tools.NewRegistry(tools.Tool{Name: "nohandler"})
	assert.Error(t, err)
}

func TestNotebookTool(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNotebookStore()
	nt := tools.NewNotebookTool(store)
	tool := nt.Tool()

	assert.Equal(t, tools.NotebookToolName, tool.Name)
	assert.Equal(t, "object", tool.Parameters["type"])

	out, err := tool.Handler(ctx, tools.ToolContext{UserID: "u1", SessionID: "s1"},
		json.RawMessage(`{"title":"Tonight","text":"  Breathe before replying  "}`))
	require.NoError(t, err)
	pending, ok := out.(tools.PendingNote)
	require.True(t, ok)
	assert.Equal(t, "Breathe before replying", pending.Entry.Text)
	assert.Equal(t, domain.SessionID("s1"), pending.Entry.SessionID)

	encoded, err := json.Marshal(out)
	require.NoError(t, err)
	var res tools.NotebookResult
	require.NoError(t, json.Unmarshal(encoded, &res))
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, string(pending.Entry.ID), res.EntryID)

	entries, err := store.ListNotebookEntriesByUser(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "handler must not write before the turn commits")

	require.NoError(t, nt.Commit(ctx, pending.Entry))
	entries, err = store.ListNotebookEntriesByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.EntryID, string(entries[0].ID))
}

func TestNotebookTool_Validation(t *testing.T) {
	ctx := context.Background()
	tool := tools.NewNotebookTool(memory.NewNotebookStore()).Tool()

	_, err := tool.Handler(ctx, tools.ToolContext{}, json.RawMessage(`{"text":"x"}`))
	assert.Error(t, err)

	_, err = tool.Handler(ctx, tools.ToolContext{UserID: "u1"}, json.RawMessage(`{"text":"  "}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = tool.Handler(ctx, tools.ToolContext{UserID: "u1"}, json.RawMessage(`not json`))
	assert.Error(t, err)
}
