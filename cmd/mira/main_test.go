package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

func offlineEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MIRA_CONFIG", "MIRA_MODE", "MIRA_STORAGE_BACKEND", "MIRA_PORT", "PORT", "MIRA_MODEL_TIMEOUT"} {
		t.Setenv(k, "")
	}
	t.Setenv("MIRA_LLM_PROVIDER", "mock")
	t.Setenv("MIRA_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestChatCommand(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "chat", "--mode", "Coach", "I", "feel", "stressed")
	require.NoError(t, err, out)

	var got chatOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.SessionID)
	assert.NotEmpty(t, got.Response)
	assert.NotNil(t, got.SuggestedGoalText)
	assert.Equal(t, []string{"stress"}, got.DetectedIssueTags)
}

func TestReframeCommand(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "reframe", "--context", "exam results", "I", "will", "never", "pass")
	require.NoError(t, err, out)

	var got domain.ReframingResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "I will never pass", got.OriginalThought)
	assert.NotEmpty(t, got.ReframedThought)
}

func TestCommandErrors(t *testing.T) {
	offlineEnv(t)

	_, err := run(t, "chat", "--mode", "Oracle", "hello")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = run(t, "reframe")
	assert.Error(t, err)

	t.Setenv("MIRA_STORAGE_BACKEND", "cassandra")
	_, err = run(t, "chat", "hello")
	assert.Error(t, err)
}
