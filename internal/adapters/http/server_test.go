package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/mira-agent/internal/adapters/http"
	"github.com/PabloGalante/mira-agent/internal/adapters/llm"
	"github.com/PabloGalante/mira-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/mira-agent/internal/app/conversation"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

type llmFunc func(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error)

func (f llmFunc) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	return f(ctx, req)
}

func newTestServer(t *testing.T, client domain.LLMClient) http.Handler {
	t.Helper()
	if client == nil {
		client = llm.NewMockLLM()
	}
	return httpadapter.NewServer(conversation.NewService(client, memory.NewStores()))
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type sessionEnvelope struct {
	Session struct {
		ID   string `json:"id"`
		Mode string `json:"mode"`
	} `json:"session"`
	Welcome *struct {
		Sender string `json:"sender"`
	} `json:"welcome_message"`
	Messages []struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	} `json:"messages"`
}

func createSession(t *testing.T, srv http.Handler, mode string) string {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/sessions", map[string]string{"user_id": "u1", "mode": mode, "title": "Test"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[sessionEnvelope](t, w).Session.ID
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	w := do(t, srv, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	w := do(t, srv, http.MethodOptions, "/sessions", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCreateSessionAndSendMessage(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/sessions", map[string]string{"user_id": "u1", "mode": "Coach"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[sessionEnvelope](t, w)
	assert.Equal(t, "Coach", created.Session.Mode)
	require.NotNil(t, created.Welcome)
	assert.Equal(t, "ai", created.Welcome.Sender)

	w = do(t, srv, http.MethodPost, "/sessions/"+created.Session.ID+"/messages",
		map[string]string{"user_id": "u1", "text": "I can't sleep and work is stressful"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reply struct {
		AgentMessage struct {
			Text    string `json:"text"`
			ReplyTo string `json:"reply_to"`
		} `json:"agent_message"`
		SuggestedGoalText *string  `json:"suggested_goal_text"`
		DetectedIssueTags []string `json:"detected_issue_tags"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.NotEmpty(t, reply.AgentMessage.Text)
	assert.NotEmpty(t, reply.AgentMessage.ReplyTo)
	assert.NotNil(t, reply.SuggestedGoalText)
	assert.Equal(t, []string{"stress", "sleep", "work"}, reply.DetectedIssueTags)

	w = do(t, srv, http.MethodGet, "/sessions/"+created.Session.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[sessionEnvelope](t, w).Messages, 3)

	w = do(t, srv, http.MethodGet, "/users/u1/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[domain.Profile](t, w)
	assert.Equal(t, 1, profile.IssueCounts["sleep"])
}

func TestSendMessageReframing(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv, "Therapist")

	w := do(t, srv, http.MethodPost, "/sessions/"+id+"/messages",
		map[string]string{"user_id": "u1", "text": "Please reframe this: I ruin everything"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reply struct {
		Reframing *domain.ReframingResult `json:"reframing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	require.NotNil(t, reply.Reframing)
	assert.Equal(t, "I ruin everything", reply.Reframing.OriginalThought)

	w = do(t, srv, http.MethodGet, "/users/u1/reframings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]domain.SavedReframing](t, w)["reframings"], 1)
}

func TestErrorMapping(t *testing.T) {
	failing := llmFunc(func(context.Context, domain.GenerateRequest) (*domain.GenerateResult, error) {
		return nil, errors.New("upstream 500")
	})
	cancelled := llmFunc(func(context.Context, domain.GenerateRequest) (*domain.GenerateResult, error) {
		return nil, context.DeadlineExceeded
	})

	tests := []struct {
		name   string
		client domain.LLMClient
		method string
		path   string
		body   any
		want   int
	}{
		{"bad json", nil, http.MethodPost, "/sessions", "not an object", http.StatusBadRequest},
		{"missing user", nil, http.MethodPost, "/sessions", map[string]string{}, http.StatusBadRequest},
		{"unknown mode", nil, http.MethodPost, "/sessions", map[string]string{"user_id": "u1", "mode": "Guru"}, http.StatusBadRequest},
		{"unknown session", nil, http.MethodGet, "/sessions/nope", nil, http.StatusNotFound},
		{"bad limit", nil, http.MethodGet, "/users/u1/notebook?limit=x", nil, http.StatusBadRequest},
		{"empty thought", nil, http.MethodPost, "/reframe", map[string]string{"thought": " "}, http.StatusBadRequest},
		{"generation failure", failing, http.MethodPost, "/reframe", map[string]string{"thought": "I am useless"}, http.StatusBadGateway},
		{"timeout", cancelled, http.MethodPost, "/reframe", map[string]string{"thought": "I am useless"}, http.StatusGatewayTimeout},
		{"unknown goal", nil, http.MethodPost, "/users/u1/goals/nope/complete", nil, http.StatusNotFound},
		{"wrong method", nil, http.MethodDelete, "/sessions", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newTestServer(t, tt.client), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSendMessageFailureKeepsTimelineClean(t *testing.T) {
	failing := llmFunc(func(context.Context, domain.GenerateRequest) (*domain.GenerateResult, error) {
		return &domain.GenerateResult{Text: "not json at all"}, nil
	})
	srv := newTestServer(t, failing)
	id := createSession(t, srv, "Friend")

	w := do(t, srv, http.MethodPost, "/sessions/"+id+"/messages", map[string]string{"user_id": "u1", "text": "hey"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(t, srv, http.MethodGet, "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[sessionEnvelope](t, w).Messages, 1)
}

func TestGetSessionChecksOwner(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv, "Therapist")

	w := do(t, srv, http.MethodGet, "/sessions/"+id+"?user_id=u1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[sessionEnvelope](t, w).Messages, 1)

	w = do(t, srv, http.MethodGet, "/sessions/"+id+"?user_id=u2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJournalEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/users/u1/goals", map[string]string{"text": "Walk after lunch"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	goal := decode[domain.Goal](t, w)
	assert.Equal(t, domain.GoalStatusActive, goal.Status)

	w = do(t, srv, http.MethodPost, "/users/u1/goals/"+string(goal.ID)+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.GoalStatusCompleted, decode[domain.Goal](t, w).Status)

	w = do(t, srv, http.MethodGet, "/users/u1/goals?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[map[string][]domain.Goal](t, w)["goals"])

	w = do(t, srv, http.MethodPost, "/users/u1/notebook", map[string]string{"title": "Win", "text": "Finished the report"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, srv, http.MethodGet, "/users/u1/notebook?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[map[string][]domain.NotebookEntry](t, w)["entries"]
	require.Len(t, entries, 1)
	assert.Equal(t, "Finished the report", entries[0].Text)

	w = do(t, srv, http.MethodPut, "/users/u1/profile", map[string]string{"name": "Ana", "mbti_type": "enfj"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[domain.Profile](t, w)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "ENFJ", p.MBTIType)

	w = do(t, srv, http.MethodPut, "/users/u1/profile", map[string]string{"mbti_type": "XXXX"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodGet, "/users/u1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReframeSave(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/reframe", map[string]any{"user_id": "u1", "thought": "I am a burden", "save": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Result  domain.ReframingResult `json:"result"`
		SavedID string                 `json:"saved_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "I am a burden", out.Result.OriginalThought)
	assert.NotEmpty(t, out.SavedID)
}
