package agentflow_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubLLM records every request and answers through fn.
type stubLLM struct {
	mu    sync.Mutex
	calls []domain.GenerateRequest
	fn    func(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error)
}

func (s *stubLLM) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.fn(ctx, req)
}

func (s *stubLLM) Calls() []domain.GenerateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GenerateRequest(nil), s.calls...)
}

func textResult(v any) *domain.GenerateResult {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &domain.GenerateResult{Text: string(b)}
}

func turnJSON(response, goal string, tags ...string) *domain.GenerateResult {
	if tags == nil {
		tags = []string{}
	}
	return textResult(map[string]any{
		"response":          response,
		"suggestedGoalText": goal,
		"detectedIssueTags": tags,
	})
}

func reframingJSON(original, reframed string, evidence ...string) *domain.GenerateResult {
	return textResult(map[string]any{
		"originalThought":        original,
		"reframedThought":        reframed,
		"alternativePerspective": "One setback is information, not a verdict.",
		"supportingEvidence":     evidence,
	})
}

func ptr(s string) *string { return &s }

func toolNames(req domain.GenerateRequest) []string {
	out := make([]string, 0, len(req.Tools))
	for _, t := range req.Tools {
		out = append(out, t.Name)
	}
	return out
}
