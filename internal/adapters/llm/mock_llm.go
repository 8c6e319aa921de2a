package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

const (
	mockReframeTool   = "reframe_thought"
	mockReframeOutput = "ReframingResult"
	latestMarker      = "Latest user message (respond to this):\n"
	thoughtMarker     = "Thought to reframe:\n"
)

// keyword -> issue tag, used to give the mock some realistic structure.
var mockIssueKeywords = []struct{ word, tag string }{
	{"anxious", "anxiety"},
	{"anxiety", "anxiety"},
	{"stress", "stress"},
	{"sleep", "sleep"},
	{"tired", "fatigue"},
	{"lonely", "loneliness"},
	{"alone", "loneliness"},
	{"fail", "self-criticism"},
	{"work", "work"},
	{"sad", "low mood"},
}

// MockLLM is a deterministic offline client. It answers with a structured
// turn, calls the reframing tool when the user asks to reframe, and answers
// reframing requests with a fixed reframe of the given thought.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.Output != nil && req.Output.Name == mockReframeOutput {
		return mockJSON(mockReframing(afterMarker(req.Prompt, thoughtMarker)))
	}

	input := afterMarker(req.Prompt, latestMarker)

	if len(req.ToolTurns) == 0 && offersTool(req.Tools, mockReframeTool) && wantsReframe(input) {
		args, err := json.Marshal(map[string]string{"thought": reframeTarget(input), "context": ""})
		if err != nil {
			return nil, err
		}
		return &domain.GenerateResult{ToolCalls: []domain.ToolCall{{
			ID:        "mock-call-1",
			Name:      mockReframeTool,
			Arguments: args,
		}}}, nil
	}

	turn := map[string]any{
		"response":          mockReply(input, len(req.ToolTurns) > 0),
		"suggestedGoalText": "",
		"detectedIssueTags": mockTags(input),
	}
	if strings.Contains(req.Instructions, "Coach mode") {
		turn["suggestedGoalText"] = "Write down one small step you can take today"
	}
	return mockJSON(turn)
}

func mockJSON(v any) (*domain.GenerateResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &domain.GenerateResult{Text: string(b)}, nil
}

func mockReply(input string, reframed bool) string {
	if reframed {
		return "I looked at that thought with you from another angle. " +
			"Notice how the new version still takes your feelings seriously. " +
			"Which part of it feels most believable to you right now?"
	}
	return fmt.Sprintf("I hear you. You said %q. That sounds like a lot to carry. "+
		"Tell me a little more about how that feels.", input)
}

func mockReframing(thought string) map[string]any {
	return map[string]any{
		"originalThought":        thought,
		"reframedThought":        "This is hard right now, and one difficult moment does not define me.",
		"alternativePerspective": "A friend hearing this would likely point to the times you coped well.",
		"supportingEvidence": []string{
			"You have handled difficult situations before.",
			"Feelings change over time even when they seem permanent.",
		},
	}
}

func mockTags(input string) []string {
	lower := strings.ToLower(input)
	tags := []string{}
	for _, kw := range mockIssueKeywords {
		if len(tags) == domain.MaxDetectedIssueTags {
			break
		}
		if strings.Contains(lower, kw.word) && !contains(tags, kw.tag) {
			tags = append(tags, kw.tag)
		}
	}
	return tags
}

func wantsReframe(input string) bool {
	return strings.Contains(strings.ToLower(input), "reframe")
}

// reframeTarget strips a leading request like "help me reframe this:".
func reframeTarget(input string) string {
	if i := strings.Index(input, ":"); i >= 0 && i < len(input)-1 {
		if t := strings.TrimSpace(input[i+1:]); t != "" {
			return t
		}
	}
	return strings.TrimSpace(input)
}

func afterMarker(s, marker string) string {
	i := strings.LastIndex(s, marker)
	if i < 0 {
		return strings.TrimSpace(s)
	}
	rest := s[i+len(marker):]
	if marker == thoughtMarker {
		if j := strings.Index(rest, "\n\n"); j >= 0 {
			rest = rest[:j]
		}
	}
	return strings.TrimSpace(rest)
}

func offersTool(specs []domain.ToolSpec, name string) bool {
	for _, s := range specs {
		if s.Name == name {
			return true
		}
	}
	return false
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
