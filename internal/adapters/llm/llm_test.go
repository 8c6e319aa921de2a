package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

var sampleSchema = map[string]any{
	"type":                 "object",
	"properties":           map[string]any{"thought": map[string]any{"type": "string"}},
	"required":             []string{"thought"},
	"additionalProperties": false,
}

func toolRequest() domain.GenerateRequest {
	return domain.GenerateRequest{
		Instructions: "be kind",
		Prompt:       "Latest user message (respond to this):\nhello",
		History: []domain.ConversationMessage{
			{Sender: domain.SenderUser, Text: "hi"},
			{Sender: domain.SenderAI, Text: "hello there"},
		},
		Output: &domain.OutputSpec{Name: "Turn", Description: "turn", Schema: sampleSchema},
		Tools:  []domain.ToolSpec{{Name: "reframe_thought", Description: "reframe", Parameters: sampleSchema}},
		ToolTurns: []domain.ToolTurn{{
			Call:   domain.ToolCall{ID: "call-1", Name: "reframe_thought", Arguments: json.RawMessage(`{"thought":"x"}`)},
			Output: `{"reframedThought":"y"}`,
		}},
	}
}

func TestToolOutputMap(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1.0}, toolOutputMap(`{"a":1}`))
	assert.Equal(t, map[string]any{"output": []any{"x"}}, toolOutputMap(`["x"]`))
	assert.Equal(t, map[string]any{"output": "plain"}, toolOutputMap("plain"))
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"a"}, requiredFields(map[string]any{"required": []string{"a"}}))
	assert.Equal(t, []string{"b"}, requiredFields(map[string]any{"required": []any{"b", 3}}))
	assert.Nil(t, requiredFields(map[string]any{}))
}

func TestEnsureObjectTypeDoesNotMutate(t *testing.T) {
	in := map[string]any{"properties": map[string]any{}}
	out := ensureObjectType(in)
	assert.Equal(t, "object", out["type"])
	_, mutated := in["type"]
	assert.False(t, mutated)
	assert.Equal(t, "object", ensureObjectType(nil)["type"])
}

func TestGenAIContentsReplaysToolTurns(t *testing.T) {
	contents, err := genaiContents(toolRequest())
	require.NoError(t, err)
	require.Len(t, contents, 5)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)

	call := contents[3].Parts[0].FunctionCall
	require.NotNil(t, call)
	assert.Equal(t, "call-1", call.ID)
	assert.Equal(t, "x", call.Args["thought"])

	resp := contents[4].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Equal(t, "reframe_thought", resp.Name)
	assert.Equal(t, "y", resp.Response["reframedThought"])
}

func parallelToolRequest() domain.GenerateRequest {
	req := toolRequest()
	req.ToolTurns = []domain.ToolTurn{
		{Call: domain.ToolCall{ID: "a", Name: "reframe_thought", Arguments: json.RawMessage(`{"thought":"x"}`), Signature: []byte("sig-a")}, Output: `{"n":1}`, Round: 0},
		{Call: domain.ToolCall{ID: "b", Name: "reframe_thought", Arguments: json.RawMessage(`{"thought":"y"}`)}, Output: `{"n":2}`, Round: 0},
		{Call: domain.ToolCall{ID: "c", Name: "reframe_thought", Arguments: json.RawMessage(`{"thought":"z"}`)}, Output: `{"n":3}`, Round: 1},
	}
	return req
}

func TestToolRounds(t *testing.T) {
	rounds := toolRounds(parallelToolRequest().ToolTurns)
	require.Len(t, rounds, 2)
	assert.Len(t, rounds[0], 2)
	assert.Len(t, rounds[1], 1)
	assert.Nil(t, toolRounds(nil))
}

func TestGenAIContentsGroupsParallelCalls(t *testing.T) {
	contents, err := genaiContents(parallelToolRequest())
	require.NoError(t, err)
	require.Len(t, contents, 7)

	first := contents[3]
	assert.Equal(t, "model", first.Role)
	require.Len(t, first.Parts, 2)
	assert.Equal(t, "a", first.Parts[0].FunctionCall.ID)
	assert.Equal(t, []byte("sig-a"), first.Parts[0].ThoughtSignature)
	assert.Equal(t, "b", first.Parts[1].FunctionCall.ID)

	answers := contents[4]
	assert.Equal(t, "user", answers.Role)
	require.Len(t, answers.Parts, 2)
	assert.Equal(t, "b", answers.Parts[1].FunctionResponse.ID)

	require.Len(t, contents[5].Parts, 1)
	assert.Equal(t, "c", contents[5].Parts[0].FunctionCall.ID)
}

func TestGenAIToolCallsKeepSignature(t *testing.T) {
	res := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromParts([]*genai.Part{
			{Text: "thinking out loud"},
			{FunctionCall: &genai.FunctionCall{ID: "a", Name: "save_to_notebook", Args: map[string]any{"text": "hi"}}, ThoughtSignature: []byte("sig")},
		}, genai.RoleModel),
	}}}

	calls, err := genaiToolCalls(res)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "save_to_notebook", calls[0].Name)
	assert.JSONEq(t, `{"text":"hi"}`, string(calls[0].Arguments))
	assert.Equal(t, []byte("sig"), calls[0].Signature)

	none, err := genaiToolCalls(&genai.GenerateContentResponse{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAnthropicMessagesGroupParallelCalls(t *testing.T) {
	msgs := anthropicMessages(parallelToolRequest())
	require.Len(t, msgs, 7)

	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[3].Role)
	require.Len(t, msgs[3].Content, 2)
	assert.Equal(t, "b", msgs[3].Content[1].OfToolUse.ID)

	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[4].Role)
	require.Len(t, msgs[4].Content, 2)
	assert.Equal(t, "a", msgs[4].Content[0].OfToolResult.ToolUseID)
	assert.Equal(t, "b", msgs[4].Content[1].OfToolResult.ToolUseID)
}

func TestGenAIContentsRejectsBadArguments(t *testing.T) {
	req := toolRequest()
	req.ToolTurns[0].Call.Arguments = json.RawMessage(`{not json`)
	_, err := genaiContents(req)
	assert.Error(t, err)
}

func TestOpenAIParams(t *testing.T) {
	params := openAIParams("gpt-test", 512, toolRequest())

	assert.Equal(t, "gpt-test", string(params.Model))
	require.Len(t, params.Tools, 1)
	require.NotNil(t, params.Tools[0].OfFunction)
	assert.Equal(t, "reframe_thought", params.Tools[0].OfFunction.Name)

	require.NotNil(t, params.Text.Format.OfJSONSchema)
	assert.Equal(t, "Turn", params.Text.Format.OfJSONSchema.Name)

	items := params.Input.OfInputItemList
	require.Len(t, items, 5)
	require.NotNil(t, items[3].OfFunctionCall)
	assert.Equal(t, "call-1", items[3].OfFunctionCall.CallID)
	require.NotNil(t, items[4].OfFunctionCallOutput)
	assert.Equal(t, "call-1", items[4].OfFunctionCallOutput.CallID)
}

func TestAnthropicParams(t *testing.T) {
	params := anthropicParams("claude-test", 256, toolRequest())

	require.Len(t, params.System, 1)
	assert.Contains(t, params.System[0].Text, "be kind")
	assert.Contains(t, params.System[0].Text, `"additionalProperties": false`)

	require.Len(t, params.Tools, 1)
	assert.Equal(t, []string{"thought"}, params.Tools[0].OfTool.InputSchema.Required)

	msgs := params.Messages
	require.Len(t, msgs, 5)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	require.NotNil(t, msgs[3].Content[0].OfToolUse)
	assert.Equal(t, "call-1", msgs[3].Content[0].OfToolUse.ID)
	require.NotNil(t, msgs[4].Content[0].OfToolResult)
	assert.Equal(t, "call-1", msgs[4].Content[0].OfToolResult.ToolUseID)
}

func TestMockLLMTurn(t *testing.T) {
	m := NewMockLLM()
	res, err := m.Generate(context.Background(), domain.GenerateRequest{
		Instructions: "Persona: Mira, in Coach mode.",
		Prompt:       "context\nLatest user message (respond to this):\nI feel anxious about work",
	})
	require.NoError(t, err)

	var turn struct {
		Response          string   `json:"response"`
		SuggestedGoalText string   `json:"suggestedGoalText"`
		DetectedIssueTags []string `json:"detectedIssueTags"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Text), &turn))
	assert.Contains(t, turn.Response, "I feel anxious about work")
	assert.NotEmpty(t, turn.SuggestedGoalText)
	assert.Equal(t, []string{"anxiety", "work"}, turn.DetectedIssueTags)
}

func TestMockLLMCallsReframeTool(t *testing.T) {
	m := NewMockLLM()
	req := domain.GenerateRequest{
		Prompt: "Latest user message (respond to this):\nCan you help me reframe this: I always fail",
		Tools:  []domain.ToolSpec{{Name: "reframe_thought"}},
	}
	res, err := m.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	assert.JSONEq(t, `{"thought":"I always fail","context":""}`, string(res.ToolCalls[0].Arguments))

	req.ToolTurns = []domain.ToolTurn{{Call: res.ToolCalls[0], Output: "{}"}}
	res, err = m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.ToolCalls)
	assert.Contains(t, res.Text, "another angle")
}

func TestMockLLMReframing(t *testing.T) {
	res, err := NewMockLLM().Generate(context.Background(), domain.GenerateRequest{
		Prompt: "Thought to reframe:\nI always fail\n\nConversation context:\nNone provided.",
		Output: &domain.OutputSpec{Name: "ReframingResult"},
	})
	require.NoError(t, err)

	var out domain.ReframingResult
	require.NoError(t, json.Unmarshal([]byte(res.Text), &out))
	assert.Equal(t, "I always fail", out.OriginalThought)
	assert.NotEmpty(t, out.ReframedThought)
	assert.Len(t, out.SupportingEvidence, 2)
}

func TestMockLLMHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockLLM().Generate(ctx, domain.GenerateRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Options{Provider: ProviderMock})
	require.NoError(t, err)
	assert.IsType(t, &MockLLM{}, c)

	_, err = New(ctx, Options{Provider: "bogus"})
	assert.Error(t, err)

	_, err = New(ctx, Options{Provider: ProviderOpenAI})
	assert.Error(t, err, "missing api key")

	_, err = New(ctx, Options{Provider: ProviderAnthropic})
	assert.Error(t, err)

	_, err = New(ctx, Options{Provider: ProviderVertex})
	assert.Error(t, err, "missing project")
}
