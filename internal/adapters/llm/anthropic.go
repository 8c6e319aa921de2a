package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
}

// AnthropicClient implements domain.LLMClient on the Anthropic Messages API.
// The Messages API has no native response schema, so the output schema is
// appended to the system prompt and decoding stays tolerant.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic provider requires an API key")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
	if c.model == "" {
		c.model = "claude-haiku-4-5-20251001"
	}
	if c.maxTokens == 0 {
		c.maxTokens = 4096
	}
	return c, nil
}

func (c *AnthropicClient) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	msg, err := c.client.Messages.New(ctx, anthropicParams(c.model, c.maxTokens, req))
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("anthropic messages: empty response")
	}
	return anthropicResult(msg)
}

func anthropicParams(model string, maxTokens int64, req domain.GenerateRequest) anthropic.MessageNewParams {
	system := req.Instructions
	if req.Output != nil {
		system = schemaInstructions(system, req.Output.Schema)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  anthropicMessages(req),
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        t.Name,
					Description: anthropic.String(t.Description),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: t.Parameters["properties"],
						Required:   requiredFields(t.Parameters),
					},
				},
			}
		}
		params.Tools = tools
	}
	return params
}

func anthropicMessages(req domain.GenerateRequest) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(req.History)+1+2*len(req.ToolTurns))
	for _, m := range req.History {
		if m.Sender == domain.SenderAI {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
	}

	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))

	for _, round := range toolRounds(req.ToolTurns) {
		uses := make([]anthropic.ContentBlockParamUnion, 0, len(round))
		results := make([]anthropic.ContentBlockParamUnion, 0, len(round))
		for _, turn := range round {
			input := turn.Call.Arguments
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			uses = append(uses, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    turn.Call.ID,
					Name:  turn.Call.Name,
					Input: input,
				},
			})
			results = append(results, anthropic.NewToolResultBlock(turn.Call.ID, turn.Output, false))
		}
		msgs = append(msgs,
			anthropic.NewAssistantMessage(uses...),
			anthropic.NewUserMessage(results...),
		)
	}
	return msgs
}

func anthropicResult(msg *anthropic.Message) (*domain.GenerateResult, error) {
	var text strings.Builder
	out := &domain.GenerateResult{}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args, err := b.Input.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("anthropic tool input: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}

	if len(out.ToolCalls) == 0 {
		out.Text = text.String()
	}
	return out, nil
}
