package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int64
}

// OpenAIClient implements domain.LLMClient on the OpenAI Responses API.
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an API key")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &OpenAIClient{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxOutputTokens,
	}
	if c.model == "" {
		c.model = "gpt-4.1-mini"
	}
	if c.maxTokens == 0 {
		c.maxTokens = 4096
	}
	return c, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	params := openAIParams(c.model, c.maxTokens, req)

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("openai responses: empty response")
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("openai responses: %s", resp.Error.Message)
	}

	return openAIResult(resp), nil
}

func openAIParams(model string, maxTokens int64, req domain.GenerateRequest) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model:           shared.ResponsesModel(model),
		Instructions:    openai.String(req.Instructions),
		MaxOutputTokens: openai.Int(maxTokens),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: openAIInput(req),
		},
	}

	if len(req.Tools) > 0 {
		tools := make([]responses.ToolUnionParam, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = responses.ToolParamOfFunction(t.Name, ensureObjectType(t.Parameters), true)
			if t.Description != "" {
				fn := tools[i].OfFunction
				fn.Description = openai.String(t.Description)
				tools[i].OfFunction = fn
			}
		}
		params.Tools = tools
	}

	if req.Output != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        req.Output.Name,
					Schema:      req.Output.Schema,
					Strict:      openai.Bool(true),
					Description: openai.String(req.Output.Description),
				},
			},
		}
	}

	return params
}

func openAIInput(req domain.GenerateRequest) responses.ResponseInputParam {
	items := make(responses.ResponseInputParam, 0, len(req.History)+1+2*len(req.ToolTurns))
	for _, m := range req.History {
		role := responses.EasyInputMessageRoleUser
		if m.Sender == domain.SenderAI {
			role = responses.EasyInputMessageRoleAssistant
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(m.Text, role))
	}

	items = append(items, responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser))

	for _, turn := range req.ToolTurns {
		items = append(items,
			responses.ResponseInputItemParamOfFunctionCall(string(turn.Call.Arguments), turn.Call.ID, turn.Call.Name),
			responses.ResponseInputItemParamOfFunctionCallOutput(turn.Call.ID, turn.Output),
		)
	}
	return items
}

func openAIResult(resp *responses.Response) *domain.GenerateResult {
	out := &domain.GenerateResult{}
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			ID:        item.CallID,
			Name:      item.Name,
			Arguments: json.RawMessage(item.Arguments),
		})
	}
	if len(out.ToolCalls) > 0 {
		return out
	}
	out.Text = resp.OutputText()
	return out
}
