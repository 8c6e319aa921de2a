package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// GenAIBackend selects where Gemini is served from.
type GenAIBackend string

const (
	BackendVertex GenAIBackend = "vertex"
	BackendGemini GenAIBackend = "gemini"
)

// GenAIConfig configures a GenAIClient.
type GenAIConfig struct {
	Backend         GenAIBackend
	Project         string
	Location        string
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

type GenAIClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int32
}

// NewGenAIClient creates an LLMClient backed by Gemini, either on Vertex AI
// (project + location, ADC credentials) or on the Gemini API (API key).
func NewGenAIClient(ctx context.Context, cfg GenAIConfig) (*GenAIClient, error) {
	cc := &genai.ClientConfig{}
	switch cfg.Backend {
	case BackendGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini backend requires an API key")
		}
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	default:
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("vertex backend requires project and location")
		}
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	c := &GenAIClient{
		client:      client,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
	}
	if c.modelName == "" {
		c.modelName = "gemini-2.5-flash"
	}
	if c.temperature == 0 {
		c.temperature = 0.7
	}
	if c.maxTokens == 0 {
		c.maxTokens = 8192
	}
	return c, nil
}

// Generate implements domain.LLMClient using Gemini.
func (c *GenAIClient) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	contents, err := genaiContents(req)
	if err != nil {
		return nil, err
	}

	temp := c.temperature
	topP := float32(0.9)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.Instructions, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   c.maxTokens,
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	// Gemini rejects a JSON response schema combined with function calling,
	// so the schema is enforced only on tool-free calls. Tool-enabled calls
	// rely on the instructions and tolerant decoding.
	if req.Output != nil && len(req.Tools) == 0 {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.Output.Schema
	}

	res, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai generate content: %w", err)
	}

	calls, err := genaiToolCalls(res)
	if err != nil {
		return nil, err
	}
	if len(calls) > 0 {
		return &domain.GenerateResult{ToolCalls: calls}, nil
	}

	return &domain.GenerateResult{Text: res.Text()}, nil
}

func genaiContents(req domain.GenerateRequest) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, m := range req.History {
		var role genai.Role = genai.RoleUser
		if m.Sender == domain.SenderAI {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}

	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	for _, round := range toolRounds(req.ToolTurns) {
		calls := make([]*genai.Part, 0, len(round))
		responses := make([]*genai.Part, 0, len(round))
		for _, turn := range round {
			var args map[string]any
			if len(turn.Call.Arguments) > 0 {
				if err := json.Unmarshal(turn.Call.Arguments, &args); err != nil {
					return nil, fmt.Errorf("genai decode tool args for %s: %w", turn.Call.Name, err)
				}
			}
			calls = append(calls, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   turn.Call.ID,
					Name: turn.Call.Name,
					Args: args,
				},
				ThoughtSignature: turn.Call.Signature,
			})
			responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       turn.Call.ID,
				Name:     turn.Call.Name,
				Response: toolOutputMap(turn.Output),
			}})
		}
		contents = append(contents,
			genai.NewContentFromParts(calls, genai.RoleModel),
			genai.NewContentFromParts(responses, genai.RoleUser),
		)
	}
	return contents, nil
}

// genaiToolCalls reads function calls from the first candidate, keeping each
// part's thought signature so the call can be replayed.
func genaiToolCalls(res *genai.GenerateContentResponse) ([]domain.ToolCall, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, nil
	}
	var out []domain.ToolCall
	for _, part := range res.Candidates[0].Content.Parts {
		if part == nil || part.FunctionCall == nil {
			continue
		}
		fc := part.FunctionCall
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, fmt.Errorf("genai encode function args: %w", err)
		}
		out = append(out, domain.ToolCall{
			ID:        fc.ID,
			Name:      fc.Name,
			Arguments: args,
			Signature: part.ThoughtSignature,
		})
	}
	return out, nil
}
