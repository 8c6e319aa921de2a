package agentflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/mira-agent/internal/app/persona"
	"github.com/PabloGalante/mira-agent/internal/app/prompt"
	"github.com/PabloGalante/mira-agent/internal/app/tools"
	"github.com/PabloGalante/mira-agent/internal/domain"
	"github.com/PabloGalante/mira-agent/internal/observability"
	"github.com/PabloGalante/mira-agent/internal/structured"
)

// turnOutput is the JSON shape the model must return for a turn.
// Reframing data is never taken from here; it comes from the tool result.
type turnOutput struct {
	Response          string   `json:"response" jsonschema_description:"Mira's reply to the user, 3-6 sentences."`
	SuggestedGoalText string   `json:"suggestedGoalText" jsonschema_description:"A concrete next-step goal starting with an imperative verb, or an empty string."`
	DetectedIssueTags []string `json:"detectedIssueTags" jsonschema:"maxItems=3" jsonschema_description:"0-3 short lowercase emotional theme tags."`
}

var turnOutputSchema = structured.Schema[turnOutput]()

// Orchestrator runs one Therapist-Mode turn: validate, compose, invoke the
// model with the reframing tool available, validate the output.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	llm      domain.LLMClient
	reframer *Reframer
	notebook *tools.NotebookTool
}

type Option func(*Orchestrator)

// WithNotebook offers the notebook-save tool to the model on turns that
// carry a UserID. Requested saves come back on the response uncommitted.
func WithNotebook(nt *tools.NotebookTool) Option {
	return func(o *Orchestrator) { o.notebook = nt }
}

// WithReframer overrides the reframer used for the reframing tool.
func WithReframer(r *Reframer) Option {
	return func(o *Orchestrator) { o.reframer = r }
}

func NewOrchestrator(llm domain.LLMClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{llm: llm}
	for _, opt := range opts {
		opt(o)
	}
	if o.reframer == nil {
		o.reframer = NewReframer(llm)
	}
	return o
}

// Reframer returns the reframer shared by the direct and tool surfaces.
func (o *Orchestrator) Reframer() *Reframer {
	return o.reframer
}

// GetTherapistResponse produces Mira's reply for one user message.
// On error no partial response is returned.
func (o *Orchestrator) GetTherapistResponse(
	ctx context.Context,
	req domain.TherapistModeRequest,
) (*domain.TherapistModeResponse, error) {

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"mode", req.Mode,
		"session_id", req.SessionID,
		"user_id", req.UserID,
	)
	start := time.Now()

	payload := prompt.Compose(req)
	log.Info("orchestrator started", "history_len", len(payload.History))

	registry, err := o.registryFor(req)
	if err != nil {
		return nil, err
	}

	genReq := domain.GenerateRequest{
		Instructions: payload.Instructions,
		Prompt:       payload.Body,
		Output: &domain.OutputSpec{
			Name:        "TherapistModeResponse",
			Description: "Mira's structured reply for one conversational turn",
			Schema:      turnOutputSchema,
		},
		Tools: registry.Specs(),
	}
	tctx := tools.ToolContext{
		UserID:    string(req.UserID),
		SessionID: string(req.SessionID),
		RequestID: observability.RequestIDFromContext(ctx),
	}

	text, outcomes, err := negotiate(ctx, o.llm, genReq, registry, tctx)
	if err != nil {
		log.Error("orchestrator failed", "error", err)
		return nil, err
	}

	resp, err := buildResponse(text, outcomes)
	if err != nil {
		log.Error("invalid model output", "error", err)
		return nil, err
	}

	log.Info("orchestrator end",
		"tool_calls", len(outcomes),
		"has_goal", resp.SuggestedGoalText != nil,
		"has_reframing", resp.ReframingData != nil,
		"notebook_saves", len(resp.NotebookEntries),
		"tags", len(resp.DetectedIssueTags),
		"elapsed_ms", time.Since(start).Milliseconds())
	return resp, nil
}

func validateRequest(req domain.TherapistModeRequest) error {
	if _, ok := persona.Lookup(req.Mode); !ok {
		return fmt.Errorf("%w: unrecognized mode %q", domain.ErrInvalidInput, req.Mode)
	}
	if strings.TrimSpace(req.UserInput) == "" {
		return fmt.Errorf("%w: user input is empty", domain.ErrInvalidInput)
	}
	return nil
}

func (o *Orchestrator) registryFor(req domain.TherapistModeRequest) (*tools.Registry, error) {
	available := []tools.Tool{o.reframer.Tool()}
	if o.notebook != nil && req.UserID != "" {
		available = append(available, o.notebook.Tool())
	}
	return tools.NewRegistry(available...)
}

func buildResponse(text string, outcomes []toolOutcome) (*domain.TherapistModeResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: model returned no output", domain.ErrGenerationFailure)
	}

	var out turnOutput
	if err := structured.Decode(text, &out); err != nil {
		return nil, fmt.Errorf("%w: decode turn output: %v", domain.ErrGenerationFailure, err)
	}

	reply := strings.TrimSpace(out.Response)
	if reply == "" {
		return nil, fmt.Errorf("%w: empty response text", domain.ErrGenerationFailure)
	}

	resp := &domain.TherapistModeResponse{
		Response:          reply,
		DetectedIssueTags: normalizeTags(out.DetectedIssueTags),
	}
	if goal := strings.TrimSpace(out.SuggestedGoalText); goal != "" {
		resp.SuggestedGoalText = &goal
	}
	for _, oc := range outcomes {
		switch r := oc.result.(type) {
		case *domain.ReframingResult:
			if r != nil {
				resp.ReframingData = r
			}
		case tools.PendingNote:
			resp.NotebookEntries = append(resp.NotebookEntries, r.Entry)
		}
	}
	return resp, nil
}

// normalizeTags trims, lower-cases, shortens and de-duplicates tags, keeping
// at most domain.MaxDetectedIssueTags in their original order. Returns nil
// when none remain.
func normalizeTags(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if r := []rune(t); len(r) > domain.MaxIssueTagRunes {
			t = strings.TrimSpace(string(r[:domain.MaxIssueTagRunes]))
		}
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == domain.MaxDetectedIssueTags {
			break
		}
	}
	return out
}
