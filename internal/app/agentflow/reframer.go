package agentflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/mira-agent/internal/app/tools"
	"github.com/PabloGalante/mira-agent/internal/domain"
	"github.com/PabloGalante/mira-agent/internal/observability"
	"github.com/PabloGalante/mira-agent/internal/structured"
)

// ReframeToolName is the name under which the reframing capability is
// offered to the model.
const ReframeToolName = "reframe_thought"

const reframeInstructions = `
You are Mira's cognitive reframing helper. You help a person look at one
negative thought in a more balanced, compassionate and realistic way.

Technique:
1. Acknowledge the feeling behind the thought without dismissing it.
2. Identify cognitive distortions that may be present (all-or-nothing thinking,
   overgeneralisation, catastrophising, mind reading, should statements,
   labelling, discounting the positive).
3. Gently challenge the thought with questions about evidence.
4. Write a reframed thought: balanced and believable, not toxic positivity.
   It must differ from the original thought.
5. Offer an alternative perspective the person may not have considered.
6. Give 2-3 short supporting points that make the reframe credible.

Output fields:
- originalThought: the thought exactly as given.
- reframedThought: one or two sentences.
- alternativePerspective: one or two sentences.
- supportingEvidence: 2-3 short points.

Return only JSON matching the schema.
`

// reframeArgs is the tool-surface input. Its fields map 1:1 onto
// domain.ReframeInput.
type reframeArgs struct {
	Thought string `json:"thought" jsonschema_description:"The user's thought to reframe, verbatim."`
	Context string `json:"context" jsonschema:"description=Brief conversation context. Empty when none."`
}

type reframeOutput struct {
	OriginalThought        string   `json:"originalThought"`
	ReframedThought        string   `json:"reframedThought"`
	AlternativePerspective string   `json:"alternativePerspective"`
	SupportingEvidence     []string `json:"supportingEvidence" jsonschema:"minItems=1,maxItems=3"`
}

var (
	reframeArgsSchema   = structured.Schema[reframeArgs]()
	reframeOutputSchema = structured.Schema[reframeOutput]()
)

// Reframer produces structured cognitive reframings. It is used directly
// and as a tool inside the orchestrator; both paths share ReframeThought.
type Reframer struct {
	llm domain.LLMClient
}

func NewReframer(llm domain.LLMClient) *Reframer {
	return &Reframer{llm: llm}
}

// ReframeThought reframes in.ThoughtToReframe. The result's OriginalThought
// is always the caller's input, byte for byte.
func (r *Reframer) ReframeThought(ctx context.Context, in domain.ReframeInput) (*domain.ReframingResult, error) {
	if strings.TrimSpace(in.ThoughtToReframe) == "" {
		return nil, fmt.Errorf("%w: thought to reframe is empty", domain.ErrInvalidInput)
	}

	log := observability.LoggerFromContext(ctx).With("component", "reframer")
	start := time.Now()

	req := domain.GenerateRequest{
		Instructions: strings.TrimSpace(reframeInstructions),
		Prompt:       reframePrompt(in),
		Output: &domain.OutputSpec{
			Name:        "ReframingResult",
			Description: "Structured cognitive reframing of one thought",
			Schema:      reframeOutputSchema,
		},
	}

	res, err := r.llm.Generate(ctx, req)
	if err != nil {
		log.Error("reframe generation failed", "error", err)
		return nil, classify(ctx, err)
	}
	if res == nil || strings.TrimSpace(res.Text) == "" {
		return nil, fmt.Errorf("%w: reframing returned no output", domain.ErrGenerationFailure)
	}

	var out reframeOutput
	if err := structured.Decode(res.Text, &out); err != nil {
		return nil, fmt.Errorf("%w: decode reframing: %v", domain.ErrGenerationFailure, err)
	}

	result, err := validateReframing(in.ThoughtToReframe, out)
	if err != nil {
		return nil, err
	}

	log.Info("reframe completed",
		"evidence_count", len(result.SupportingEvidence),
		"elapsed_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Tool exposes ReframeThought to the model.
func (r *Reframer) Tool() tools.Tool {
	return tools.Tool{
		Name: ReframeToolName,
		Description: "Reframe a negative thought using cognitive reframing. " +
			"Call only when the user explicitly asks to reframe or see a thought differently.",
		Parameters: reframeArgsSchema,
		Handler: func(ctx context.Context, _ tools.ToolContext, raw json.RawMessage) (any, error) {
			var args reframeArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decode %s arguments: %w", ReframeToolName, err)
			}
			return r.ReframeThought(ctx, args.toInput())
		},
	}
}

func (a reframeArgs) toInput() domain.ReframeInput {
	in := domain.ReframeInput{ThoughtToReframe: a.Thought}
	if c := strings.TrimSpace(a.Context); c != "" {
		in.ConversationContext = &c
	}
	return in
}

func reframePrompt(in domain.ReframeInput) string {
	var b strings.Builder
	b.WriteString("Thought to reframe:\n")
	b.WriteString(in.ThoughtToReframe)
	b.WriteString("\n\nConversation context:\n")
	if in.ConversationContext != nil && strings.TrimSpace(*in.ConversationContext) != "" {
		b.WriteString(*in.ConversationContext)
	} else {
		b.WriteString("None provided.")
	}
	return b.String()
}

func validateReframing(original string, out reframeOutput) (*domain.ReframingResult, error) {
	reframed := strings.TrimSpace(out.ReframedThought)
	if reframed == "" {
		return nil, fmt.Errorf("%w: reframing has no reframed thought", domain.ErrGenerationFailure)
	}
	if strings.EqualFold(reframed, strings.TrimSpace(original)) {
		return nil, fmt.Errorf("%w: reframed thought repeats the original", domain.ErrGenerationFailure)
	}

	evidence := make([]string, 0, len(out.SupportingEvidence))
	for _, e := range out.SupportingEvidence {
		if e = strings.TrimSpace(e); e != "" {
			evidence = append(evidence, e)
		}
	}
	if len(evidence) == 0 {
		return nil, fmt.Errorf("%w: reframing has no supporting evidence", domain.ErrGenerationFailure)
	}

	return &domain.ReframingResult{
		// The model may drift when echoing; the caller's text is authoritative.
		OriginalThought:        original,
		ReframedThought:        reframed,
		AlternativePerspective: strings.TrimSpace(out.AlternativePerspective),
		SupportingEvidence:     evidence,
	}, nil
}
