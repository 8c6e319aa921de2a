package agentflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PabloGalante/mira-agent/internal/app/tools"
	"github.com/PabloGalante/mira-agent/internal/domain"
	"github.com/PabloGalante/mira-agent/internal/observability"
)

// maxToolRounds bounds how many times the model may ask for tools before it
// must produce a final answer.
const maxToolRounds = 3

// toolOutcome records one executed tool call and its handler result.
type toolOutcome struct {
	call   domain.ToolCall
	result any
}

// negotiate runs the request/response loop with the model: each round the
// model either answers or asks for tools, whose outputs are fed back as
// ToolTurns on the next round.
func negotiate(
	ctx context.Context,
	llm domain.LLMClient,
	req domain.GenerateRequest,
	registry *tools.Registry,
	tctx tools.ToolContext,
) (string, []toolOutcome, error) {

	log := observability.LoggerFromContext(ctx)

	var outcomes []toolOutcome
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return "", nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
		}

		res, err := llm.Generate(ctx, req)
		if err != nil {
			return "", nil, classify(ctx, err)
		}
		if res == nil {
			return "", nil, fmt.Errorf("%w: model returned no result", domain.ErrGenerationFailure)
		}
		if len(res.ToolCalls) == 0 {
			return res.Text, outcomes, nil
		}
		if round >= maxToolRounds {
			return "", nil, fmt.Errorf("%w: model still requesting tools after %d rounds", domain.ErrGenerationFailure, maxToolRounds)
		}

		for _, call := range res.ToolCalls {
			log.Info("tool call", "tool", call.Name, "round", round)

			out, err := registry.Call(ctx, tctx, call)
			if err != nil {
				if isCancellation(ctx, err) {
					return "", nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
				}
				log.Error("tool failed", "tool", call.Name, "error", err)
				return "", nil, fmt.Errorf("%w: tool %s: %v", domain.ErrGenerationFailure, call.Name, err)
			}

			encoded, err := json.Marshal(out)
			if err != nil {
				return "", nil, fmt.Errorf("%w: encode %s output: %v", domain.ErrGenerationFailure, call.Name, err)
			}

			req.ToolTurns = append(req.ToolTurns, domain.ToolTurn{Call: call, Output: string(encoded), Round: round})
			outcomes = append(outcomes, toolOutcome{call: call, result: out})
		}
	}
}

// classify maps a model-call error onto the domain taxonomy.
func classify(ctx context.Context, err error) error {
	if isCancellation(ctx, err) {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}
	if errors.Is(err, domain.ErrGenerationFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGenerationFailure, err)
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrCancelled)
}
