package llm

import (
	"encoding/json"
	"strings"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// toolOutputMap turns a JSON tool output into the object shape providers
// expect. Non-object outputs are wrapped under "output".
func toolOutputMap(output string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(output), &obj); err == nil && obj != nil {
		return obj
	}
	var v any
	if err := json.Unmarshal([]byte(output), &v); err == nil {
		return map[string]any{"output": v}
	}
	return map[string]any{"output": output}
}

// requiredFields reads the "required" list from a JSON schema map, which may
// hold []string (reflected schemas) or []any (decoded JSON).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return append([]string(nil), req...)
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ensureObjectType makes sure a tool parameter schema declares type=object.
func ensureObjectType(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	if _, ok := params["type"]; !ok {
		cp := make(map[string]any, len(params)+1)
		for k, v := range params {
			cp[k] = v
		}
		cp["type"] = "object"
		return cp
	}
	return params
}

// schemaInstructions appends a JSON-only directive with the schema inline,
// for providers without native structured output.
func schemaInstructions(instructions string, schema map[string]any) string {
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return instructions
	}
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nYour final answer must be a single JSON object matching this JSON schema, with no other text:\n")
	sb.Write(b)
	return sb.String()
}

// toolRounds splits turns into runs of consecutive turns sharing a Round, so
// calls the model made together are replayed together.
func toolRounds(turns []domain.ToolTurn) [][]domain.ToolTurn {
	var out [][]domain.ToolTurn
	for i, t := range turns {
		if i == 0 || t.Round != turns[i-1].Round {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], t)
	}
	return out
}
