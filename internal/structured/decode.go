package structured

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
)

// Decode unmarshals JSON from a model response. Models occasionally wrap the
// object in prose or code fences, so on failure each `{` is tried in turn as
// the start of an object, and the first one that decodes into v wins.
func Decode(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}

	var lastErr error
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		var raw json.RawMessage
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		if err := dec.Decode(&raw); err != nil {
			lastErr = err
			continue
		}
		fresh := reflect.New(target.Elem().Type())
		if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
			// Nested objects of a well-formed but mistyped object are not
			// candidates.
			lastErr = err
			i += int(dec.InputOffset()) - 1
			continue
		}
		target.Elem().Set(fresh.Elem())
		return nil
	}

	if lastErr == nil {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	return fmt.Errorf("no decodable JSON object in model output (len=%d): %w", len(s), lastErr)
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
