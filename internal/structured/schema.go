// Package structured turns Go types into strict JSON schemas for model
// output and tool parameters, and decodes model JSON back into them.
package structured

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const (
	propertiesKey           = "properties"
	additionalPropertiesKey = "additionalProperties"
	typeKey                 = "type"
	requiredKey             = "required"
	itemsKey                = "items"
)

// Schema reflects T into a JSON schema map. Every object is closed
// (additionalProperties=false) and lists all of its properties as required,
// which strict structured-output modes demand.
func Schema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
	}
	var v T
	schema := reflector.Reflect(v)
	m, err := toMap(schema)
	if err != nil {
		// Reflection of a static Go type cannot fail at runtime.
		panic(fmt.Sprintf("structured: reflect schema: %v", err))
	}
	delete(m, "$schema")
	delete(m, "$id")
	closeObjects(m)
	return m
}

func toMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func closeObjects(schema map[string]any) {
	if t, ok := schema[typeKey].(string); ok && t == "object" {
		schema[additionalPropertiesKey] = false

		if props, ok := schema[propertiesKey].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema[requiredKey] = sortedCopy(required)
			}
		}
	}

	if props, ok := schema[propertiesKey].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				closeObjects(pm)
			}
		}
	}

	if items, ok := schema[itemsKey].(map[string]any); ok {
		closeObjects(items)
	}
}
