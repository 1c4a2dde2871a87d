package overlay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// DefaultsFromType builds a base layer from the `default` values declared on
// a struct's jsonschema tags. Nested structs become nested mappings; fields
// without a default are left out.
//
//	type Settings struct {
//	    Host string `json:"host" jsonschema:"default=localhost"`
//	    DB   struct {
//	        Port int `json:"port" jsonschema:"default=5432"`
//	    } `json:"db"`
//	}
//
//	base, err := overlay.DefaultsFromType(&Settings{})
func DefaultsFromType(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}

	r := &jsonschema.Reflector{}
	schema := r.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	defs, _ := doc["$defs"].(map[string]any)
	return collectDefaults(doc, defs, nil), nil
}

// collectDefaults walks an object schema, following local $refs. seen guards
// against self-referencing types.
func collectDefaults(schema, defs map[string]any, seen map[string]bool) map[string]any {
	schema, seen = resolveRef(schema, defs, seen)
	out := map[string]any{}
	props, _ := schema["properties"].(map[string]any)
	for name, p := range props {
		prop, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if d, ok := prop["default"]; ok {
			out[name] = d
			continue
		}
		resolved, _ := resolveRef(prop, defs, seen)
		if _, isObject := resolved["properties"]; isObject {
			if nested := collectDefaults(prop, defs, seen); len(nested) > 0 {
				out[name] = nested
			}
		}
	}
	return out
}

func resolveRef(schema, defs map[string]any, seen map[string]bool) (map[string]any, map[string]bool) {
	ref, _ := schema["$ref"].(string)
	const prefix = "#/$defs/"
	if !strings.HasPrefix(ref, prefix) {
		return schema, seen
	}
	name := ref[len(prefix):]
	def, ok := defs[name].(map[string]any)
	if !ok || seen[name] {
		return map[string]any{}, seen
	}
	next := make(map[string]bool, len(seen)+1)
	for k := range seen {
		next[k] = true
	}
	next[name] = true
	return def, next
}
