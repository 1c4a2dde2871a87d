package overlay

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/SmooAI/deepmerge"
)

// NestingSeparator splits an environment variable name into nested keys:
// DATABASE__HOST=db sets {"DATABASE": {"HOST": "db"}}.
const NestingSeparator = "__"

// EnvOptions selects and converts environment variables into a layer.
type EnvOptions struct {
	// Prefix is stripped from variable names that carry it.
	Prefix string
	// Keys lists the accepted top-level keys (after prefix stripping).
	// Variables whose first segment is not listed are ignored.
	Keys map[string]bool
	// Types maps a key (after prefix stripping, nesting separators included)
	// to boolean, number, json or object.
	Types map[string]string
}

// EnvLayer builds a layer from env. Variables are folded into the layer with
// m in name order, so overlapping names such as DATABASE and DATABASE__HOST
// resolve the same way on every run.
func EnvLayer(env map[string]string, opts EnvOptions, m *deepmerge.Merger) map[string]any {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	var result any = map[string]any{}
	for _, name := range names {
		key := strings.TrimPrefix(name, opts.Prefix)
		segments := strings.Split(key, NestingSeparator)
		if !opts.Keys[segments[0]] || hasEmpty(segments) {
			continue
		}
		result = m.Merge(result, nest(segments, coerce(env[name], opts.Types[key])))
	}

	out, _ := result.(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	setBuiltins(out, env)
	return out
}

func hasEmpty(segments []string) bool {
	for _, s := range segments {
		if s == "" {
			return true
		}
	}
	return false
}

func nest(segments []string, value any) map[string]any {
	for i := len(segments) - 1; i > 0; i-- {
		value = map[string]any{segments[i]: value}
	}
	return map[string]any{segments[0]: value}
}

func coerce(value, typ string) any {
	switch typ {
	case "boolean":
		return CoerceBoolean(value)
	case "number":
		if strings.Contains(value, ".") {
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				return f
			}
		} else if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case "json", "object":
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			return parsed
		}
	}
	return value
}

// CoerceBoolean reports whether value reads as true: "true" or "1", any case,
// surrounding space ignored.
func CoerceBoolean(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "true" || v == "1"
}

// EnvName converts a camelCase key to the UPPER_SNAKE_CASE form used for
// environment variables. Nested keys are joined with NestingSeparator.
func EnvName(keys ...string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = upperSnake(k)
	}
	return strings.Join(parts, NestingSeparator)
}

func upperSnake(input string) string {
	runes := []rune(input)
	var out strings.Builder
	out.Grow(len(runes) + 4)
	for i, ch := range runes {
		switch {
		case ch == '_' || ch == ' ' || ch == '-':
			if out.Len() > 0 && i+1 < len(runes) {
				out.WriteRune('_')
			}
		case unicode.IsUpper(ch):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					out.WriteRune('_')
				}
			}
			out.WriteRune(ch)
		default:
			out.WriteRune(unicode.ToUpper(ch))
		}
	}
	return out.String()
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func setBuiltins(layer map[string]any, env map[string]string) {
	region := DetectCloudRegion(env)
	layer["ENV"] = environmentName(env)
	layer["IS_LOCAL"] = CoerceBoolean(env[EnvIsLocal])
	layer["REGION"] = region.Region
	layer["CLOUD_PROVIDER"] = region.Provider
}

func environmentName(env map[string]string) string {
	if name := env[EnvEnvironment]; name != "" {
		return name
	}
	return "development"
}
