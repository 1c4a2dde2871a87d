package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDeferred_SeesSnapshot(t *testing.T) {
	config := map[string]any{
		"HOST": "db.internal",
		"PORT": 5432.0,
		"NESTED": map[string]any{
			"name": "orig",
		},
	}

	ResolveDeferred(config, map[string]Deferred{
		"URL": func(s map[string]any) any {
			return s["HOST"].(string) + ":5432"
		},
		"HOST": func(s map[string]any) any {
			return "replaced"
		},
		"MUTATOR": func(s map[string]any) any {
			s["NESTED"].(map[string]any)["name"] = "changed"
			return s["URL"]
		},
	})

	assert.Equal(t, "db.internal:5432", config["URL"])
	assert.Equal(t, "replaced", config["HOST"])
	assert.Nil(t, config["MUTATOR"])
	assert.Equal(t, "orig", config["NESTED"].(map[string]any)["name"])
}

func TestResolveDeferred_NoResolvers(t *testing.T) {
	config := map[string]any{"a": 1}
	ResolveDeferred(config, nil)
	assert.Equal(t, map[string]any{"a": 1}, config)
}
