package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type databaseSettings struct {
	Host string `json:"host" jsonschema:"default=localhost"`
	User string `json:"user"`
}

type cacheSettings struct {
	Backend string `json:"backend"`
}

type appSettings struct {
	Name     string           `json:"name" jsonschema:"default=app"`
	Database databaseSettings `json:"database"`
	Cache    cacheSettings    `json:"cache"`
}

type treeNode struct {
	Label    string      `json:"label" jsonschema:"default=root"`
	Children []*treeNode `json:"children"`
	Parent   *treeNode   `json:"parent"`
}

func TestDefaultsFromType(t *testing.T) {
	defaults, err := DefaultsFromType(&appSettings{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":     "app",
		"database": map[string]any{"host": "localhost"},
	}, defaults)
}

func TestDefaultsFromType_RecursiveType(t *testing.T) {
	defaults, err := DefaultsFromType(&treeNode{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"label": "root"}, defaults)
}

func TestDefaultsFromType_Nil(t *testing.T) {
	defaults, err := DefaultsFromType(nil)
	require.NoError(t, err)
	assert.Empty(t, defaults)
}
