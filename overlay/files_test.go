package overlay

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, filename string, data any) {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), b, 0o644))
}

func writeFile(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644))
}

func makeLayerDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".config-layers")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func TestDiscover_ViaEnvVar(t *testing.T) {
	dir := makeLayerDir(t)

	result, err := Discover(map[string]string{EnvConfigDir: dir}, false)
	require.NoError(t, err)
	assert.Equal(t, dir, result)
}

func TestDiscover_EnvVarNotExist(t *testing.T) {
	_, err := Discover(map[string]string{EnvConfigDir: "/nonexistent/path"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoConfigDir))
	assert.Contains(t, err.Error(), "/nonexistent/path")
}

func TestDiscover_SearchesParents(t *testing.T) {
	root := t.TempDir()
	layers := filepath.Join(root, "config-layers")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(layers, 0o755))
	require.NoError(t, os.MkdirAll(nested, 0o755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	result, err := Discover(map[string]string{}, true)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(layers)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(result)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Discover(map[string]string{EnvLevelsUp: "1"}, true)
	assert.True(t, errors.Is(err, ErrNoConfigDir))
	ResetDirCache()
}

func TestLayerNames(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected []string
	}{
		{"defaults", map[string]string{}, []string{"default", "development"}},
		{"local", map[string]string{EnvIsLocal: "true", EnvEnvironment: "test"}, []string{"default", "local", "test"}},
		{
			"cloud",
			map[string]string{EnvEnvironment: "production", "AWS_REGION": "us-east-1"},
			[]string{"default", "production", "production.aws", "production.aws.us-east-1"},
		},
		{
			"provider without region",
			map[string]string{EnvEnvironment: "production", EnvCloudProvider: "aws"},
			[]string{"default", "production", "production.aws"},
		},
		{
			"region without provider",
			map[string]string{EnvEnvironment: "production", EnvCloudRegion: "eu-west-1"},
			[]string{"default", "production"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LayerNames(tt.env))
		})
	}
}

func TestLoadFiles_LoadsDefault(t *testing.T) {
	dir := makeLayerDir(t)
	writeJSON(t, dir, "default.json", map[string]any{"API_URL": "http://localhost:3000", "MAX_RETRIES": 3})

	result, files, err := LoadFiles(dir, []string{"default", "test"}, newTestMerger())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", result["API_URL"])
	assert.Equal(t, 3.0, result["MAX_RETRIES"]) // JSON numbers are float64
	assert.Equal(t, []string{filepath.Join(dir, "default.json")}, files)
}

func TestLoadFiles_RequiresDefault(t *testing.T) {
	dir := makeLayerDir(t)
	writeJSON(t, dir, "test.json", map[string]any{"API_URL": "x"})

	_, _, err := LoadFiles(dir, []string{"default", "test"}, newTestMerger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingDefault))
}

func TestLoadFiles_MergesJSONAndYAML(t *testing.T) {
	dir := makeLayerDir(t)
	writeJSON(t, dir, "default.json", map[string]any{
		"API_URL":  "http://localhost",
		"DATABASE": map[string]any{"host": "localhost", "port": 5432, "replicas": []any{"a", "b"}},
	})
	writeFile(t, dir, "production.yaml", "API_URL: https://api.example.com\nDATABASE:\n  host: db.prod\n  replicas: [c]\n")
	writeFile(t, dir, "production.aws.yml", "DATABASE:\n  ssl: true\n")

	result, files, err := LoadFiles(dir, []string{"default", "production", "production.aws"}, newTestMerger())
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Equal(t, "https://api.example.com", result["API_URL"])
	assert.Equal(t, map[string]any{
		"host":     "db.prod",
		"port":     5432.0,
		"replicas": []any{"c"},
		"ssl":      true,
	}, result["DATABASE"])
}

func TestLoadFiles_PrefersJSONOverYAML(t *testing.T) {
	dir := makeLayerDir(t)
	writeJSON(t, dir, "default.json", map[string]any{"from": "json"})
	writeFile(t, dir, "default.yaml", "from: yaml\n")

	result, _, err := LoadFiles(dir, []string{"default"}, newTestMerger())
	require.NoError(t, err)
	assert.Equal(t, "json", result["from"])
}

func TestLoadFiles_DecodeErrorStops(t *testing.T) {
	dir := makeLayerDir(t)
	writeJSON(t, dir, "default.json", map[string]any{"a": 1})
	writeFile(t, dir, "test.json", "{not json")

	_, files, err := LoadFiles(dir, []string{"default", "test"}, newTestMerger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Len(t, files, 1)
}

func TestDecode(t *testing.T) {
	m, err := Decode([]byte("a:\n  1: one\n  b: [x, {c: d}]\n"), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"1": "one", "b": []any{"x", map[string]any{"c": "d"}}},
	}, m)

	m, err = Decode([]byte(""), ".yml")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = Decode([]byte("[1, 2]"), ".json")
	assert.True(t, errors.Is(err, ErrDecode))

	_, err = Decode([]byte("- a\n- b\n"), ".yaml")
	assert.True(t, errors.Is(err, ErrDecode))

	_, err = Decode([]byte("a: [unclosed"), ".yaml")
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestDecodeFile_Missing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "[overlay]")
}
