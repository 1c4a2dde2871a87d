package overlay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/SmooAI/deepmerge"
	"gopkg.in/yaml.v3"
)

// Environment variables read by the overlay loader.
const (
	EnvConfigDir     = "DEEPMERGE_CONFIG_DIR"
	EnvLevelsUp      = "DEEPMERGE_CONFIG_LEVELS_UP_LIMIT"
	EnvEnvironment   = "DEEPMERGE_ENV"
	EnvIsLocal       = "IS_LOCAL"
	EnvCloudProvider = "DEEPMERGE_CLOUD_PROVIDER"
	EnvCloudRegion   = "DEEPMERGE_CLOUD_REGION"
)

const defaultLevelsUp = 5

var (
	dirCandidates   = []string{".config-layers", "config-layers"}
	layerExtensions = []string{".json", ".yaml", ".yml"}
)

var dirCache struct {
	sync.Mutex
	dir string
	at  time.Time
}

const dirCacheTTL = time.Hour

// ResetDirCache forgets the last discovered directory.
func ResetDirCache() {
	dirCache.Lock()
	dirCache.dir = ""
	dirCache.Unlock()
}

// Discover locates the layer directory. DEEPMERGE_CONFIG_DIR wins when set;
// otherwise the working directory and up to DEEPMERGE_CONFIG_LEVELS_UP_LIMIT
// (default 5) parents are searched for .config-layers or config-layers.
// A discovered directory is cached for an hour unless ignoreCache is set.
func Discover(env map[string]string, ignoreCache bool) (string, error) {
	if dir := env[EnvConfigDir]; dir != "" {
		if isDir(dir) {
			return dir, nil
		}
		return "", newError(ErrNoConfigDir, "%s points to %s", EnvConfigDir, dir)
	}

	if !ignoreCache {
		dirCache.Lock()
		dir, fresh := dirCache.dir, time.Since(dirCache.at) < dirCacheTTL
		dirCache.Unlock()
		if dir != "" && fresh && isDir(dir) {
			return dir, nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", newError(err, "cannot get working directory")
	}

	levels := defaultLevelsUp
	if n, err := strconv.Atoi(env[EnvLevelsUp]); err == nil && n > 0 {
		levels = n
	}

	search := cwd
	for level := 0; level <= levels; level++ {
		for _, c := range dirCandidates {
			dir := filepath.Join(search, c)
			if isDir(dir) {
				dirCache.Lock()
				dirCache.dir, dirCache.at = dir, time.Now()
				dirCache.Unlock()
				return dir, nil
			}
		}
		parent := filepath.Dir(search)
		if parent == search {
			break
		}
		search = parent
	}

	return "", newError(ErrNoConfigDir, "searched %d levels up from %s", levels, cwd)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// LayerNames returns the layer base names for env, lowest precedence first:
// default, local (when IS_LOCAL), {env}, {env}.{provider}, {env}.{provider}.{region}.
func LayerNames(env map[string]string) []string {
	names := []string{"default"}
	if CoerceBoolean(env[EnvIsLocal]) {
		names = append(names, "local")
	}
	name := environmentName(env)
	names = append(names, name)

	region := DetectCloudRegion(env)
	if region.KnownProvider() {
		names = append(names, name+"."+region.Provider)
	}
	if region.Known() {
		names = append(names, name+"."+region.Provider+"."+region.Region)
	}
	return names
}

// LoadFiles folds the named layers found in dir with m, lowest precedence
// first. Each name resolves to the first existing file among .json, .yaml and
// .yml. The "default" layer is required; the others are optional. It returns
// the merged layer and the files that were read.
func LoadFiles(dir string, names []string, m *deepmerge.Merger) (map[string]any, []string, error) {
	var merged any = map[string]any{}
	var loaded []string

	for _, name := range names {
		path, ok := findLayer(dir, name)
		if !ok {
			if name == "default" {
				return nil, loaded, newError(ErrMissingDefault, "no default layer in %s", dir)
			}
			continue
		}
		layer, err := DecodeFile(path)
		if err != nil {
			return nil, loaded, err
		}
		merged = m.Merge(merged, layer)
		loaded = append(loaded, path)
	}

	out, _ := merged.(map[string]any)
	return out, loaded, nil
}

func findLayer(dir, name string) (string, bool) {
	for _, ext := range layerExtensions {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// DecodeFile reads a JSON or YAML document (by extension) whose top level is
// a mapping.
func DecodeFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(err, "layer %s does not exist", path)
		}
		return nil, newError(err, "error reading %s", path)
	}
	return Decode(data, filepath.Ext(path))
}

// DecodeValue parses data as JSON when ext is ".json" and as YAML otherwise.
// YAML mappings with non-string keys are converted to string keys.
func DecodeValue(data []byte, ext string) (any, error) {
	var doc any
	if ext == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, newError(fmt.Errorf("%w: %v", ErrDecode, err), "invalid JSON")
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newError(fmt.Errorf("%w: %v", ErrDecode, err), "invalid YAML")
	}
	return normalize(doc), nil
}

// Decode is DecodeValue for layer documents, which must be mappings. An
// empty document is an empty mapping.
func Decode(data []byte, ext string) (map[string]any, error) {
	doc, err := DecodeValue(data, ext)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, newError(ErrDecode, "top level is %T, not a mapping", doc)
	}
	return m, nil
}

func normalize(v any) any {
	switch c := v.(type) {
	case map[string]any:
		for k, e := range c {
			c[k] = normalize(e)
		}
		return c
	case map[any]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range c {
			c[i] = normalize(e)
		}
		return c
	}
	return v
}
