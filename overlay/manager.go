// Package overlay composes configuration from layers with the deepmerge
// engine. Layers are folded pairwise, lowest precedence first:
//
//  1. struct defaults (DefaultsFromType)
//  2. files: default < local < {env} < {env}.{provider} < {env}.{provider}.{region}
//  3. remote values from a config server
//  4. environment variables
//
// Sequences are replaced by higher layers unless WithMergeOptions says otherwise.
package overlay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/SmooAI/deepmerge"
	"github.com/hashicorp/go-hclog"
)

const defaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	value     any
	found     bool
	expiresAt time.Time
}

// Manager lazily loads and merges all layers on first access and caches
// lookups per key. It is safe for concurrent use.
type Manager struct {
	mu          sync.Mutex
	initialized bool
	config      map[string]any
	files       []string
	cache       map[string]cacheEntry

	cacheTTL    time.Duration
	envOverride map[string]string
	envOpts     EnvOptions
	defaults    map[string]any
	defaultsErr error
	deferred    map[string]Deferred
	environment string
	requireFile bool

	remoteURL    string
	remoteAPIKey string
	remoteOrgID  string

	mergeOpts []deepmerge.Option
	merger    *deepmerge.Merger
	logger    hclog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// NewManager creates a Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		cache:    make(map[string]cacheEntry),
		cacheTTL: defaultCacheTTL,
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	mergeOpts := append([]deepmerge.Option{
		deepmerge.WithArrayMerge(deepmerge.ReplaceArrays),
		deepmerge.WithLogger(m.logger.Named("merge")),
	}, m.mergeOpts...)
	m.merger = deepmerge.New(mergeOpts...)
	return m
}

// WithEnv replaces the process environment, mostly for tests.
func WithEnv(env map[string]string) ManagerOption {
	return func(m *Manager) { m.envOverride = env }
}

// WithEnvOptions sets how environment variables become a layer.
func WithEnvOptions(opts EnvOptions) ManagerOption {
	return func(m *Manager) { m.envOpts = opts }
}

// WithCacheTTL sets how long looked-up keys are cached.
func WithCacheTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.cacheTTL = ttl }
}

// WithDefaults sets the lowest-precedence layer.
func WithDefaults(defaults map[string]any) ManagerOption {
	return func(m *Manager) { m.defaults = defaults }
}

// WithDefaultsFrom derives the lowest-precedence layer from struct tags with
// DefaultsFromType. A reflection error is reported by the first lookup.
func WithDefaultsFrom(v any) ManagerOption {
	return func(m *Manager) { m.defaults, m.defaultsErr = DefaultsFromType(v) }
}

// WithDeferred registers a value computed from the merged configuration.
func WithDeferred(key string, fn Deferred) ManagerOption {
	return func(m *Manager) {
		if m.deferred == nil {
			m.deferred = make(map[string]Deferred)
		}
		m.deferred[key] = fn
	}
}

// WithEnvironment sets the environment name used for the remote layer. It
// defaults to DEEPMERGE_ENV, then "development".
func WithEnvironment(name string) ManagerOption {
	return func(m *Manager) { m.environment = name }
}

// WithRemote sets the config server. Empty values fall back to the
// DEEPMERGE_REMOTE_* variables.
func WithRemote(baseURL, apiKey, orgID string) ManagerOption {
	return func(m *Manager) {
		m.remoteURL, m.remoteAPIKey, m.remoteOrgID = baseURL, apiKey, orgID
	}
}

// WithRequiredFiles makes a missing layer directory or default layer an error
// instead of an empty file layer.
func WithRequiredFiles() ManagerOption {
	return func(m *Manager) { m.requireFile = true }
}

// WithMergeOptions adds engine options applied when folding layers.
func WithMergeOptions(opts ...deepmerge.Option) ManagerOption {
	return func(m *Manager) { m.mergeOpts = append(m.mergeOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func (m *Manager) env() map[string]string {
	if m.envOverride != nil {
		return m.envOverride
	}
	return Environ()
}

func (m *Manager) initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}
	if m.defaultsErr != nil {
		return m.defaultsErr
	}
	env := m.env()

	var merged any = m.merger.Merge(map[string]any{}, orEmpty(m.defaults))

	fileLayer, files, err := m.loadFiles(env)
	if err != nil {
		if m.requireFile {
			return err
		}
		m.logger.Debug("file layers skipped", "error", err)
	}
	merged = m.merger.Merge(merged, fileLayer)

	client := NewRemoteClient(m.remoteURL, m.remoteAPIKey, m.remoteOrgID, env)
	defer client.Close()
	if client.Configured() {
		name := firstNonEmpty(m.environment, environmentName(env))
		remote, err := client.Fetch(ctx, name)
		if err != nil {
			m.logger.Warn("failed to fetch remote layer", "environment", name, "error", err)
		} else {
			merged = m.merger.Merge(merged, remote)
		}
	}

	merged = m.merger.Merge(merged, EnvLayer(env, m.envOpts, m.merger))

	config, _ := merged.(map[string]any)
	ResolveDeferred(config, m.deferred)

	m.config = config
	m.files = files
	m.initialized = true
	m.logger.Debug("configuration loaded", "files", len(files), "keys", len(config))
	return nil
}

func (m *Manager) loadFiles(env map[string]string) (map[string]any, []string, error) {
	dir, err := Discover(env, false)
	if err != nil {
		return map[string]any{}, nil, err
	}
	layer, files, err := LoadFiles(dir, LayerNames(env), m.merger)
	if err != nil {
		return map[string]any{}, files, err
	}
	setBuiltins(layer, env)
	return layer, files, nil
}

func orEmpty(layer map[string]any) map[string]any {
	if layer == nil {
		return map[string]any{}
	}
	return layer
}

// ErrNotFound is returned by Get when no layer defines the key.
var ErrNotFound = errors.New("key not found")

// Get returns the merged value at a dotted key path such as "DATABASE.host".
// The returned value is shared with the cache and must not be modified.
func (m *Manager) Get(ctx context.Context, key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.cache[key]; ok {
		if time.Now().Before(entry.expiresAt) {
			if !entry.found {
				return nil, newError(ErrNotFound, "%s", key)
			}
			return entry.value, nil
		}
		delete(m.cache, key)
	}

	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	value, found := lookup(m.config, key)
	m.cache[key] = cacheEntry{value: value, found: found, expiresAt: time.Now().Add(m.cacheTTL)}
	if !found {
		return nil, newError(ErrNotFound, "%s", key)
	}
	return value, nil
}

func lookup(config map[string]any, key string) (any, bool) {
	if v, ok := config[key]; ok {
		return v, true
	}
	var cur any = config
	for _, segment := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[segment]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Config returns a deep copy of the whole merged configuration.
func (m *Manager) Config(ctx context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}
	config, _ := m.merger.DeepClone(m.config).(map[string]any)
	return config, nil
}

// Files returns the layer files read by the last load.
func (m *Manager) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.files...)
}

// Invalidate clears the cache and reloads every layer on next access.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
	m.config = nil
	m.files = nil
	m.cache = make(map[string]cacheEntry)
}
