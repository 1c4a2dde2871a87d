package overlay

import "github.com/SmooAI/deepmerge"

// Deferred computes a value from the fully merged configuration.
type Deferred func(snapshot map[string]any) any

// ResolveDeferred stores the result of each resolver under its key in config.
// Every resolver sees the same deep-cloned snapshot taken before any of them
// ran, so results never depend on map iteration order and resolvers cannot
// modify config through the snapshot.
func ResolveDeferred(config map[string]any, deferred map[string]Deferred) {
	if len(deferred) == 0 {
		return
	}
	snapshot, _ := deepmerge.New().DeepClone(config).(map[string]any)
	for key, resolve := range deferred {
		config[key] = resolve(snapshot)
	}
}
