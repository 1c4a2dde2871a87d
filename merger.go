// Package deepmerge combines two hierarchical values (mappings and sequences)
// into a new value without mutating either input.
//
// Mappings are merged key by key, sequences are concatenated, and everything
// else is replaced by the source value. Every decision point is pluggable:
// what counts as mergeable, how sequences and mappings are combined, and
// per-path overrides selected by a lookup function.
//
//	merged := deepmerge.Merge(defaults, overrides)
//
//	m := deepmerge.New(
//	    deepmerge.WithArrayMerge(deepmerge.ReplaceArrays),
//	    deepmerge.WithCustomMerge(func(p deepmerge.Path) deepmerge.MergeFunc {
//	        if p.Last() == "people" {
//	            return joinPeople
//	        }
//	        return nil
//	    }),
//	)
//	merged = m.Merge(defaults, overrides)
package deepmerge

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"
)

// MergeableFunc decides whether a value is a container eligible for deep merge.
type MergeableFunc func(value any) bool

// ArrayMergeFunc combines two sequences. It owns its cloning decisions.
type ArrayMergeFunc func(target, source []any, path Path, m *Merger) []any

// ObjectMergeFunc combines two mergeable mappings.
type ObjectMergeFunc func(target, source any, path Path, m *Merger) any

// MergeFunc merges a subtree selected by a CustomMergeFunc. Its result is used
// verbatim.
type MergeFunc func(target, source any, path Path, m *Merger) any

// CustomMergeFunc selects a MergeFunc for a path. Returning nil falls back to
// the default dispatch.
type CustomMergeFunc func(path Path) MergeFunc

// Merger holds one merge configuration. It is not modified after New and may
// be shared between goroutines.
type Merger struct {
	isMergeable    MergeableFunc
	arrayMerge     ArrayMergeFunc
	objectMerge    ObjectMergeFunc
	customMerge    CustomMergeFunc
	clone          bool
	includeSymbols bool
	atomic         map[reflect.Type]bool
	logger         hclog.Logger
	onCycle        func(value any)
}

// Option configures a Merger.
type Option func(*Merger)

// WithMergeable replaces the mergeable classification. Atomic values are
// never mergeable, whatever fn reports.
func WithMergeable(fn MergeableFunc) Option {
	return func(m *Merger) { m.isMergeable = fn }
}

// WithArrayMerge replaces the sequence strategy. The default is ConcatArrays.
func WithArrayMerge(fn ArrayMergeFunc) Option {
	return func(m *Merger) { m.arrayMerge = fn }
}

// WithObjectMerge replaces the mapping strategy. The default is DefaultObjectMerge.
func WithObjectMerge(fn ObjectMergeFunc) Option {
	return func(m *Merger) { m.objectMerge = fn }
}

// WithCustomMerge sets the per-path override lookup.
func WithCustomMerge(fn CustomMergeFunc) Option {
	return func(m *Merger) { m.customMerge = fn }
}

// WithClone controls whether nested containers are deep-cloned into the
// result. Enabled by default.
func WithClone(clone bool) Option {
	return func(m *Merger) { m.clone = clone }
}

// WithIncludeSymbols controls whether *Symbol keys of an *Object are
// enumerated. Enabled by default.
func WithIncludeSymbols(include bool) Option {
	return func(m *Merger) { m.includeSymbols = include }
}

// WithAtomicTypes adds types that are always replaced, never merged or cloned.
// The check runs before the mergeable classification, so it also binds a
// predicate set with WithMergeable.
func WithAtomicTypes(types ...reflect.Type) Option {
	return func(m *Merger) {
		for _, t := range types {
			if t != nil {
				m.atomic[t] = true
			}
		}
	}
}

// WithLogger sets the logger used for trace and debug output.
func WithLogger(logger hclog.Logger) Option {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCycleHandler registers a function called with the container whose
// re-entry was cut short by the cycle guard. The truncated branch is nil in
// the result either way.
func WithCycleHandler(fn func(value any)) Option {
	return func(m *Merger) { m.onCycle = fn }
}

// New creates a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{
		arrayMerge:     ConcatArrays,
		objectMerge:    DefaultObjectMerge,
		clone:          true,
		includeSymbols: true,
		atomic:         atomicSet(nil),
		logger:         hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.isMergeable == nil {
		m.isMergeable = isContainer
	}
	if m.arrayMerge == nil {
		m.arrayMerge = ConcatArrays
	}
	if m.objectMerge == nil {
		m.objectMerge = DefaultObjectMerge
	}
	return m
}

// Merge merges source into target with a one-shot Merger built from opts.
func Merge(target, source any, opts ...Option) any {
	return New(opts...).Merge(target, source)
}

// Clone reports whether the merger deep-clones containers.
func (m *Merger) Clone() bool {
	return m.clone
}

// IncludeSymbols reports whether symbol keys are enumerated.
func (m *Merger) IncludeSymbols() bool {
	return m.includeSymbols
}

// Logger returns the merger's logger.
func (m *Merger) Logger() hclog.Logger {
	return m.logger
}

// IsMergeable reports whether value is non-nil, not atomic and accepted by
// the configured classification.
func (m *Merger) IsMergeable(value any) bool {
	return value != nil && !m.IsAtomic(value) && m.isMergeable(value)
}

// IsAtomic reports whether value's type is registered as atomic.
func (m *Merger) IsAtomic(value any) bool {
	return value != nil && m.atomic[reflect.TypeOf(value)]
}

// Merge merges source into target starting at the root path.
func (m *Merger) Merge(target, source any) any {
	return m.MergeAt(target, source, Path{})
}

// MergeAt merges source into target at path.
//
// A sequence source replaces any non-sequence target and is combined with a
// sequence target by the array strategy. A mergeable source is combined with a
// mergeable, non-sequence target by the object strategy and replaces anything
// else. Any other source value is returned as is, never cloned.
func (m *Merger) MergeAt(target, source any, path Path) any {
	if s, ok := source.([]any); ok {
		if t, ok := target.([]any); ok {
			if path.hasEntered(t, s) {
				return m.truncate(s)
			}
			return m.arrayMerge(t, s, path.enter(t, s), m)
		}
		return m.CloneUnlessOtherwiseSpecified(s)
	}

	if m.IsMergeable(source) {
		if _, seq := target.([]any); !seq && m.IsMergeable(target) {
			if path.hasEntered(target, source) {
				return m.truncate(source)
			}
			return m.objectMerge(target, source, path.enter(target, source), m)
		}
		return m.CloneUnlessOtherwiseSpecified(source)
	}

	return source
}

// MergeUnlessCustomSpecified merges target and source with the function the
// custom lookup returns for path, or with MergeAt when there is none.
func (m *Merger) MergeUnlessCustomSpecified(target, source any, path Path) any {
	if m.customMerge == nil {
		return m.MergeAt(target, source, path)
	}
	if fn := m.customMerge(path); fn != nil {
		m.logger.Trace("custom merge", "path", path.String())
		return fn(target, source, path, m)
	}
	return m.MergeAt(target, source, path)
}

func (m *Merger) truncate(value any) any {
	if m.logger.IsDebug() {
		m.logger.Debug("truncated cyclic reference", "type", fmt.Sprintf("%T", value))
	}
	if m.onCycle != nil {
		m.onCycle(value)
	}
	return nil
}
