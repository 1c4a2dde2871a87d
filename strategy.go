package deepmerge

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrUnknownStrategy is returned by ArrayStrategy for an unrecognized name.
var ErrUnknownStrategy = errors.New("unknown merge strategy")

// ConcatArrays is the default sequence strategy: the elements of target
// followed by the elements of source, cloned unless cloning is disabled.
func ConcatArrays(target, source []any, _ Path, m *Merger) []any {
	dest, _ := m.Destination(target).([]any)
	for _, v := range source {
		dest = append(dest, m.CloneUnlessOtherwiseSpecified(v))
	}
	return dest
}

// ReplaceArrays discards target and returns source, cloned unless cloning is
// disabled.
func ReplaceArrays(_, source []any, _ Path, m *Merger) []any {
	dest, _ := m.Destination(source).([]any)
	return dest
}

// UniqueArrays concatenates like ConcatArrays and then drops every element
// deeply equal to an earlier one.
func UniqueArrays(target, source []any, path Path, m *Merger) []any {
	all := ConcatArrays(target, source, path, m)
	dest := make([]any, 0, len(all))
	for _, v := range all {
		seen := false
		for _, d := range dest {
			if reflect.DeepEqual(v, d) {
				seen = true
				break
			}
		}
		if !seen {
			dest = append(dest, v)
		}
	}
	return dest
}

var arrayStrategies = map[string]ArrayMergeFunc{
	`concat`:  ConcatArrays,
	`replace`: ReplaceArrays,
	`unique`:  UniqueArrays,
}

// ArrayStrategy returns the sequence strategy registered under name:
// concat, replace or unique.
func ArrayStrategy(name string) (ArrayMergeFunc, error) {
	if fn, ok := arrayStrategies[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%w '%s'", ErrUnknownStrategy, name)
}

// ArrayStrategyNames lists the names accepted by ArrayStrategy.
func ArrayStrategyNames() []string {
	names := make([]string, 0, len(arrayStrategies))
	for n := range arrayStrategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultObjectMerge is the default mapping strategy. It starts from a copy of
// target and walks the keys of source:
//   - keys that resolve on target without being own enumerable properties
//     are skipped
//   - keys present on target whose source value is mergeable are merged
//     recursively, honoring per-path overrides
//   - every other key is assigned the (cloned) source value
func DefaultObjectMerge(target, source any, path Path, m *Merger) any {
	dest := m.Destination(target)
	for _, key := range m.Keys(source) {
		if m.PropertyIsUnsafe(target, key) {
			continue
		}
		sv, _ := m.Get(source, key)
		if tv, ok := m.Get(target, key); ok && m.IsMergeable(sv) {
			dest = setKey(dest, key, m.MergeUnlessCustomSpecified(tv, sv, path.Append(key)))
		} else {
			dest = setKey(dest, key, m.CloneUnlessOtherwiseSpecified(sv))
		}
	}
	return dest
}
