package deepmerge

import (
	"reflect"
	"regexp"
	"sort"
	"time"
)

// DefaultAtomicTypes are the built-in value kinds that are never merged or
// cloned field by field, even though they are structured values. They matter
// once a WithMergeable predicate accepts more than the plain containers.
var DefaultAtomicTypes = []reflect.Type{
	reflect.TypeOf(time.Time{}),
	reflect.TypeOf(&time.Time{}),
	reflect.TypeOf(regexp.Regexp{}),
	reflect.TypeOf(&regexp.Regexp{}),
}

var defaultAtomic = atomicSet(nil)

func atomicSet(extra []reflect.Type) map[reflect.Type]bool {
	set := make(map[reflect.Type]bool, len(DefaultAtomicTypes)+len(extra))
	for _, t := range DefaultAtomicTypes {
		set[t] = true
	}
	for _, t := range extra {
		if t != nil {
			set[t] = true
		}
	}
	return set
}

// DefaultMergeable reports whether value is a non-nil map[string]any, *Object
// or []any whose type is not one of DefaultAtomicTypes.
func DefaultMergeable(value any) bool {
	return value != nil && !defaultAtomic[reflect.TypeOf(value)] && isContainer(value)
}

func isContainer(value any) bool {
	switch v := value.(type) {
	case []any:
		return true
	case map[string]any:
		return v != nil
	case *Object:
		return v != nil
	}
	return false
}

// identity is the reference identity of a container. A sequence is identified
// by its first element and its length, so a shorter slice of the same backing
// array is a different container. Empty sequences have no identity since they
// cannot contain themselves.
type identity struct {
	ptr  uintptr
	len  int
	kind int
}

const (
	identitySequence = iota + 1
	identityMap
	identityObject
)

func identityOf(value any) (identity, bool) {
	switch v := value.(type) {
	case []any:
		if len(v) == 0 {
			return identity{}, false
		}
		return identity{reflect.ValueOf(v).Pointer(), len(v), identitySequence}, true
	case map[string]any:
		if v == nil {
			return identity{}, false
		}
		return identity{ptr: reflect.ValueOf(v).Pointer(), kind: identityMap}, true
	case *Object:
		if v == nil {
			return identity{}, false
		}
		return identity{ptr: reflect.ValueOf(v).Pointer(), kind: identityObject}, true
	}
	return identity{}, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
