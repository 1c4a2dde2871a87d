package deepmerge

// Keys returns the own enumerable keys of a mapping: string keys first, then,
// when symbols are included, *Symbol keys. An *Object yields keys in
// insertion order and a map[string]any in sorted order. Anything else has no
// keys.
func (m *Merger) Keys(object any) []any {
	switch o := object.(type) {
	case map[string]any:
		keys := make([]any, 0, len(o))
		for _, k := range sortedKeys(o) {
			keys = append(keys, k)
		}
		return keys
	case *Object:
		if o == nil {
			return nil
		}
		var keys []any
		for _, k := range o.Keys() {
			keys = append(keys, k)
		}
		if m.includeSymbols {
			for _, s := range m.OwnSymbols(o) {
				keys = append(keys, s)
			}
		}
		return keys
	}
	return nil
}

// OwnSymbols returns the own enumerable symbol keys of object.
func (m *Merger) OwnSymbols(object any) []*Symbol {
	if o, ok := object.(*Object); ok {
		return o.Symbols()
	}
	return nil
}

// Get returns the value stored under key, following the prototype chain of an
// *Object. Lookups on values that are not containers report false.
func (m *Merger) Get(object, key any) (any, bool) {
	switch o := object.(type) {
	case map[string]any:
		s, ok := key.(string)
		if !ok {
			return nil, false
		}
		v, ok := o[s]
		return v, ok
	case *Object:
		if o == nil {
			return nil, false
		}
		return o.Get(key)
	case []any:
		i, ok := key.(int)
		if !ok || i < 0 || i >= len(o) {
			return nil, false
		}
		return o[i], true
	}
	return nil, false
}

// PropertyIsOnObject reports whether key resolves on object, inherited
// properties included. It never panics; non-containers report false.
func (m *Merger) PropertyIsOnObject(object, key any) bool {
	_, ok := m.Get(object, key)
	return ok
}

// PropertyIsUnsafe reports whether key resolves on object without being an
// own enumerable property. Such keys belong to a prototype or are hidden, and
// assigning them during a merge would overwrite state the target does not own.
func (m *Merger) PropertyIsUnsafe(object, key any) bool {
	return m.PropertyIsOnObject(object, key) && !ownEnumerable(object, key)
}

func ownEnumerable(object, key any) bool {
	switch o := object.(type) {
	case map[string]any:
		s, ok := key.(string)
		if !ok {
			return false
		}
		_, ok = o[s]
		return ok
	case *Object:
		return o.IsEnumerable(key)
	case []any:
		i, ok := key.(int)
		return ok && i >= 0 && i < len(o)
	}
	return false
}

// setKey stores value under key in dest and returns the container holding it.
// A map[string]any that receives a symbol key is promoted to an *Object;
// a non-container dest is replaced by a new mapping.
func setKey(dest, key, value any) any {
	switch d := dest.(type) {
	case map[string]any:
		if s, ok := key.(string); ok && d != nil {
			d[s] = value
			return d
		}
		if d != nil {
			return objectFromMap(d).Set(key, value)
		}
	case *Object:
		if d != nil {
			return d.Set(key, value)
		}
	}
	if s, ok := key.(string); ok {
		return map[string]any{s: value}
	}
	return NewObject().Set(key, value)
}
