package deepmerge

// CloneUnlessOtherwiseSpecified returns a deep clone of value when cloning is
// enabled and value itself otherwise.
func (m *Merger) CloneUnlessOtherwiseSpecified(value any) any {
	if m.clone {
		return m.DeepClone(value)
	}
	return value
}

// DeepClone copies sequences and mergeable mappings recursively. Atomic and
// primitive values are returned unchanged.
//
// A container that is reached again through one of its own descendants is
// replaced by nil. Only ancestors count: the same container appearing twice
// in sibling positions is cloned twice.
func (m *Merger) DeepClone(value any) any {
	return m.deepClone(value, nil)
}

func (m *Merger) deepClone(value any, ancestors []identity) any {
	if s, ok := value.([]any); ok {
		if s == nil {
			return s
		}
		var cyclic bool
		if ancestors, cyclic = m.descend(s, ancestors); cyclic {
			return m.truncate(s)
		}
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = m.deepClone(e, ancestors)
		}
		return out
	}

	if !m.IsMergeable(value) {
		return value
	}

	switch v := value.(type) {
	case map[string]any:
		var cyclic bool
		if ancestors, cyclic = m.descend(v, ancestors); cyclic {
			return m.truncate(v)
		}
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = m.deepClone(e, ancestors)
		}
		return out
	case *Object:
		var cyclic bool
		if ancestors, cyclic = m.descend(v, ancestors); cyclic {
			return m.truncate(v)
		}
		out := NewObject()
		for _, k := range m.Keys(v) {
			e, _ := v.GetOwn(k)
			out.Set(k, m.deepClone(e, ancestors))
		}
		return out
	}
	return value
}

// descend returns ancestors extended by value, or true if value is already
// one of them.
func (m *Merger) descend(value any, ancestors []identity) ([]identity, bool) {
	id, ok := identityOf(value)
	if !ok {
		return ancestors, false
	}
	for _, a := range ancestors {
		if a == id {
			return ancestors, true
		}
	}
	return append(ancestors[:len(ancestors):len(ancestors)], id), false
}

// Destination returns the container a strategy writes its result into: a
// deep clone of value when cloning is enabled, a shallow copy otherwise.
// Either way value itself is never returned for a container, so strategies
// may modify the destination freely.
func (m *Merger) Destination(value any) any {
	if m.clone {
		return m.DeepClone(value)
	}
	switch v := value.(type) {
	case []any:
		return append([]any(nil), v...)
	case map[string]any:
		if v == nil {
			return v
		}
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = e
		}
		return out
	case *Object:
		if v == nil {
			return v
		}
		return v.shallowCopy()
	}
	return value
}
