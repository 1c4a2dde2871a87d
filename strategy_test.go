package deepmerge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func people() (map[string]any, map[string]any) {
	target := map[string]any{
		"letters": []any{"a", "b"},
		"people":  map[string]any{"first": "Alex", "second": "Bert"},
	}
	source := map[string]any{
		"letters": []any{"c"},
		"people":  map[string]any{"first": "Smith", "second": "Bertson", "third": "Car"},
	}
	return target, source
}

func joinPeople(target, source any, _ Path, _ *Merger) any {
	t := target.(map[string]any)
	s := source.(map[string]any)
	dest := map[string]any{}
	for k, v := range t {
		dest[k] = v
	}
	for k, v := range s {
		if tv, ok := t[k]; ok {
			dest[k] = fmt.Sprintf("%v-%v", tv, v)
		} else {
			dest[k] = v
		}
	}
	return dest
}

func TestCustomMerge_PerPathFunction(t *testing.T) {
	target, source := people()

	result := Merge(target, source, WithCustomMerge(func(p Path) MergeFunc {
		if p.Last() == "people" {
			return joinPeople
		}
		return nil
	}))

	assert.Equal(t, map[string]any{
		"letters": []any{"a", "b", "c"},
		"people":  map[string]any{"first": "Alex-Smith", "second": "Bert-Bertson", "third": "Car"},
	}, result)
}

func TestCustomMerge_ResultUsedVerbatim(t *testing.T) {
	target, source := people()

	result := Merge(target, source, WithCustomMerge(func(p Path) MergeFunc {
		if p.Last() == "letters" {
			return func(_, _ any, _ Path, _ *Merger) any { return "merged letters" }
		}
		return nil
	}))

	assert.Equal(t, map[string]any{
		"letters": "merged letters",
		"people":  map[string]any{"first": "Smith", "second": "Bertson", "third": "Car"},
	}, result)
}

func TestCustomMerge_NilFallsBackToDefault(t *testing.T) {
	target, source := people()
	var seen []string

	result := Merge(target, source, WithCustomMerge(func(p Path) MergeFunc {
		seen = append(seen, p.String())
		return nil
	}))

	assert.Equal(t, map[string]any{
		"letters": []any{"a", "b", "c"},
		"people":  map[string]any{"first": "Smith", "second": "Bertson", "third": "Car"},
	}, result)
	assert.ElementsMatch(t, []string{"letters", "people"}, seen)
}

func TestCustomMerge_ChildrenNotVisited(t *testing.T) {
	target := map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}}
	source := map[string]any{"a": map[string]any{"b": map[string]any{"c": 2}}}
	var seen []string

	Merge(target, source, WithCustomMerge(func(p Path) MergeFunc {
		seen = append(seen, p.String())
		if p.Len() == 1 {
			return func(_, s any, _ Path, _ *Merger) any { return s }
		}
		return nil
	}))

	assert.Equal(t, []string{"a"}, seen)
}

func TestCustomMerge_CallsBackIntoEngine(t *testing.T) {
	target := map[string]any{"cfg": map[string]any{"list": []any{1}, "x": 1}}
	source := map[string]any{"cfg": map[string]any{"list": []any{2}, "y": 2}}

	result := Merge(target, source, WithCustomMerge(func(p Path) MergeFunc {
		if p.Last() != "cfg" {
			return nil
		}
		return func(t, s any, p Path, m *Merger) any {
			merged := m.MergeAt(t, s, p).(map[string]any)
			merged["touched"] = true
			return merged
		}
	}))

	assert.Equal(t, map[string]any{"cfg": map[string]any{
		"list": []any{1, 2}, "x": 1, "y": 2, "touched": true,
	}}, result)
}

func TestReplaceArrays(t *testing.T) {
	source := []any{map[string]any{"a": 1}}
	target := map[string]any{"list": []any{1, 2, 3}}

	result := Merge(target, map[string]any{"list": source}, WithArrayMerge(ReplaceArrays)).(map[string]any)

	assert.Equal(t, source, result["list"])
	assert.False(t, samePointer(source, result["list"]))
}

func TestUniqueArrays(t *testing.T) {
	target := []any{"a", map[string]any{"k": 1}, "b"}
	source := []any{"b", map[string]any{"k": 1}, "c", "a"}

	result := Merge(target, source, WithArrayMerge(UniqueArrays))

	assert.Equal(t, []any{"a", map[string]any{"k": 1}, "b", "c"}, result)
}

func TestIndexWiseArrayStrategy(t *testing.T) {
	byIndex := func(target, source []any, path Path, m *Merger) []any {
		dest, _ := m.Destination(target).([]any)
		for i, v := range source {
			if i < len(target) {
				dest[i] = m.MergeUnlessCustomSpecified(target[i], v, path.Append(i))
			} else {
				dest = append(dest, m.CloneUnlessOtherwiseSpecified(v))
			}
		}
		return dest
	}
	target := []any{map[string]any{"a": 1}, "keep"}
	source := []any{map[string]any{"b": 2}, "replace", "new"}

	result := Merge(target, source, WithArrayMerge(byIndex))

	assert.Equal(t, []any{map[string]any{"a": 1, "b": 2}, "replace", "new"}, result)
}

func TestObjectMergeOverride(t *testing.T) {
	result := Merge(
		map[string]any{"a": 1},
		map[string]any{"b": 2},
		WithObjectMerge(func(_, source any, _ Path, _ *Merger) any { return "overridden" }),
	)

	assert.Equal(t, "overridden", result)
}

func TestArrayStrategy(t *testing.T) {
	for _, name := range ArrayStrategyNames() {
		fn, err := ArrayStrategy(name)
		require.NoError(t, err)
		assert.NotNil(t, fn)
	}

	_, err := ArrayStrategy("zip")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
	assert.Contains(t, err.Error(), "zip")
	assert.Equal(t, []string{"concat", "replace", "unique"}, ArrayStrategyNames())
}
