package deepmerge

import (
	"fmt"
	"strings"
)

// Path is the sequence of keys and indices leading from the merge root to the
// current value. Steps are string, *Symbol or int. A Path is immutable:
// Append returns a new Path and never modifies the receiver.
//
// The zero value is the root path.
type Path struct {
	steps []any

	// container pairs already being merged on this branch
	entered []mergePair
}

type mergePair struct {
	target, source identity
}

// NewPath returns a path made of the given steps.
func NewPath(steps ...any) Path {
	return Path{steps: append([]any(nil), steps...)}
}

// Append returns a copy of p extended by step.
func (p Path) Append(step any) Path {
	steps := make([]any, len(p.steps)+1)
	copy(steps, p.steps)
	steps[len(p.steps)] = step
	return Path{steps: steps, entered: p.entered}
}

// Len returns the number of steps.
func (p Path) Len() int {
	return len(p.steps)
}

// At returns the i-th step.
func (p Path) At(i int) any {
	return p.steps[i]
}

// Last returns the final step, or nil for the root path.
func (p Path) Last() any {
	if len(p.steps) == 0 {
		return nil
	}
	return p.steps[len(p.steps)-1]
}

// Steps returns a copy of the steps.
func (p Path) Steps() []any {
	return append([]any(nil), p.steps...)
}

// Equal reports whether p and other have the same steps.
func (p Path) Equal(other Path) bool {
	if len(p.steps) != len(other.steps) {
		return false
	}
	for i := range p.steps {
		if p.steps[i] != other.steps[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	if len(p.steps) == 0 {
		return "(root)"
	}
	var b strings.Builder
	for i, step := range p.steps {
		switch s := step.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s)
		case *Symbol:
			b.WriteString("[" + s.String() + "]")
		default:
			fmt.Fprintf(&b, "[%v]", s)
		}
	}
	return b.String()
}

func (p Path) hasEntered(target, source any) bool {
	pair, ok := pairOf(target, source)
	if !ok {
		return false
	}
	for _, e := range p.entered {
		if e == pair {
			return true
		}
	}
	return false
}

func (p Path) enter(target, source any) Path {
	pair, ok := pairOf(target, source)
	if !ok {
		return p
	}
	// full slice expression so siblings never share a backing array
	p.entered = append(p.entered[:len(p.entered):len(p.entered)], pair)
	return p
}

func pairOf(target, source any) (mergePair, bool) {
	t, tok := identityOf(target)
	s, sok := identityOf(source)
	return mergePair{target: t, source: s}, tok || sok
}
