package deepmerge

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Symbol is a non-textual property key. Two symbols are the same key only when
// they are the same pointer, regardless of description.
type Symbol struct {
	description string
}

// NewSymbol creates a new unique symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

// Description returns the label the symbol was created with.
func (s *Symbol) Description() string {
	return s.description
}

func (s *Symbol) String() string {
	return "Symbol(" + s.description + ")"
}

type property struct {
	value      any
	enumerable bool
}

// Object is an insertion-ordered mapping with an optional prototype.
//
// Keys are either strings or *Symbol. Each own property carries an
// enumerable flag; lookups through Get and Has fall back to the prototype
// chain, while Keys, Symbols and the merge engine only see own enumerable
// properties.
type Object struct {
	props *orderedmap.OrderedMap[any, property]
	proto *Object
}

// NewObject creates an empty object without a prototype.
func NewObject() *Object {
	return &Object{props: orderedmap.New[any, property]()}
}

// NewObjectWithPrototype creates an empty object that inherits from proto.
func NewObjectWithPrototype(proto *Object) *Object {
	o := NewObject()
	o.proto = proto
	return o
}

func checkKey(key any) {
	switch key.(type) {
	case string, *Symbol:
	default:
		panic(fmt.Errorf("deepmerge: object key must be string or *Symbol, got %T", key))
	}
}

// Set assigns value to an own property. A new property is enumerable; an
// existing own property keeps its enumerable flag.
func (o *Object) Set(key, value any) *Object {
	checkKey(key)
	if p := o.props.GetPair(key); p != nil {
		p.Value.value = value
		return o
	}
	o.props.Set(key, property{value: value, enumerable: true})
	return o
}

// Define creates or replaces an own property with an explicit enumerable flag.
func (o *Object) Define(key, value any, enumerable bool) *Object {
	checkKey(key)
	o.props.Set(key, property{value: value, enumerable: enumerable})
	return o
}

// Delete removes an own property.
func (o *Object) Delete(key any) {
	o.props.Delete(key)
}

// Get returns the value for key, searching the prototype chain.
func (o *Object) Get(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if p, ok := cur.props.Get(key); ok {
			return p.value, true
		}
	}
	return nil, false
}

// GetOwn returns the value of an own property.
func (o *Object) GetOwn(key any) (any, bool) {
	if o == nil {
		return nil, false
	}
	p, ok := o.props.Get(key)
	return p.value, ok
}

// Has reports whether key resolves on o or its prototype chain.
func (o *Object) Has(key any) bool {
	_, ok := o.Get(key)
	return ok
}

// HasOwn reports whether key is an own property of o.
func (o *Object) HasOwn(key any) bool {
	_, ok := o.GetOwn(key)
	return ok
}

// IsEnumerable reports whether key is an own enumerable property of o.
func (o *Object) IsEnumerable(key any) bool {
	if o == nil {
		return false
	}
	p, ok := o.props.Get(key)
	return ok && p.enumerable
}

// Prototype returns the object o inherits from, or nil.
func (o *Object) Prototype() *Object {
	return o.proto
}

// Keys returns the own enumerable string keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, o.props.Len())
	for pair := o.props.Oldest(); pair != nil; pair = pair.Next() {
		if k, ok := pair.Key.(string); ok && pair.Value.enumerable {
			keys = append(keys, k)
		}
	}
	return keys
}

// Symbols returns the own enumerable symbol keys in insertion order.
func (o *Object) Symbols() []*Symbol {
	if o == nil {
		return nil
	}
	var symbols []*Symbol
	for pair := o.props.Oldest(); pair != nil; pair = pair.Next() {
		if s, ok := pair.Key.(*Symbol); ok && pair.Value.enumerable {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// Len returns the number of own properties, enumerable or not.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.props.Len()
}

// ToMap returns the own enumerable string-keyed properties as a plain map.
// Values are not copied.
func (o *Object) ToMap() map[string]any {
	out := make(map[string]any, o.Len())
	for _, k := range o.Keys() {
		out[k], _ = o.GetOwn(k)
	}
	return out
}

// shallowCopy returns an object with the same prototype and the same own
// properties, flags included.
func (o *Object) shallowCopy() *Object {
	c := NewObjectWithPrototype(o.proto)
	for pair := o.props.Oldest(); pair != nil; pair = pair.Next() {
		c.props.Set(pair.Key, pair.Value)
	}
	return c
}

// objectFromMap builds an object from m, keys in sorted order.
func objectFromMap(m map[string]any) *Object {
	o := NewObject()
	for _, k := range sortedKeys(m) {
		o.Set(k, m[k])
	}
	return o
}
