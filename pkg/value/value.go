// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package value

import (
	"carvel.dev/gotmpl/pkg/orderedmap"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindMap
	KindObject
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// Func is a function callable from templates. Errors returned from it abort
// the render.
type Func func(args []Value) (Value, error)

// Value is the dynamic value the template engine evaluates against: a tagged
// union over nil, booleans, numbers, strings, arrays, maps, objects, and
// functions. Objects are maps with method semantics: a function-valued field
// is invoked with its receiver (see Evaluator docs).
type Value struct {
	kind Kind
	b    bool
	num  Number
	str  string
	arr  []Value
	m    *orderedmap.Map // map and object variants; holds Value values
	fn   Func
}

// Nil returns the nil Value.
func Nil() Value { return Value{kind: KindNil} }

func FromBool(b bool) Value     { return Value{kind: KindBool, b: b} }
func FromString(s string) Value { return Value{kind: KindString, str: s} }
func FromInt(i int64) Value     { return Value{kind: KindNumber, num: NewInt(i)} }
func FromUint(u uint64) Value   { return Value{kind: KindNumber, num: NewUint(u)} }
func FromFloat(f float64) Value { return Value{kind: KindNumber, num: NewFloat(f)} }
func FromNumber(n Number) Value { return Value{kind: KindNumber, num: n} }
func FromArray(items []Value) Value {
	return Value{kind: KindArray, arr: items}
}
func FromMap(m *orderedmap.Map) Value {
	return Value{kind: KindMap, m: m}
}
func FromObject(m *orderedmap.Map) Value {
	return Value{kind: KindObject, m: m}
}
func FromFunc(fn Func) Value { return Value{kind: KindFunction, fn: fn} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

// Bool returns the underlying bool. Valid only for KindBool.
func (v Value) Bool() bool { return v.b }

// Str returns the underlying string. Valid only for KindString.
func (v Value) Str() string { return v.str }

// Number returns the underlying Number. Valid only for KindNumber.
func (v Value) Number() Number { return v.num }

// Array returns the underlying elements. Valid only for KindArray.
func (v Value) Array() []Value { return v.arr }

// Map returns the underlying map. Valid for KindMap and KindObject.
func (v Value) Map() *orderedmap.Map { return v.m }

// Function returns the underlying function. Valid only for KindFunction.
func (v Value) Function() Func { return v.fn }

// IsTrue reports the template truth of the value: nil is false, booleans are
// themselves, numbers are true unless zero, strings/arrays/maps/objects are
// true unless empty, functions are always true.
func (v Value) IsTrue() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return !v.num.IsZero()
	case KindString:
		return len(v.str) > 0
	case KindArray:
		return len(v.arr) > 0
	case KindMap, KindObject:
		return v.m.Len() > 0
	case KindFunction:
		return true
	}
	return false
}

// Field resolves a named field on a map or object. The second result is
// false when the value has no such field (including non-map kinds).
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindMap && v.kind != KindObject {
		return Nil(), false
	}
	item, found := v.m.Get(name)
	if !found {
		return Nil(), false
	}
	return item.(Value), true
}

// SortedKeys returns map/object keys in ascending order; iteration over maps
// (range, printing) happens in this order.
func (v Value) SortedKeys() []string {
	return v.m.SortedKeys()
}
