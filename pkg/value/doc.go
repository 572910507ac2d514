// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package value holds the dynamic value model templates evaluate against.

A Value is a tagged union over nil, bool, number (int64/uint64/float64),
string, array, map, object, and function. Maps and objects are both
string-keyed; objects additionally carry method semantics: when the
evaluator resolves a field holding a function on an object, it invokes it
with the object as receiver.

The package also defines template truthiness (IsTrue), equality and ordering
across the unified numeric space (Equal, Compare), conversion from arbitrary
host Go values (FromGoValue), and the default textual rendering used when an
action's result is written into the output (String).
*/
package value
