// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"fmt"
	"net/url"
	"strings"

	"carvel.dev/gotmpl/pkg/printf"
	"carvel.dev/gotmpl/pkg/value"
)

// Builtins returns a fresh table of the builtin template functions.
func Builtins() map[string]value.Func {
	return map[string]value.Func{
		"and":      andFunc,
		"call":     callFunc,
		"eq":       eqFunc,
		"ge":       geFunc,
		"gt":       gtFunc,
		"html":     htmlFunc,
		"index":    indexFunc,
		"js":       jsFunc,
		"le":       leFunc,
		"len":      lenFunc,
		"lt":       ltFunc,
		"ne":       neFunc,
		"not":      notFunc,
		"or":       orFunc,
		"print":    printFunc,
		"printf":   printfFunc,
		"println":  printlnFunc,
		"slice":    sliceFunc,
		"urlquery": urlqueryFunc,
	}
}

// andFunc returns the boolean AND of its arguments by returning the first
// false argument or the last argument. All arguments are evaluated.
func andFunc(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil(), &ArgumentError{Func: "and", Msg: "at least one argument required"}
	}
	for _, arg := range args {
		if !arg.IsTrue() {
			return arg, nil
		}
	}
	return args[len(args)-1], nil
}

// orFunc returns the boolean OR of its arguments by returning the first true
// argument or the last argument. All arguments are evaluated.
func orFunc(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil(), &ArgumentError{Func: "or", Msg: "at least one argument required"}
	}
	for _, arg := range args {
		if arg.IsTrue() {
			return arg, nil
		}
	}
	return args[len(args)-1], nil
}

func notFunc(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), &ArgumentError{Func: "not", Msg: "requires a single argument"}
	}
	return value.FromBool(!args[0].IsTrue()), nil
}

// eqFunc reports whether the first argument equals any of the following ones.
func eqFunc(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Nil(), &ArgumentError{Func: "eq", Msg: "requires at least 2 arguments"}
	}
	first := args[0]
	for _, arg := range args[1:] {
		if value.Equal(first, arg) {
			return value.FromBool(true), nil
		}
	}
	return value.FromBool(false), nil
}

func neFunc(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Nil(), &ArgumentError{Func: "ne", Msg: "requires 2 arguments"}
	}
	return value.FromBool(!value.Equal(args[0], args[1])), nil
}

func ltFunc(args []value.Value) (value.Value, error) {
	ord, err := compare2("lt", args)
	if err != nil {
		return value.Nil(), err
	}
	return value.FromBool(ord < 0), nil
}

func leFunc(args []value.Value) (value.Value, error) {
	ord, err := compare2("le", args)
	if err != nil {
		return value.Nil(), err
	}
	return value.FromBool(ord <= 0), nil
}

func gtFunc(args []value.Value) (value.Value, error) {
	ord, err := compare2("gt", args)
	if err != nil {
		return value.Nil(), err
	}
	return value.FromBool(ord > 0), nil
}

func geFunc(args []value.Value) (value.Value, error) {
	ord, err := compare2("ge", args)
	if err != nil {
		return value.Nil(), err
	}
	return value.FromBool(ord >= 0), nil
}

func compare2(name string, args []value.Value) (int, error) {
	if len(args) != 2 {
		return 0, &ArgumentError{Func: name, Msg: "requires 2 arguments"}
	}
	ord, ok := value.Compare(args[0], args[1])
	if !ok {
		return 0, &TypeError{Msg: fmt.Sprintf("unable to compare %s and %s", args[0], args[1])}
	}
	return ord, nil
}

// lenFunc returns the length of its argument: bytes for strings, elements
// for arrays, entries for maps and objects.
func lenFunc(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), &ArgumentError{Func: "len", Msg: "requires exactly 1 argument"}
	}
	switch arg := args[0]; arg.Kind() {
	case value.KindString:
		return value.FromInt(int64(len(arg.Str()))), nil
	case value.KindArray:
		return value.FromInt(int64(len(arg.Array()))), nil
	case value.KindMap, value.KindObject:
		return value.FromInt(int64(arg.Map().Len())), nil
	default:
		return value.Nil(), &TypeError{Msg: fmt.Sprintf("len of %s", arg.Kind())}
	}
}

// indexFunc indexes its first argument by the following arguments in turn:
// "index x 1 2 3" is x[1][2][3]. Missing map keys yield nil; array indexes
// out of range are errors.
func indexFunc(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Nil(), &ArgumentError{Func: "index", Msg: "requires at least 2 arguments"}
	}
	item := args[0]
	for _, key := range args[1:] {
		var err error
		item, err = indexOne(item, key)
		if err != nil {
			return value.Nil(), err
		}
	}
	return item, nil
}

func indexOne(item, key value.Value) (value.Value, error) {
	switch item.Kind() {
	case value.KindArray:
		i, err := indexInt(key, len(item.Array()))
		if err != nil {
			return value.Nil(), err
		}
		return item.Array()[i], nil
	case value.KindString:
		i, err := indexInt(key, len(item.Str()))
		if err != nil {
			return value.Nil(), err
		}
		return value.FromUint(uint64(item.Str()[i])), nil
	case value.KindMap, value.KindObject:
		name, err := keyString(key)
		if err != nil {
			return value.Nil(), err
		}
		field, found := item.Field(name)
		if !found {
			return value.Nil(), nil
		}
		return field, nil
	}
	return value.Nil(), &TypeError{Msg: fmt.Sprintf("can't index item of type %s", item.Kind())}
}

func indexInt(key value.Value, length int) (int, error) {
	if key.Kind() != value.KindNumber {
		return 0, &TypeError{Msg: fmt.Sprintf("cannot index with type %s", key.Kind())}
	}
	i, ok := key.Number().AsInt64()
	if !ok {
		return 0, &TypeError{Msg: fmt.Sprintf("cannot index with %s", key)}
	}
	if i < 0 || int(i) >= length {
		return 0, &ArgumentError{Func: "index", Msg: fmt.Sprintf("out of range: %d", i)}
	}
	return int(i), nil
}

func keyString(key value.Value) (string, error) {
	switch key.Kind() {
	case value.KindString:
		return key.Str(), nil
	case value.KindNumber:
		return key.Number().String(), nil
	}
	return "", &TypeError{Msg: fmt.Sprintf("cannot index map with type %s", key.Kind())}
}

// sliceFunc slices its first argument: "slice x 1 2" is x[1:2]. Strings
// slice by byte; a third index is accepted for arrays only.
func sliceFunc(args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 4 {
		return value.Nil(), &ArgumentError{Func: "slice", Msg: "requires 1 to 4 arguments"}
	}
	item := args[0]
	var length int
	switch item.Kind() {
	case value.KindString:
		length = len(item.Str())
	case value.KindArray:
		length = len(item.Array())
	default:
		return value.Nil(), &TypeError{Msg: fmt.Sprintf("can't slice item of type %s", item.Kind())}
	}
	idx := [3]int{0, length, -1}
	for i, arg := range args[1:] {
		if arg.Kind() != value.KindNumber {
			return value.Nil(), &TypeError{Msg: fmt.Sprintf("cannot slice with type %s", arg.Kind())}
		}
		n, ok := arg.Number().AsInt64()
		if !ok || n < 0 || int(n) > length {
			return value.Nil(), &ArgumentError{Func: "slice", Msg: fmt.Sprintf("index out of range: %s", arg)}
		}
		idx[i] = int(n)
	}
	if idx[0] > idx[1] {
		return value.Nil(), &ArgumentError{Func: "slice", Msg: fmt.Sprintf("invalid slice index: %d > %d", idx[0], idx[1])}
	}
	if len(args) == 4 {
		if item.Kind() == value.KindString {
			return value.Nil(), &ArgumentError{Func: "slice", Msg: "cannot 3-index slice a string"}
		}
		if idx[2] < idx[1] {
			return value.Nil(), &ArgumentError{Func: "slice", Msg: fmt.Sprintf("invalid slice index: %d < %d", idx[2], idx[1])}
		}
	}
	if item.Kind() == value.KindString {
		return value.FromString(item.Str()[idx[0]:idx[1]]), nil
	}
	return value.FromArray(item.Array()[idx[0]:idx[1]]), nil
}

// printFunc formats like fmt.Sprint: operands render in their default form,
// with a space added between two consecutive non-string operands.
func printFunc(args []value.Value) (value.Value, error) {
	var sb strings.Builder
	noSpace := true
	for _, arg := range args {
		if arg.Kind() == value.KindString {
			noSpace = true
			sb.WriteString(arg.Str())
			continue
		}
		if !noSpace {
			sb.WriteByte(' ')
		}
		sb.WriteString(arg.String())
		noSpace = false
	}
	return value.FromString(sb.String()), nil
}

// printlnFunc formats like fmt.Sprintln: spaces between all operands, and a
// trailing newline.
func printlnFunc(args []value.Value) (value.Value, error) {
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if arg.Kind() == value.KindString {
			sb.WriteString(arg.Str())
		} else {
			sb.WriteString(arg.String())
		}
	}
	sb.WriteByte('\n')
	return value.FromString(sb.String()), nil
}

func printfFunc(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil(), &ArgumentError{Func: "printf", Msg: "requires at least one argument"}
	}
	if args[0].Kind() != value.KindString {
		return value.Nil(), &ArgumentError{Func: "printf", Msg: "requires a format string"}
	}
	s, err := printf.Sprintf(args[0].Str(), args[1:])
	if err != nil {
		return value.Nil(), err
	}
	return value.FromString(s), nil
}

// urlqueryFunc escapes its argument for safe embedding in a URL query.
func urlqueryFunc(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil(), &ArgumentError{Func: "urlquery", Msg: "requires one argument"}
	}
	arg := args[0]
	if arg.Kind() != value.KindString {
		return value.Nil(), &TypeError{Msg: fmt.Sprintf("urlquery of %s", arg.Kind())}
	}
	return value.FromString(url.QueryEscape(arg.Str())), nil
}

// callFunc calls its first argument, which must be a function, with the
// remaining arguments as parameters.
func callFunc(args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return value.Nil(), &ArgumentError{Func: "call", Msg: "requires at least one argument"}
	}
	if args[0].Kind() != value.KindFunction {
		return value.Nil(), &TypeError{Msg: "call requires the first argument to be a function"}
	}
	return args[0].Function()(args[1:])
}

func htmlFunc([]value.Value) (value.Value, error) {
	return value.Nil(), &UnimplementedError{Feature: "html escaping"}
}

func jsFunc([]value.Value) (value.Value, error) {
	return value.Nil(), &UnimplementedError{Feature: "js escaping"}
}
