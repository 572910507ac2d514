// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package printf formats values following Go's fmt verb conventions, driven
// by the template builtin of the same name. Verb/argument mismatches render
// the usual "%!verb(type=value)" markers instead of failing the render;
// malformed format strings are errors.
package printf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"carvel.dev/gotmpl/pkg/value"
)

// Error is a formatting error caused by a malformed format string.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "printf: " + e.Msg }

type params struct {
	sharp, zero, plus, minus, space bool
	width                           int
	hasWidth                        bool
	prec                            int
	hasPrec                         bool
}

// Sprintf formats args per the format string. Supported verbs are
// v t b c d o q x X U e E f F g G s p; %p always renders a misuse marker.
func Sprintf(format string, args []value.Value) (string, error) {
	var sb strings.Builder
	argIndex := 0
	reordered := false
	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			i++
			continue
		}
		i++
		if i < len(format) && format[i] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}

		var p params
	flags:
		for i < len(format) {
			switch format[i] {
			case '#':
				p.sharp = true
			case '0':
				p.zero = true
			case '+':
				p.plus = true
			case '-':
				p.minus = true
			case ' ':
				p.space = true
			default:
				break flags
			}
			i++
		}
		// Right padding never uses zeros.
		if p.minus {
			p.zero = false
		}

		var err error
		argIndex, reordered, i, err = parseIndex(format, i, argIndex, reordered)
		if err != nil {
			return "", err
		}
		if i < len(format) && format[i] == '*' {
			i++
			if w, ok := intArg(args, argIndex); ok {
				argIndex++
				if w < 0 {
					p.minus = true
					p.zero = false
					w = -w
				}
				p.width = w
				p.hasWidth = true
			} else {
				argIndex++
				sb.WriteString("%!(BADWIDTH)")
			}
		} else if n, next := parseNum(format, i); next > i {
			p.width = n
			p.hasWidth = true
			i = next
		}
		if i < len(format) && format[i] == '.' {
			i++
			argIndex, reordered, i, err = parseIndex(format, i, argIndex, reordered)
			if err != nil {
				return "", err
			}
			p.hasPrec = true
			if i < len(format) && format[i] == '*' {
				i++
				if n, ok := intArg(args, argIndex); ok {
					argIndex++
					if n < 0 {
						p.hasPrec = false
					} else {
						p.prec = n
					}
				} else {
					argIndex++
					sb.WriteString("%!(BADPREC)")
				}
			} else if n, next := parseNum(format, i); next > i {
				p.prec = n
				i = next
			} else {
				p.prec = 0
			}
		}
		argIndex, reordered, i, err = parseIndex(format, i, argIndex, reordered)
		if err != nil {
			return "", err
		}

		if i >= len(format) {
			return "", &Error{Msg: fmt.Sprintf("missing verb at end of format string %q", format)}
		}
		verb, w := utf8.DecodeRuneInString(format[i:])
		i += w
		if !strings.ContainsRune("vtbcdoqxXUeEfFgGsp", verb) {
			if argIndex < len(args) {
				sb.WriteString(badVerb(verb, args[argIndex]))
				argIndex++
			} else {
				fmt.Fprintf(&sb, "%%!%c(MISSING)", verb)
			}
			continue
		}
		if argIndex >= len(args) {
			fmt.Fprintf(&sb, "%%!%c(MISSING)", verb)
			continue
		}
		sb.WriteString(formatVerb(p, verb, args[argIndex]))
		argIndex++
	}
	if !reordered && argIndex < len(args) {
		sb.WriteString("%!(EXTRA ")
		for j := argIndex; j < len(args); j++ {
			if j > argIndex {
				sb.WriteString(", ")
			}
			arg := args[j]
			sb.WriteString(arg.Kind().String())
			sb.WriteByte('=')
			sb.WriteString(arg.String())
		}
		sb.WriteByte(')')
	}
	return sb.String(), nil
}

// parseIndex consumes an explicit argument index "[n]" if present. Indexes
// are 1-based in the format string.
func parseIndex(format string, i, argIndex int, reordered bool) (int, bool, int, error) {
	if i >= len(format) || format[i] != '[' {
		return argIndex, reordered, i, nil
	}
	end := strings.IndexByte(format[i:], ']')
	if end < 0 {
		return 0, false, 0, &Error{Msg: fmt.Sprintf("missing ] in %q", format[i:])}
	}
	n, err := strconv.Atoi(format[i+1 : i+end])
	if err != nil || n < 1 {
		return 0, false, 0, &Error{Msg: fmt.Sprintf("unable to parse argument index in %q", format[i:i+end+1])}
	}
	return n - 1, true, i + end + 1, nil
}

func parseNum(format string, i int) (int, int) {
	n := 0
	start := i
	for i < len(format) && format[i] >= '0' && format[i] <= '9' {
		n = n*10 + int(format[i]-'0')
		i++
	}
	if i == start {
		return 0, start
	}
	return n, i
}

func intArg(args []value.Value, i int) (int, bool) {
	if i >= len(args) || args[i].Kind() != value.KindNumber {
		return 0, false
	}
	n, ok := args[i].Number().AsInt64()
	if !ok {
		return 0, false
	}
	return int(n), true
}

func badVerb(verb rune, v value.Value) string {
	return fmt.Sprintf("%%!%c(%s=%s)", verb, v.Kind(), v.String())
}

func formatVerb(p params, verb rune, v value.Value) string {
	switch verb {
	case 'v':
		if p.sharp {
			return p.pad(goSyntax(v), false)
		}
		// Numbers take the full numeric path so that sign and zero-padding
		// flags behave as for %d / %g.
		if v.Kind() == value.KindNumber {
			if v.Number().IsFloat() {
				return formatFloat(p, 'g', v)
			}
			return formatInteger(p, 'd', v)
		}
		return p.pad(v.String(), false)
	case 't':
		if v.Kind() != value.KindBool {
			return badVerb(verb, v)
		}
		return p.pad(strconv.FormatBool(v.Bool()), false)
	case 's':
		if v.Kind() != value.KindString {
			return badVerb(verb, v)
		}
		return p.pad(p.truncate(v.Str()), false)
	case 'q':
		switch v.Kind() {
		case value.KindString:
			return p.pad(strconv.Quote(p.truncate(v.Str())), false)
		case value.KindNumber:
			if i, ok := v.Number().AsInt64(); ok {
				return p.pad(strconv.QuoteRune(rune(i)), false)
			}
		}
		return badVerb(verb, v)
	case 'b', 'o', 'd', 'x', 'X', 'U', 'c':
		return formatInteger(p, verb, v)
	case 'e', 'E', 'f', 'F', 'g', 'G':
		return formatFloat(p, verb, v)
	case 'p':
		// The value model carries no addresses.
		return badVerb(verb, v)
	}
	return badVerb(verb, v)
}

func formatInteger(p params, verb rune, v value.Value) string {
	if v.Kind() != value.KindNumber || v.Number().IsFloat() {
		if verb == 'x' || verb == 'X' {
			// %x/%X also hex-dump strings.
			if v.Kind() == value.KindString {
				s := fmt.Sprintf("%x", v.Str())
				if verb == 'X' {
					s = strings.ToUpper(s)
				}
				return p.pad(s, false)
			}
		}
		return badVerb(verb, v)
	}
	n := v.Number()

	var body string
	var negative bool
	abs := func() uint64 {
		if i, ok := n.AsInt64(); ok && i < 0 {
			negative = true
			return uint64(-i)
		}
		u, _ := n.AsUint64()
		return u
	}

	switch verb {
	case 'b':
		body = strconv.FormatUint(abs(), 2)
	case 'o':
		body = strconv.FormatUint(abs(), 8)
		if p.sharp {
			body = "0" + body
		}
	case 'd':
		body = strconv.FormatUint(abs(), 10)
	case 'x':
		body = strconv.FormatUint(abs(), 16)
		if p.sharp {
			body = "0x" + body
		}
	case 'X':
		body = strings.ToUpper(strconv.FormatUint(abs(), 16))
		if p.sharp {
			body = "0X" + body
		}
	case 'U':
		body = fmt.Sprintf("U+%04X", abs())
		if negative {
			return badVerb(verb, v)
		}
		return p.pad(body, false)
	case 'c':
		u := abs()
		if negative || u > utf8.MaxRune {
			return p.pad(string(utf8.RuneError), false)
		}
		return p.pad(string(rune(u)), false)
	}

	if p.hasPrec && len(body) < p.prec {
		body = strings.Repeat("0", p.prec-len(body)) + body
	}
	return p.pad(signed(p, negative)+body, true)
}

func formatFloat(p params, verb rune, v value.Value) string {
	if v.Kind() != value.KindNumber {
		return badVerb(verb, v)
	}
	f, ok := v.Number().AsFloat64()
	if !ok {
		return badVerb(verb, v)
	}
	prec := -1
	if p.hasPrec {
		prec = p.prec
	}
	var body string
	switch verb {
	case 'e', 'E', 'G':
		body = strconv.FormatFloat(f, byte(verb), prec, 64)
	case 'f', 'F':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(f, 'f', prec, 64)
	case 'g':
		body = strconv.FormatFloat(f, 'g', prec, 64)
	}
	negative := strings.HasPrefix(body, "-")
	if negative {
		body = body[1:]
	}
	return p.pad(signed(p, negative)+body, true)
}

func signed(p params, negative bool) string {
	switch {
	case negative:
		return "-"
	case p.plus:
		return "+"
	case p.space:
		return " "
	}
	return ""
}

// truncate applies string precision (maximum width).
func (p params) truncate(s string) string {
	if !p.hasPrec {
		return s
	}
	n := p.prec
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// pad applies the width to the formatted body. Zero padding applies only to
// numbers and goes between the sign and the digits.
func (p params) pad(s string, numeric bool) string {
	if !p.hasWidth {
		return s
	}
	gap := p.width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if p.minus {
		return s + strings.Repeat(" ", gap)
	}
	if p.zero && numeric {
		if len(s) > 0 && (s[0] == '-' || s[0] == '+' || s[0] == ' ') {
			return s[:1] + strings.Repeat("0", gap) + s[1:]
		}
		return strings.Repeat("0", gap) + s
	}
	return strings.Repeat(" ", gap) + s
}

// goSyntax renders the %#v form: like %v with strings quoted.
func goSyntax(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return strconv.Quote(v.Str())
	case value.KindArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range v.Array() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(goSyntax(item))
		}
		sb.WriteByte(']')
		return sb.String()
	case value.KindMap, value.KindObject:
		var sb strings.Builder
		sb.WriteString("map[")
		for i, k := range v.SortedKeys() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			item, _ := v.Field(k)
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			sb.WriteString(goSyntax(item))
		}
		sb.WriteByte(']')
		return sb.String()
	}
	return v.String()
}
