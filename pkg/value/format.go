// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package value

import (
	"strconv"
	"strings"
)

// String renders the value the way Go's %v does: nil as "<nil>", booleans as
// true/false, integers in decimal, floats %g-style, strings raw, arrays as
// "[a b c]", and maps/objects as "map[k:v ...]" with keys in ascending order.
func (v Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindNil:
		sb.WriteString("<nil>")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(v.num.String())
	case KindString:
		sb.WriteString(v.str)
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteByte(' ')
			}
			item.writeTo(sb)
		}
		sb.WriteByte(']')
	case KindMap, KindObject:
		sb.WriteString("map[")
		for i, k := range v.m.SortedKeys() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(k)
			sb.WriteByte(':')
			item, _ := v.m.Get(k)
			item.(Value).writeTo(sb)
		}
		sb.WriteByte(']')
	case KindFunction:
		sb.WriteString("<function>")
	}
}
