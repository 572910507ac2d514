// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package value

// Equal reports template equality of two values. Numbers of different
// representations compare in a unified numeric space; values of different
// non-numeric kinds are never equal. NaN is not equal to anything, itself
// included.
func Equal(a, b Value) bool {
	if a.kind == KindNumber && b.kind == KindNumber {
		ord, ok := compareNumbers(a.num, b.num)
		return ok && ord == 0
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindMap, KindObject:
		if a.m.Len() != b.m.Len() {
			return false
		}
		equal := true
		a.m.Iterate(func(k string, av interface{}) {
			bv, found := b.m.Get(k)
			if !found || !Equal(av.(Value), bv.(Value)) {
				equal = false
			}
		})
		return equal
	case KindFunction:
		return false
	}
	return false
}

// Compare orders two values: -1, 0, or 1. The second result is false when
// the values are unordered: kinds outside the comparable set, kind
// mismatches beyond the numeric family, or NaN.
func Compare(a, b Value) (int, bool) {
	if a.kind == KindNumber && b.kind == KindNumber {
		return compareNumbers(a.num, b.num)
	}
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindString:
		switch {
		case a.str < b.str:
			return -1, true
		case a.str > b.str:
			return 1, true
		}
		return 0, true
	case KindBool:
		switch {
		case !a.b && b.b:
			return -1, true
		case a.b && !b.b:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// compareNumbers compares in a unified numeric space: if either side is a
// float, both compare as floats; otherwise integers compare sign-aware so
// that any negative int is less than any uint, and equal magnitudes across
// signedness compare equal.
func compareNumbers(a, b Number) (int, bool) {
	if a.kind == numberFloat || b.kind == numberFloat {
		af, bf := a.Float(), b.Float()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		case af == bf:
			return 0, true
		}
		return 0, false // NaN involved
	}
	if ai, ok := a.AsInt64(); ok {
		if bi, ok := b.AsInt64(); ok {
			return cmpInt64(ai, bi), true
		}
		// b only fits uint64, so it exceeds any int64.
		return -1, true
	}
	// a only fits uint64.
	bu, ok := b.AsUint64()
	if !ok {
		// b is negative.
		return 1, true
	}
	au, _ := a.AsUint64()
	return cmpUint64(au, bu), true
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
