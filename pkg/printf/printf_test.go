// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package printf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carvel.dev/gotmpl/pkg/orderedmap"
	"carvel.dev/gotmpl/pkg/printf"
	"carvel.dev/gotmpl/pkg/value"
)

func sprintf(t *testing.T, format string, args ...value.Value) string {
	t.Helper()
	s, err := printf.Sprintf(format, args)
	require.NoError(t, err)
	return s
}

func TestSprintfBasics(t *testing.T) {
	assert.Equal(t, "foobar2000", sprintf(t, "foo%v2000", value.FromString("bar")))
	assert.Equal(t, "+1", sprintf(t, "%+0v", value.FromInt(1)))
	assert.Equal(t, "plain", sprintf(t, "plain"))
	assert.Equal(t, "100%", sprintf(t, "100%%"))
}

func TestSprintfIntegers(t *testing.T) {
	assert.Equal(t, "foobar2000", sprintf(t, "foobar%d", value.FromInt(2000)))
	assert.Equal(t, "+1", sprintf(t, "%+0d", value.FromInt(1)))
	assert.Equal(t, "+101", sprintf(t, "%+0b", value.FromInt(5)))
	assert.Equal(t, "00042", sprintf(t, "%05d", value.FromInt(42)))
	assert.Equal(t, "-0042", sprintf(t, "%05d", value.FromInt(-42)))
	assert.Equal(t, "   42", sprintf(t, "%5d", value.FromInt(42)))
	assert.Equal(t, "42   ", sprintf(t, "%-5d", value.FromInt(42)))
	assert.Equal(t, "2a", sprintf(t, "%x", value.FromInt(42)))
	assert.Equal(t, "-2a", sprintf(t, "%x", value.FromInt(-42)))
	assert.Equal(t, "0x2a", sprintf(t, "%#x", value.FromInt(42)))
	assert.Equal(t, "2A", sprintf(t, "%X", value.FromInt(42)))
	assert.Equal(t, "052", sprintf(t, "%#o", value.FromInt(42)))
	assert.Equal(t, "U+2710", sprintf(t, "%U", value.FromInt(10000)))
	assert.Equal(t, "U+0041", sprintf(t, "%U", value.FromInt(65)))
	assert.Equal(t, "✐", sprintf(t, "%c", value.FromInt(10000)))
	assert.Equal(t, "18446744073709551615", sprintf(t, "%d", value.FromUint(18446744073709551615)))
}

func TestSprintfFloats(t *testing.T) {
	assert.Equal(t, "3.140000", sprintf(t, "%f", value.FromFloat(3.14)))
	assert.Equal(t, "3.14", sprintf(t, "%.2f", value.FromFloat(3.14159)))
	assert.Equal(t, "  3.14", sprintf(t, "%6.2f", value.FromFloat(3.14159)))
	assert.Equal(t, "003.14", sprintf(t, "%06.2f", value.FromFloat(3.14159)))
	assert.Equal(t, "1.5e+10", sprintf(t, "%e", value.FromFloat(1.5e10)))
	assert.Equal(t, "1.5E+10", sprintf(t, "%E", value.FromFloat(1.5e10)))
	assert.Equal(t, "+3.5", sprintf(t, "%+g", value.FromFloat(3.5)))
}

func TestSprintfStrings(t *testing.T) {
	assert.Equal(t, "foobar", sprintf(t, "%.6s", value.FromString("foobar2000")))
	assert.Equal(t, `"foo"`, sprintf(t, "%q", value.FromString("foo")))
	assert.Equal(t, "  foo", sprintf(t, "%5s", value.FromString("foo")))
	assert.Equal(t, "foo  ", sprintf(t, "%-5s", value.FromString("foo")))
	assert.Equal(t, "666f6f62617232303030", sprintf(t, "%x", value.FromString("foobar2000")))
	assert.Equal(t, "666F6F62617232303030", sprintf(t, "%X", value.FromString("foobar2000")))
	assert.Equal(t, "'✐'", sprintf(t, "%q", value.FromInt(10000)))
}

func TestSprintfStarWidthAndPrecision(t *testing.T) {
	assert.Equal(t, "  3.14", sprintf(t, "%*.*f", value.FromInt(6), value.FromInt(2), value.FromFloat(3.14159)))
	assert.Equal(t, "3.14  ", sprintf(t, "%*.*f", value.FromInt(-6), value.FromInt(2), value.FromFloat(3.14159)))
}

func TestSprintfArgumentIndex(t *testing.T) {
	assert.Equal(t, "foo bar",
		sprintf(t, "%[1]v %v", value.FromString("foo"), value.FromString("bar"), value.FromInt(2000)))
	assert.Equal(t, "wtf golang! wtf!",
		sprintf(t, "%[2]v %v%[1]v %v%[1]v",
			value.FromString("!"), value.FromString("wtf"), value.FromString("golang")))
}

func TestSprintfCollections(t *testing.T) {
	arr := value.FromArray([]value.Value{value.FromString("hello"), value.FromString("world")})
	assert.Equal(t, "foo [hello world]", sprintf(t, "foo %v", arr))

	m := orderedmap.NewMap()
	m.Set("number", value.FromInt(42))
	m.Set("hello", value.FromString("world"))
	assert.Equal(t, "map[hello:world number:42]", sprintf(t, "%v", value.FromMap(m)))
}

func TestSprintfBool(t *testing.T) {
	assert.Equal(t, "true", sprintf(t, "%t", value.FromBool(true)))
	assert.Equal(t, "true", sprintf(t, "%v", value.FromBool(true)))
}

func TestSprintfMisuseMarkers(t *testing.T) {
	assert.Equal(t, "%!d(string=foo)", sprintf(t, "%d", value.FromString("foo")))
	assert.Equal(t, "%!t(number=1)", sprintf(t, "%t", value.FromInt(1)))
	assert.Equal(t, "%!s(number=5)", sprintf(t, "%s", value.FromInt(5)))
	assert.Equal(t, "%!f(number=5)", sprintf(t, "%f", value.FromInt(5)))
	assert.Equal(t, "%!v(MISSING)", sprintf(t, "%v"))
	assert.Equal(t, "x%!(EXTRA string=y)", sprintf(t, "x", value.FromString("y")))
}

func TestSprintfSharpV(t *testing.T) {
	assert.Equal(t, `"foo"`, sprintf(t, "%#v", value.FromString("foo")))
}

func TestSprintfErrors(t *testing.T) {
	_, err := printf.Sprintf("%", []value.Value{})
	require.Error(t, err)

	_, err = printf.Sprintf("%[1v", []value.Value{value.FromInt(1)})
	require.Error(t, err)
}
