// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carvel.dev/gotmpl/pkg/value"
)

func TestFuncAndOr(t *testing.T) {
	// and returns the first false argument or the last; or the first true.
	assert.Equal(t, "0", mustRender(t, "{{and 0 1}}", nil))
	assert.Equal(t, "2", mustRender(t, "{{and 1 2}}", nil))
	assert.Equal(t, "foo", mustRender(t, "{{and 1 2.0 true .}}", "foo"))
	assert.Equal(t, "1", mustRender(t, "{{or 0 1}}", nil))
	assert.Equal(t, "0", mustRender(t, "{{or 0 0}}", nil))
	assert.Equal(t, "1", mustRender(t, "{{or 1 2.0 false .}}", "foo"))
}

func TestFuncNot(t *testing.T) {
	assert.Equal(t, "true", mustRender(t, "{{not 0}}", nil))
	assert.Equal(t, "false", mustRender(t, "{{not 1}}", nil))
	assert.Equal(t, "true", mustRender(t, "{{not .}}", nil))
}

func TestFuncComparisons(t *testing.T) {
	cases := map[string]string{
		`{{eq "foo" "foo"}}`: "true",
		`{{eq "foo" "bar"}}`: "false",
		`{{ne 2 .}}`:         "true",
		`{{ne 1 .}}`:         "false",
		`{{lt 0 .}}`:         "true",
		`{{lt 1 .}}`:         "false",
		`{{le 1 .}}`:         "true",
		`{{le 2 .}}`:         "false",
		`{{gt 2 .}}`:         "true",
		`{{gt 1 .}}`:         "false",
		`{{ge 1 .}}`:         "true",
		`{{ge 0 .}}`:         "false",
		`{{lt -1 1}}`:        "true",
		`{{lt 1.5 2}}`:       "true",
		`{{lt "a" "b"}}`:     "true",
	}
	for text, expected := range cases {
		assert.Equal(t, expected, mustRender(t, text, 1), "template: %s", text)
	}
}

func TestFuncLen(t *testing.T) {
	assert.Equal(t, "3", mustRender(t, "{{len .}}", "foo"))
	// len of a string counts bytes, not runes.
	assert.Equal(t, "5", mustRender(t, "{{len .}}", "f→o"))
	assert.Equal(t, "2", mustRender(t, "{{len .}}", []int{1, 2}))
	assert.Equal(t, "1", mustRender(t, "{{len .}}", map[string]int{"a": 1}))
	_, err := render(t, "{{len .}}", 42)
	require.Error(t, err)
}

func TestFuncIndex(t *testing.T) {
	assert.Equal(t, "42", mustRender(t, "{{index . 1}}", []int{23, 42, 7}))
	assert.Equal(t, "3", mustRender(t, "{{index . 1 0}}", [][]int{{1, 2}, {3, 4}}))
	assert.Equal(t, "bar", mustRender(t, `{{index . "foo" 0}}`,
		map[string]interface{}{"foo": []string{"bar"}}))
	// Missing map keys yield nil.
	assert.Equal(t, "<nil>", mustRender(t, `{{index . "nope"}}`, map[string]string{"foo": "bar"}))

	_, err := render(t, "{{index . 5}}", []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestFuncSlice(t *testing.T) {
	assert.Equal(t, "[b c]", mustRender(t, "{{slice . 1}}", []string{"a", "b", "c"}))
	assert.Equal(t, "[b]", mustRender(t, "{{slice . 1 2}}", []string{"a", "b", "c"}))
	assert.Equal(t, "oba", mustRender(t, "{{slice . 2 5}}", "foobar"))
	assert.Equal(t, "foobar", mustRender(t, "{{slice .}}", "foobar"))

	_, err := render(t, "{{slice . 3 1}}", "foobar")
	require.Error(t, err)
	_, err = render(t, "{{slice . 0 9}}", "foobar")
	require.Error(t, err)
	_, err = render(t, "{{slice . 0 1 2}}", "foobar")
	require.Error(t, err)
}

func TestFuncPrint(t *testing.T) {
	// Spaces appear only between two non-string operands.
	assert.Equal(t, "foo1", mustRender(t, `{{print "foo" 1}}`, nil))
	assert.Equal(t, "foo1 2", mustRender(t, `{{print "foo" 1 2}}`, nil))
	assert.Equal(t, "true 1foo2", mustRender(t, `{{print true 1 "foo" 2}}`, nil))
	assert.Equal(t, "Hello world!", mustRender(t, `{{print "Hello " . "!"}}`, "world"))
}

func TestFuncPrintln(t *testing.T) {
	assert.Equal(t, "foo 1\n", mustRender(t, `{{println "foo" 1}}`, nil))
	assert.Equal(t, "\n", mustRender(t, `{{println}}`, nil))
}

func TestFuncUrlquery(t *testing.T) {
	assert.Equal(t, "foo+bar%3F", mustRender(t, "{{urlquery .}}", "foo bar?"))
	assert.Equal(t, "a%2Fb%26c%3Dd", mustRender(t, "{{urlquery .}}", "a/b&c=d"))
	_, err := render(t, "{{urlquery .}}", 42)
	require.Error(t, err)
}

func TestFuncCall(t *testing.T) {
	add := func(args []value.Value) (value.Value, error) {
		a, _ := args[0].Number().AsInt64()
		b, _ := args[1].Number().AsInt64()
		return value.FromInt(a + b), nil
	}
	assert.Equal(t, "3", mustRender(t, "{{call . 1 2}}", add))
}
