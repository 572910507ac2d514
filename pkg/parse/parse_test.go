// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carvel.dev/gotmpl/pkg/feature"
	"carvel.dev/gotmpl/pkg/parse"
)

var testFuncs = map[string]bool{
	"print": true, "printf": true, "index": true, "eq": true, "len": true,
}

func parseOne(t *testing.T, text string) *parse.Tree {
	t.Helper()
	treeSet, err := parse.Parse("test", text, "", "", testFuncs)
	require.NoError(t, err)
	require.Contains(t, treeSet, "test")
	return treeSet["test"]
}

func TestParseRoundTrip(t *testing.T) {
	// Parsing then printing the tree reproduces a canonical form of the input.
	cases := map[string]string{
		``:                                          ``,
		`some text`:                                 `some text`,
		`{{.x}}`:                                    `{{.x}}`,
		`{{.x.y.z}}`:                                `{{.x.y.z}}`,
		`{{$v := 1}}{{$v}}`:                         `{{$v := 1}}{{$v}}`,
		`{{.}}`:                                     `{{.}}`,
		`{{printf "%d" 23}}`:                        `{{printf "%d" 23}}`,
		`{{.x | print}}`:                            `{{.x | print}}`,
		`{{$v := .x}}`:                              `{{$v := .x}}`,
		`{{$v := .x}}{{$v = .y}}`:                   `{{$v := .x}}{{$v = .y}}`,
		`{{if .}}a{{else}}b{{end}}`:                 `{{if .}}a{{else}}b{{end}}`,
		`{{if .}}a{{else if .x}}b{{end}}`:           `{{if .}}a{{else}}{{if .x}}b{{end}}{{end}}`,
		`{{range .}}x{{end}}`:                       `{{range .}}x{{end}}`,
		`{{range $i, $v := .}}x{{end}}`:             `{{range $i, $v := .}}x{{end}}`,
		`{{with .x}}y{{end}}`:                       `{{with .x}}y{{end}}`,
		`{{template "x"}}`:                          `{{template "x"}}`,
		`{{template "x" .}}`:                        `{{template "x" .}}`,
		`{{range .}}{{break}}{{end}}`:               `{{range .}}{{break}}{{end}}`,
		`{{range .}}{{continue}}{{end}}`:            `{{range .}}{{continue}}{{end}}`,
		`{{(print .x).y}}`:                          `{{(print .x).y}}`,
		`{{print (len .x) 1.5 true nil}}`:           `{{print (len .x) 1.5 true nil}}`,
		"{{  .x\t}}":                                `{{.x}}`,
	}
	for input, expected := range cases {
		tree := parseOne(t, input)
		assert.Equal(t, expected, tree.Root.String(), "input: %s", input)
	}
}

func TestParseDefine(t *testing.T) {
	treeSet, err := parse.Parse("test", `{{define "g"}}<{{.}}>{{end}}{{template "g" .}}`, "", "", testFuncs)
	require.NoError(t, err)
	require.Contains(t, treeSet, "g")
	assert.Equal(t, `<{{.}}>`, treeSet["g"].Root.String())
	assert.Equal(t, `{{template "g" .}}`, treeSet["test"].Root.String())
}

func TestParseMultipleDefines(t *testing.T) {
	treeSet, err := parse.Parse("test",
		`{{define "a"}}1{{end}}{{define "b"}}2{{end}}body`, "", "", testFuncs)
	require.NoError(t, err)
	assert.Len(t, treeSet, 3)
}

func TestParseBlock(t *testing.T) {
	treeSet, err := parse.Parse("test", `{{block "b" .}}inner{{end}}`, "", "", testFuncs)
	require.NoError(t, err)
	require.Contains(t, treeSet, "b")
	assert.Equal(t, `inner`, treeSet["b"].Root.String())
	// The block compiles to a template invocation at its lexical location.
	assert.Equal(t, `{{template "b" .}}`, treeSet["test"].Root.String())
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		`{{break}}`:                       `{{break}} outside {{range}}`,
		`{{continue}}`:                    `{{continue}} outside {{range}}`,
		`{{if .}}{{break}}{{end}}`:        `{{break}} outside {{range}}`,
		`{{$v = 1}}`:                      `undefined variable "$v"`,
		`{{$undefined}}`:                  `undefined variable "$undefined"`,
		`{{noSuchFunc}}`:                  `function "noSuchFunc" not defined`,
		`{{if .}}x`:                       `unexpected EOF`,
		`{{end}}`:                         `unexpected {{end}}`,
		`{{else}}`:                        `unexpected {{else}}`,
		`{{if .}}{{end}}{{end}}`:          `unexpected {{end}}`,
		`{{range .}}{{define "x"}}{{end}}{{end}}`: `unexpected <define>`,
		`{{print .x | 3}}`:                `non executable command in pipeline stage 2`,
		`{{}}`:                            `missing value for command`,
		`{{range $a, $b, $c := .}}x{{end}}`: `too many declarations in range`,
		`{{template .x}}`:                 `unexpected ".x" in template clause`,
	}
	for input, expectedErr := range cases {
		_, err := parse.Parse("test", input, "", "", testFuncs)
		require.Error(t, err, "input: %s", input)
		assert.Contains(t, err.Error(), expectedErr, "input: %s", input)
	}
}

func TestParseErrorsCarryLineNumbers(t *testing.T) {
	_, err := parse.Parse("test", "line one\nline two\n{{noSuchFunc}}", "", "", testFuncs)
	require.Error(t, err)
	parseErr, ok := err.(*parse.Error)
	require.True(t, ok)
	assert.Equal(t, 3, parseErr.Position.LineNum())
	assert.Equal(t, "test", parseErr.Position.GetFile())
	assert.Contains(t, err.Error(), "template: test:3:")
}

func TestParseVariableScope(t *testing.T) {
	// A variable declared inside a control structure is not visible after end.
	_, err := parse.Parse("test", `{{if .}}{{$v := 1}}{{end}}{{$v}}`, "", "", testFuncs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undefined variable "$v"`)

	// But is visible within.
	_, err = parse.Parse("test", `{{if .}}{{$v := 1}}{{$v}}{{end}}`, "", "", testFuncs)
	assert.NoError(t, err)
}

func TestParseNestedDefineRejected(t *testing.T) {
	_, err := parse.Parse("test", `{{define "a"}}{{define "b"}}{{end}}{{end}}`, "", "", testFuncs)
	require.Error(t, err)
}

func TestParseDuplicateDefineRejected(t *testing.T) {
	_, err := parse.Parse("test", `{{define "a"}}1{{end}}{{define "a"}}2{{end}}`, "", "", testFuncs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `multiple definition of template "a"`)
}

func TestParseDynamicTemplateNameGated(t *testing.T) {
	feature.ResetForTesting()
	defer feature.ResetForTesting()

	_, err := parse.Parse("test", `{{template (.) .}}`, "", "", testFuncs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dynamic-template-name")

	feature.Flags().Enable(feature.DynamicTemplateName)
	treeSet, err := parse.Parse("test", `{{template (.) .}}`, "", "", testFuncs)
	require.NoError(t, err)
	assert.Equal(t, `{{template (.) .}}`, treeSet["test"].Root.String())
}

func TestParseCustomDelimiters(t *testing.T) {
	treeSet, err := parse.Parse("test", `a [[.x]] b`, "[[", "]]", testFuncs)
	require.NoError(t, err)
	assert.Equal(t, `a {{.x}} b`, treeSet["test"].Root.String())
}

func TestParseDeterministicErrorPositions(t *testing.T) {
	// Equivalent whitespace inside the action does not move the reported line.
	for _, input := range []string{"a\nb{{noSuchFunc}}", "a\nb{{   noSuchFunc   }}"} {
		_, err := parse.Parse("test", input, "", "", testFuncs)
		require.Error(t, err)
		parseErr := err.(*parse.Error)
		assert.Equal(t, 2, parseErr.Position.LineNum(), "input: %q", input)
	}
}
