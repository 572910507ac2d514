// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package template is the public surface of the engine: it ties the parser
// and evaluator together behind a Template handle that holds the set of
// named trees, the function table, and rendering options.
package template

import (
	"fmt"

	"carvel.dev/gotmpl/pkg/eval"
	"carvel.dev/gotmpl/pkg/parse"
	"carvel.dev/gotmpl/pkg/value"
)

// Options configures parsing and rendering of one Template.
type Options struct {
	// LeftDelim and RightDelim override the default "{{" and "}}".
	LeftDelim  string
	RightDelim string
	// Strict makes missing map keys in field accesses (.key) render errors
	// instead of nil. The index builtin yields nil for a missing key either way.
	Strict bool
	// MaxExecDepth bounds nested template invocations; 0 selects the default.
	MaxExecDepth int
}

// Template holds a set of named parse trees and the functions they may call.
// Parse and the func registration methods mutate the Template; once parsing
// is done a Template may be shared by concurrent Render calls.
type Template struct {
	Name    string
	Options Options

	funcs   map[string]value.Func
	treeSet map[string]*parse.Tree
}

// New creates an empty template with the given name.
func New(name string) *Template {
	return &Template{
		Name:    name,
		funcs:   map[string]value.Func{},
		treeSet: map[string]*parse.Tree{},
	}
}

// AddFunc registers a custom function under the given name. It must be
// called before Parse so that the parser recognizes the identifier.
func (t *Template) AddFunc(name string, fn value.Func) {
	t.funcs[name] = fn
}

// AddFuncs registers several custom functions at once.
func (t *Template) AddFuncs(funcs map[string]value.Func) {
	for name, fn := range funcs {
		t.funcs[name] = fn
	}
}

// Parse parses text as the body of the template itself, adding any define
// and block clauses to the template's tree set.
func (t *Template) Parse(text string) error {
	return t.parseInto(t.Name, text)
}

// AddTemplate parses text as a separate template named name, callable from
// the main body via {{template}}.
func (t *Template) AddTemplate(name, text string) error {
	return t.parseInto(name, text)
}

func (t *Template) parseInto(name, text string) error {
	treeSet, err := parse.Parse(name, text, t.Options.LeftDelim, t.Options.RightDelim, t.funcNames())
	if err != nil {
		return err
	}
	for treeName, tree := range treeSet {
		if existing, found := t.treeSet[treeName]; found && existing.Root != nil {
			return fmt.Errorf("template: multiple definition of template %q", treeName)
		}
		t.treeSet[treeName] = tree
	}
	return nil
}

func (t *Template) funcNames() map[string]bool {
	names := map[string]bool{}
	for name := range eval.Builtins() {
		names[name] = true
	}
	for name := range t.funcs {
		names[name] = true
	}
	return names
}

// Render executes the template body against data, which is converted into
// the dynamic value model first. On error no partial output is returned.
func (t *Template) Render(data interface{}) (string, error) {
	return t.RenderNamed(t.Name, data)
}

// RenderNamed executes the named template from the tree set against data.
func (t *Template) RenderNamed(name string, data interface{}) (string, error) {
	ctx, err := NewContext(data)
	if err != nil {
		return "", err
	}
	return t.RenderContext(name, ctx)
}

// RenderContext executes the named template against an already-built Context.
func (t *Template) RenderContext(name string, ctx Context) (string, error) {
	return eval.Execute(eval.Config{
		TreeSet:      t.treeSet,
		Funcs:        t.funcs,
		MaxExecDepth: t.Options.MaxExecDepth,
		Strict:       t.Options.Strict,
	}, name, ctx.Root())
}

// Render is the one-shot helper: parse text and render it against data.
func Render(text string, data interface{}) (string, error) {
	t := New("template")
	if err := t.Parse(text); err != nil {
		return "", err
	}
	return t.Render(data)
}
