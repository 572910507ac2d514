// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"carvel.dev/gotmpl/pkg/value"
)

// Context wraps the root value a template renders against.
type Context struct {
	root value.Value
}

// NewContext builds a Context from any host value convertible into the
// dynamic value model.
func NewContext(data interface{}) (Context, error) {
	root, err := value.FromGoValue(data)
	if err != nil {
		return Context{}, err
	}
	return Context{root: root}, nil
}

// EmptyContext returns a Context whose root is nil.
func EmptyContext() Context {
	return Context{root: value.Nil()}
}

// Root returns the wrapped root value.
func (c Context) Root() value.Value { return c.root }
