// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"fmt"
)

// ExecError wraps any error raised while executing a template with the name
// of the template that was executing.
type ExecError struct {
	Name string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("template: %s: %s", e.Name, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// TypeError reports a value of the wrong kind for an operation.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }

// UndefinedError reports a reference to an unknown function, variable,
// field, or template.
type UndefinedError struct {
	What string // "function", "variable", "field", "template"
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%s %q not defined", e.What, e.Name)
}

// ArgumentError reports a builtin or user function invoked with arguments it
// cannot accept.
type ArgumentError struct {
	Func string
	Msg  string
}

func (e *ArgumentError) Error() string {
	if e.Func == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Func, e.Msg)
}

// DepthExceededError reports template invocations nested beyond the
// configured limit, which usually means template recursion without a base
// case.
type DepthExceededError struct {
	Depth int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("exceeded maximum template depth (%d)", e.Depth)
}

// UnimplementedError reports syntax that parses but is not supported by this
// engine: the html and js builtins and complex number constants.
type UnimplementedError struct {
	Feature string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("%s is not supported", e.Feature)
}
