// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package eval walks parse trees against a root value and a function table,
// producing the rendered output. A tree set is immutable during execution
// and may be shared by concurrent renders; each render owns its own state.
package eval

import (
	"fmt"
	"strings"

	"carvel.dev/gotmpl/pkg/parse"
	"carvel.dev/gotmpl/pkg/value"
)

// DefaultMaxExecDepth bounds nested template invocations.
const DefaultMaxExecDepth = 100000

// Config carries everything a render needs beyond the data itself.
type Config struct {
	TreeSet map[string]*parse.Tree
	Funcs   map[string]value.Func // user functions; builtins are always available
	// MaxExecDepth bounds template call nesting; 0 selects the default.
	MaxExecDepth int
	// Strict makes missing map keys in field accesses (.key) errors instead
	// of nil. The index builtin yields nil for a missing key either way.
	Strict bool
}

// signal is the control outcome of walking a node: normal completion, or a
// break/continue travelling up to the nearest enclosing range.
type signal int

const (
	signalNone signal = iota
	signalBreak
	signalContinue
)

type variable struct {
	name  string
	value value.Value
}

// state holds the execution state of one render. The output accumulates in
// sb and is discarded wholesale on error.
type state struct {
	cfg   *Config
	funcs map[string]value.Func
	sb    *strings.Builder
	vars  []variable
	depth int
	name  string // name of the template being executed, for error reports
}

// Execute renders the named tree from cfg.TreeSet against data and returns
// the output. On error no partial output is returned.
func Execute(cfg Config, name string, data value.Value) (string, error) {
	if cfg.MaxExecDepth == 0 {
		cfg.MaxExecDepth = DefaultMaxExecDepth
	}
	tree := cfg.TreeSet[name]
	if tree == nil || tree.Root == nil {
		return "", &ExecError{Name: name, Err: fmt.Errorf("%q is an incomplete or empty template", name)}
	}
	s := &state{
		cfg:   &cfg,
		funcs: mergedFuncs(cfg.Funcs),
		sb:    &strings.Builder{},
		vars:  []variable{{"$", data}},
		name:  name,
	}
	if _, err := s.walk(data, tree.Root); err != nil {
		return "", err
	}
	return s.sb.String(), nil
}

func mergedFuncs(user map[string]value.Func) map[string]value.Func {
	funcs := Builtins()
	for name, fn := range user {
		funcs[name] = fn
	}
	return funcs
}

func (s *state) errorf(format string, args ...interface{}) error {
	return &ExecError{Name: s.name, Err: fmt.Errorf(format, args...)}
}

func (s *state) wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ExecError); ok {
		return err
	}
	return &ExecError{Name: s.name, Err: err}
}

// Variable stack.

func (s *state) push(name string, v value.Value) {
	s.vars = append(s.vars, variable{name, v})
}

func (s *state) mark() int { return len(s.vars) }

func (s *state) pop(mark int) { s.vars = s.vars[:mark] }

func (s *state) setVar(name string, v value.Value) error {
	for i := s.mark() - 1; i >= 0; i-- {
		if s.vars[i].name == name {
			s.vars[i].value = v
			return nil
		}
	}
	return s.wrap(&UndefinedError{What: "variable", Name: name})
}

// setTopVar overwrites the n-th variable from the top of the stack.
func (s *state) setTopVar(n int, v value.Value) {
	s.vars[len(s.vars)-n].value = v
}

func (s *state) varValue(name string) (value.Value, error) {
	for i := s.mark() - 1; i >= 0; i-- {
		if s.vars[i].name == name {
			return s.vars[i].value, nil
		}
	}
	return value.Nil(), s.wrap(&UndefinedError{What: "variable", Name: name})
}

// Tree walking.

func (s *state) walk(dot value.Value, node parse.Node) (signal, error) {
	switch node := node.(type) {
	case *parse.ActionNode:
		val, err := s.evalPipeline(dot, node.Pipe)
		if err != nil {
			return signalNone, err
		}
		if len(node.Pipe.Decl) == 0 {
			return signalNone, s.printValue(node, val)
		}
		return signalNone, nil
	case *parse.BreakNode:
		return signalBreak, nil
	case *parse.ContinueNode:
		return signalContinue, nil
	case *parse.IfNode:
		return s.walkIfOrWith(parse.NodeIf, dot, node.Pipe, node.List, node.ElseList)
	case *parse.ListNode:
		for _, n := range node.Nodes {
			sig, err := s.walk(dot, n)
			if sig != signalNone || err != nil {
				return sig, err
			}
		}
		return signalNone, nil
	case *parse.RangeNode:
		return signalNone, s.walkRange(dot, node)
	case *parse.TemplateNode:
		return signalNone, s.walkTemplate(dot, node)
	case *parse.TextNode:
		s.sb.Write(node.Text)
		return signalNone, nil
	case *parse.WithNode:
		return s.walkIfOrWith(parse.NodeWith, dot, node.Pipe, node.List, node.ElseList)
	}
	return signalNone, s.errorf("unknown node: %s", node)
}

// walkIfOrWith walks an 'if' or 'with' node. The two control structures are
// identical in behavior except that 'with' sets dot.
func (s *state) walkIfOrWith(typ parse.NodeType, dot value.Value, pipe *parse.PipeNode, list, elseList *parse.ListNode) (signal, error) {
	defer s.pop(s.mark())
	val, err := s.evalPipeline(dot, pipe)
	if err != nil {
		return signalNone, err
	}
	if val.IsTrue() {
		if typ == parse.NodeWith {
			return s.walk(val, list)
		}
		return s.walk(dot, list)
	}
	if elseList != nil {
		return s.walk(dot, elseList)
	}
	return signalNone, nil
}

func (s *state) walkRange(dot value.Value, r *parse.RangeNode) error {
	defer s.pop(s.mark())
	val, err := s.evalPipeline(dot, r.Pipe)
	if err != nil {
		return err
	}
	// mark top of stack before any variables in the body are pushed.
	mark := s.mark()
	oneIteration := func(index, elem value.Value) (signal, error) {
		if len(r.Pipe.Decl) > 0 {
			if r.Pipe.IsAssign {
				// With two variables, index comes first; with one, the element.
				target := elem
				if len(r.Pipe.Decl) > 1 {
					target = index
				}
				if err := s.setVar(r.Pipe.Decl[0].Ident[0], target); err != nil {
					return signalNone, err
				}
			} else {
				// Set top var (lexically the second if there are two) to the element.
				s.setTopVar(1, elem)
			}
		}
		if len(r.Pipe.Decl) > 1 {
			if r.Pipe.IsAssign {
				if err := s.setVar(r.Pipe.Decl[1].Ident[0], elem); err != nil {
					return signalNone, err
				}
			} else {
				// Set next var (lexically the first if there are two) to the index.
				s.setTopVar(2, index)
			}
		}
		defer s.pop(mark)
		return s.walk(elem, r.List)
	}

	ran := false
	switch val.Kind() {
	case value.KindArray:
		for i, elem := range val.Array() {
			ran = true
			sig, err := oneIteration(value.FromInt(int64(i)), elem)
			if err != nil {
				return err
			}
			if sig == signalBreak {
				return nil
			}
		}
	case value.KindMap, value.KindObject:
		for _, k := range val.SortedKeys() {
			ran = true
			elem, _ := val.Field(k)
			sig, err := oneIteration(value.FromString(k), elem)
			if err != nil {
				return err
			}
			if sig == signalBreak {
				return nil
			}
		}
	case value.KindNil:
		// An empty range: run the else branch below.
	default:
		return s.wrap(&TypeError{Msg: fmt.Sprintf("range can't iterate over %s", val)})
	}
	if !ran && r.ElseList != nil {
		_, err := s.walk(dot, r.ElseList)
		return err
	}
	return nil
}

func (s *state) walkTemplate(dot value.Value, t *parse.TemplateNode) error {
	name := t.Name
	if t.NamePipe != nil {
		nameVal, err := s.evalPipeline(dot, t.NamePipe)
		if err != nil {
			return err
		}
		if nameVal.Kind() != value.KindString {
			return s.wrap(&TypeError{Msg: fmt.Sprintf("template name must be a string, got %s", nameVal.Kind())})
		}
		name = nameVal.Str()
	}
	tree := s.cfg.TreeSet[name]
	if tree == nil {
		return s.wrap(&UndefinedError{What: "template", Name: name})
	}
	if s.depth == s.cfg.MaxExecDepth {
		return s.wrap(&DepthExceededError{Depth: s.cfg.MaxExecDepth})
	}
	newDot := value.Nil()
	if t.Pipe != nil {
		var err error
		newDot, err = s.evalPipeline(dot, t.Pipe)
		if err != nil {
			return err
		}
	}
	// The invoked template starts with a fresh variable stack: only $ is
	// visible, bound to its dot. Output accumulates in the shared buffer.
	newState := *s
	newState.depth++
	newState.name = name
	newState.vars = []variable{{"$", newDot}}
	_, err := newState.walk(newDot, tree.Root)
	return err
}

// Pipeline evaluation.

// evalPipeline returns the value acquired by evaluating a pipeline. If the
// pipeline has a variable declaration, the variables are pushed (or, for
// assignments, overwritten) with the final value.
func (s *state) evalPipeline(dot value.Value, pipe *parse.PipeNode) (value.Value, error) {
	val := value.Nil()
	var final *value.Value
	for _, cmd := range pipe.Cmds {
		v, err := s.evalCommand(dot, cmd, final)
		if err != nil {
			return value.Nil(), err
		}
		val = v
		final = &val
	}
	for _, variable := range pipe.Decl {
		if pipe.IsAssign {
			if err := s.setVar(variable.Ident[0], val); err != nil {
				return value.Nil(), err
			}
		} else {
			s.push(variable.Ident[0], val)
		}
	}
	return val, nil
}

func (s *state) notAFunction(args []parse.Node, final *value.Value) error {
	if len(args) > 1 || final != nil {
		return s.errorf("can't give argument to non-function %s", args[0])
	}
	return nil
}

func (s *state) evalCommand(dot value.Value, cmd *parse.CommandNode, final *value.Value) (value.Value, error) {
	if len(cmd.Args) == 0 {
		return value.Nil(), s.errorf("no arguments for command node: %s", cmd)
	}
	firstWord := cmd.Args[0]
	switch n := firstWord.(type) {
	case *parse.FieldNode:
		return s.evalFieldChain(dot, dot, n.Ident, cmd.Args, final)
	case *parse.ChainNode:
		return s.evalChainNode(dot, n, cmd.Args, final)
	case *parse.IdentifierNode:
		// Must be a function.
		return s.evalFunction(dot, n.Ident, cmd.Args, final)
	case *parse.PipeNode:
		// Parenthesized pipeline. The arguments are part of the pipeline itself.
		if err := s.notAFunction(cmd.Args, final); err != nil {
			return value.Nil(), err
		}
		return s.evalPipeline(dot, n)
	case *parse.VariableNode:
		return s.evalVariableNode(dot, n, cmd.Args, final)
	}
	if err := s.notAFunction(cmd.Args, final); err != nil {
		return value.Nil(), err
	}
	switch n := firstWord.(type) {
	case *parse.BoolNode:
		return value.FromBool(n.True), nil
	case *parse.DotNode:
		return dot, nil
	case *parse.NilNode:
		return value.Nil(), s.errorf("nil is not a command")
	case *parse.NumberNode:
		return s.evalNumber(n)
	case *parse.StringNode:
		return value.FromString(n.Text), nil
	}
	return value.Nil(), s.errorf("can't evaluate command %q", firstWord)
}

func (s *state) evalVariableNode(dot value.Value, v *parse.VariableNode, args []parse.Node, final *value.Value) (value.Value, error) {
	// $x.Field has $x as the first ident, Field as the second. Eval the var, then the fields.
	val, err := s.varValue(v.Ident[0])
	if err != nil {
		return value.Nil(), err
	}
	if len(v.Ident) == 1 {
		if err := s.notAFunction(args, final); err != nil {
			return value.Nil(), err
		}
		return val, nil
	}
	return s.evalFieldChain(dot, val, v.Ident[1:], args, final)
}

func (s *state) evalChainNode(dot value.Value, chain *parse.ChainNode, args []parse.Node, final *value.Value) (value.Value, error) {
	if len(chain.Field) == 0 {
		return value.Nil(), s.errorf("internal error: no fields in evalChainNode")
	}
	if chain.Node.Type() == parse.NodeNil {
		return value.Nil(), s.errorf("indirection through explicit nil in %s", chain)
	}
	// (pipe).Field1.Field2 has pipe as .Node, fields as .Field. Eval the pipeline, then the fields.
	pipe, err := s.evalArg(dot, chain.Node)
	if err != nil {
		return value.Nil(), err
	}
	return s.evalFieldChain(dot, pipe, chain.Field, args, final)
}

// evalFieldChain evaluates .X.Y.Z possibly followed by arguments.
// dot is the environment in which to evaluate arguments, while receiver is
// the value being walked along the chain.
func (s *state) evalFieldChain(dot, receiver value.Value, idents []string, args []parse.Node, final *value.Value) (value.Value, error) {
	n := len(idents)
	for i := 0; i < n-1; i++ {
		var err error
		receiver, err = s.evalField(dot, idents[i], nil, nil, receiver)
		if err != nil {
			return value.Nil(), err
		}
	}
	// Now if it's a method, it gets the arguments.
	return s.evalField(dot, idents[n-1], args, final, receiver)
}

// evalField resolves one field access on receiver. On objects a
// function-valued field is a method: it is invoked with the receiver as its
// first argument, plus any explicit and piped arguments.
func (s *state) evalField(dot value.Value, fieldName string, args []parse.Node, final *value.Value, receiver value.Value) (value.Value, error) {
	hasArgs := len(args) > 1 || final != nil
	switch receiver.Kind() {
	case value.KindMap:
		field, found := receiver.Field(fieldName)
		if !found {
			if s.cfg.Strict {
				return value.Nil(), s.wrap(&UndefinedError{What: "field", Name: fieldName})
			}
			return value.Nil(), nil
		}
		if hasArgs {
			return value.Nil(), s.errorf("%s has arguments but cannot be invoked as function", fieldName)
		}
		return field, nil
	case value.KindObject:
		field, found := receiver.Field(fieldName)
		if !found {
			return value.Nil(), s.wrap(&UndefinedError{What: "field", Name: fieldName})
		}
		if field.Kind() == value.KindFunction {
			return s.callFunction(fieldName, field.Function(), receiver, dot, args, final)
		}
		if hasArgs {
			return value.Nil(), s.errorf("%s has arguments but cannot be invoked as function", fieldName)
		}
		return field, nil
	case value.KindNil:
		return value.Nil(), s.errorf("nil pointer evaluating .%s", fieldName)
	}
	return value.Nil(), s.wrap(&TypeError{Msg: fmt.Sprintf("can't evaluate field %s in type %s", fieldName, receiver.Kind())})
}

// callFunction invokes a method-style function field: receiver first, then
// explicit arguments, then the piped value.
func (s *state) callFunction(name string, fn value.Func, receiver, dot value.Value, args []parse.Node, final *value.Value) (value.Value, error) {
	callArgs := []value.Value{receiver}
	if len(args) > 1 {
		for _, arg := range args[1:] {
			v, err := s.evalArg(dot, arg)
			if err != nil {
				return value.Nil(), err
			}
			callArgs = append(callArgs, v)
		}
	}
	if final != nil {
		callArgs = append(callArgs, *final)
	}
	result, err := fn(callArgs)
	if err != nil {
		return value.Nil(), s.errorf("error calling %s: %s", name, err)
	}
	return result, nil
}

func (s *state) evalFunction(dot value.Value, name string, args []parse.Node, final *value.Value) (value.Value, error) {
	fn, found := s.funcs[name]
	if !found {
		return value.Nil(), s.wrap(&UndefinedError{What: "function", Name: name})
	}
	var callArgs []value.Value
	if len(args) > 1 {
		for _, arg := range args[1:] {
			v, err := s.evalArg(dot, arg)
			if err != nil {
				return value.Nil(), err
			}
			callArgs = append(callArgs, v)
		}
	}
	if final != nil {
		callArgs = append(callArgs, *final)
	}
	result, err := fn(callArgs)
	if err != nil {
		return value.Nil(), s.errorf("error calling %s: %w", name, err)
	}
	return result, nil
}

// evalArg evaluates a single argument node in the environment dot.
func (s *state) evalArg(dot value.Value, n parse.Node) (value.Value, error) {
	switch n := n.(type) {
	case *parse.DotNode:
		return dot, nil
	case *parse.NilNode:
		return value.Nil(), nil
	case *parse.FieldNode:
		return s.evalFieldChain(dot, dot, n.Ident, nil, nil)
	case *parse.VariableNode:
		return s.evalVariableNode(dot, n, nil, nil)
	case *parse.PipeNode:
		return s.evalPipeline(dot, n)
	case *parse.IdentifierNode:
		// A function with no arguments.
		return s.evalFunction(dot, n.Ident, nil, nil)
	case *parse.ChainNode:
		return s.evalChainNode(dot, n, nil, nil)
	case *parse.BoolNode:
		return value.FromBool(n.True), nil
	case *parse.NumberNode:
		return s.evalNumber(n)
	case *parse.StringNode:
		return value.FromString(n.Text), nil
	}
	return value.Nil(), s.errorf("can't handle %s as argument", n)
}

func (s *state) evalNumber(n *parse.NumberNode) (value.Value, error) {
	switch {
	case n.IsComplex:
		return value.Nil(), s.wrap(&UnimplementedError{Feature: "complex number " + n.Text})
	case n.IsInt:
		return value.FromInt(n.Int64), nil
	case n.IsUint:
		return value.FromUint(n.Uint64), nil
	case n.IsFloat:
		return value.FromFloat(n.Float64), nil
	}
	return value.Nil(), s.errorf("illegal number: %s", n)
}

// printValue writes the textual representation of the value to the output.
func (s *state) printValue(n parse.Node, v value.Value) error {
	if v.Kind() == value.KindFunction {
		return s.errorf("can't print %s of type function", n)
	}
	s.sb.WriteString(v.String())
	return nil
}
