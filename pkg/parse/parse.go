// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package parse builds parse trees for templates. The grammar and node set
// follow the Go template language; clients of the template engine use the
// template package instead of this one.
package parse

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"carvel.dev/gotmpl/pkg/feature"
	"carvel.dev/gotmpl/pkg/filepos"
	"carvel.dev/gotmpl/pkg/lexer"
)

// Tree is the parsed representation of a single named template body.
type Tree struct {
	Name      string // name of the template represented by the tree
	ParseName string // name of the top-level template during parsing, for error messages
	Root      *ListNode

	text       string
	funcs      map[string]bool
	lex        *lexer.Lexer
	token      [3]lexer.Item // three-token lookahead
	peekCount  int
	vars       []string // variables defined at the moment
	treeSet    map[string]*Tree
	rangeDepth int
}

// Parse parses text as a template body for the template named name and
// returns the set of named trees it produced: the named tree itself plus one
// per define and block clause. Empty delimiters select the defaults. The
// funcs set names all known functions; identifiers outside it fail the parse.
func Parse(name, text, leftDelim, rightDelim string, funcs map[string]bool) (map[string]*Tree, error) {
	treeSet := map[string]*Tree{}
	t := &Tree{Name: name, ParseName: name, text: text, funcs: funcs}
	_, err := t.parseWith(lexer.New(name, text, leftDelim, rightDelim), treeSet)
	if err != nil {
		return nil, err
	}
	return treeSet, nil
}

func (t *Tree) parseWith(lex *lexer.Lexer, treeSet map[string]*Tree) (tree *Tree, err error) {
	defer t.recover(&err)
	t.lex = lex
	t.vars = []string{"$"}
	t.treeSet = treeSet
	t.parse()
	t.add()
	t.stopParse()
	return t, nil
}

// next returns the next token.
func (t *Tree) next() lexer.Item {
	if t.peekCount > 0 {
		t.peekCount--
	} else {
		t.token[0] = t.lex.NextItem()
	}
	return t.token[t.peekCount]
}

// backup backs the input stream up one token.
func (t *Tree) backup() {
	t.peekCount++
}

// backup2 backs the input stream up two tokens. The zeroth token is already there.
func (t *Tree) backup2(t1 lexer.Item) {
	t.token[1] = t1
	t.peekCount = 2
}

// backup3 backs the input stream up three tokens. The zeroth token is already there.
func (t *Tree) backup3(t2, t1 lexer.Item) {
	t.token[1] = t1
	t.token[2] = t2
	t.peekCount = 3
}

// peek returns but does not consume the next token.
func (t *Tree) peek() lexer.Item {
	if t.peekCount > 0 {
		return t.token[t.peekCount-1]
	}
	t.peekCount = 1
	t.token[0] = t.lex.NextItem()
	return t.token[0]
}

// nextNonSpace returns the next non-space token.
func (t *Tree) nextNonSpace() lexer.Item {
	for {
		token := t.next()
		if token.Typ != lexer.ItemSpace {
			return token
		}
	}
}

// peekNonSpace returns but does not consume the next non-space token.
func (t *Tree) peekNonSpace() lexer.Item {
	token := t.nextNonSpace()
	t.backup()
	return token
}

func (t *Tree) errorf(format string, args ...interface{}) {
	t.Root = nil
	pos := filepos.NewPositionInFile(t.token[0].Line, t.ParseName)
	pos.SetOffset(t.token[0].Pos)
	panic(&Error{Position: pos, Token: t.token[0].String(), Msg: fmt.Sprintf(format, args...)})
}

// expect consumes the next token and guarantees it has the required type.
func (t *Tree) expect(expected lexer.ItemType, context string) lexer.Item {
	token := t.nextNonSpace()
	if token.Typ != expected {
		t.unexpected(token, context)
	}
	return token
}

// unexpected complains about the token and terminates processing.
func (t *Tree) unexpected(token lexer.Item, context string) {
	t.errorf("unexpected %s in %s", token, context)
}

// recover turns panics into returns from the top level of Parse.
func (t *Tree) recover(errp *error) {
	if e := recover(); e != nil {
		if _, ok := e.(runtime.Error); ok {
			panic(e)
		}
		t.stopParse()
		*errp = e.(error)
	}
}

func (t *Tree) stopParse() {
	t.lex = nil
	t.vars = nil
	t.treeSet = nil
}

// add adds the tree to the set of trees being built.
func (t *Tree) add() {
	tree := t.treeSet[t.Name]
	if tree == nil || isEmptyTree(tree.Root) {
		t.treeSet[t.Name] = t
		return
	}
	if !isEmptyTree(t.Root) {
		t.errorf("template: multiple definition of template %q", t.Name)
	}
}

// isEmptyTree reports whether this tree (node) is empty of everything but space.
func isEmptyTree(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *ListNode:
		for _, node := range n.Nodes {
			if !isEmptyTree(node) {
				return false
			}
		}
		return true
	case *TextNode:
		return len(strings.TrimSpace(string(n.Text))) == 0
	default:
		return false
	}
}

// parse is the top-level parser for a template. It runs to EOF and populates
// the tree set with any define clauses found on the way.
func (t *Tree) parse() {
	t.Root = newList(t.peek().Pos)
	for t.peek().Typ != lexer.ItemEOF {
		if t.peek().Typ == lexer.ItemLeftDelim {
			delim := t.next()
			if t.nextNonSpace().Typ == lexer.ItemDefine {
				newT := &Tree{ParseName: t.ParseName, text: t.text, funcs: t.funcs}
				newT.startNested(t)
				newT.parseDefinition()
				newT.finishNested(t)
				continue
			}
			t.backup2(delim)
		}
		switch n := t.textOrAction(); n.Type() {
		case nodeEnd, nodeElse:
			t.errorf("unexpected %s", n)
		default:
			t.Root.append(n)
		}
	}
}

// startNested prepares a sub-tree for parsing a define or block body off the
// parent's token stream.
func (t *Tree) startNested(parent *Tree) {
	t.lex = parent.lex
	t.treeSet = parent.treeSet
	t.vars = []string{"$"}
	t.token = parent.token
	t.peekCount = parent.peekCount
}

// finishNested hands the token stream back to the parent.
func (t *Tree) finishNested(parent *Tree) {
	parent.token = t.token
	parent.peekCount = t.peekCount
	t.stopParse()
}

// parseDefinition parses a {{define}} ... {{end}} template definition and
// installs the definition in the tree set. The "define" keyword has already
// been consumed.
func (t *Tree) parseDefinition() {
	const context = "define clause"
	name := t.expectOneOf(lexer.ItemString, lexer.ItemRawString, context)
	var err error
	t.Name, err = strconv.Unquote(name.Val)
	if err != nil {
		t.errorf("unable to parse string: %s", err)
	}
	t.expect(lexer.ItemRightDelim, context)
	var end Node
	t.Root, end = t.itemList()
	if end.Type() != nodeEnd {
		t.errorf("unexpected %s in %s", end, context)
	}
	t.add()
}

func (t *Tree) expectOneOf(expected1, expected2 lexer.ItemType, context string) lexer.Item {
	token := t.nextNonSpace()
	if token.Typ != expected1 && token.Typ != expected2 {
		t.unexpected(token, context)
	}
	return token
}

// itemList:
//
//	textOrAction*
//
// Terminates at {{end}} or {{else}}, returned separately.
func (t *Tree) itemList() (list *ListNode, next Node) {
	list = newList(t.peekNonSpace().Pos)
	for t.peekNonSpace().Typ != lexer.ItemEOF {
		n := t.textOrAction()
		switch n.Type() {
		case nodeEnd, nodeElse:
			return list, n
		}
		list.append(n)
	}
	t.errorf("unexpected EOF")
	return
}

// textOrAction:
//
//	text | action
func (t *Tree) textOrAction() Node {
	switch token := t.nextNonSpace(); token.Typ {
	case lexer.ItemText:
		return newText(token.Pos, token.Val)
	case lexer.ItemLeftDelim:
		return t.action()
	default:
		t.unexpected(token, "input")
	}
	return nil
}

// action:
//
//	control
//	command ("|" command)*
//
// Left delim is past. Now get actions.
func (t *Tree) action() (n Node) {
	switch token := t.nextNonSpace(); token.Typ {
	case lexer.ItemBlock:
		return t.blockControl()
	case lexer.ItemBreak:
		return t.breakControl(token.Pos, token.Line)
	case lexer.ItemContinue:
		return t.continueControl(token.Pos, token.Line)
	case lexer.ItemElse:
		return t.elseControl()
	case lexer.ItemEnd:
		return t.endControl()
	case lexer.ItemIf:
		return t.ifControl()
	case lexer.ItemRange:
		return t.rangeControl()
	case lexer.ItemTemplate:
		return t.templateControl()
	case lexer.ItemWith:
		return t.withControl()
	}
	t.backup()
	token := t.peek()
	// Do not pop variables; they persist until "end".
	return newAction(token.Pos, token.Line, t.pipeline("command", lexer.ItemRightDelim))
}

// breakControl:
//
//	{{break}}
//
// Break keyword is past.
func (t *Tree) breakControl(pos, line int) Node {
	if token := t.nextNonSpace(); token.Typ != lexer.ItemRightDelim {
		t.unexpected(token, "{{break}}")
	}
	if t.rangeDepth == 0 {
		t.errorf("{{break}} outside {{range}}")
	}
	return newBreak(pos, line)
}

// continueControl:
//
//	{{continue}}
//
// Continue keyword is past.
func (t *Tree) continueControl(pos, line int) Node {
	if token := t.nextNonSpace(); token.Typ != lexer.ItemRightDelim {
		t.unexpected(token, "{{continue}}")
	}
	if t.rangeDepth == 0 {
		t.errorf("{{continue}} outside {{range}}")
	}
	return newContinue(pos, line)
}

// pipeline:
//
//	declarations? command ('|' command)*
func (t *Tree) pipeline(context string, end lexer.ItemType) (pipe *PipeNode) {
	token := t.peekNonSpace()
	pipe = newPipeline(token.Pos, token.Line, nil)
	// Are there declarations or assignments?
decls:
	if v := t.peekNonSpace(); v.Typ == lexer.ItemVariable {
		t.next()
		// Since space is a token, we need 3-token look-ahead here in the worst
		// case: in "$x foo" we need to read "foo" (as opposed to ":=") to know
		// that $x is an argument variable rather than a declaration.
		tokenAfterVariable := t.peek()
		next := t.peekNonSpace()
		switch {
		case next.Typ == lexer.ItemAssign, next.Typ == lexer.ItemDeclare:
			pipe.IsAssign = next.Typ == lexer.ItemAssign
			t.nextNonSpace()
			pipe.Decl = append(pipe.Decl, newVariable(v.Pos, v.Val))
			if pipe.IsAssign {
				// Assignment requires the variable to already exist.
				t.useVar(v.Pos, v.Val)
			} else {
				t.vars = append(t.vars, v.Val)
			}
		case next.Typ == lexer.ItemComma:
			t.nextNonSpace()
			pipe.Decl = append(pipe.Decl, newVariable(v.Pos, v.Val))
			t.vars = append(t.vars, v.Val)
			if context == "range" && len(pipe.Decl) < 2 {
				switch t.peekNonSpace().Typ {
				case lexer.ItemVariable, lexer.ItemRightDelim, lexer.ItemRightParen:
					goto decls
				default:
					t.errorf("range can only initialize variables")
				}
			}
			t.errorf("too many declarations in %s", context)
		case tokenAfterVariable.Typ == lexer.ItemSpace:
			t.backup3(v, tokenAfterVariable)
		default:
			t.backup2(v)
		}
	}
	for {
		switch token := t.nextNonSpace(); token.Typ {
		case end:
			// At this point, the pipeline is complete.
			t.checkPipeline(pipe, context)
			return
		case lexer.ItemBool, lexer.ItemCharConstant, lexer.ItemComplex, lexer.ItemDot,
			lexer.ItemField, lexer.ItemIdentifier, lexer.ItemNumber, lexer.ItemNil,
			lexer.ItemRawString, lexer.ItemString, lexer.ItemVariable, lexer.ItemLeftParen:
			t.backup()
			pipe.append(t.command())
		default:
			t.unexpected(token, context)
		}
	}
}

func (t *Tree) checkPipeline(pipe *PipeNode, context string) {
	// Reject nil pipelines with no commands.
	if len(pipe.Cmds) == 0 {
		t.errorf("missing value for %s", context)
	}
	// Only the first command of a pipeline can start with a non-executable operand.
	for i, c := range pipe.Cmds[1:] {
		switch c.Args[0].Type() {
		case NodeBool, NodeDot, NodeNil, NodeNumber, NodeString:
			// With A|B|C, pipeline stage 2 is B.
			t.errorf("non executable command in pipeline stage %d", i+2)
		}
	}
}

func (t *Tree) parseControl(allowElseIf bool, context string) (pos, line int, pipe *PipeNode, list, elseList *ListNode) {
	defer t.popVars(len(t.vars))
	pipe = t.pipeline(context, lexer.ItemRightDelim)
	if context == "range" {
		t.rangeDepth++
	}
	var next Node
	list, next = t.itemList()
	if context == "range" {
		t.rangeDepth--
	}
	switch next.Type() {
	case nodeEnd: // done
	case nodeElse:
		if allowElseIf && t.peek().Typ == lexer.ItemIf {
			// Special case for "else if". If the "else" is followed
			// immediately by an "if", the elseControl will have left the "if"
			// token pending. Treat
			//	{{if a}}_{{else if b}}_{{end}}
			// as
			//	{{if a}}_{{else}}{{if b}}_{{end}}{{end}}.
			// To do this, parse the "if" as usual and stop at it {{end}};
			// the subsequent {{end}} is assumed. This technique works even
			// for long if-else-if chains.
			t.next() // Consume the "if" token.
			elseList = newList(next.Pos())
			elseList.append(t.ifControl())
		} else {
			elseList, next = t.itemList()
			if next.Type() != nodeEnd {
				t.errorf("expected end; found %s", next)
			}
		}
	}
	return pipe.Pos(), pipe.Line, pipe, list, elseList
}

// ifControl:
//
//	{{if pipeline}} itemList {{end}}
//	{{if pipeline}} itemList {{else}} itemList {{end}}
//
// If keyword is past.
func (t *Tree) ifControl() Node {
	return newIf(t.parseControl(true, "if"))
}

// rangeControl:
//
//	{{range pipeline}} itemList {{end}}
//	{{range pipeline}} itemList {{else}} itemList {{end}}
//
// Range keyword is past.
func (t *Tree) rangeControl() Node {
	return newRange(t.parseControl(false, "range"))
}

// withControl:
//
//	{{with pipeline}} itemList {{end}}
//	{{with pipeline}} itemList {{else}} itemList {{end}}
//
// With keyword is past.
func (t *Tree) withControl() Node {
	return newWith(t.parseControl(false, "with"))
}

// endControl:
//
//	{{end}}
//
// End keyword is past.
func (t *Tree) endControl() Node {
	return newEnd(t.expect(lexer.ItemRightDelim, "end").Pos)
}

// elseControl:
//
//	{{else}}
//
// Else keyword is past.
func (t *Tree) elseControl() Node {
	peek := t.peekNonSpace()
	// "{{else if ... " is treated as "{{else}}{{if ..."; leave the "if"
	// token pending for parseControl to pick up.
	if peek.Typ == lexer.ItemIf {
		return newElse(peek.Pos, peek.Line)
	}
	token := t.expect(lexer.ItemRightDelim, "else")
	return newElse(token.Pos, token.Line)
}

// blockControl:
//
//	{{block stringValue pipeline}}
//
// Block keyword is past. The block is parsed as a separate tree and the
// action is rewritten into a template invocation.
func (t *Tree) blockControl() Node {
	const context = "block clause"
	token := t.nextNonSpace()
	name := t.parseTemplateName(token, context)
	pipe := t.pipeline(context, lexer.ItemRightDelim)

	block := &Tree{Name: name, ParseName: t.ParseName, text: t.text, funcs: t.funcs}
	block.startNested(t)
	var end Node
	block.Root, end = block.itemList()
	if end.Type() != nodeEnd {
		block.errorf("unexpected %s in %s", end, context)
	}
	block.add()
	block.finishNested(t)

	return newTemplate(token.Pos, token.Line, name, nil, pipe)
}

// templateControl:
//
//	{{template stringValue pipeline}}
//	{{template (pipeline) pipeline}}   (only with the dynamic-template-name feature)
//
// Template keyword is past. The name must be something that can evaluate to a string.
func (t *Tree) templateControl() Node {
	const context = "template clause"
	token := t.nextNonSpace()
	var name string
	var namePipe *PipeNode
	if token.Typ == lexer.ItemLeftParen {
		if !feature.Flags().IsEnabled(feature.DynamicTemplateName) {
			t.errorf("enable %s feature to use a pipeline as template name", feature.DynamicTemplateName)
		}
		namePipe = t.pipeline(context, lexer.ItemRightParen)
	} else {
		name = t.parseTemplateName(token, context)
	}
	var pipe *PipeNode
	if t.nextNonSpace().Typ != lexer.ItemRightDelim {
		t.backup()
		// Do not pop variables; they persist until "end".
		pipe = t.pipeline(context, lexer.ItemRightDelim)
	}
	return newTemplate(token.Pos, token.Line, name, namePipe, pipe)
}

func (t *Tree) parseTemplateName(token lexer.Item, context string) (name string) {
	switch token.Typ {
	case lexer.ItemString, lexer.ItemRawString:
		s, err := strconv.Unquote(token.Val)
		if err != nil {
			t.errorf("unable to parse string: %s", err)
		}
		name = s
	default:
		t.unexpected(token, context)
	}
	return
}

// command:
//
//	operand (space operand)*
//
// Space-separated arguments up to a pipeline character or right delimiter.
func (t *Tree) command() *CommandNode {
	cmd := newCommand(t.peekNonSpace().Pos)
	for {
		t.peekNonSpace() // skip leading spaces.
		operand := t.operand()
		if operand != nil {
			cmd.append(operand)
		}
		switch token := t.next(); token.Typ {
		case lexer.ItemSpace:
			continue
		case lexer.ItemRightDelim, lexer.ItemRightParen:
			t.backup()
		case lexer.ItemPipe:
			// nothing here; break loop below
		default:
			t.unexpected(token, "operand")
		}
		break
	}
	if len(cmd.Args) == 0 {
		t.errorf("empty command")
	}
	return cmd
}

// operand:
//
//	term .Field*
//
// An operand is a space-separated component of a command, a term possibly
// followed by field accesses. A nil return means the next item is not an
// operand.
func (t *Tree) operand() Node {
	node := t.term()
	if node == nil {
		return nil
	}
	if t.peek().Typ == lexer.ItemField {
		chain := newChain(t.peek().Pos, node)
		for t.peek().Typ == lexer.ItemField {
			chain.add(t.next().Val)
		}
		// A chain rooted at a field or variable collapses back into that
		// node type with the combined ident list.
		switch node.Type() {
		case NodeField:
			node = newField(chain.Pos(), chain.String())
		case NodeVariable:
			node = newVariable(chain.Pos(), chain.String())
		case NodeBool, NodeString, NodeNumber, NodeNil, NodeDot:
			t.errorf("unexpected . after term %q", node.String())
		default:
			node = chain
		}
	}
	return node
}

// term:
//
//	literal (number, string, nil, boolean)
//	function (identifier)
//	.
//	.Field
//	$
//	'(' pipeline ')'
//
// A term is a simple "expression". A nil return means the next item is not a term.
func (t *Tree) term() Node {
	switch token := t.nextNonSpace(); token.Typ {
	case lexer.ItemIdentifier:
		if !t.hasFunction(token.Val) {
			t.errorf("function %q not defined", token.Val)
		}
		return newIdentifier(token.Pos, token.Val)
	case lexer.ItemDot:
		return newDot(token.Pos)
	case lexer.ItemNil:
		return newNil(token.Pos)
	case lexer.ItemVariable:
		return t.useVar(token.Pos, token.Val)
	case lexer.ItemField:
		return newField(token.Pos, token.Val)
	case lexer.ItemBool:
		return newBool(token.Pos, token.Val == "true")
	case lexer.ItemCharConstant, lexer.ItemComplex, lexer.ItemNumber:
		number, err := newNumber(token.Pos, token.Val, token.Typ)
		if err != nil {
			t.errorf("%s", err)
		}
		return number
	case lexer.ItemLeftParen:
		return t.pipeline("parenthesized pipeline", lexer.ItemRightParen)
	case lexer.ItemString, lexer.ItemRawString:
		s, err := strconv.Unquote(token.Val)
		if err != nil {
			t.errorf("unable to parse string: %s", err)
		}
		return newString(token.Pos, token.Val, s)
	}
	t.backup()
	return nil
}

// hasFunction reports if a function name exists in the Tree's maps.
func (t *Tree) hasFunction(name string) bool {
	return t.funcs[name]
}

// popVars trims the variable list to the specified length.
func (t *Tree) popVars(n int) {
	t.vars = t.vars[:n]
}

// useVar returns a node for a variable reference. It errors if the variable
// is not defined.
func (t *Tree) useVar(pos int, name string) *VariableNode {
	v := newVariable(pos, name)
	for _, varName := range t.vars {
		if varName == v.Ident[0] {
			return v
		}
	}
	t.errorf("undefined variable %q", v.Ident[0])
	return nil
}
