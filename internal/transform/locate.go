package transform

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// HandlerForm classifies how a handler sits in its module, which decides
// the replacement text.
type HandlerForm int

const (
	// FormExpression is an arrow or function expression in any
	// expression position, including `export default <expr>`.
	FormExpression HandlerForm = iota
	// FormDeclaration is a bare function declaration statement.
	FormDeclaration
	// FormExportedDeclaration is `export function Name() {...}`.
	FormExportedDeclaration
	// FormDefaultNamed is `export default function Name() {...}`.
	FormDefaultNamed
)

// Handler is one qualifying function found in a module.
type Handler struct {
	Node   *sitter.Node
	Parent *sitter.Node
	Form   HandlerForm
	Name   string
	Start  int // handler start offset, input to the chunk name
}

const directive = "use client"

// LocateHandlers walks the whole tree collecting every block-bodied
// arrow, function expression, or function declaration whose first body
// statement is the "use client" directive. A matched handler is recorded
// and not descended into; a directive function nested inside another
// handler travels with the outer one's chunk. Generator functions
// carrying the directive are rejected.
func LocateHandlers(root *sitter.Node, src []byte, id string) ([]*Handler, error) {
	var handlers []*Handler
	seen := map[spanKey]struct{}{}

	var walk func(n *sitter.Node) error
	walk = func(n *sitter.Node) error {
		key := spanKey{n.StartByte(), n.EndByte(), n.Type()}
		if _, dup := seen[key]; dup {
			return nil
		}
		seen[key] = struct{}{}

		switch n.Type() {
		case "arrow_function", "function_expression", "function", "function_declaration":
			if hasDirectiveBody(n, src) {
				handlers = append(handlers, classify(n, src))
				return nil
			}
		case "generator_function", "generator_function_declaration":
			if hasDirectiveBody(n, src) {
				return &UnsupportedSyntaxError{ID: id, Reason: "generator functions cannot be client handlers"}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if err := walk(n.NamedChild(i)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return handlers, nil
}

type spanKey struct {
	start, end uint32
	kind       string
}

// hasDirectiveBody reports whether the function has a block body whose
// first statement is the string literal directive.
func hasDirectiveBody(fn *sitter.Node, src []byte) bool {
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" || body.NamedChildCount() == 0 {
		return false
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return false
	}
	lit := first.NamedChild(0)
	if lit.Type() != "string" {
		return false
	}
	return stringValue(lit, src) == directive
}

// stringValue extracts the cooked value of a plain string literal.
func stringValue(lit *sitter.Node, src []byte) string {
	for i := 0; i < int(lit.NamedChildCount()); i++ {
		if c := lit.NamedChild(i); c.Type() == "string_fragment" {
			return string(src[c.StartByte():c.EndByte()])
		}
	}
	raw := string(src[lit.StartByte():lit.EndByte()])
	return strings.Trim(raw, "\"'")
}

func classify(fn *sitter.Node, src []byte) *Handler {
	h := &Handler{
		Node:   fn,
		Parent: fn.Parent(),
		Start:  int(fn.StartByte()),
	}
	if name := fn.ChildByFieldName("name"); name != nil {
		h.Name = string(src[name.StartByte():name.EndByte()])
	}

	if fn.Type() != "function_declaration" {
		h.Form = FormExpression
		return h
	}

	parent := h.Parent
	if parent != nil && parent.Type() == "export_statement" {
		if exportIsDefault(parent) {
			h.Form = FormDefaultNamed
		} else {
			h.Form = FormExportedDeclaration
		}
		return h
	}
	h.Form = FormDeclaration
	return h
}

func exportIsDefault(export *sitter.Node) bool {
	for i := 0; i < int(export.ChildCount()); i++ {
		if export.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}
