package transform

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/apexfn/useclient/internal/analyse"
)

// CheckSideEffectImports rejects the module if any non-type import binds
// no names. Such imports are globally ordered effects with no safe place
// in either the server rewrite or the extracted chunk.
func CheckSideEffectImports(root *sitter.Node, src []byte, id string) error {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "import_statement" || analyse.ImportIsTypeOnly(stmt) {
			continue
		}
		hasClause := false
		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			if stmt.NamedChild(j).Type() == "import_clause" {
				hasClause = true
				break
			}
		}
		if !hasClause {
			return &SideEffectImportError{
				ID:        id,
				Statement: string(src[stmt.StartByte():stmt.EndByte()]),
			}
		}
	}
	return nil
}

// CheckCallableUses rejects the module if the name of a declaration-form
// handler is used as a call target, a constructor, or a tagged template
// anywhere its binding is visible. After extraction the name holds a URL
// string. Occurrences under a scope that rebinds the name are fine, as is
// the handler's own body: the synthesized module keeps the function's
// name alive there.
func CheckCallableUses(root *sitter.Node, src []byte, id string, handlers []*Handler) error {
	for _, h := range handlers {
		if h.Name == "" {
			continue
		}
		switch h.Form {
		case FormDeclaration, FormExportedDeclaration, FormDefaultNamed:
			if use := findCallableUse(root, src, h.Name, h.Node); use != "" {
				return &UnsafeCallableError{ID: id, Name: h.Name, Use: use}
			}
		}
	}
	return nil
}

func findCallableUse(root *sitter.Node, src []byte, name string, handler *sitter.Node) string {
	var found string

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != "" || n == nil {
			return
		}
		if n.StartByte() == handler.StartByte() && n.EndByte() == handler.EndByte() && n.Type() == handler.Type() {
			return
		}
		if shadows(n, src, name) {
			return
		}

		switch n.Type() {
		case "call_expression":
			if callee := n.ChildByFieldName("function"); callee != nil &&
				callee.Type() == "identifier" && string(src[callee.StartByte():callee.EndByte()]) == name {
				if args := n.ChildByFieldName("arguments"); args != nil && args.Type() == "template_string" {
					found = "used as a tagged template"
				} else {
					found = "called"
				}
				return
			}
		case "new_expression":
			if ctor := n.ChildByFieldName("constructor"); ctor != nil &&
				ctor.Type() == "identifier" && string(src[ctor.StartByte():ctor.EndByte()]) == name {
				found = "constructed"
				return
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}

	walk(root)
	return found
}

// shadows reports whether entering n introduces a binding for name that
// hides the top-level declaration.
func shadows(n *sitter.Node, src []byte, name string) bool {
	switch n.Type() {
	case "arrow_function", "function_expression", "function",
		"function_declaration", "generator_function",
		"generator_function_declaration", "method_definition":
		if own := n.ChildByFieldName("name"); own != nil && n.Type() != "method_definition" &&
			string(src[own.StartByte():own.EndByte()]) == name {
			// A nested function of the same name rebinds it for its own
			// parameters and body, so nothing inside the node can reach
			// the outer binding. A method name binds nothing, so methods
			// are only shielded by their parameters.
			return true
		}
		if single := n.ChildByFieldName("parameter"); single != nil {
			for _, p := range analyse.PatternNames(single, src) {
				if p == name {
					return true
				}
			}
		}
		if params := n.ChildByFieldName("parameters"); params != nil {
			for _, p := range analyse.PatternNames(params, src) {
				if p == name {
					return true
				}
			}
		}
	case "statement_block":
		if blockBinds(n, src, name) {
			return true
		}
	case "catch_clause":
		if param := n.ChildByFieldName("parameter"); param != nil {
			for _, p := range analyse.PatternNames(param, src) {
				if p == name {
					return true
				}
			}
		}
	}
	return false
}

func blockBinds(block *sitter.Node, src []byte, name string) bool {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		if stmt.Type() == "export_statement" {
			if inner := stmt.ChildByFieldName("declaration"); inner != nil {
				stmt = inner
			}
		}
		switch stmt.Type() {
		case "function_declaration", "generator_function_declaration",
			"class_declaration", "enum_declaration":
			if n := stmt.ChildByFieldName("name"); n != nil &&
				string(src[n.StartByte():n.EndByte()]) == name {
				return true
			}
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(stmt.NamedChildCount()); j++ {
				c := stmt.NamedChild(j)
				if c.Type() != "variable_declarator" {
					continue
				}
				for _, p := range analyse.PatternNames(c.ChildByFieldName("name"), src) {
					if p == name {
						return true
					}
				}
			}
		}
	}
	return false
}
