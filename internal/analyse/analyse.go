// Package analyse implements scope-aware reference collection over
// tree-sitter TS/TSX trees. It walks any subtree with a stack of lexical
// scopes and reports every identifier that is used as a value but not
// bound by an enclosing scope. Purely-type constructs contribute nothing.
package analyse

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Scope is a set of names bound at one nesting level.
type Scope map[string]struct{}

// NewScope builds a scope from the given names.
func NewScope(names ...string) Scope {
	s := make(Scope, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// FreeRefs returns the set of identifiers referenced as values inside
// node but not declared in node's own scopes or in the seed stack. The
// seed stack is ordered outermost first; nil means no enclosing bindings.
func FreeRefs(node *sitter.Node, src []byte, seed []Scope) map[string]struct{} {
	w := &walker{
		src:    src,
		scopes: append([]Scope(nil), seed...),
		out:    make(map[string]struct{}),
	}
	w.visit(node)
	return w.out
}

type walker struct {
	src    []byte
	scopes []Scope
	out    map[string]struct{}
}

func (w *walker) text(n *sitter.Node) string {
	return string(w.src[n.StartByte():n.EndByte()])
}

func (w *walker) push(s Scope) { w.scopes = append(w.scopes, s) }
func (w *walker) pop()         { w.scopes = w.scopes[:len(w.scopes)-1] }

func (w *walker) bind(name string) {
	if name == "" {
		return
	}
	if len(w.scopes) == 0 {
		w.push(Scope{})
	}
	w.scopes[len(w.scopes)-1][name] = struct{}{}
}

func (w *walker) bound(name string) bool {
	for i := len(w.scopes) - 1; i >= 0; i-- {
		if _, ok := w.scopes[i][name]; ok {
			return true
		}
	}
	return false
}

func (w *walker) ref(name string) {
	if name == "" || w.bound(name) {
		return
	}
	w.out[name] = struct{}{}
}

// skipKinds are subtrees that never contribute value references: type
// constructs, comments, and import/export specifier lists (their names
// are bindings or re-export labels, not uses).
var skipKinds = map[string]struct{}{
	"comment":                {},
	"type_alias_declaration": {},
	"interface_declaration":  {},
	"type_annotation":        {},
	"omitting_type_annotation": {},
	"opting_type_annotation": {},
	"type_parameters":        {},
	"type_arguments":         {},
	"type_query":             {},
	"index_type_query":       {},
	"type_predicate":         {},
	"type_predicate_annotation": {},
	"asserts":                {},
	"asserts_annotation":     {},
	"extends_type_clause":    {},
	"implements_clause":      {},
	"ambient_declaration":    {},
	"import_statement":       {},
	"export_clause":          {},
	"namespace_export":       {},
	"abstract_method_signature": {},
	"index_signature":        {},
}

func (w *walker) visit(n *sitter.Node) {
	if n == nil {
		return
	}
	kind := n.Type()
	if _, skip := skipKinds[kind]; skip {
		return
	}

	switch kind {
	case "identifier", "shorthand_property_identifier":
		w.ref(w.text(n))

	case "shorthand_property_identifier_pattern":
		// Destructuring assignment without a declaration keyword writes
		// into existing bindings, which still counts as a use.
		w.ref(w.text(n))

	case "program", "statement_block":
		w.push(w.hoisted(n))
		w.visitNamedChildren(n)
		w.pop()

	case "arrow_function", "function_expression", "function",
		"function_declaration", "generator_function",
		"generator_function_declaration", "method_definition":
		w.visitFunction(n)

	case "variable_declarator":
		name := n.ChildByFieldName("name")
		if value := n.ChildByFieldName("value"); value != nil {
			w.visit(value)
		}
		w.declarePattern(name)

	case "for_statement":
		w.push(Scope{})
		w.visitNamedChildren(n)
		w.pop()

	case "for_in_statement":
		w.visitForIn(n)

	case "catch_clause":
		w.push(Scope{})
		if param := n.ChildByFieldName("parameter"); param != nil {
			w.declarePattern(param)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.visit(body)
		}
		w.pop()

	case "class_declaration", "class", "abstract_class_declaration":
		w.visitClass(n)

	case "enum_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			w.bind(w.text(name))
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.visitNamedChildren(body)
		}

	case "as_expression", "satisfies_expression", "non_null_expression":
		// Value-bearing TS wrappers: only the inner expression carries
		// references; the type side is skipped wholesale.
		if inner := n.NamedChild(0); inner != nil {
			w.visit(inner)
		}

	case "jsx_opening_element", "jsx_self_closing_element":
		w.visitJSXElement(n)

	case "jsx_closing_element":
		// Tag name already handled at the opening element.

	default:
		w.visitNamedChildren(n)
	}
}

func (w *walker) visitNamedChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.visit(n.NamedChild(i))
	}
}

// visitFunction pushes the function scope (own name plus parameters) and
// analyses parameter defaults with the preceding parameters already in
// scope, then the body.
func (w *walker) visitFunction(n *sitter.Node) {
	scope := Scope{}
	if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
		scope[w.text(name)] = struct{}{}
	}
	w.push(scope)

	// Parenless single-parameter arrow: x => ...
	if single := n.ChildByFieldName("parameter"); single != nil {
		w.declarePattern(single)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			w.visitParameter(params.NamedChild(i))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.visit(body)
	}
	w.pop()
}

// visitParameter analyses one formal parameter: the default value first
// (seeing only earlier parameters), then the parameter's own bindings.
func (w *walker) visitParameter(p *sitter.Node) {
	switch p.Type() {
	case "required_parameter", "optional_parameter":
		if value := p.ChildByFieldName("value"); value != nil {
			w.visit(value)
		}
		if pattern := p.ChildByFieldName("pattern"); pattern != nil {
			w.declarePattern(pattern)
			return
		}
		// Older grammar shapes have no pattern field.
		for i := 0; i < int(p.NamedChildCount()); i++ {
			c := p.NamedChild(i)
			switch c.Type() {
			case "identifier", "object_pattern", "array_pattern", "rest_pattern", "this":
				w.declarePattern(c)
			}
		}
	default:
		w.declarePattern(p)
	}
}

func (w *walker) visitForIn(n *sitter.Node) {
	w.push(Scope{})
	defer w.pop()

	left := n.ChildByFieldName("left")
	declared := false
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "const", "let", "var":
			declared = true
		}
	}
	if right := n.ChildByFieldName("right"); right != nil {
		w.visit(right)
	}
	if left != nil {
		if declared {
			w.declarePattern(left)
		} else {
			w.visit(left)
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.visit(body)
	}
}

func (w *walker) visitClass(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	nameText := ""
	if name != nil {
		nameText = w.text(name)
	}
	if n.Type() != "class" {
		w.bind(nameText)
	}
	w.push(NewScope(nameText))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if name != nil && sameNode(c, name) {
			continue
		}
		// class_heritage carries the extends expression (a value) and an
		// implements clause (type-only, skipped by the skip set).
		w.visit(c)
	}
	w.pop()
}

// sameNode compares nodes structurally; the bindings hand out fresh
// wrappers on every lookup, so pointer identity is meaningless.
func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// visitJSXElement counts component tags as references but not intrinsic
// lowercase elements, then descends into attributes and children.
func (w *walker) visitJSXElement(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if name != nil && sameNode(c, name) {
			w.visitJSXTagName(c)
			continue
		}
		w.visit(c)
	}
}

func (w *walker) visitJSXTagName(n *sitter.Node) {
	switch n.Type() {
	case "identifier":
		text := w.text(n)
		if len(text) > 0 && text[0] >= 'A' && text[0] <= 'Z' {
			w.ref(text)
		}
	case "nested_identifier", "member_expression":
		// <Foo.Bar/>: only the root object is a binding.
		if root := n.NamedChild(0); root != nil {
			w.visitJSXTagName(root)
		}
	}
}

// declarePattern adds every name introduced by a binding pattern to the
// innermost scope. Embedded default values and computed keys are value
// expressions and are visited as references.
func (w *walker) declarePattern(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		w.bind(w.text(n))
	case "object_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "shorthand_property_identifier_pattern":
				w.bind(w.text(c))
			case "pair_pattern":
				if key := c.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
					w.visit(key)
				}
				w.declarePattern(c.ChildByFieldName("value"))
			case "object_assignment_pattern":
				if right := c.ChildByFieldName("right"); right != nil {
					w.visit(right)
				}
				w.declarePattern(c.ChildByFieldName("left"))
			case "rest_pattern":
				w.declarePattern(c.NamedChild(0))
			}
		}
	case "array_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			w.declarePattern(n.NamedChild(i))
		}
	case "assignment_pattern":
		if right := n.ChildByFieldName("right"); right != nil {
			w.visit(right)
		}
		w.declarePattern(n.ChildByFieldName("left"))
	case "rest_pattern":
		w.declarePattern(n.NamedChild(0))
	case "this":
		// Not a binding.
	}
}

// hoisted collects the names declared directly by the statements of a
// block or program, so references earlier in the block resolve to them.
func (w *walker) hoisted(block *sitter.Node) Scope {
	scope := Scope{}
	for i := 0; i < int(block.NamedChildCount()); i++ {
		w.collectStatementNames(block.NamedChild(i), scope)
	}
	return scope
}

func (w *walker) collectStatementNames(stmt *sitter.Node, scope Scope) {
	switch stmt.Type() {
	case "export_statement":
		if decl := stmt.ChildByFieldName("declaration"); decl != nil {
			w.collectStatementNames(decl, scope)
		}
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration", "enum_declaration":
		if name := stmt.ChildByFieldName("name"); name != nil {
			scope[w.text(name)] = struct{}{}
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			c := stmt.NamedChild(i)
			if c.Type() == "variable_declarator" {
				for _, name := range PatternNames(c.ChildByFieldName("name"), w.src) {
					scope[name] = struct{}{}
				}
			}
		}
	case "import_statement":
		for _, name := range importedNames(stmt, w.src) {
			scope[name] = struct{}{}
		}
	}
}

// PatternNames returns every name introduced by a binding pattern,
// without visiting default values.
func PatternNames(pattern *sitter.Node, src []byte) []string {
	var names []string
	collectPatternNames(pattern, src, &names)
	return names
}

func collectPatternNames(n *sitter.Node, src []byte, out *[]string) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		*out = append(*out, string(src[n.StartByte():n.EndByte()]))
	case "object_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "shorthand_property_identifier_pattern":
				*out = append(*out, string(src[c.StartByte():c.EndByte()]))
			case "pair_pattern":
				collectPatternNames(c.ChildByFieldName("value"), src, out)
			case "object_assignment_pattern":
				collectPatternNames(c.ChildByFieldName("left"), src, out)
			case "rest_pattern":
				collectPatternNames(c.NamedChild(0), src, out)
			}
		}
	case "array_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collectPatternNames(n.NamedChild(i), src, out)
		}
	case "assignment_pattern":
		collectPatternNames(n.ChildByFieldName("left"), src, out)
	case "rest_pattern":
		collectPatternNames(n.NamedChild(0), src, out)
	case "formal_parameters":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collectPatternNames(n.NamedChild(i), src, out)
		}
	case "required_parameter", "optional_parameter":
		if pattern := n.ChildByFieldName("pattern"); pattern != nil {
			collectPatternNames(pattern, src, out)
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "identifier", "object_pattern", "array_pattern", "rest_pattern":
				collectPatternNames(c, src, out)
			}
		}
	}
}

// importedNames returns the local bindings introduced by an import
// statement, excluding type-only imports and type-only specifiers.
func importedNames(stmt *sitter.Node, src []byte) []string {
	if ImportIsTypeOnly(stmt) {
		return nil
	}
	var names []string
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		clause := stmt.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			c := clause.NamedChild(j)
			switch c.Type() {
			case "identifier":
				names = append(names, string(src[c.StartByte():c.EndByte()]))
			case "namespace_import":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					if gc := c.NamedChild(k); gc.Type() == "identifier" {
						names = append(names, string(src[gc.StartByte():gc.EndByte()]))
					}
				}
			case "named_imports":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					spec := c.NamedChild(k)
					if spec.Type() != "import_specifier" || SpecifierIsTypeOnly(spec) {
						continue
					}
					local := spec.ChildByFieldName("alias")
					if local == nil {
						local = spec.ChildByFieldName("name")
					}
					if local != nil {
						names = append(names, string(src[local.StartByte():local.EndByte()]))
					}
				}
			}
		}
	}
	return names
}

// ImportIsTypeOnly reports whether stmt is an `import type ...` form.
func ImportIsTypeOnly(stmt *sitter.Node) bool {
	for i := 0; i < int(stmt.ChildCount()); i++ {
		c := stmt.Child(i)
		if c.Type() == "type" {
			return true
		}
		if c.Type() == "import_clause" {
			break
		}
	}
	return false
}

// SpecifierIsTypeOnly reports whether an import_specifier carries its own
// leading `type` keyword, as in `import { type X } from ...`.
func SpecifierIsTypeOnly(spec *sitter.Node) bool {
	for i := 0; i < int(spec.ChildCount()); i++ {
		if spec.Child(i).Type() == "type" {
			return true
		}
	}
	return false
}
