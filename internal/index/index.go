// Package index builds the two per-module lookup tables the synthesizer
// closes over: value-bringing imports keyed by local name, and top-level
// value declarations keyed by every name they introduce. Both tables keep
// verbatim source slices so the synthesized client module reproduces the
// author's code exactly.
package index

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/apexfn/useclient/internal/analyse"
)

// ImportKind distinguishes how a local name is bound by its import.
type ImportKind int

const (
	ImportDefault ImportKind = iota
	ImportNamed
	ImportNamespace
)

// ImportEntry records one value-producing binding of an import statement.
// Several entries may point at the same statement; Text is always the
// whole statement so import side effects within it are preserved.
type ImportEntry struct {
	Node  *sitter.Node
	Text  string
	Kind  ImportKind
	Start int
}

// ImportTable maps local binding names to their import statements.
type ImportTable map[string]*ImportEntry

// BuildImportTable indexes every value-producing import binding of the
// module. Type-only imports and type-only specifiers are excluded.
func BuildImportTable(root *sitter.Node, src []byte) ImportTable {
	table := ImportTable{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "import_statement" || analyse.ImportIsTypeOnly(stmt) {
			continue
		}
		text := string(src[stmt.StartByte():stmt.EndByte()])
		start := int(stmt.StartByte())
		add := func(local string, kind ImportKind) {
			if local != "" {
				table[local] = &ImportEntry{Node: stmt, Text: text, Kind: kind, Start: start}
			}
		}
		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			clause := stmt.NamedChild(j)
			if clause.Type() != "import_clause" {
				continue
			}
			for k := 0; k < int(clause.NamedChildCount()); k++ {
				c := clause.NamedChild(k)
				switch c.Type() {
				case "identifier":
					add(string(src[c.StartByte():c.EndByte()]), ImportDefault)
				case "namespace_import":
					for m := 0; m < int(c.NamedChildCount()); m++ {
						if gc := c.NamedChild(m); gc.Type() == "identifier" {
							add(string(src[gc.StartByte():gc.EndByte()]), ImportNamespace)
						}
					}
				case "named_imports":
					for m := 0; m < int(c.NamedChildCount()); m++ {
						spec := c.NamedChild(m)
						if spec.Type() != "import_specifier" || analyse.SpecifierIsTypeOnly(spec) {
							continue
						}
						local := spec.ChildByFieldName("alias")
						if local == nil {
							local = spec.ChildByFieldName("name")
						}
						if local != nil {
							add(string(src[local.StartByte():local.EndByte()]), ImportNamed)
						}
					}
				}
			}
		}
	}
	return table
}

// DeclEntry records one top-level value declaration. Text is the
// declaration's own slice with any `export` wrapper removed; Declared is
// every name the node introduces; Deps is the set of free names used
// inside it, never intersecting Declared.
type DeclEntry struct {
	Node     *sitter.Node
	Text     string
	Start    int
	Declared map[string]struct{}
	Deps     map[string]struct{}
}

// DeclTable maps each top-level declared name to its declaration. A
// destructuring declaration appears under every name it introduces.
type DeclTable map[string]*DeclEntry

// BuildDeclTable indexes the module's top-level functions, variables,
// classes and enums, unwrapping a single `export` level. Interfaces and
// type aliases introduce no values and are ignored.
func BuildDeclTable(root *sitter.Node, src []byte) DeclTable {
	table := DeclTable{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		decl := stmt
		if stmt.Type() == "export_statement" {
			if inner := stmt.ChildByFieldName("declaration"); inner != nil {
				decl = inner
			} else {
				continue
			}
		}
		names := declaredNames(decl, src)
		if len(names) == 0 {
			continue
		}

		declared := analyse.NewScope(names...)
		entry := &DeclEntry{
			Node:     decl,
			Text:     string(src[decl.StartByte():decl.EndByte()]),
			Start:    int(decl.StartByte()),
			Declared: declared,
			Deps:     analyse.FreeRefs(decl, src, []analyse.Scope{declared}),
		}
		for _, name := range names {
			table[name] = entry
		}
	}
	return table
}

func declaredNames(decl *sitter.Node, src []byte) []string {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration", "enum_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			return []string{string(src[name.StartByte():name.EndByte()])}
		}
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			c := decl.NamedChild(i)
			if c.Type() == "variable_declarator" {
				names = append(names, analyse.PatternNames(c.ChildByFieldName("name"), src)...)
			}
		}
		return names
	}
	return nil
}
