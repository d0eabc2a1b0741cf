package synth

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/apexfn/useclient/internal/analyse"
	"github.com/apexfn/useclient/internal/index"
)

// Synthesizer builds client modules for one source module. It holds the
// module's tables and the globals set; Build may be called once per
// handler.
type Synthesizer struct {
	Source  []byte
	Imports index.ImportTable
	Decls   index.DeclTable
	Globals analyse.Scope
}

// Module is one assembled client module.
type Module struct {
	Code       string
	Unresolved []string // free names with no import or declaration, sorted
}

// Build computes the handler's free references, closes transitively over
// the module's imports and top-level declarations, and assembles the
// client module text: directive, imports in source order, declarations in
// source order, then the handler as the default export.
func (s *Synthesizer) Build(fn *sitter.Node) *Module {
	free := analyse.FreeRefs(fn, s.Source, nil)

	seen := make(map[string]struct{}, len(free))
	worklist := make([]string, 0, len(free))
	for name := range free {
		if s.isGlobal(name) {
			continue
		}
		seen[name] = struct{}{}
		worklist = append(worklist, name)
	}
	sort.Strings(worklist) // stable closure order for deterministic diagnostics

	var (
		imports    []*index.ImportEntry
		decls      []*index.DeclEntry
		unresolved []string
		haveImport = map[*index.ImportEntry]struct{}{}
		haveDecl   = map[*index.DeclEntry]struct{}{}
	)

	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]

		if imp, ok := s.Imports[name]; ok {
			if _, dup := haveImport[imp]; !dup {
				haveImport[imp] = struct{}{}
				imports = append(imports, imp)
			}
			continue
		}
		if decl, ok := s.Decls[name]; ok {
			if _, dup := haveDecl[decl]; dup {
				continue
			}
			haveDecl[decl] = struct{}{}
			decls = append(decls, decl)
			deps := make([]string, 0, len(decl.Deps))
			for dep := range decl.Deps {
				deps = append(deps, dep)
			}
			sort.Strings(deps)
			for _, dep := range deps {
				if s.isGlobal(dep) {
					continue
				}
				if _, dup := seen[dep]; dup {
					continue
				}
				seen[dep] = struct{}{}
				worklist = append(worklist, dep)
			}
			continue
		}
		unresolved = append(unresolved, name)
	}

	sort.Slice(imports, func(i, j int) bool { return imports[i].Start < imports[j].Start })
	sort.Slice(decls, func(i, j int) bool { return decls[i].Start < decls[j].Start })
	sort.Strings(unresolved)

	var b strings.Builder
	b.WriteString("\"use client\";\n\n")
	for _, imp := range imports {
		b.WriteString(imp.Text)
		b.WriteString("\n")
	}
	if len(imports) > 0 {
		b.WriteString("\n")
	}
	for _, decl := range decls {
		b.WriteString(decl.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("export default ")
	b.WriteString(s.printHandler(fn))
	b.WriteString(";\n")

	return &Module{Code: b.String(), Unresolved: unresolved}
}

func (s *Synthesizer) isGlobal(name string) bool {
	if _, ok := analyse.DefaultGlobals[name]; ok {
		return true
	}
	if s.Globals != nil {
		if _, ok := s.Globals[name]; ok {
			return true
		}
	}
	return false
}

// printHandler serializes the handler verbatim with the leading
// "use client" directive removed from its body. A function declaration
// reads as a named function expression in default-export position, so no
// reshaping beyond the slice is needed; JSX and type annotations survive
// untouched.
func (s *Synthesizer) printHandler(fn *sitter.Node) string {
	start, end := int(fn.StartByte()), int(fn.EndByte())
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" || body.NamedChildCount() == 0 {
		return string(s.Source[start:end])
	}
	directive := body.NamedChild(0)
	cutStart := int(directive.StartByte())
	cutEnd := int(directive.EndByte())
	for cutEnd < end {
		switch s.Source[cutEnd] {
		case ' ', '\t', '\n', '\r':
			cutEnd++
			continue
		}
		break
	}
	return string(s.Source[start:cutStart]) + string(s.Source[cutEnd:end])
}
