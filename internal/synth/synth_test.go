package synth

import (
	"context"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfn/useclient/internal/index"
	"github.com/apexfn/useclient/internal/parse"
)

func buildFor(t *testing.T, source string) *Module {
	t.Helper()
	file, err := parse.Parse(context.Background(), "/proj/mod.tsx", []byte(source))
	require.NoError(t, err)
	t.Cleanup(file.Close)

	fn := findFunc(file.Root)
	require.NotNil(t, fn, "no handler function in source")

	syn := &Synthesizer{
		Source:  file.Source,
		Imports: index.BuildImportTable(file.Root, file.Source),
		Decls:   index.BuildDeclTable(file.Root, file.Source),
	}
	return syn.Build(fn)
}

// findFunc returns the first function whose block body opens with a lone
// string literal; in these fixtures that is always the directive. The
// locator proper lives in the transform package.
func findFunc(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "arrow_function", "function_expression", "function", "function_declaration":
		if body := n.ChildByFieldName("body"); body != nil && body.Type() == "statement_block" && body.NamedChildCount() > 0 {
			first := body.NamedChild(0)
			if first.Type() == "expression_statement" && first.NamedChildCount() > 0 &&
				first.NamedChild(0).Type() == "string" {
				return n
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := findFunc(n.NamedChild(i)); found != nil {
			return found
		}
	}
	return nil
}

func TestBuildBasic(t *testing.T) {
	mod := buildFor(t, `export const h = () => { "use client"; return 1; };`)

	assert.True(t, strings.HasPrefix(mod.Code, "\"use client\";\n"), "chunk starts with the directive")
	assert.Contains(t, mod.Code, "export default () => { return 1; };")
	assert.Equal(t, 1, strings.Count(mod.Code, "use client"), "the handler's own directive is stripped")
	assert.Empty(t, mod.Unresolved)
}

func TestBuildTransitiveClosure(t *testing.T) {
	mod := buildFor(t, `import { submit } from "./c.ts";
const label = "x";
export const h = () => { "use client"; submit(label); };`)

	assert.Contains(t, mod.Code, `import { submit } from "./c.ts";`)
	assert.Contains(t, mod.Code, `const label = "x";`)
	assert.Contains(t, mod.Code, "export default () => { submit(label); };")
	assert.Empty(t, mod.Unresolved)
}

func TestBuildDeclarationChain(t *testing.T) {
	mod := buildFor(t, `import { fetchUser } from "./api.ts";
const retries = 3;
function load(id) { return fetchUser(id, retries); }
export const h = (id) => { "use client"; return load(id); };`)

	assert.Contains(t, mod.Code, `import { fetchUser } from "./api.ts";`)
	assert.Contains(t, mod.Code, "const retries = 3;")
	assert.Contains(t, mod.Code, "function load(id) { return fetchUser(id, retries); }")
	assert.Empty(t, mod.Unresolved)

	// Imports precede declarations, declarations precede the export.
	imp := strings.Index(mod.Code, "import {")
	decl := strings.Index(mod.Code, "const retries")
	exp := strings.Index(mod.Code, "export default")
	assert.Less(t, imp, decl)
	assert.Less(t, decl, exp)
}

func TestBuildOnceOnlyInclusion(t *testing.T) {
	mod := buildFor(t, `const a = () => b();
const b = () => a();
export const h = () => { "use client"; a(); b(); };`)

	assert.Equal(t, 1, strings.Count(mod.Code, "const a = () => b();"))
	assert.Equal(t, 1, strings.Count(mod.Code, "const b = () => a();"))
	assert.Empty(t, mod.Unresolved)
}

func TestBuildGlobalsFiltered(t *testing.T) {
	mod := buildFor(t, `export const h = () => { "use client"; console.log(fetch, window, missing); };`)

	assert.Equal(t, []string{"missing"}, mod.Unresolved)
	assert.NotContains(t, mod.Code, "import")
}

func TestBuildInstanceGlobals(t *testing.T) {
	source := `export const h = () => { "use client"; return myRuntime.go(); };`
	file, err := parse.Parse(context.Background(), "/proj/mod.tsx", []byte(source))
	require.NoError(t, err)
	defer file.Close()

	fn := findFunc(file.Root)
	require.NotNil(t, fn)

	syn := &Synthesizer{Source: file.Source}
	assert.Equal(t, []string{"myRuntime"}, syn.Build(fn).Unresolved)

	syn.Globals = map[string]struct{}{"myRuntime": {}}
	assert.Empty(t, syn.Build(fn).Unresolved)
}

func TestBuildFunctionDeclarationHandler(t *testing.T) {
	mod := buildFor(t, `function top() { "use client"; return 1; }`)

	assert.Contains(t, mod.Code, "export default function top() { return 1; };")
}

func TestBuildKeepsTypeAnnotations(t *testing.T) {
	mod := buildFor(t, `export const h = (ev: MouseEvent): void => { "use client"; ev.preventDefault(); };`)

	assert.Contains(t, mod.Code, "(ev: MouseEvent): void =>")
	assert.Empty(t, mod.Unresolved, "type names never count as references")
}
