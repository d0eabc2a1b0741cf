// Package parse wraps tree-sitter parsing of TypeScript/TSX sources and
// provides the span arithmetic the rewriting pipeline depends on. All
// positions are byte offsets into the original UTF-8 source; the same
// offsets are used for slicing and splicing, so no separate index
// conversion is needed.
package parse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ParseFailedError reports a source that could not be parsed as a TS/TSX
// module. The policy engine decides whether it is fatal.
type ParseFailedError struct {
	ID     string
	Reason string
}

func (e *ParseFailedError) Error() string {
	return fmt.Sprintf("[use-client] failed to parse %s: %s", e.ID, e.Reason)
}

// File is a parsed source module. Close releases the tree-sitter tree.
type File struct {
	ID     string // canonical absolute path
	Source []byte
	Tree   *sitter.Tree
	Root   *sitter.Node
}

// Parse parses source as a TS or TSX module depending on the file
// extension of id. JSX-capable grammars are used for .tsx and .jsx.
func Parse(ctx context.Context, id string, source []byte) (*File, error) {
	if !utf8.Valid(source) {
		return nil, &ParseFailedError{ID: id, Reason: "source is not valid UTF-8"}
	}

	parser := sitter.NewParser()
	switch strings.ToLower(filepath.Ext(stripQuery(id))) {
	case ".tsx", ".jsx":
		parser.SetLanguage(tsx.GetLanguage())
	default:
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseFailedError{ID: id, Reason: err.Error()}
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, &ParseFailedError{ID: id, Reason: "parser returned no tree"}
	}
	if root.HasError() {
		tree.Close()
		return nil, &ParseFailedError{ID: id, Reason: "source contains syntax errors"}
	}

	return &File{ID: id, Source: source, Tree: tree, Root: root}, nil
}

// Close releases the underlying tree. The File must not be used afterwards.
func (f *File) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Text returns the verbatim source slice covered by n.
func (f *File) Text(n *sitter.Node) string {
	return string(f.Source[n.StartByte():n.EndByte()])
}

func stripQuery(id string) string {
	if i := strings.IndexByte(id, '?'); i >= 0 {
		return id[:i]
	}
	return id
}
