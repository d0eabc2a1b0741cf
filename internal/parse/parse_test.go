package parse

import (
	"context"
	"errors"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestParse(t *testing.T) {
	file, err := Parse(context.Background(), "/proj/app.tsx", []byte(`const x = <div>{label}</div>;`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	defer file.Close()

	if file.Root.Type() != "program" {
		t.Errorf("root type = %q, want program", file.Root.Type())
	}
	if file.Root.NamedChildCount() == 0 {
		t.Error("expected at least one statement")
	}
}

func TestParseFailure(t *testing.T) {
	_, err := Parse(context.Background(), "/proj/bad.ts", []byte(`const = = {`))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var pf *ParseFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("error type = %T, want *ParseFailedError", err)
	}
	if pf.ID != "/proj/bad.ts" {
		t.Errorf("error ID = %q", pf.ID)
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := Parse(context.Background(), "/proj/bin.ts", []byte{0xff, 0xfe, 'a'})
	var pf *ParseFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("error = %v, want *ParseFailedError", err)
	}
}

func TestFirstTokenOffset(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"plain", "const x = 1;", 0},
		{"leading whitespace", "\n\n  const x = 1;", 4},
		{"line comment", "// hi\nconst x = 1;", 6},
		{"block comment", "/* a */ const x = 1;", 8},
		{"shebang", "#!/usr/bin/env node\nconst x = 1;", 20},
		{"bom", "\xef\xbb\xbfconst x = 1;", 3},
		{"only trivia", "// nothing\n", 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstTokenOffset([]byte(tt.src)); got != tt.want {
				t.Errorf("FirstTokenOffset(%q) = %d, want %d", tt.src, got, tt.want)
			}
		})
	}
}

func TestTrimForStatement(t *testing.T) {
	tests := []struct {
		name string
		src  string
		sp   Span
		want int
	}{
		{"bare", "function f() {}", Span{0, 15}, 15},
		{"trailing whitespace", "function f() {}  \n", Span{0, 15}, 18},
		{"semicolon", "function f() {};", Span{0, 15}, 16},
		{"semicolon then whitespace", "function f() {}; next", Span{0, 15}, 17},
		{"only one semicolon", "function f() {};;", Span{0, 15}, 16},
		{"stops at content", "function f() {} next", Span{0, 15}, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimForStatement([]byte(tt.src), tt.sp)
			if got.End != tt.want {
				t.Errorf("TrimForStatement end = %d, want %d", got.End, tt.want)
			}
			if got.Start != tt.sp.Start {
				t.Errorf("TrimForStatement moved start to %d", got.Start)
			}
		})
	}
}

func TestOffsetsMultiByte(t *testing.T) {
	src := []byte(`const label = "café"; const next = 1;`)
	off := NewOffsets(src)

	for i := 0; i <= len(src); i++ {
		clamped := off.Clamp(i)
		if !off.OnBoundary(clamped) {
			t.Errorf("Clamp(%d) = %d is not on a boundary", i, clamped)
		}
	}
	if off.Clamp(-5) != 0 {
		t.Error("negative positions clamp to 0")
	}
	if off.Clamp(len(src)+10) != len(src) {
		t.Error("past-the-end positions clamp to len")
	}
}

func TestOffsetsLineCol(t *testing.T) {
	off := NewOffsets([]byte("ab\ncd\n\nefg"))
	tests := []struct {
		pos       int
		line, col int
	}{
		{0, 0, 0},
		{1, 0, 1},
		{3, 1, 0},
		{4, 1, 1},
		{6, 2, 0},
		{7, 3, 0},
		{9, 3, 2},
	}
	for _, tt := range tests {
		line, col := off.LineCol(tt.pos)
		if line != tt.line || col != tt.col {
			t.Errorf("LineCol(%d) = (%d,%d), want (%d,%d)", tt.pos, line, col, tt.line, tt.col)
		}
	}
}

func TestWidenParens(t *testing.T) {
	file, err := Parse(context.Background(), "/proj/w.ts", []byte(`const f = ((() => { return 1; }));`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	defer file.Close()

	arrow := findKind(file.Root, "arrow_function")
	if arrow == nil {
		t.Fatal("no arrow function")
	}
	widened := WidenParens(arrow)
	if widened.Type() != "parenthesized_expression" {
		t.Fatalf("widened type = %q", widened.Type())
	}
	if got := file.Text(widened); got != "((() => { return 1; }))" {
		t.Errorf("widened text = %q", got)
	}
}

func findKind(n *sitter.Node, kind string) *sitter.Node {
	if n.Type() == kind {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := findKind(n.NamedChild(i), kind); found != nil {
			return found
		}
	}
	return nil
}
