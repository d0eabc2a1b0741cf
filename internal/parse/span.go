package parse

import (
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// Span is a half-open byte range [Start, End) into the source.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Valid reports whether the span is a sane non-empty range within src.
func (s Span) Valid(src []byte) bool {
	return 0 <= s.Start && s.Start < s.End && s.End <= len(src)
}

// NodeSpan returns the byte range of a tree-sitter node.
func NodeSpan(n *sitter.Node) Span {
	return Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// WidenParens returns the node whose source range should be replaced when
// replacing expr. A handler written as (() => { ... }) sits under a
// parenthesized_expression; replacing only the inner function would leave
// an empty () pair behind, so the wrapper is consumed as well. Nested
// wrappers collapse too.
func WidenParens(expr *sitter.Node) *sitter.Node {
	n := expr
	for {
		parent := n.Parent()
		if parent == nil || parent.Type() != "parenthesized_expression" {
			return n
		}
		n = parent
	}
}

// TrimForStatement extends the right edge of a span over trailing
// whitespace and at most one semicolon (plus any whitespace after it).
// Statement-form replacements supply their own terminator, so consuming
// the original one keeps the rewritten source well-formed.
func TrimForStatement(src []byte, sp Span) Span {
	end := sp.End
	end = skipWhitespace(src, end)
	if end < len(src) && src[end] == ';' {
		end++
		end = skipWhitespace(src, end)
	}
	sp.End = end
	return sp
}

func skipWhitespace(src []byte, pos int) int {
	for pos < len(src) {
		switch src[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// Offsets provides defensive boundary checks and line/column mapping over
// a source text. Parser offsets and splice offsets share the same byte
// space, so mapping is validation rather than conversion; a span that
// lands inside a multi-byte sequence indicates a bug upstream and feeds
// the internal span error path.
type Offsets struct {
	src        []byte
	lineStarts []int
}

// NewOffsets precomputes line starts for src.
func NewOffsets(src []byte) *Offsets {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Offsets{src: src, lineStarts: starts}
}

// Clamp restricts pos to [0, len(src)] and backs it up to the nearest
// rune boundary.
func (o *Offsets) Clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(o.src) {
		return len(o.src)
	}
	for pos > 0 && pos < len(o.src) && !utf8.RuneStart(o.src[pos]) {
		pos--
	}
	return pos
}

// OnBoundary reports whether pos is a valid splice point: inside the text
// and not in the middle of a multi-byte rune.
func (o *Offsets) OnBoundary(pos int) bool {
	if pos < 0 || pos > len(o.src) {
		return false
	}
	return pos == len(o.src) || utf8.RuneStart(o.src[pos])
}

// LineCol converts a byte position to 0-based line and column via binary
// search over the precomputed line starts.
func (o *Offsets) LineCol(pos int) (line, col int) {
	lo, hi := 0, len(o.lineStarts)
	for lo < hi {
		mid := (lo + hi) / 2
		if o.lineStarts[mid] > pos {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	line = lo - 1
	if line < 0 {
		line = 0
	}
	col = pos - o.lineStarts[line]
	return
}

// FirstTokenOffset returns the byte offset of the first real token in
// src, skipping a BOM, a shebang line, whitespace and comments. Used by
// the directive fast path.
func FirstTokenOffset(src []byte) int {
	pos := 0
	if len(src) >= 3 && src[0] == 0xEF && src[1] == 0xBB && src[2] == 0xBF {
		pos = 3
	}
	if len(src) >= pos+2 && src[pos] == '#' && src[pos+1] == '!' {
		for pos < len(src) && src[pos] != '\n' {
			pos++
		}
	}
	for pos < len(src) {
		switch {
		case src[pos] == ' ' || src[pos] == '\t' || src[pos] == '\n' || src[pos] == '\r':
			pos++
		case pos+1 < len(src) && src[pos] == '/' && src[pos+1] == '/':
			for pos < len(src) && src[pos] != '\n' {
				pos++
			}
		case pos+1 < len(src) && src[pos] == '/' && src[pos+1] == '*':
			pos += 2
			for pos+1 < len(src) && !(src[pos] == '*' && src[pos+1] == '/') {
				pos++
			}
			if pos+1 < len(src) {
				pos += 2
			} else {
				pos = len(src)
			}
		default:
			return pos
		}
	}
	return pos
}
