package transform

import (
	"fmt"
	"sort"

	"github.com/apexfn/useclient/internal/parse"
)

// Replacement is one planned splice: the bytes in [Start, End) are
// dropped and Text goes in their place.
type Replacement struct {
	Start int
	End   int
	Text  string
}

// urlExpr is the runtime expression spliced where a handler stood. The
// host expands the reference token into the emitted asset's URL constant
// after bundling.
func urlExpr(refToken string) string {
	return "new URL(import.meta." + refToken + ").pathname"
}

// PlanReplacement builds the replacement for one handler given the
// host-issued reference token. Expression handlers become the bare URL
// expression (their statement context survives untouched); statement
// forms replace the whole declaration, trimmed across its trailing
// whitespace and semicolon, with a rebinding that keeps the exported
// surface intact.
func PlanReplacement(src []byte, h *Handler, refToken string) Replacement {
	u := urlExpr(refToken)

	switch h.Form {
	case FormExpression:
		sp := parse.NodeSpan(parse.WidenParens(h.Node))
		return Replacement{Start: sp.Start, End: sp.End, Text: u}

	case FormDeclaration:
		sp := parse.TrimForStatement(src, parse.NodeSpan(h.Node))
		return Replacement{Start: sp.Start, End: sp.End, Text: "const " + h.Name + " = " + u + ";"}

	case FormExportedDeclaration:
		sp := parse.TrimForStatement(src, parse.NodeSpan(h.Parent))
		return Replacement{Start: sp.Start, End: sp.End, Text: "export const " + h.Name + " = " + u + ";"}

	case FormDefaultNamed:
		sp := parse.TrimForStatement(src, parse.NodeSpan(h.Parent))
		if h.Name == "" {
			return Replacement{Start: sp.Start, End: sp.End, Text: "export default " + u + ";"}
		}
		return Replacement{
			Start: sp.Start,
			End:   sp.End,
			Text:  "const " + h.Name + " = " + u + "; export default " + h.Name + ";",
		}
	}

	sp := parse.NodeSpan(h.Node)
	return Replacement{Start: sp.Start, End: sp.End, Text: u}
}

// ApplyReplacements splices the planned replacements into src. Planning
// guarantees non-overlapping ranges; applying right-to-left keeps every
// earlier offset valid.
func ApplyReplacements(src []byte, reps []Replacement) []byte {
	sorted := append([]Replacement(nil), reps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	out := append([]byte(nil), src...)
	for _, r := range sorted {
		spliced := make([]byte, 0, len(out)+len(r.Text)-(r.End-r.Start))
		spliced = append(spliced, out[:r.Start]...)
		spliced = append(spliced, r.Text...)
		spliced = append(spliced, out[r.End:]...)
		out = spliced
	}
	return out
}

// validateSpan guards the splice against a malformed range: out of
// bounds, empty after trimming, or landing inside a multi-byte sequence.
// A failure here skips the handler rather than corrupting the module.
func validateSpan(off *parse.Offsets, src []byte, r Replacement) error {
	sp := parse.Span{Start: r.Start, End: r.End}
	if !sp.Valid(src) {
		return fmt.Errorf("replacement span %d..%d out of range (len %d)", r.Start, r.End, len(src))
	}
	if !off.OnBoundary(r.Start) || !off.OnBoundary(r.End) {
		return fmt.Errorf("replacement span %d..%d not on a character boundary", r.Start, r.End)
	}
	return nil
}
