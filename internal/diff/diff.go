// Package diff renders character-level title diffs for the audit channel.
// Runs of characters present on only one side are wrapped in <b><u> spans;
// the wrapped text itself is never altered, so stripping the markup
// recovers the input exactly.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	openMark  = "<b><u>"
	closeMark = "</u></b>"
)

// Render aligns old against new and returns both strings with their
// exclusive runs marked. Equal inputs come back unmarked. Alignment is
// case-insensitive so that a recapitalized word anchors the match
// instead of showing up as a spurious delete/insert pair.
func Render(old, new string) (string, string) {
	a := splitChars(old)
	b := splitChars(new)

	opcodes := difflib.NewMatcher(foldCase(a), foldCase(b)).GetOpCodes()

	markedOld := mark(a, opcodes, func(op difflib.OpCode) (int, int, bool) {
		return op.I1, op.I2, op.Tag == 'd' || op.Tag == 'r'
	})
	markedNew := mark(b, opcodes, func(op difflib.OpCode) (int, int, bool) {
		return op.J1, op.J2, op.Tag == 'i' || op.Tag == 'r'
	})

	return markedOld, markedNew
}

// mark rebuilds one side of the alignment, wrapping maximal runs of
// side-exclusive characters in a single span. Adjacent marked opcodes
// merge into one span.
func mark(chars []string, opcodes []difflib.OpCode, side func(difflib.OpCode) (int, int, bool)) string {
	var out strings.Builder
	var run strings.Builder

	flush := func() {
		if run.Len() > 0 {
			out.WriteString(openMark)
			out.WriteString(run.String())
			out.WriteString(closeMark)
			run.Reset()
		}
	}

	for _, op := range opcodes {
		lo, hi, marked := side(op)
		seg := strings.Join(chars[lo:hi], "")
		if seg == "" {
			continue
		}
		if marked {
			run.WriteString(seg)
		} else {
			flush()
			out.WriteString(seg)
		}
	}
	flush()

	return out.String()
}

func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}

func foldCase(chars []string) []string {
	folded := make([]string, len(chars))
	for i, c := range chars {
		folded[i] = strings.ToLower(c)
	}
	return folded
}
