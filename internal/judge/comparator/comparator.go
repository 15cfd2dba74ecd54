// Package comparator normalizes and compares program output against the
// expected output of a test case. It is pure and deterministic: equal
// inputs always yield equal verdicts.
package comparator

import "strings"

// Options control output normalization.
type Options struct {
	// TrimOutputs strips trailing whitespace from the whole text and from
	// each individual line.
	TrimOutputs bool
	// NormalizeWhitespace collapses runs of horizontal whitespace to one
	// space per line.
	NormalizeWhitespace bool
	// CaseSensitive keeps letter case significant.
	CaseSensitive bool
}

// DefaultOptions returns the grading defaults.
func DefaultOptions() Options {
	return Options{
		TrimOutputs:         true,
		NormalizeWhitespace: false,
		CaseSensitive:       true,
	}
}

// Result holds the comparison outcome with both normalized forms.
type Result struct {
	Match              bool
	NormalizedActual   string
	NormalizedExpected string
}

// Compare normalizes both texts under opts and reports exact equality of
// the normalized forms. Any input string is valid.
func Compare(actual, expected string, opts Options) Result {
	normalizedActual := Normalize(actual, opts)
	normalizedExpected := Normalize(expected, opts)
	return Result{
		Match:              normalizedActual == normalizedExpected,
		NormalizedActual:   normalizedActual,
		NormalizedExpected: normalizedExpected,
	}
}

// Normalize applies the configured normalization rules to one text.
// Normalizing an already-normalized string is a no-op.
func Normalize(text string, opts Options) string {
	// Line-ending style must never cause a mismatch.
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if opts.TrimOutputs {
		text = strings.TrimRight(text, " \t\n\r")
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if opts.NormalizeWhitespace {
			line = collapseHorizontalWhitespace(line)
		}
		if !opts.CaseSensitive {
			line = strings.ToLower(line)
		}
		if opts.TrimOutputs {
			line = strings.TrimRight(line, " \t\r")
		}
		lines[i] = line
	}

	return strings.Join(lines, "\n")
}

func collapseHorizontalWhitespace(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	inRun := false
	for _, r := range line {
		if r == ' ' || r == '\t' {
			inRun = true
			continue
		}
		if inRun {
			b.WriteByte(' ')
			inRun = false
		}
		b.WriteRune(r)
	}
	if inRun {
		b.WriteByte(' ')
	}
	return b.String()
}
