package comparator_test

import (
	"testing"

	"judgegate/internal/judge/comparator"
)

func TestCompareTrimsTrailingNewline(t *testing.T) {
	t.Parallel()
	res := comparator.Compare("3\n", "3", comparator.DefaultOptions())
	if !res.Match {
		t.Fatalf("expected match, got normalized actual %q expected %q", res.NormalizedActual, res.NormalizedExpected)
	}
}

func TestCompareCRLFInvariance(t *testing.T) {
	t.Parallel()
	res := comparator.Compare("x\r\n", "x\n", comparator.DefaultOptions())
	if !res.Match {
		t.Fatalf("expected CRLF and LF to match, got %q vs %q", res.NormalizedActual, res.NormalizedExpected)
	}
}

func TestCompareTrailingWhitespacePerLine(t *testing.T) {
	t.Parallel()
	res := comparator.Compare("a  \nb\t\n", "a\nb", comparator.DefaultOptions())
	if !res.Match {
		t.Fatalf("expected per-line trailing whitespace to be ignored, got %q vs %q", res.NormalizedActual, res.NormalizedExpected)
	}
}

func TestCompareIsCaseSensitiveByDefault(t *testing.T) {
	t.Parallel()
	if res := comparator.Compare("Hello", "hello", comparator.DefaultOptions()); res.Match {
		t.Fatal("expected case-sensitive mismatch")
	}

	opts := comparator.DefaultOptions()
	opts.CaseSensitive = false
	if res := comparator.Compare("Hello", "hello", opts); !res.Match {
		t.Fatal("expected case-insensitive match")
	}
}

func TestCompareNormalizeWhitespace(t *testing.T) {
	t.Parallel()
	opts := comparator.DefaultOptions()
	opts.NormalizeWhitespace = true
	res := comparator.Compare("1   2\t3", "1 2 3", opts)
	if !res.Match {
		t.Fatalf("expected collapsed whitespace to match, got %q vs %q", res.NormalizedActual, res.NormalizedExpected)
	}
}

func TestCompareWithoutTrim(t *testing.T) {
	t.Parallel()
	opts := comparator.Options{TrimOutputs: false, CaseSensitive: true}
	if res := comparator.Compare("3\n", "3", opts); res.Match {
		t.Fatal("expected trailing newline to matter when trimming is off")
	}
}

func TestCompareIsCommutative(t *testing.T) {
	t.Parallel()
	pairs := [][2]string{
		{"a\r\nb", "a\nb"},
		{"x ", "x"},
		{"1 2", "3"},
		{"", "\n"},
	}
	for _, opts := range []comparator.Options{
		comparator.DefaultOptions(),
		{NormalizeWhitespace: true},
		{TrimOutputs: true, NormalizeWhitespace: true, CaseSensitive: false},
	} {
		for _, pair := range pairs {
			ab := comparator.Compare(pair[0], pair[1], opts)
			ba := comparator.Compare(pair[1], pair[0], opts)
			if ab.Match != ba.Match {
				t.Fatalf("compare not commutative for %q/%q with %+v", pair[0], pair[1], opts)
			}
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"a  \r\nb\t\ncc \n\n",
		"  leading\n",
		"MiXeD case\twith\ttabs",
		"",
	}
	for _, opts := range []comparator.Options{
		comparator.DefaultOptions(),
		{NormalizeWhitespace: true},
		{TrimOutputs: true, NormalizeWhitespace: true, CaseSensitive: false},
	} {
		for _, input := range inputs {
			once := comparator.Normalize(input, opts)
			twice := comparator.Normalize(once, opts)
			if once != twice {
				t.Fatalf("normalize not idempotent for %q with %+v: %q != %q", input, opts, once, twice)
			}
		}
	}
}

func TestCompareAnyInputIsValid(t *testing.T) {
	t.Parallel()
	// Binary junk and lone carriage returns must not panic or error.
	res := comparator.Compare("\x00\xff\r", "\r\r\n", comparator.DefaultOptions())
	if res.Match {
		t.Fatal("expected mismatch for unrelated binary inputs")
	}
}
