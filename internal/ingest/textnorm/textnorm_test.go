package textnorm_test

import (
	"testing"

	"github.com/exambank/qbank/internal/ingest/textnorm"
)

func TestNormalizeHard(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii untouched", "x + y = z", "x + y = z"},
		{"nbsp to space", "a b", "a b"},
		{"zero width stripped", "a​b\uFEFFc", "abc"},
		{"soft hyphen stripped", "vec­tor", "vector"},
		{"pua square root", "x", "√x"},
		{"pua plus", "ab", "a+b"},
		{"unknown pua becomes space", "ab", "a b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := textnorm.NormalizeHard(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizeHard(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizePreserveNewlines(t *testing.T) {
	in := "a\tb  c \r\n d\re"
	want := "a b c\nd\ne"
	if got := textnorm.NormalizePreserveNewlines(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFoldSuperSubRuns(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x²", "x^{2}"},
		{"x²³", "x^{23}"},
		{"H₂O", "H_{2}O"},
		{"a⁺ b₋", "a^{+} b_{-}"},
		{"no scripts here", "no scripts here"},
	}
	for _, tc := range cases {
		if got := textnorm.FoldSuperSubRuns(tc.in); got != tc.want {
			t.Errorf("FoldSuperSubRuns(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// Re-application must be a no-op: the pipeline normalizes at several stages.
func TestIdempotence(t *testing.T) {
	inputs := []string{
		"Câu 1: x² + y₂ = z",
		"a b​c\r\nd\t e",
		"f(x) = ∑ xₙ",
	}
	for _, in := range inputs {
		for name, f := range map[string]func(string) string{
			"NormalizeHard":             textnorm.NormalizeHard,
			"NormalizePreserveNewlines": textnorm.NormalizePreserveNewlines,
			"NormalizeSoft":             textnorm.NormalizeSoft,
		} {
			once := f(in)
			twice := f(once)
			if once != twice {
				t.Errorf("%s not idempotent on %q: %q != %q", name, in, once, twice)
			}
		}
	}
}
