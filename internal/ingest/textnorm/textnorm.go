// Package textnorm holds the string transforms applied between extraction
// and segmentation. Every exported function is idempotent: the pipeline
// normalizes at several points and must tolerate re-application.
package textnorm

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Superscript/subscript characters with a known ASCII base. Runs of these
// fold into ^{...}/_{...}. Characters outside these tables are left alone
// so nothing is silently dropped.
var supBase = map[rune]rune{
	'⁰': '0', '¹': '1', '²': '2', '³': '3', '⁴': '4',
	'⁵': '5', '⁶': '6', '⁷': '7', '⁸': '8', '⁹': '9',
	'⁺': '+', '⁻': '-', '⁼': '=', '⁽': '(', '⁾': ')',
	'ᵃ': 'a', 'ᵇ': 'b', 'ᶜ': 'c', 'ᵈ': 'd', 'ᵉ': 'e',
	'ᶠ': 'f', 'ᵍ': 'g', 'ʰ': 'h', 'ⁱ': 'i', 'ʲ': 'j',
	'ᵏ': 'k', 'ˡ': 'l', 'ᵐ': 'm', 'ⁿ': 'n', 'ᵒ': 'o',
	'ᵖ': 'p', 'ʳ': 'r', 'ˢ': 's', 'ᵗ': 't', 'ᵘ': 'u',
	'ᵛ': 'v', 'ʷ': 'w', 'ˣ': 'x', 'ʸ': 'y', 'ᶻ': 'z',
	'ᴬ': 'A', 'ᴮ': 'B', 'ᴰ': 'D', 'ᴱ': 'E', 'ᴳ': 'G',
	'ᴴ': 'H', 'ᴵ': 'I', 'ᴶ': 'J', 'ᴷ': 'K', 'ᴸ': 'L',
	'ᴹ': 'M', 'ᴺ': 'N', 'ᴼ': 'O', 'ᴾ': 'P', 'ᴿ': 'R',
	'ᵀ': 'T', 'ᵁ': 'U', 'ᵂ': 'W',
}

var subBase = map[rune]rune{
	'₀': '0', '₁': '1', '₂': '2', '₃': '3', '₄': '4',
	'₅': '5', '₆': '6', '₇': '7', '₈': '8', '₉': '9',
	'₊': '+', '₋': '-', '₌': '=', '₍': '(', '₎': ')',
	'ₐ': 'a', 'ₑ': 'e', 'ₒ': 'o', 'ₓ': 'x',
	'ₕ': 'h', 'ₖ': 'k', 'ₗ': 'l', 'ₘ': 'm',
	'ₙ': 'n', 'ₚ': 'p', 'ₛ': 's', 'ₜ': 't',
}

var (
	supRun = regexp.MustCompile("[" + classOf(supBase) + "]+")
	subRun = regexp.MustCompile("[" + classOf(subBase) + "]+")
)

// classOf builds a regexp character class from the table keys. Restricting
// the run patterns to mappable characters keeps folding idempotent: folded
// output contains no character the patterns can match again.
func classOf(m map[rune]rune) string {
	rs := make([]rune, 0, len(m))
	for r := range m {
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })
	return string(rs)
}

// FoldSuperSubRuns wraps maximal runs of superscript/subscript characters
// in ^{...}/_{...}, mapping each character to its ASCII base.
func FoldSuperSubRuns(s string) string {
	if s == "" {
		return s
	}
	s = supRun.ReplaceAllStringFunc(s, func(run string) string {
		return "^{" + mapRun(run, supBase) + "}"
	})
	s = subRun.ReplaceAllStringFunc(s, func(run string) string {
		return "_{" + mapRun(run, subBase) + "}"
	})
	return s
}

func mapRun(run string, m map[rune]rune) string {
	var b strings.Builder
	b.Grow(len(run))
	for _, r := range run {
		if base, ok := m[r]; ok {
			b.WriteRune(base)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var (
	spaceVariants = strings.NewReplacer(
		"\u00A0", " ", // no-break space
		"\u2007", " ", // figure space
		"\u202F", " ", // narrow no-break space
		"\u2000", " ", "\u2001", " ", "\u2002", " ", "\u2003", " ",
		"\u2004", " ", "\u2005", " ", "\u2006", " ", "\u2008", " ",
		"\u2009", " ", "\u200A", " ",
	)
	invisible = strings.NewReplacer(
		"\u200B", "", // zero width space
		"\u200C", "", // zero width non-joiner
		"\u200D", "", // zero width joiner
		"\uFEFF", "", // BOM
		"\u00AD", "", // soft hyphen
		"\u0085", "", // next line
		"\u2028", "", // line separator
		"\u2029", "", // paragraph separator
	)
	zeroWidth = strings.NewReplacer(
		"\u200B", "", "\u200C", "", "\u200D", "", "\uFEFF", "", "\u00AD", "",
	)

	tabLike       = regexp.MustCompile("[\t\v\f\u00A0]+")
	spaceAroundNL = regexp.MustCompile(` *\n *`)
	multiSpace    = regexp.MustCompile(`  +`)
)

// NormalizeHard is the final-storage normalization: PUA remap, whitespace
// variants to ASCII space, invisible characters stripped, NFKC.
func NormalizeHard(s string) string {
	t := RemapPUA(s)
	t = spaceVariants.Replace(t)
	t = invisible.Replace(t)
	return norm.NFKC.String(t)
}

// NormalizePreserveNewlines canonicalizes line endings and collapses
// horizontal whitespace without touching '\n'.
func NormalizePreserveNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = tabLike.ReplaceAllString(s, " ")
	s = spaceAroundNL.ReplaceAllString(s, "\n")
	s = multiSpace.ReplaceAllString(s, " ")
	return s
}

// NormalizeSoft cleans math-heavy text without NFKC (which would mangle
// notation punctuation): PUA remap, newline-preserving whitespace cleanup,
// zero-width strip, then super/subscript run folding.
func NormalizeSoft(s string) string {
	t := RemapPUA(s)
	t = NormalizePreserveNewlines(t)
	t = zeroWidth.Replace(t)
	return FoldSuperSubRuns(t)
}
