package textnorm

import "strings"

// puaRemap maps known private-use-area codepoints left behind by Symbol /
// Wingdings font runs in Office exports to their real Unicode equivalents.
// The Symbol font maps its glyphs at 0xF000 + original byte. Unknown PUA
// codepoints are replaced with a space rather than emitted as tofu.
var puaRemap = map[rune]string{
	'\uF020': " ",
	'\uF022': "∀",
	'\uF024': "∃",
	'\uF028': "(",
	'\uF029': ")",
	'\uF02B': "+",
	'\uF02D': "−",
	'\uF03D': "=",
	'\uF047': "Γ",
	'\uF04C': "Λ",
	'\uF051': "Θ",
	'\uF053': "Σ",
	'\uF057': "Ω",
	'\uF059': "Ψ",
	'\uF05B': "[",
	'\uF05D': "]",
	'\uF06A': "φ",
	'\uF06D': "μ",
	'\uF070': "π",
	'\uF072': "ρ",
	'\uF073': "σ",
	'\uF074': "τ",
	'\uF0A2': "′",
	'\uF0A3': "≤",
	'\uF0A5': "∞",
	'\uF0AB': "↔",
	'\uF0AE': "→",
	'\uF0B1': "±",
	'\uF0B2': "″",
	'\uF0B3': "≥",
	'\uF0B4': "×",
	'\uF0B5': "∝",
	'\uF0B8': "÷",
	'\uF0BA': "≡",
	'\uF0BB': "≈",
	'\uF0C6': "∅",
	'\uF0C7': "∩",
	'\uF0C8': "∪",
	'\uF0C9': "⊃",
	'\uF0CA': "⊇",
	'\uF0CC': "⊂",
	'\uF0CD': "⊆",
	'\uF0CE': "∈",
	'\uF0CF': "∉",
	'\uF0D0': "∠",
	'\uF0D6': "√",
	'\uF0D8': "¬",
	'\uF0D9': "∧",
	'\uF0DA': "∨",
	'\uF0DB': "⇔",
	'\uF0DC': "⇐",
	'\uF0DE': "⇒",
	'\uF0FB': "✗",
	'\uF0FC': "✓",
}

// RemapPUA replaces symbol-font PUA codepoints with real Unicode math
// symbols. Any other private-use codepoint becomes a single space.
func RemapPUA(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := puaRemap[r]; ok {
			b.WriteString(rep)
			continue
		}
		if r >= 0xE000 && r <= 0xF8FF {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
