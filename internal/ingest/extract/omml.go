package extract

import (
	"strconv"
	"strings"

	"github.com/exambank/qbank/internal/ingest/textnorm"
)

// CompileOMML linearizes an Office Math (OMML) subtree into the compact
// notation stored with questions: frac(a,b), sqrt(x), root(n)(x), a_{i}^{2},
// cases(line1; line2), overline(x), ∑_{lo}^{hi}(e). Unrecognized constructs
// degrade to the concatenation of their children, so text is never lost.
func CompileOMML(n *node) string {
	s := strings.TrimSpace(walkMath(n))
	s = textnorm.RemapPUA(s)
	s = textnorm.NormalizePreserveNewlines(s)
	return textnorm.FoldSuperSubRuns(s)
}

func walkMath(n *node) string {
	if n == nil {
		return ""
	}
	switch n.XMLName.Local {
	case "oMath", "oMathPara":
		return walkMathKids(n)

	case "t":
		return n.Text

	case "chr":
		return mathVal(n, "val")

	case "sym":
		hex := mathVal(n, "char")
		cp, err := strconv.ParseInt(hex, 16, 32)
		if err != nil {
			return ""
		}
		return string(rune(cp))

	case "f":
		num := strings.TrimSpace(walkMathKids(n.child(nsMath, "num")))
		den := strings.TrimSpace(walkMathKids(n.child(nsMath, "den")))
		return "frac(" + num + "," + den + ")"

	case "rad":
		body := walkMathKids(n.child(nsMath, "e"))
		deg := strings.TrimSpace(walkMathKids(n.child(nsMath, "deg")))
		if deg == "" || deg == "2" {
			return "sqrt(" + body + ")"
		}
		return "root(" + deg + ")(" + body + ")"

	case "sSup":
		return walkMathKids(n.child(nsMath, "e")) + "^{" + walkMathKids(n.child(nsMath, "sup")) + "}"
	case "sSub":
		return walkMathKids(n.child(nsMath, "e")) + "_{" + walkMathKids(n.child(nsMath, "sub")) + "}"
	case "sSubSup":
		return walkMathKids(n.child(nsMath, "e")) +
			"_{" + walkMathKids(n.child(nsMath, "sub")) + "}" +
			"^{" + walkMathKids(n.child(nsMath, "sup")) + "}"

	case "d":
		return walkDelimiter(n)

	case "nary":
		op := narySymbol(n)
		lo := walkMathKids(n.child(nsMath, "sub"))
		hi := walkMathKids(n.child(nsMath, "sup"))
		e := walkMathKids(n.child(nsMath, "e"))
		var b strings.Builder
		b.WriteString(op)
		if strings.TrimSpace(lo) != "" {
			b.WriteString("_{" + lo + "}")
		}
		if strings.TrimSpace(hi) != "" {
			b.WriteString("^{" + hi + "}")
		}
		b.WriteString("(" + e + ")")
		return b.String()

	case "bar":
		return "overline(" + walkMathKids(n.child(nsMath, "e")) + ")"
	case "box", "groupChr":
		return "(" + walkMathKids(n.child(nsMath, "e")) + ")"

	case "limLow":
		return "lim_{" + walkMathKids(n.child(nsMath, "lim")) + "}(" + walkMathKids(n.child(nsMath, "e")) + ")"
	case "limUpp":
		return "lim^{" + walkMathKids(n.child(nsMath, "lim")) + "}(" + walkMathKids(n.child(nsMath, "e")) + ")"

	default:
		return walkMathKids(n)
	}
}

func walkMathKids(n *node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for i := range n.Kids {
		b.WriteString(walkMath(&n.Kids[i]))
	}
	return b.String()
}

// walkDelimiter handles m:d. A left curly brace or an equation array inside
// means a piecewise definition, rendered as cases(...). Otherwise the
// declared bracket pair wraps the joined arguments.
func walkDelimiter(n *node) string {
	beg, end := "", ""
	if pr := n.child(nsMath, "dPr"); pr != nil {
		if c := pr.child(nsMath, "begChr"); c != nil {
			beg = mathVal(c, "val")
		}
		if c := pr.child(nsMath, "endChr"); c != nil {
			end = mathVal(c, "val")
		}
	}

	var args []string
	var eqArr *node
	for i := range n.Kids {
		k := &n.Kids[i]
		if !k.is(nsMath, "e") {
			continue
		}
		args = append(args, walkMathKids(k))
		if eqArr == nil {
			eqArr = k.child(nsMath, "eqArr")
		}
	}
	inside := strings.Join(args, ",")

	if beg == "{" && end == "}" {
		return "{" + inside + "}"
	}

	if isLeftCurly(beg) || eqArr != nil {
		var lines []string
		if eqArr != nil {
			for i := range eqArr.Kids {
				k := &eqArr.Kids[i]
				if k.is(nsMath, "e") {
					lines = append(lines, strings.TrimSpace(walkMathKids(k)))
				}
			}
		} else {
			for _, l := range strings.Split(inside, "\n") {
				if s := strings.TrimSpace(l); s != "" {
					lines = append(lines, s)
				}
			}
		}
		return "cases(" + strings.Join(lines, "; ") + ")"
	}

	if beg == "" && end == "" {
		return inside
	}
	if beg == "" {
		beg = "("
	}
	if end == "" {
		end = ")"
	}
	return beg + inside + end
}

// isLeftCurly also accepts the stretched-brace pieces U+23A7..U+23A9 that
// some producers emit instead of a plain brace.
func isLeftCurly(s string) bool {
	switch s {
	case "{", "⎧", "⎨", "⎩":
		return true
	}
	return false
}

func narySymbol(n *node) string {
	if pr := n.child(nsMath, "naryPr"); pr != nil {
		if c := pr.child(nsMath, "chr"); c != nil {
			if v := mathVal(c, "val"); v != "" {
				return v
			}
		}
	}
	return "∑"
}

// mathVal reads an m-namespaced attribute, tolerating producers that omit
// the namespace prefix.
func mathVal(n *node, name string) string {
	if v := n.attr(nsMath, name); v != "" {
		return v
	}
	return n.attr("", name)
}
