package extract

import (
	"archive/zip"
	"encoding/xml"
	"strconv"
	"strings"
)

// maxListDepth matches Word's nine list indentation levels.
const maxListDepth = 9

type levelDef struct {
	start   int
	numFmt  string
	lvlText string
}

// numberingDefs holds the declarations from word/numbering.xml plus the
// live counter state. Word stores rendered list labels nowhere in the
// document part; we replay the counters in document order.
type numberingDefs struct {
	numToAbstract map[string]string
	levels        map[string]map[int]levelDef // abstractNumId -> ilvl
	counters      map[string]*[maxListDepth]int
}

func parseNumbering(parts map[string]*zip.File) *numberingDefs {
	defs := &numberingDefs{
		numToAbstract: map[string]string{},
		levels:        map[string]map[int]levelDef{},
		counters:      map[string]*[maxListDepth]int{},
	}
	raw, err := readPart(parts, "word/numbering.xml")
	if err != nil {
		return defs
	}
	var root node
	if err := xml.Unmarshal(raw, &root); err != nil {
		return defs
	}
	for i := range root.Kids {
		k := &root.Kids[i]
		switch {
		case k.is(nsMain, "abstractNum"):
			absID := k.attr(nsMain, "abstractNumId")
			lvls := map[int]levelDef{}
			for j := range k.Kids {
				lvl := &k.Kids[j]
				if !lvl.is(nsMain, "lvl") {
					continue
				}
				ilvl, err := strconv.Atoi(lvl.attr(nsMain, "ilvl"))
				if err != nil || ilvl < 0 || ilvl >= maxListDepth {
					continue
				}
				def := levelDef{start: 1, numFmt: "decimal", lvlText: "%" + strconv.Itoa(ilvl+1) + "."}
				if s := lvl.child(nsMain, "start"); s != nil {
					if v, err := strconv.Atoi(s.attr(nsMain, "val")); err == nil {
						def.start = v
					}
				}
				if f := lvl.child(nsMain, "numFmt"); f != nil {
					def.numFmt = f.attr(nsMain, "val")
				}
				if t := lvl.child(nsMain, "lvlText"); t != nil {
					if v := t.attr(nsMain, "val"); v != "" {
						def.lvlText = v
					}
				}
				lvls[ilvl] = def
			}
			defs.levels[absID] = lvls
		case k.is(nsMain, "num"):
			numID := k.attr(nsMain, "numId")
			if a := k.child(nsMain, "abstractNumId"); a != nil {
				defs.numToAbstract[numID] = a.attr(nsMain, "val")
			}
		}
	}
	return defs
}

// numberingLabel renders and advances the list label for a numbered
// paragraph, or returns "" for plain paragraphs.
func (w *docxWalker) numberingLabel(p *node) string {
	pPr := p.child(nsMain, "pPr")
	if pPr == nil {
		return ""
	}
	numPr := pPr.child(nsMain, "numPr")
	if numPr == nil {
		return ""
	}
	numID := ""
	if n := numPr.child(nsMain, "numId"); n != nil {
		numID = n.attr(nsMain, "val")
	}
	if numID == "" || numID == "0" {
		return ""
	}
	ilvl := 0
	if n := numPr.child(nsMain, "ilvl"); n != nil {
		if v, err := strconv.Atoi(n.attr(nsMain, "val")); err == nil && v >= 0 && v < maxListDepth {
			ilvl = v
		}
	}
	return w.num.label(numID, ilvl)
}

func (d *numberingDefs) label(numID string, ilvl int) string {
	absID, ok := d.numToAbstract[numID]
	if !ok {
		absID = numID
	}
	def, ok := d.levels[absID][ilvl]
	if !ok {
		def = levelDef{start: 1, numFmt: "decimal", lvlText: "%" + strconv.Itoa(ilvl+1) + "."}
	}
	if def.numFmt == "bullet" {
		return "•"
	}

	ctrs, ok := d.counters[numID]
	if !ok {
		ctrs = &[maxListDepth]int{}
		d.counters[numID] = ctrs
	}
	if ctrs[ilvl] == 0 {
		ctrs[ilvl] = def.start
	} else {
		ctrs[ilvl]++
	}
	for i := ilvl + 1; i < maxListDepth; i++ {
		ctrs[i] = 0
	}

	text := def.lvlText
	for i := 0; i < maxListDepth; i++ {
		ph := "%" + strconv.Itoa(i+1)
		if !strings.Contains(text, ph) {
			continue
		}
		v := ctrs[i]
		if v == 0 {
			v = 1
		}
		lvl := d.levels[absID][i]
		if lvl.numFmt == "" {
			lvl.numFmt = "decimal"
		}
		text = strings.ReplaceAll(text, ph, formatCounter(v, lvl.numFmt))
	}
	return text
}

func formatCounter(n int, numFmt string) string {
	if n < 1 {
		n = 1
	}
	switch numFmt {
	case "lowerLetter":
		return toAlpha(n)
	case "upperLetter":
		return strings.ToUpper(toAlpha(n))
	case "lowerRoman":
		return strings.ToLower(toRoman(n))
	case "upperRoman":
		return toRoman(n)
	default:
		return strconv.Itoa(n)
	}
}

// toAlpha renders 1->a, 26->z, 27->aa (Word's letter sequence).
func toAlpha(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

var romanVals = []struct {
	v int
	s string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func toRoman(n int) string {
	var b strings.Builder
	for _, rv := range romanVals {
		for n >= rv.v {
			b.WriteString(rv.s)
			n -= rv.v
		}
	}
	return b.String()
}
