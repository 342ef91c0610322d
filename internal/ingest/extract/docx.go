package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/exambank/qbank/internal/ingest/textnorm"
)

const (
	nsMain = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsMath = "http://schemas.openxmlformats.org/officeDocument/2006/math"
	nsRel  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsVML  = "urn:schemas-microsoft-com:vml"
)

// node is a generic element tree for the parts of a DOCX package we walk:
// the document body, numbering definitions and embedded OMML equations.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Kids    []node     `xml:",any"`
}

func (n *node) is(space, local string) bool {
	return n.XMLName.Local == local && (space == "" || n.XMLName.Space == space)
}

func (n *node) child(space, local string) *node {
	for i := range n.Kids {
		if n.Kids[i].is(space, local) {
			return &n.Kids[i]
		}
	}
	return nil
}

func (n *node) attr(space, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local && (space == "" || a.Name.Space == space) {
			return a.Value
		}
	}
	return ""
}

// findDescendant returns the first descendant matching space/local in
// document order, or nil.
func (n *node) findDescendant(space, local string) *node {
	for i := range n.Kids {
		k := &n.Kids[i]
		if k.is(space, local) {
			return k
		}
		if d := k.findDescendant(space, local); d != nil {
			return d
		}
	}
	return nil
}

// DOCX walks the main document part in document order (paragraphs and
// table cells), emitting emphasis-marked text, linearized math, numbering
// labels and image placeholders.
func DOCX(data []byte) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open container: %w", err)
	}
	parts := map[string]*zip.File{}
	for _, f := range zr.File {
		parts[f.Name] = f
	}

	docXML, err := readPart(parts, "word/document.xml")
	if err != nil {
		return Result{}, errors.New("missing word/document.xml")
	}
	var doc node
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return Result{}, fmt.Errorf("parse document.xml: %w", err)
	}
	body := doc.child(nsMain, "body")
	if body == nil {
		return Result{}, errors.New("document has no body")
	}

	w := &docxWalker{
		parts: parts,
		rels:  parseRels(parts),
		num:   parseNumbering(parts),
		out:   &strings.Builder{},
	}
	for i := range body.Kids {
		w.block(&body.Kids[i])
	}
	return Result{Text: w.out.String(), Images: w.images}, nil
}

func readPart(parts map[string]*zip.File, name string) ([]byte, error) {
	f, ok := parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseRels maps relationship ids to their media targets.
func parseRels(parts map[string]*zip.File) map[string]string {
	out := map[string]string{}
	raw, err := readPart(parts, "word/_rels/document.xml.rels")
	if err != nil {
		return out
	}
	var rels node
	if err := xml.Unmarshal(raw, &rels); err != nil {
		return out
	}
	for i := range rels.Kids {
		r := &rels.Kids[i]
		if r.XMLName.Local != "Relationship" {
			continue
		}
		id, target := r.attr("", "Id"), r.attr("", "Target")
		if id != "" && target != "" {
			out[id] = target
		}
	}
	return out
}

type docxWalker struct {
	parts  map[string]*zip.File
	rels   map[string]string
	num    *numberingDefs
	out    *strings.Builder
	images [][]byte
}

// block handles a body-level element: a paragraph or a table walked
// row-by-row, cell-by-cell.
func (w *docxWalker) block(n *node) {
	switch {
	case n.is(nsMain, "p"):
		w.paragraph(n)
	case n.is(nsMain, "tbl"):
		for i := range n.Kids {
			row := &n.Kids[i]
			if !row.is(nsMain, "tr") {
				continue
			}
			for j := range row.Kids {
				cell := &row.Kids[j]
				if !cell.is(nsMain, "tc") {
					continue
				}
				for k := range cell.Kids {
					w.block(&cell.Kids[k])
				}
			}
		}
	}
}

func (w *docxWalker) paragraph(p *node) {
	if label := w.numberingLabel(p); label != "" {
		w.out.WriteString(label)
		w.out.WriteByte(' ')
	}
	for i := range p.Kids {
		w.traverse(&p.Kids[i])
	}
	w.out.WriteByte('\n')
}

// traverse renders one node in reading order. Emphasis (bold, non-auto
// color, highlight) wraps the run in {hl}...{/hl}; the parser later uses
// that as a weak answer-key signal.
func (w *docxWalker) traverse(n *node) {
	// Math subtrees are compiled to linear notation before generic
	// recursion would tear them apart.
	if n.XMLName.Space == nsMath && (n.XMLName.Local == "oMath" || n.XMLName.Local == "oMathPara") {
		s := CompileOMML(n)
		if strings.TrimSpace(s) == "" {
			s = collectMathText(n)
		}
		w.out.WriteString(s)
		return
	}

	switch {
	case n.is(nsMain, "r"):
		w.run(n)
		return
	case n.is(nsMain, "t"):
		v := textnorm.NormalizeHard(n.Text)
		w.out.WriteString(textnorm.FoldSuperSubRuns(v))
		return
	case n.is(nsMain, "br"), n.is(nsMain, "cr"):
		w.out.WriteByte('\n')
		return
	case n.is(nsMain, "tab"):
		w.out.WriteByte(' ')
		return
	case n.is(nsMain, "drawing"):
		if blip := n.findDescendant("", "blip"); blip != nil {
			w.emitImage(blip.attr(nsRel, "embed"))
		}
		return
	case n.is(nsVML, "imagedata"):
		rid := n.attr(nsRel, "id")
		if rid == "" {
			rid = n.attr("", "id")
		}
		w.emitImage(rid)
		return
	}

	for i := range n.Kids {
		w.traverse(&n.Kids[i])
	}
}

func (w *docxWalker) run(r *node) {
	var emph, sup, sub bool
	if pr := r.child(nsMain, "rPr"); pr != nil {
		bold := flagOn(pr.child(nsMain, "b")) || flagOn(pr.child(nsMain, "bCs"))
		colored := false
		if c := pr.child(nsMain, "color"); c != nil {
			v := c.attr(nsMain, "val")
			colored = v != "" && !strings.EqualFold(v, "auto")
		}
		highlighted := false
		if h := pr.child(nsMain, "highlight"); h != nil {
			v := h.attr(nsMain, "val")
			highlighted = v != "" && !strings.EqualFold(v, "none")
		}
		emph = bold || colored || highlighted
		if va := pr.child(nsMain, "vertAlign"); va != nil {
			switch strings.ToLower(va.attr(nsMain, "val")) {
			case "superscript":
				sup = true
			case "subscript":
				sub = true
			}
		}
	}

	saved := w.out
	var tmp strings.Builder
	w.out = &tmp
	for i := range r.Kids {
		if r.Kids[i].is(nsMain, "rPr") {
			continue
		}
		w.traverse(&r.Kids[i])
	}
	w.out = saved

	text := tmp.String()
	if text == "" {
		return
	}
	switch {
	case sup:
		text = "^{" + text + "}"
	case sub:
		text = "_{" + text + "}"
	}
	if emph {
		w.out.WriteString("{hl}")
		w.out.WriteString(text)
		w.out.WriteString("{/hl}")
	} else {
		w.out.WriteString(text)
	}
}

// flagOn implements OOXML boolean semantics: present means on unless the
// val attribute explicitly disables it.
func flagOn(n *node) bool {
	if n == nil {
		return false
	}
	switch strings.ToLower(n.attr(nsMain, "val")) {
	case "false", "0", "none", "off":
		return false
	}
	return true
}

// emitImage resolves a relationship id to a media part, converts it to PNG
// and appends a placeholder. Unresolvable or unconvertible media is
// skipped silently.
func (w *docxWalker) emitImage(rid string) {
	if rid == "" {
		return
	}
	target, ok := w.rels[rid]
	if !ok {
		return
	}
	target = strings.TrimPrefix(target, "/")
	raw, err := readPart(w.parts, "word/"+target)
	if err != nil {
		if raw, err = readPart(w.parts, target); err != nil {
			return
		}
	}
	buf, ok := toPNG(target, raw)
	if !ok {
		return
	}
	if img, err := png.Decode(bytes.NewReader(buf)); err == nil && (tooSmall(img) || nearlyBlank(img)) {
		return
	}
	w.images = append(w.images, buf)
	w.out.WriteString(Placeholder(len(w.images)))
}

// collectMathText is the fallback when OMML compilation yields nothing:
// concatenate the raw math text runs.
func collectMathText(n *node) string {
	var b strings.Builder
	var walk func(*node)
	walk = func(m *node) {
		if m.is(nsMath, "t") {
			b.WriteString(m.Text)
			return
		}
		for i := range m.Kids {
			walk(&m.Kids[i])
		}
	}
	walk(n)
	s := textnorm.RemapPUA(b.String())
	s = textnorm.NormalizePreserveNewlines(s)
	return textnorm.FoldSuperSubRuns(s)
}
