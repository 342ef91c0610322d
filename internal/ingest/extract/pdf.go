package extract

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/exambank/qbank/internal/ingest/textnorm"
)

// Vertical tolerances in PDF user-space units.
const (
	lineClusterTol = 5.0 // fragments within this of a line anchor join the line
	scriptOffset   = 2.0 // baseline delta marking super/subscript characters
	imageLineEPS   = 1.5 // slack when matching an image to its anchor line
)

// PDF extracts text with basic layout (line order, super/subscript folding)
// plus embedded raster images anchored to the nearest text line. When the
// text layer looks like a scan artifact the whole document goes through OCR
// instead.
func PDF(data []byte, ocr OCRConfig) (Result, error) {
	pages, textErr := nativePages(data)
	images, tokens := collectImages(data)
	merged := postNormalize(mergePages(pages, tokens))

	if looksLikeScanned(merged) {
		ocrText, ocrErr := ocr.PDFText(data)
		if ocrErr == nil {
			return Result{Text: postNormalize(ocrText), Images: images}, nil
		}
		if textErr != nil {
			return Result{}, fmt.Errorf("text layer unreadable and ocr failed: %w", ocrErr)
		}
	}
	if textErr != nil && len(images) == 0 {
		return Result{}, textErr
	}
	return Result{Text: merged, Images: images}, nil
}

/* ----- native text layer ----- */

type frag struct {
	x, y, w float64
	size    float64
	s       string
}

type textLine struct {
	y    float64 // mean baseline
	text string
}

// nativePages reads the positioned text layer page by page. Each page's
// fragments are clustered into lines top to bottom; characters riding above
// or below the line baseline fold into ^{}/_{} markers.
func nativePages(data []byte) ([][]textLine, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	var pages [][]textLine
	for pageNr := 1; pageNr <= r.NumPage(); pageNr++ {
		p := r.Page(pageNr)
		if p.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, pageTextLines(p))
	}
	return pages, nil
}

func pageTextLines(p pdf.Page) []textLine {
	content := p.Content()
	frags := make([]frag, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		frags = append(frags, frag{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	if len(frags) == 0 {
		return nil
	}

	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].y != frags[j].y {
			return frags[i].y > frags[j].y // top of page first
		}
		return frags[i].x < frags[j].x
	})

	var lines []textLine
	var cur []frag
	anchor := frags[0].y
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, renderLine(cur))
			cur = cur[:0]
		}
	}
	for _, f := range frags {
		if anchor-f.y > lineClusterTol {
			flush()
			anchor = f.y
		}
		cur = append(cur, f)
	}
	flush()
	return lines
}

// renderLine orders a line's fragments left to right and folds characters
// offset from the mean baseline into superscript/subscript notation.
func renderLine(frags []frag) textLine {
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].x < frags[j].x })

	var base float64
	for _, f := range frags {
		base += f.y
	}
	base /= float64(len(frags))

	var b strings.Builder
	prevEnd := -1.0
	for _, f := range frags {
		if prevEnd >= 0 {
			gap := f.x - prevEnd
			min := f.size * 0.2
			if min < 1.0 {
				min = 1.0
			}
			if gap > min {
				b.WriteByte(' ')
			}
		}
		prevEnd = f.x + f.w

		dy := f.y - base
		switch {
		case dy > scriptOffset:
			b.WriteString("^{" + f.s + "}")
		case dy < -scriptOffset:
			b.WriteString("_{" + f.s + "}")
		default:
			b.WriteString(f.s)
		}
	}
	return textLine{y: base, text: b.String()}
}

/* ----- embedded images ----- */

type imageToken struct {
	index int // 1-based placeholder index
	page  int // 0-based
	y     float64
	known bool // y position resolved from the content stream
}

// collectImages pulls raster XObjects page by page, converts them to PNG,
// filters decorative and blank ones, and resolves each image's y position
// from the page content stream where possible.
func collectImages(data []byte) ([][]byte, []imageToken) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, nil
	}

	var images [][]byte
	var tokens []imageToken
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		objNrs := pdfcpu.ImageObjNrs(ctx, pageNr)
		if len(objNrs) == 0 {
			continue
		}
		extracted, err := pdfcpu.ExtractPageImages(ctx, pageNr, false)
		if err != nil {
			continue
		}
		positions := drawPositions(ctx, pageNr)

		keys := make([]int, 0, len(extracted))
		for k := range extracted {
			keys = append(keys, k)
		}
		sort.Ints(keys)

		// Pair extraction order with draw order only when they line up;
		// otherwise images keep document order without a y anchor.
		usePos := len(positions) == len(keys)
		for i, k := range keys {
			raw, err := io.ReadAll(extracted[k])
			if err != nil {
				continue
			}
			img, _, err := image.Decode(bytes.NewReader(raw))
			if err != nil {
				continue
			}
			if tooSmall(img) || nearlyBlank(img) {
				continue
			}
			png, ok := encodePNG(img)
			if !ok {
				continue
			}
			images = append(images, png)
			tok := imageToken{index: len(images), page: pageNr - 1}
			if usePos {
				tok.y = positions[i]
				tok.known = true
			}
			tokens = append(tokens, tok)
		}
	}
	return images, tokens
}

var numberTok = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// drawPositions scans a page's content stream tracking the q/Q/cm graphics
// state and returns the CTM translate-y at each XObject draw, in draw order.
func drawPositions(ctx *model.Context, pageNr int) []float64 {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil
	}

	type matrix [6]float64
	ctm := matrix{1, 0, 0, 1, 0, 0}
	var stack []matrix
	var operands []float64
	var ys []float64

	for _, tok := range strings.Fields(string(data)) {
		if numberTok.MatchString(tok) {
			v, _ := strconv.ParseFloat(tok, 64)
			operands = append(operands, v)
			if len(operands) > 6 {
				operands = operands[1:]
			}
			continue
		}
		switch tok {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if n := len(stack); n > 0 {
				ctm = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			if len(operands) == 6 {
				m := matrix{operands[0], operands[1], operands[2], operands[3], operands[4], operands[5]}
				ctm = matrix{
					m[0]*ctm[0] + m[1]*ctm[2],
					m[0]*ctm[1] + m[1]*ctm[3],
					m[2]*ctm[0] + m[3]*ctm[2],
					m[2]*ctm[1] + m[3]*ctm[3],
					m[4]*ctm[0] + m[5]*ctm[2] + ctm[4],
					m[4]*ctm[1] + m[5]*ctm[3] + ctm[5],
				}
			}
		case "Do":
			ys = append(ys, ctm[5])
		}
		operands = operands[:0]
	}
	return ys
}

/* ----- placeholder merge ----- */

// mergePages interleaves image placeholders with the text lines. A
// positioned image lands after the first line at or below it; an image
// higher than every line, or one without a resolved position, lands after
// the page's first line.
func mergePages(pages [][]textLine, tokens []imageToken) string {
	byPage := map[int][]imageToken{}
	maxPage := len(pages) - 1
	for _, t := range tokens {
		byPage[t.page] = append(byPage[t.page], t)
		if t.page > maxPage {
			maxPage = t.page
		}
	}

	var out strings.Builder
	for p := 0; p <= maxPage; p++ {
		var lines []textLine
		if p < len(pages) {
			lines = pages[p]
		}
		imgs := byPage[p]

		if len(lines) == 0 {
			sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].y > imgs[j].y })
			for _, im := range imgs {
				out.WriteString(Placeholder(im.index))
				out.WriteByte('\n')
			}
			continue
		}

		after := make([][]int, len(lines))
		sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].y > imgs[j].y })
		for _, im := range imgs {
			target := 0
			if im.known {
				for i := range lines {
					if lines[i].y <= im.y+imageLineEPS {
						target = i
						break
					}
				}
			}
			after[target] = append(after[target], im.index)
		}
		for i, ln := range lines {
			out.WriteString(ln.text)
			out.WriteByte('\n')
			for _, idx := range after[i] {
				out.WriteString(Placeholder(idx))
				out.WriteByte('\n')
			}
		}
		out.WriteByte('\n')
	}
	return out.String()
}

/* ----- cleanup & scan heuristic ----- */

var (
	trailingSpaceNL = regexp.MustCompile(` +\n`)
	manyNewlines    = regexp.MustCompile(`\n{3,}`)
)

func postNormalize(s string) string {
	s = trailingSpaceNL.ReplaceAllString(s, "\n")
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	s = textnorm.NormalizeSoft(s)
	return strings.TrimSpace(s)
}

const goodPunct = ".,;:!?()[]{}+-=×÷/%°’'\"–—… \n"

// looksLikeScanned flags a text layer that is too short or too garbled to
// trust, which usually means the PDF is a scan with broken or missing text.
func looksLikeScanned(t string) bool {
	runes := []rune(t)
	if len(runes) < 200 {
		return true
	}
	good := 0
	for _, c := range runes {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || strings.ContainsRune(goodPunct, c) {
			good++
		}
	}
	return float64(good)/float64(len(runes)) < 0.6
}
