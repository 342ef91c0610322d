package extract_test

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/exambank/qbank/internal/ingest/extract"
)

func buildDocx(t *testing.T, parts map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range parts {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// testPNG renders a 40x40 gradient: large enough to pass the size filter and
// varied enough to pass the blank filter.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 6), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

const docHeader = `<w:document ` +
	`xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`

func TestDOCXText(t *testing.T) {
	doc := docHeader + `<w:body>` +
		`<w:p><w:r><w:t>Câu 1: pick </w:t></w:r>` +
		`<w:r><w:rPr><w:b/></w:rPr><w:t>this</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>x</w:t></w:r>` +
		`<w:r><w:rPr><w:vertAlign w:val="superscript"/></w:rPr><w:t>2</w:t></w:r></w:p>` +
		`<w:p><m:oMath><m:f><m:num><m:r><m:t>a</m:t></m:r></m:num>` +
		`<m:den><m:r><m:t>b</m:t></m:r></m:den></m:f></m:oMath></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell text</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:body></w:document>`

	data := buildDocx(t, map[string][]byte{
		"word/document.xml": []byte(doc),
	})
	res, err := extract.DOCX(data)
	if err != nil {
		t.Fatalf("DOCX: %v", err)
	}
	for _, want := range []string{
		"Câu 1: pick {hl}this{/hl}",
		"x^{2}",
		"frac(a,b)",
		"cell text",
	} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("text missing %q:\n%s", want, res.Text)
		}
	}
}

func TestDOCXBoldOffIsNotEmphasis(t *testing.T) {
	doc := docHeader + `<w:body>` +
		`<w:p><w:r><w:rPr><w:b w:val="false"/></w:rPr><w:t>plain</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	data := buildDocx(t, map[string][]byte{"word/document.xml": []byte(doc)})
	res, err := extract.DOCX(data)
	if err != nil {
		t.Fatalf("DOCX: %v", err)
	}
	if strings.Contains(res.Text, "{hl}") {
		t.Errorf("disabled bold still emphasized: %q", res.Text)
	}
}

func TestDOCXImages(t *testing.T) {
	doc := docHeader + `<w:body>` +
		`<w:p><w:r><w:t>see figure </w:t></w:r>` +
		`<w:r><w:drawing><a:blip r:embed="rId1"/></w:drawing></w:r></w:p>` +
		`</w:body></w:document>`
	rels := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="image" Target="media/image1.png"/></Relationships>`

	data := buildDocx(t, map[string][]byte{
		"word/document.xml":            []byte(doc),
		"word/_rels/document.xml.rels": []byte(rels),
		"word/media/image1.png":        testPNG(t),
	})
	res, err := extract.DOCX(data)
	if err != nil {
		t.Fatalf("DOCX: %v", err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("got %d images, want 1", len(res.Images))
	}
	if !strings.Contains(res.Text, "see figure {{image1}}") {
		t.Errorf("placeholder missing: %q", res.Text)
	}
	img, err := png.Decode(bytes.NewReader(res.Images[0]))
	if err != nil {
		t.Fatalf("stored image is not png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Errorf("image bounds = %v", b)
	}
}

func TestDOCXNumbering(t *testing.T) {
	numbering := `<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:abstractNum w:abstractNumId="0">` +
		`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="decimal"/><w:lvlText w:val="Câu %1."/></w:lvl>` +
		`</w:abstractNum>` +
		`<w:num w:numId="5"><w:abstractNumId w:val="0"/></w:num>` +
		`</w:numbering>`
	numPara := func(text string) string {
		return `<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="5"/></w:numPr></w:pPr>` +
			`<w:r><w:t>` + text + `</w:t></w:r></w:p>`
	}
	doc := docHeader + `<w:body>` +
		numPara("first question") +
		numPara("second question") +
		`<w:p><w:r><w:t>unnumbered</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	data := buildDocx(t, map[string][]byte{
		"word/document.xml":  []byte(doc),
		"word/numbering.xml": []byte(numbering),
	})
	res, err := extract.DOCX(data)
	if err != nil {
		t.Fatalf("DOCX: %v", err)
	}
	for _, want := range []string{"Câu 1. first question", "Câu 2. second question"} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("text missing %q:\n%s", want, res.Text)
		}
	}
	if strings.Contains(res.Text, "Câu 3.") {
		t.Errorf("unnumbered paragraph got a label:\n%s", res.Text)
	}
}

func TestDocumentDispatch(t *testing.T) {
	if _, err := extract.Document([]byte("x"), "notes.txt"); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if _, err := extract.Document([]byte("not a zip"), "bank.docx"); err == nil {
		t.Fatal("expected extraction error for corrupt docx")
	}
}
