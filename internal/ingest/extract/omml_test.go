package extract

import (
	"encoding/xml"
	"testing"
)

func mathNode(t *testing.T, inner string) *node {
	t.Helper()
	src := `<m:oMath xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math">` +
		inner + `</m:oMath>`
	var n node
	if err := xml.Unmarshal([]byte(src), &n); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return &n
}

func TestCompileOMML(t *testing.T) {
	cases := []struct {
		name  string
		inner string
		want  string
	}{
		{
			"plain run",
			`<m:r><m:t>x+1</m:t></m:r>`,
			"x+1",
		},
		{
			"fraction",
			`<m:f><m:num><m:r><m:t>a</m:t></m:r></m:num><m:den><m:r><m:t>b</m:t></m:r></m:den></m:f>`,
			"frac(a,b)",
		},
		{
			"square root",
			`<m:rad><m:deg/><m:e><m:r><m:t>x</m:t></m:r></m:e></m:rad>`,
			"sqrt(x)",
		},
		{
			"explicit degree two is still sqrt",
			`<m:rad><m:deg><m:r><m:t>2</m:t></m:r></m:deg><m:e><m:r><m:t>x</m:t></m:r></m:e></m:rad>`,
			"sqrt(x)",
		},
		{
			"cube root",
			`<m:rad><m:deg><m:r><m:t>3</m:t></m:r></m:deg><m:e><m:r><m:t>x</m:t></m:r></m:e></m:rad>`,
			"root(3)(x)",
		},
		{
			"nested fraction under root",
			`<m:rad><m:deg/><m:e><m:f><m:num><m:r><m:t>a</m:t></m:r></m:num><m:den><m:r><m:t>b</m:t></m:r></m:den></m:f></m:e></m:rad>`,
			"sqrt(frac(a,b))",
		},
		{
			"superscript",
			`<m:sSup><m:e><m:r><m:t>x</m:t></m:r></m:e><m:sup><m:r><m:t>2</m:t></m:r></m:sup></m:sSup>`,
			"x^{2}",
		},
		{
			"subscript and superscript",
			`<m:sSubSup><m:e><m:r><m:t>x</m:t></m:r></m:e><m:sub><m:r><m:t>i</m:t></m:r></m:sub><m:sup><m:r><m:t>2</m:t></m:r></m:sup></m:sSubSup>`,
			"x_{i}^{2}",
		},
		{
			"bracket delimiter",
			`<m:d><m:dPr><m:begChr m:val="["/><m:endChr m:val="]"/></m:dPr><m:e><m:r><m:t>x</m:t></m:r></m:e></m:d>`,
			"[x]",
		},
		{
			"brace pair is a set",
			`<m:d><m:dPr><m:begChr m:val="{"/><m:endChr m:val="}"/></m:dPr><m:e><m:r><m:t>a</m:t></m:r></m:e><m:e><m:r><m:t>b</m:t></m:r></m:e></m:d>`,
			"{a,b}",
		},
		{
			"left brace alone is piecewise",
			`<m:d><m:dPr><m:begChr m:val="{"/><m:endChr m:val=""/></m:dPr><m:e><m:r><m:t>x</m:t></m:r></m:e></m:d>`,
			"cases(x)",
		},
		{
			"equation array is piecewise",
			`<m:d><m:e><m:eqArr><m:e><m:r><m:t>x, x&gt;0</m:t></m:r></m:e><m:e><m:r><m:t>-x, x&lt;0</m:t></m:r></m:e></m:eqArr></m:e></m:d>`,
			"cases(x, x>0; -x, x<0)",
		},
		{
			"nary default sum",
			`<m:nary><m:sub><m:r><m:t>i=1</m:t></m:r></m:sub><m:sup><m:r><m:t>n</m:t></m:r></m:sup><m:e><m:r><m:t>i</m:t></m:r></m:e></m:nary>`,
			"∑_{i=1}^{n}(i)",
		},
		{
			"nary integral without bounds",
			`<m:nary><m:naryPr><m:chr m:val="∫"/></m:naryPr><m:sub/><m:sup/><m:e><m:r><m:t>f(x)dx</m:t></m:r></m:e></m:nary>`,
			"∫(f(x)dx)",
		},
		{
			"overline",
			`<m:bar><m:e><m:r><m:t>z</m:t></m:r></m:e></m:bar>`,
			"overline(z)",
		},
		{
			"limit",
			`<m:limLow><m:e><m:r><m:t>lim</m:t></m:r></m:e><m:lim><m:r><m:t>x→0</m:t></m:r></m:lim></m:limLow>`,
			"lim_{x→0}(lim)",
		},
		{
			"symbol by codepoint",
			`<m:r><m:sym m:char="221A"/></m:r>`,
			"√",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CompileOMML(mathNode(t, tc.inner))
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
