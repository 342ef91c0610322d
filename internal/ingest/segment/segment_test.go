package segment_test

import (
	"strings"
	"testing"

	"github.com/exambank/qbank/internal/ingest/segment"
)

func TestSegmentBasic(t *testing.T) {
	doc := "Câu 1: First question?\nA. one\nB. two\n" +
		"Câu 2: Second question?\nsome body\n"
	chunks := segment.Segment(doc)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %#v", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0].Text, "Câu 1") {
		t.Errorf("chunk 0 = %q", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, "Câu 2") {
		t.Errorf("chunk 1 = %q", chunks[1].Text)
	}
	if chunks[0].Chapter != 0 || chunks[1].Chapter != 0 {
		t.Errorf("chapters = %d,%d, want 0,0", chunks[0].Chapter, chunks[1].Chapter)
	}
}

func TestSegmentChapters(t *testing.T) {
	doc := "Chương 1: Đại số\n" +
		"Câu 1: q one\n" +
		"Câu 2: q two\n" +
		"Chương 2: Hình học\n" +
		"Câu 3: q three\n"
	chunks := segment.Segment(doc)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %#v", len(chunks), chunks)
	}
	wantChap := []int{1, 1, 2}
	for i, c := range chunks {
		if c.Chapter != wantChap[i] {
			t.Errorf("chunk %d chapter = %d, want %d", i, c.Chapter, wantChap[i])
		}
	}
}

// Text before the first question header is a title page; it must not
// produce a chunk.
func TestSegmentDropsPreamble(t *testing.T) {
	doc := "TRƯỜNG ĐẠI HỌC BÁCH KHOA\nĐỀ THI GIỮA KỲ\n\nCâu 1: real question\n"
	chunks := segment.Segment(doc)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %#v", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0].Text, "Câu 1") {
		t.Errorf("chunk = %q", chunks[0].Text)
	}
}

func TestSegmentInlineHeaders(t *testing.T) {
	doc := "Câu 1: first body Câu 2: second body\n"
	chunks := segment.Segment(doc)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %#v", len(chunks), chunks)
	}
	if strings.Contains(chunks[0].Text, "second") {
		t.Errorf("chunk 0 leaked into next question: %q", chunks[0].Text)
	}
}

func TestSegmentEmphasizedHeader(t *testing.T) {
	doc := "{hl}Câu 1:{/hl} body one\nCâu 2: body two\n"
	chunks := segment.Segment(doc)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %#v", len(chunks), chunks)
	}
}

func TestSegmentNumericHeaders(t *testing.T) {
	doc := "1. first question\nfiller line\n2. second question\n"
	chunks := segment.Segment(doc)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %#v", len(chunks), chunks)
	}
}

func TestCompactHighlightMarkers(t *testing.T) {
	cases := []struct{ in, want string }{
		{"{hl}a{/hl}{hl}b{/hl}", "{hl}ab{/hl}"},
		{"{hl}{hl}x{/hl}{/hl}", "{hl}x{/hl}"},
		{"{hl}{/hl}", ""},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := segment.CompactHighlightMarkers(tc.in); got != tc.want {
			t.Errorf("CompactHighlightMarkers(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripHeader(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Câu 1: What is x?", "What is x?"},
		{"{hl}Câu 2.{/hl} Emphasized head", "Emphasized head"},
		{"No header here", "No header here"},
	}
	for _, tc := range cases {
		if got := segment.StripHeader(tc.in); got != tc.want {
			t.Errorf("StripHeader(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAnswerCut(t *testing.T) {
	body, ans, found := segment.AnswerCut("What is 1+1?\nA. 1\nB. 2\nĐáp án: B\ntrailing junk")
	if !found {
		t.Fatal("answer label not found")
	}
	if ans != "B" {
		t.Errorf("answer = %q, want B", ans)
	}
	if strings.Contains(body, "Đáp án") || strings.Contains(body, "trailing") {
		t.Errorf("body still carries answer section: %q", body)
	}
}

func TestAnswerCutAbsent(t *testing.T) {
	body, _, found := segment.AnswerCut("no label in sight")
	if found || body != "no label in sight" {
		t.Fatalf("found=%v body=%q", found, body)
	}
}

func TestExtractOptions(t *testing.T) {
	body := "A. one\nB. two\nC. three\nD. four"
	spans := segment.ExtractOptions(body)
	if len(spans) != 4 {
		t.Fatalf("got %d spans, want 4", len(spans))
	}
	want := []string{"one", "two", "three", "four"}
	for i, sp := range spans {
		if sp.Value != want[i] {
			t.Errorf("span %d = %q, want %q", i, sp.Value, want[i])
		}
		if sp.Emphasized {
			t.Errorf("span %d unexpectedly emphasized", i)
		}
	}
}

func TestExtractOptionsEmphasis(t *testing.T) {
	body := "A. one\n{hl}B.{/hl} two\nC. three\nD. four"
	spans := segment.ExtractOptions(body)
	if len(spans) != 4 {
		t.Fatalf("got %d spans, want 4: %#v", len(spans), spans)
	}
	if !spans[1].Emphasized {
		t.Error("span B should be emphasized")
	}
	if got := segment.StripInlineMarkers(spans[1].Value); strings.TrimSpace(got) != "two" {
		t.Errorf("span B value = %q", got)
	}
}

// Lowercase enumeration "a) ... b) ..." is essay structure, not options.
func TestExtractOptionsIgnoresLowercase(t *testing.T) {
	body := "a) first part\nb) second part"
	if spans := segment.ExtractOptions(body); len(spans) != 0 {
		t.Fatalf("got %d spans, want 0: %#v", len(spans), spans)
	}
}

func TestBreakOptionsInline(t *testing.T) {
	in := "What is x? A. 1 B. 2 C. 3 D. 4"
	out := segment.BreakOptionsInline(in)
	spans := segment.ExtractOptions(out)
	if len(spans) != 4 {
		t.Fatalf("got %d spans after break, want 4: %q", len(spans), out)
	}
}

func TestLooksLikeLetterhead(t *testing.T) {
	if !segment.LooksLikeLetterhead("BỘ GIÁO DỤC VÀ ĐÀO TẠO\nTRƯỜNG THPT X") {
		t.Error("ministry letterhead not detected")
	}
	if segment.LooksLikeLetterhead("Câu 1: tính đạo hàm của f(x)") {
		t.Error("question misread as letterhead")
	}
}
