// Package segment splits a normalized document text stream into
// chapter-scoped question chunks. Header recognition tolerates the {hl}
// emphasis markers the extractor leaves around bold or highlighted runs.
package segment

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/exambank/qbank/internal/ingest/textnorm"
)

// hl matches any run of emphasis markers, open or close, with trailing
// whitespace. Headers may have markers wedged between every token.
const hl = `(?:\{/?hl\}\s*)*`

// Numeric header cores: "12." or hierarchical "1.2" / "1.2.3" with an
// optional trailing dot.
const (
	numSimpleDot = `\d{1,3}\.`
	numHier      = `\d{1,3}(?:\.[1-9]?\d){1,2}\.?`
	numAny       = `(?:` + numSimpleDot + `|` + numHier + `)`
)

// headerCore recognizes "Câu 1:", "Question 2.", "Bài số 3 -", "Q5)", and
// bare numeric headers like "12." or "1.2".
const headerCore = `(?:` +
	hl + `(?:question|câu\s?hỏi|câu|bài)` + hl + `\s*(?:số)?` + hl + `\s*\d+(?:\.\d+)*` + hl + `\s*[:.)\-]?` +
	`|` +
	hl + `q` + hl + `[.:\-]?` + hl + `\s*\d+` + hl + `\s*[:.)\-]?` +
	`|` +
	hl + `(?:` + hl + `)?` + numAny + `(?:` + hl + `)?(?:` + hl + `[.)\-:]` + hl + `\s*|\s+)` +
	`)`

// headerBreakCore is the word/"q" branches only; bare numbers are too
// ambiguous to break lines on mid-sentence.
const headerBreakCore = `(?:` +
	hl + `(?:question|câu\s?hỏi|câu|bài)` + hl + `\s*(?:số)?` + hl + `\s*\d+(?:\.\d+)*` + hl + `\s*[:.)\-]?` +
	`|` +
	hl + `q` + hl + `[.:\-]?` + hl + `\s*\d+` + hl + `\s*[:.)\-]?` +
	`)`

const answerCore = hl + `(?:đáp\s*án|answer|giải\s*thích|gợi\s*ý)`

const chapterCore = hl + `(?:chương|chuong|chapter)` + hl + `\s*(?:số)?` + hl + `\s*(\d+)` + hl + `\s*[:.)\-]?`

var (
	headerLineRe  = regexp.MustCompile(`(?im)^[ \t]*` + headerCore)
	chapterLineRe = regexp.MustCompile(`(?im)^[ \t]*` + chapterCore + `.*$`)

	answerLabelRe = regexp.MustCompile(`(?im)^[ \t]*(` + answerCore + `)\s*[:\-]?\s*(.+)$`)

	// Option heads are case sensitive: lowercase "a)" enumeration inside
	// essay answers must not register.
	optHeadRe = regexp.MustCompile(`(?m)^[ \t]*(?:\{hl\}\s*)?([A-D])[ \t]*[.)](?:[ \t]*\{/hl\})?[ \t]*`)

	numHeaderLineRe = regexp.MustCompile(`^[ \t]*(?:` +
		`(?:` + hl + `)?` + numAny + `(?:` + hl + `)?` + hl + `[.)\-:]` + hl + `\s*` +
		`|` +
		`(?:` + hl + `)?` + numAny + `(?:` + hl + `)?\s+` +
		`)`)

	sectionHeadingRe = regexp.MustCompile(`(?i)^(?:chương|chuong|chapter|mục|muc|phần|phan|câu\s*hỏi\s*loại)\b`)

	// Institutional letterhead vocabulary, with and without diacritics.
	letterheadRe = regexp.MustCompile(`(?is)\b(` +
		`CỘNG\s+HÒA|CONG\s+HOA|` +
		`XÃ\s+HỘI|XA\s+HOI|` +
		`ĐỘC\s+LẬP|DOC\s+LAP|` +
		`BỘ\s+GIÁO\s+DỤC|BO\s+GIAO\s+DUC|` +
		`TRƯỜNG|TRUONG|KHOA\b|KHOÁ\b|KHOA\s+HỌC|` +
		`ĐỀ\s+THI|DE\s+THI|MÔN\s+HỌC|MON\s+HOC|` +
		`SỞ\s+GD|SO\s+GD|PHÒNG\s+GD|PHONG\s+GD` +
		`)\b`)

	inlineMarkerRe = regexp.MustCompile(`\{/?[a-z]+\}`)

	hlClose2   = regexp.MustCompile(`(?:\{/hl\}){2,}`)
	hlOpen2    = regexp.MustCompile(`(?:\{hl\}){2,}`)
	leadingCls = regexp.MustCompile(`^\s*\{/hl\}\s*`)
)

// Chunk is one raw question block with the chapter it was found under.
// Chapter 0 means no chapter header preceded the block.
type Chunk struct {
	Chapter int
	Text    string
}

// Prepare runs the pre-segmentation passes: newline-preserving
// normalization, marker compaction, then inline break insertion so headers
// buried mid-line land on their own line.
func Prepare(full string) string {
	s := textnorm.NormalizePreserveNewlines(full)
	s = CompactHighlightMarkers(s)
	s = BreakChapterInline(s)
	s = BreakHeaderAnswerInline(s)
	return s
}

// Segment splits prepared text into per-question chunks. Text before the
// first chapter header is kept only if it contains a question header;
// otherwise it is letterhead or a title page and is dropped.
func Segment(full string) []Chunk {
	s := Prepare(full)

	var chunks []Chunk
	chapter := 0
	for _, chapRaw := range splitAt(s, chapterLineRe) {
		chap := strings.TrimSpace(chapRaw)
		if chap == "" {
			continue
		}
		if n, ok := ChapterNumber(chap); ok {
			chapter = n
			chap = StripChapterHeader(chap)
			chap = removeSectionHeadingLines(chap)
			chap = cutPrelude(chap)
		} else {
			loc := headerLineRe.FindStringIndex(chap)
			if loc == nil {
				continue
			}
			chap = strings.TrimSpace(chap[loc[0]:])
		}
		for _, raw := range splitAt(chap, headerLineRe) {
			block := strings.TrimSpace(raw)
			if block == "" {
				continue
			}
			chunks = append(chunks, Chunk{Chapter: chapter, Text: block})
		}
	}
	return chunks
}

// splitAt slices s at the start of every match, keeping each match at the
// head of its following piece. The piece before the first match is
// included.
func splitAt(s string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return []string{s}
	}
	var out []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			out = append(out, s[prev:loc[0]])
		}
		prev = loc[0]
	}
	out = append(out, s[prev:])
	return out
}

// ChapterNumber reads the chapter index off a chunk that starts with a
// chapter header line.
func ChapterNumber(s string) (int, bool) {
	m := chapterLineRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// StripChapterHeader removes the first chapter header line.
func StripChapterHeader(s string) string {
	loc := chapterLineRe.FindStringIndex(s)
	if loc == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s[:loc[0]] + s[loc[1]:])
}

// removeSectionHeadingLines drops section/part headings ("Mục", "Phần",
// stray "Chương" repeats) that are not question headers themselves.
func removeSectionHeadingLines(s string) string {
	var out strings.Builder
	for _, line := range strings.Split(s, "\n") {
		probe := strings.TrimSpace(StripInlineMarkers(textnorm.NormalizeSoft(line)))
		if sectionHeadingRe.MatchString(probe) && !headerLineRe.MatchString(line) {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.String()
}

func cutPrelude(s string) string {
	loc := headerLineRe.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return strings.TrimSpace(s[loc[0]:])
}

// LooksLikeLetterhead reports whether a block's first few lines carry
// institutional letterhead vocabulary (mottos, ministry or school names).
func LooksLikeLetterhead(block string) bool {
	lines := strings.SplitN(block, "\n", 4)
	if len(lines) > 3 {
		lines = lines[:3]
	}
	return letterheadRe.MatchString(strings.Join(lines, "\n"))
}

/* ----- inline break pre-passes ----- */

var (
	brHeaderRe  = regexp.MustCompile(`(?i)\s+` + headerBreakCore)
	brAnswerRe  = regexp.MustCompile(`(?i)\s+` + answerCore + `\s*[:\-]`)
	brChapterRe = regexp.MustCompile(`(?i)\s+` + hl + `(?:chương|chuong|chapter)` + hl + `\s*(?:số)?` + hl + `\s*\d+(?:\.\d+)*` + hl + `\s*[:.)\-]?`)
	brOptRe     = regexp.MustCompile(`\s+(?:\{hl\}\s*)?[A-D]\s*[.)](?:\s*\{/hl\})?\s+\S`)
)

// breakBefore replaces the leading whitespace of every match with a single
// newline, provided the match does not already start a line. The matched
// pattern must begin with \s+.
func breakBefore(s string, re *regexp.Regexp) string {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		start := loc[0]
		if start > 0 && (s[start-1] == '\n' || s[start-1] == '\r') {
			continue
		}
		match := s[start:loc[1]]
		ws := 0
		for ws < len(match) && (match[ws] == ' ' || match[ws] == '\t' || match[ws] == '\n' || match[ws] == '\r' || match[ws] == '\v' || match[ws] == '\f') {
			ws++
		}
		if strings.ContainsAny(match[:ws], "\n\r") {
			continue
		}
		b.WriteString(s[prev:start])
		b.WriteByte('\n')
		prev = start + ws
	}
	b.WriteString(s[prev:])
	return b.String()
}

// BreakChapterInline puts an inline chapter header on its own line.
func BreakChapterInline(s string) string {
	return breakBefore(s, brChapterRe)
}

// BreakHeaderAnswerInline puts inline question headers and answer labels on
// their own lines, then trims lines that open with a numeric header.
func BreakHeaderAnswerInline(s string) string {
	s = breakBefore(s, brHeaderRe)
	s = breakBefore(s, brAnswerRe)
	return smartBreakNumericHeaders(s)
}

// BreakOptionsInline puts inline option heads ("A. foo B. bar") on their own
// lines. Called only once a block is known, or being tested as, multiple
// choice.
func BreakOptionsInline(s string) string {
	return breakBefore(s, brOptRe)
}

func smartBreakNumericHeaders(s string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if numHeaderLineRe.MatchString(line) {
			lines[i] = strings.TrimSpace(line)
		}
	}
	return strings.Join(lines, "\n")
}

/* ----- marker utilities ----- */

// CompactHighlightMarkers collapses adjacent and empty emphasis marker
// pairs left behind by per-run extraction.
func CompactHighlightMarkers(s string) string {
	s = strings.ReplaceAll(s, "{/hl}{hl}", "")
	s = hlOpen2.ReplaceAllString(s, "{hl}")
	s = hlClose2.ReplaceAllString(s, "{/hl}")
	s = strings.ReplaceAll(s, "{hl}{/hl}", "")
	return s
}

// StripInlineMarkers removes every {xxx}/{/xxx} structural marker.
func StripInlineMarkers(s string) string {
	return inlineMarkerRe.ReplaceAllString(s, "")
}

// StripEmphasis removes only the {hl} pair, leaving other markers intact.
func StripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "{hl}", "")
	return strings.ReplaceAll(s, "{/hl}", "")
}

// StripHeader removes the leading question header from a block, plus a
// dangling {/hl} if the header was wrapped in emphasis.
func StripHeader(block string) string {
	s := block
	if loc := headerLineRe.FindStringIndex(s); loc != nil && loc[0] == 0 {
		s = s[loc[1]:]
	}
	s = strings.TrimSpace(s)
	return leadingCls.ReplaceAllString(s, "")
}

/* ----- answer label & options ----- */

// AnswerCut locates a labeled answer line ("Đáp án: B", "Answer - ...").
// It returns the body with the answer line and everything after it removed,
// the answer value (markers stripped), and whether a label was found.
func AnswerCut(block string) (body, answer string, found bool) {
	loc := answerLabelRe.FindStringSubmatchIndex(block)
	if loc == nil {
		return block, "", false
	}
	answer = strings.TrimSpace(StripInlineMarkers(block[loc[4]:loc[5]]))
	body = strings.TrimSpace(block[:loc[0]])
	return body, answer, true
}

// OptionSpan is one detected option: its label, its text (markers intact),
// and whether the span carried emphasis markers.
type OptionSpan struct {
	Label      string
	Value      string
	Emphasized bool
}

// ExtractOptions finds line-anchored option heads and slices each option's
// text up to the next head or end of body.
func ExtractOptions(body string) []OptionSpan {
	locs := optHeadRe.FindAllStringSubmatchIndex(body, -1)
	spans := make([]OptionSpan, 0, len(locs))
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		whole := body[loc[0]:end]
		val := strings.TrimSpace(body[loc[1]:end])
		spans = append(spans, OptionSpan{
			Label:      body[loc[2]:loc[3]],
			Value:      val,
			Emphasized: strings.Contains(whole, "{hl}") || strings.Contains(whole, "{/hl}"),
		})
	}
	return spans
}

// FirstOptionStart returns the byte offset of the first option head, or -1.
func FirstOptionStart(body string) int {
	loc := optHeadRe.FindStringIndex(body)
	if loc == nil {
		return -1
	}
	return loc[0]
}
