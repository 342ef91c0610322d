// Package parse turns one raw question chunk into a structured preview
// block: multiple-choice vs essay classification, option extraction,
// answer-key resolution and image references.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/exambank/qbank/internal/ingest/extract"
	"github.com/exambank/qbank/internal/ingest/segment"
	"github.com/exambank/qbank/internal/ingest/textnorm"
	"github.com/exambank/qbank/internal/question"
)

const (
	WarnMissingOptions = "missing A-D options"
	WarnEmptyContent   = "empty content"
)

// PreviewBlock is one candidate question awaiting review. Option fields
// are nil when the source never produced them.
type PreviewBlock struct {
	Index        int                 `json:"index"`
	QuestionType question.Type       `json:"questionType"`
	Difficulty   question.Difficulty `json:"difficulty"`
	Chapter      int                 `json:"chapter"`
	Raw          string              `json:"raw,omitempty"`
	Content      string              `json:"content"`
	OptionA      *string             `json:"optionA,omitempty"`
	OptionB      *string             `json:"optionB,omitempty"`
	OptionC      *string             `json:"optionC,omitempty"`
	OptionD      *string             `json:"optionD,omitempty"`
	Answer       string              `json:"answer,omitempty"`
	AnswerText   string              `json:"answerText,omitempty"`
	Labels       []question.Label    `json:"labels"`
	ImageIndexes []int               `json:"imageIndexes"`
	Warnings     []string            `json:"warnings"`
}

// CommitBlock is the client's per-block override at commit time. Nil
// fields fall back to the preview values; Chapter 0 counts as unset.
type CommitBlock struct {
	Index        int                  `json:"index"`
	Include      bool                 `json:"include"`
	QuestionType *question.Type       `json:"questionType,omitempty"`
	Difficulty   *question.Difficulty `json:"difficulty,omitempty"`
	Chapter      int                  `json:"chapter,omitempty"`
	Content      *string              `json:"content,omitempty"`
	OptionA      *string              `json:"optionA,omitempty"`
	OptionB      *string              `json:"optionB,omitempty"`
	OptionC      *string              `json:"optionC,omitempty"`
	OptionD      *string              `json:"optionD,omitempty"`
	Answer       *string              `json:"answer,omitempty"`
	AnswerText   *string              `json:"answerText,omitempty"`
	Labels       []question.Label     `json:"labels,omitempty"`
	ImageIndexes []int                `json:"imageIndexes,omitempty"`
}

var (
	pointsHintRe = regexp.MustCompile(`(?i)\((\d+)\s*điểm\)`)

	// Administrative footer appended to photocopied exam sheets.
	footerStartRe = regexp.MustCompile(`(?i)ghi\s*chú\s*:`)
	footerBodyRe  = regexp.MustCompile(`(?i)họ\s*tên|ký\s*tên`)

	mathOpSpacing = regexp.MustCompile(`\s*([∧∨≡⇒=+\-×÷])\s*`)
	multiSpace    = regexp.MustCompile(`\s{2,}`)
)

// Block parses one raw chunk. imageCount bounds placeholder validation;
// out-of-range references are dropped silently.
func Block(rawBlock string, imageCount int) PreviewBlock {
	b := PreviewBlock{
		Difficulty:   question.DifficultyC,
		ImageIndexes: []int{},
		Warnings:     []string{},
	}

	headerLine := rawBlock
	if i := strings.IndexByte(rawBlock, '\n'); i >= 0 {
		headerLine = rawBlock[:i]
	}
	if m := pointsHintRe.FindStringSubmatch(headerLine); m != nil {
		pts, _ := strconv.Atoi(m[1])
		b.Difficulty = question.DifficultyFromPoints(pts)
	}

	body, pendingAnswer, hasAnswer := segment.AnswerCut(rawBlock)
	if hasAnswer {
		pendingAnswer = BeautifyMath(sanitize(pendingAnswer))
	}
	body = segment.StripHeader(body)

	// Detection runs on a throwaway copy with options broken onto their
	// own lines. Essay answers often enumerate "a) ... b) ..." which must
	// not classify the block as multiple choice, hence the exact-four rule
	// on uppercase labels.
	bodyForDetect := segment.BreakOptionsInline(body)
	spans := segment.ExtractOptions(bodyForDetect)
	distinct := map[string]bool{}
	for _, sp := range spans {
		distinct[sp.Label] = true
	}
	isMC := len(distinct) == 4

	if isMC {
		b.QuestionType = question.TypeMultipleChoice
	} else {
		b.QuestionType = question.TypeEssay
	}

	if hasAnswer {
		if isMC {
			b.Answer = strings.ToUpper(pendingAnswer)
		} else {
			b.AnswerText = pendingAnswer
		}
	}

	if isMC {
		var emphasized []string
		for _, sp := range spans {
			val := BeautifyMath(segment.StripInlineMarkers(sanitize(sp.Value)))
			switch sp.Label {
			case "A":
				b.OptionA = &val
			case "B":
				b.OptionB = &val
			case "C":
				b.OptionC = &val
			case "D":
				b.OptionD = &val
			}
			if sp.Emphasized {
				emphasized = append(emphasized, sp.Label)
			}
		}
		if b.Answer == "" && len(emphasized) > 0 {
			b.Answer = strings.ToUpper(strings.Join(emphasized, ""))
		}

		stem := body
		if at := segment.FirstOptionStart(bodyForDetect); at >= 0 {
			stem = bodyForDetect[:at]
		}
		b.Content = BeautifyMath(sanitize(stripPlaceholders(segment.StripInlineMarkers(stem))))
	} else {
		b.Content = BeautifyMath(sanitize(stripPlaceholders(segment.StripEmphasis(body))))
	}

	for _, m := range extract.PlaceholderRe.FindAllStringSubmatch(body, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		idx := n - 1
		if idx >= 0 && idx < imageCount {
			b.ImageIndexes = append(b.ImageIndexes, idx)
		}
	}

	b.Content = StripFooter(segment.StripEmphasis(b.Content))
	b.AnswerText = StripFooter(b.AnswerText)

	if isMC {
		if b.OptionA == nil || b.OptionB == nil || b.OptionC == nil || b.OptionD == nil {
			b.Warnings = append(b.Warnings, WarnMissingOptions)
		}
	} else if strings.TrimSpace(b.Content) == "" {
		b.Warnings = append(b.Warnings, WarnEmptyContent)
	}
	return b
}

// Empty reports whether a parsed block carries nothing worth keeping: no
// stem, not a complete MC block, no images. Such blocks are boilerplate
// that slipped past header detection and are dropped without an index.
func Empty(b PreviewBlock) bool {
	if strings.TrimSpace(b.Content) != "" {
		return false
	}
	if b.QuestionType == question.TypeMultipleChoice &&
		b.OptionA != nil && b.OptionB != nil && b.OptionC != nil && b.OptionD != nil {
		return false
	}
	return len(b.ImageIndexes) == 0
}

// BeautifyMath spaces out binary math operators so stored notation reads
// consistently regardless of how the source typeset it.
func BeautifyMath(s string) string {
	out := mathOpSpacing.ReplaceAllString(s, " $1 ")
	out = multiSpace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// StripFooter cuts a trailing "Ghi chú: ..." administrative footer when the
// remainder carries signature vocabulary.
func StripFooter(s string) string {
	loc := footerStartRe.FindStringIndex(s)
	if loc == nil {
		return s
	}
	if !footerBodyRe.MatchString(s[loc[0]:]) {
		return s
	}
	return strings.TrimSpace(s[:loc[0]])
}

func sanitize(s string) string { return textnorm.NormalizeSoft(s) }

func stripPlaceholders(s string) string {
	return strings.TrimSpace(extract.PlaceholderRe.ReplaceAllString(s, ""))
}
