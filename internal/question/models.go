package question

// Type distinguishes the two question shapes the importer produces.
type Type string

const (
	TypeMultipleChoice Type = "MULTIPLE_CHOICE"
	TypeEssay          Type = "ESSAY"
)

// Difficulty is graded A (hardest) to E (easiest).
type Difficulty string

const (
	DifficultyA Difficulty = "A"
	DifficultyB Difficulty = "B"
	DifficultyC Difficulty = "C"
	DifficultyD Difficulty = "D"
	DifficultyE Difficulty = "E"
)

// DifficultyFromPoints maps a point-value hint found in a question header
// to a grade. Anything outside the table is the middle grade.
func DifficultyFromPoints(points int) Difficulty {
	switch points {
	case 1:
		return DifficultyE
	case 2:
		return DifficultyD
	case 3:
		return DifficultyC
	case 4:
		return DifficultyB
	case 5:
		return DifficultyA
	default:
		return DifficultyC
	}
}

type Label string

const (
	LabelPractice Label = "PRACTICE"
	LabelExam     Label = "EXAM"
)

// Question is a committed question record.
type Question struct {
	ID         int64      `json:"id"`
	SubjectID  int64      `json:"subject_id"`
	Type       Type       `json:"question_type"`
	Difficulty Difficulty `json:"difficulty"`
	Chapter    int        `json:"chapter"`
	Content    string     `json:"content"`
	OptionA    *string    `json:"option_a,omitempty"`
	OptionB    *string    `json:"option_b,omitempty"`
	OptionC    *string    `json:"option_c,omitempty"`
	OptionD    *string    `json:"option_d,omitempty"`
	Answer     *string    `json:"answer,omitempty"`      // MC key, "A".."D"
	AnswerText *string    `json:"answer_text,omitempty"` // essay answer
	Labels     []Label    `json:"labels"`
	ImageURLs  []string   `json:"image_urls,omitempty"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  int64      `json:"created_at"`
}
