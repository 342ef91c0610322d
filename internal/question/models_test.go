package question_test

import (
	"strings"
	"testing"

	"github.com/exambank/qbank/internal/question"
)

func strp(s string) *string { return &s }

func validMC() question.Question {
	return question.Question{
		SubjectID: 1,
		Type:      question.TypeMultipleChoice,
		Content:   "stem",
		OptionA:   strp("1"),
		OptionB:   strp("2"),
		OptionC:   strp("3"),
		OptionD:   strp("4"),
		Answer:    strp("B"),
	}
}

func TestValidate(t *testing.T) {
	if err := question.Validate(validMC()); err != nil {
		t.Fatalf("valid MC rejected: %v", err)
	}

	q := validMC()
	q.Answer = strp("AC")
	if err := question.Validate(q); err != nil {
		t.Errorf("multi-key answer rejected: %v", err)
	}

	q = validMC()
	q.Answer = strp("E")
	if err := question.Validate(q); err == nil {
		t.Error("answer outside A-D accepted")
	}

	q = validMC()
	q.OptionB = nil
	q.OptionD = strp("  ")
	err := question.Validate(q)
	if err == nil {
		t.Fatal("missing options accepted")
	}
	if !strings.Contains(err.Error(), "B,D") {
		t.Errorf("missing labels not reported sorted: %v", err)
	}

	essay := question.Question{Type: question.TypeEssay, Content: "prove it"}
	if err := question.Validate(essay); err != nil {
		t.Errorf("valid essay rejected: %v", err)
	}

	essay.Content = "   "
	if err := question.Validate(essay); err == nil {
		t.Error("blank content accepted")
	}

	if err := question.Validate(question.Question{Type: "RIDDLE", Content: "x"}); err == nil {
		t.Error("unknown type accepted")
	}
}

func TestDifficultyFromPoints(t *testing.T) {
	cases := map[int]question.Difficulty{
		1:  question.DifficultyE,
		2:  question.DifficultyD,
		3:  question.DifficultyC,
		4:  question.DifficultyB,
		5:  question.DifficultyA,
		0:  question.DifficultyC,
		99: question.DifficultyC,
	}
	for pts, want := range cases {
		if got := question.DifficultyFromPoints(pts); got != want {
			t.Errorf("DifficultyFromPoints(%d) = %q, want %q", pts, got, want)
		}
	}
}
