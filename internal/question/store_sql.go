package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store persists committed questions. The importer depends on this
// interface only; tests swap in an in-memory fake.
type Store interface {
	Create(ctx context.Context, q Question) (int64, error)
	AddImages(ctx context.Context, questionID int64, urls []string) error
	Get(ctx context.Context, id int64) (Question, error)
}

var ErrNotFound = errors.New("question not found")

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Create validates and inserts one question. A multiple-choice question
// must carry all four options and an answer key restricted to A-D.
func (s *SQLStore) Create(ctx context.Context, q Question) (int64, error) {
	if err := Validate(q); err != nil {
		return 0, err
	}
	if len(q.Labels) == 0 {
		q.Labels = []Label{LabelPractice}
	}
	lj, err := json.Marshal(q.Labels)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `INSERT INTO questions
		(subject_id,question_type,difficulty,chapter,content,option_a,option_b,option_c,option_d,answer,answer_text,labels_json,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id`,
		q.SubjectID, string(q.Type), string(q.Difficulty), q.Chapter, q.Content,
		q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.Answer, q.AnswerText,
		string(lj), q.CreatedBy, time.Now().Unix()).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) AddImages(ctx context.Context, questionID int64, urls []string) error {
	for pos, u := range urls {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO question_images (question_id, url, position) VALUES ($1,$2,$3)`,
			questionID, u, pos); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,subject_id,question_type,difficulty,chapter,content,
		option_a,option_b,option_c,option_d,answer,answer_text,labels_json,created_by,created_at
		FROM questions WHERE id=$1`, id)
	var q Question
	var qt, diff, labelsJSON string
	if err := row.Scan(&q.ID, &q.SubjectID, &qt, &diff, &q.Chapter, &q.Content,
		&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.Answer, &q.AnswerText,
		&labelsJSON, &q.CreatedBy, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	q.Type = Type(qt)
	q.Difficulty = Difficulty(diff)
	if err := json.Unmarshal([]byte(labelsJSON), &q.Labels); err != nil {
		return Question{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM question_images WHERE question_id=$1 ORDER BY position`, id)
	if err != nil {
		return Question{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return Question{}, err
		}
		q.ImageURLs = append(q.ImageURLs, u)
	}
	return q, rows.Err()
}

// Validate enforces the per-type field shape before insert.
func Validate(q Question) error {
	if strings.TrimSpace(q.Content) == "" {
		return errors.New("content is empty")
	}
	switch q.Type {
	case TypeMultipleChoice:
		missing := []string{}
		for label, opt := range map[string]*string{"A": q.OptionA, "B": q.OptionB, "C": q.OptionC, "D": q.OptionD} {
			if opt == nil || strings.TrimSpace(*opt) == "" {
				missing = append(missing, label)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("multiple-choice question missing options %s", strings.Join(sortedCopy(missing), ","))
		}
		if q.Answer == nil || !validMCKey(*q.Answer) {
			return errors.New("multiple-choice answer must name options among A-D")
		}
	case TypeEssay:
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}

// validMCKey accepts "B" and multi-key strings like "AC".
func validMCKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if r < 'A' || r > 'D' {
			return false
		}
	}
	return true
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
