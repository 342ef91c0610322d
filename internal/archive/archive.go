// Package archive records metadata for source documents retained in the
// object store after an import commit. The bytes themselves live in the
// blob store; rows here only point at them.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type Record struct {
	ID           int64             `json:"id"`
	Kind         string            `json:"kind"` // e.g. IMPORT
	SubjectID    int64             `json:"subject_id"`
	UserID       int64             `json:"user_id"`
	OriginalName string            `json:"original_name"`
	ContentType  string            `json:"content_type"`
	StorageKey   string            `json:"storage_key"`
	Meta         map[string]string `json:"meta,omitempty"`
	CreatedAt    int64             `json:"created_at"`
}

type Store interface {
	// SaveExistingByKey records an object that already exists in the blob
	// store (promoted from tmp/); it never uploads.
	SaveExistingByKey(ctx context.Context, rec Record) (int64, error)
	ListBySubject(ctx context.Context, subjectID int64) ([]Record, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) SaveExistingByKey(ctx context.Context, rec Record) (int64, error) {
	if rec.StorageKey == "" {
		return 0, errors.New("empty storage key")
	}
	mj, err := json.Marshal(rec.Meta)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `INSERT INTO file_archives
		(kind,subject_id,user_id,original_name,content_type,storage_key,meta_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		rec.Kind, rec.SubjectID, rec.UserID, rec.OriginalName, rec.ContentType,
		rec.StorageKey, string(mj), time.Now().Unix()).Scan(&id)
	return id, err
}

func (s *SQLStore) ListBySubject(ctx context.Context, subjectID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,kind,subject_id,user_id,original_name,content_type,storage_key,meta_json,created_at
		FROM file_archives WHERE subject_id=$1 ORDER BY created_at DESC`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		var mj string
		if err := rows.Scan(&r.ID, &r.Kind, &r.SubjectID, &r.UserID, &r.OriginalName,
			&r.ContentType, &r.StorageKey, &mj, &r.CreatedAt); err != nil {
			return nil, err
		}
		if mj != "" {
			_ = json.Unmarshal([]byte(mj), &r.Meta)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
