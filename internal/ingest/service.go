// Package ingest wires the import pipeline end to end: extract a DOCX/PDF
// question bank, segment and parse it into preview blocks, hold them in a
// session, and commit reviewer-approved blocks as question records.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/exambank/qbank/internal/archive"
	"github.com/exambank/qbank/internal/ingest/extract"
	"github.com/exambank/qbank/internal/ingest/parse"
	"github.com/exambank/qbank/internal/ingest/segment"
	"github.com/exambank/qbank/internal/ingest/session"
	"github.com/exambank/qbank/internal/ingest/textnorm"
	"github.com/exambank/qbank/internal/question"
	"github.com/exambank/qbank/internal/storage"
)

var ErrSessionNotFound = errors.New("preview session expired or not found")

type Service struct {
	Questions question.Store
	Blobs     storage.BlobStore
	Archives  archive.Store
	Sessions  *session.Store
	OCR       extract.OCRConfig
}

func NewService(q question.Store, b storage.BlobStore, a archive.Store, s *session.Store) *Service {
	return &Service{Questions: q, Blobs: b, Archives: a, Sessions: s, OCR: extract.DefaultOCR()}
}

type PreviewResponse struct {
	SessionID   string               `json:"sessionId"`
	TotalBlocks int                  `json:"totalBlocks"`
	Blocks      []parse.PreviewBlock `json:"blocks"`
}

type CommitRequest struct {
	SessionID string              `json:"sessionId"`
	Blocks    []parse.CommitBlock `json:"blocks"`
}

type CommitResult struct {
	TotalBlocks  int      `json:"totalBlocks"`
	SuccessCount int      `json:"successCount"`
	Errors       []string `json:"errors"`
}

// BuildPreview runs the whole read-side pipeline and parks the result in a
// session for review. Blocks that parse to nothing (letterhead fragments,
// stray headings) are dropped before indexing.
func (s *Service) BuildPreview(ctx context.Context, subjectID int64, data []byte, filename string, retainOriginal bool, defaultLabels []question.Label) (PreviewResponse, error) {
	ext, err := extract.DocumentOCR(data, filename, s.OCR)
	if err != nil {
		return PreviewResponse{}, err
	}

	def := defaultLabels
	if len(def) == 0 {
		def = []question.Label{question.LabelPractice}
	}

	var blocks []parse.PreviewBlock
	idx := 0
	for _, chunk := range segment.Segment(ext.Text) {
		if segment.LooksLikeLetterhead(chunk.Text) {
			continue
		}
		b := parse.Block(chunk.Text, len(ext.Images))
		if parse.Empty(b) {
			continue
		}
		idx++
		b.Index = idx
		b.Raw = chunk.Text
		b.Chapter = chunk.Chapter
		b.Labels = append([]question.Label(nil), def...)
		blocks = append(blocks, b)
	}

	sess := s.Sessions.Create(ext.Images, blocks)

	if retainOriginal {
		key := storage.TmpKey(filename)
		ct := contentTypeFor(data)
		if _, err := s.Blobs.Put(ctx, key, ct, bytes.NewReader(data), int64(len(data))); err != nil {
			log.Printf("ingest: stage original upload: %v", err)
		} else {
			s.Sessions.AttachTempUpload(sess.ID, session.TempUpload{
				Key:          key,
				OriginalName: filename,
				ContentType:  ct,
				SizeBytes:    int64(len(data)),
			})
		}
	}

	return PreviewResponse{SessionID: sess.ID, TotalBlocks: len(blocks), Blocks: blocks}, nil
}

// CommitPreview persists the included blocks. Failure is block-scoped: one
// bad block is recorded and the rest continue. The session is removed once
// a commit has been attempted.
func (s *Service) CommitPreview(ctx context.Context, subjectID, userID int64, req CommitRequest, retainOriginal bool) (CommitResult, error) {
	sess, ok := s.Sessions.Get(req.SessionID)
	if !ok {
		return CommitResult{}, ErrSessionNotFound
	}

	base := map[int]parse.PreviewBlock{}
	for _, b := range sess.Blocks {
		base[b.Index] = b
	}

	res := CommitResult{Errors: []string{}}
	for _, cb := range req.Blocks {
		if !cb.Include {
			continue
		}
		res.TotalBlocks++
		if err := s.commitOne(ctx, subjectID, userID, cb, base, sess); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Block#%d: %v", cb.Index, err))
			continue
		}
		res.SuccessCount++
	}

	if retainOriginal {
		s.promoteOriginal(ctx, subjectID, userID, req, res)
	}

	s.Sessions.Remove(req.SessionID)
	return res, nil
}

func (s *Service) commitOne(ctx context.Context, subjectID, userID int64, cb parse.CommitBlock, base map[int]parse.PreviewBlock, sess *session.Session) error {
	orig, ok := base[cb.Index]
	if !ok {
		return fmt.Errorf("invalid block index: %d", cb.Index)
	}

	qt := orig.QuestionType
	if cb.QuestionType != nil {
		qt = *cb.QuestionType
	}
	diff := orig.Difficulty
	if cb.Difficulty != nil {
		diff = *cb.Difficulty
	}
	chapter := orig.Chapter
	if cb.Chapter != 0 {
		chapter = cb.Chapter
	}

	q := question.Question{
		SubjectID:  subjectID,
		Type:       qt,
		Difficulty: diff,
		Chapter:    chapter,
		Content:    cleanField(override(cb.Content, orig.Content)),
		CreatedBy:  userID,
	}

	if qt == question.TypeMultipleChoice {
		q.OptionA = cleanOpt(pick(cb.OptionA, orig.OptionA))
		q.OptionB = cleanOpt(pick(cb.OptionB, orig.OptionB))
		q.OptionC = cleanOpt(pick(cb.OptionC, orig.OptionC))
		q.OptionD = cleanOpt(pick(cb.OptionD, orig.OptionD))
		ans := cleanField(override(cb.Answer, orig.Answer))
		q.Answer = &ans
	} else {
		at := cleanField(override(cb.AnswerText, orig.AnswerText))
		q.AnswerText = &at
	}

	labels := cb.Labels
	if len(labels) == 0 {
		labels = orig.Labels
	}
	if len(labels) == 0 {
		labels = []question.Label{question.LabelPractice}
	}
	q.Labels = labels

	qID, err := s.Questions.Create(ctx, q)
	if err != nil {
		return err
	}

	imgIdxs := cb.ImageIndexes
	if len(imgIdxs) == 0 {
		imgIdxs = orig.ImageIndexes
	}
	var urls []string
	for _, i := range imgIdxs {
		if i < 0 || i >= len(sess.Images) {
			continue
		}
		key := storage.ImageKey(qID)
		if _, err := s.Blobs.Put(ctx, key, "image/png", bytes.NewReader(sess.Images[i]), int64(len(sess.Images[i]))); err != nil {
			return fmt.Errorf("store image: %w", err)
		}
		url, err := s.Blobs.SignedURL(ctx, key)
		if err != nil {
			return fmt.Errorf("image url: %w", err)
		}
		urls = append(urls, url)
	}
	if len(urls) > 0 {
		if err := s.Questions.AddImages(ctx, qID, urls); err != nil {
			return fmt.Errorf("attach images: %w", err)
		}
	}
	return nil
}

// promoteOriginal moves a staged upload to permanent storage and records
// it. Failures here never fail the surrounding commit.
func (s *Service) promoteOriginal(ctx context.Context, subjectID, userID int64, req CommitRequest, res CommitResult) {
	temp, ok := s.Sessions.TakeTempUpload(req.SessionID)
	if !ok {
		return
	}
	finalKey := storage.ArchiveKey(temp.OriginalName)
	if err := storage.Promote(ctx, s.Blobs, temp.Key, finalKey); err != nil {
		log.Printf("ingest: promote original upload: %v", err)
		return
	}
	_, err := s.Archives.SaveExistingByKey(ctx, archive.Record{
		Kind:         "IMPORT",
		SubjectID:    subjectID,
		UserID:       userID,
		OriginalName: temp.OriginalName,
		ContentType:  temp.ContentType,
		StorageKey:   finalKey,
		Meta: map[string]string{
			"sessionId":       req.SessionID,
			"blocksRequested": strconv.Itoa(len(req.Blocks)),
			"totalCommitted":  strconv.Itoa(res.SuccessCount),
			"errorsCount":     strconv.Itoa(len(res.Errors)),
			"source":          "preview-upload",
		},
	})
	if err != nil {
		log.Printf("ingest: record archived upload: %v", err)
	}
}

// PreviewImage serves one staged image for review thumbnails.
func (s *Service) PreviewImage(sessionID string, imageIndex int) ([]byte, string, error) {
	sess, ok := s.Sessions.Get(sessionID)
	if !ok {
		return nil, "", ErrSessionNotFound
	}
	if imageIndex < 0 || imageIndex >= len(sess.Images) {
		return nil, "", ErrSessionNotFound
	}
	img := sess.Images[imageIndex]
	return img, http.DetectContentType(img), nil
}

func override(edit *string, orig string) string {
	if edit != nil {
		return *edit
	}
	return orig
}

func pick(edit, orig *string) *string {
	if edit != nil {
		return edit
	}
	return orig
}

func cleanField(v string) string {
	return parse.BeautifyMath(textnorm.NormalizeSoft(v))
}

func cleanOpt(v *string) *string {
	if v == nil {
		return nil
	}
	c := cleanField(*v)
	return &c
}

func contentTypeFor(data []byte) string {
	return http.DetectContentType(data)
}
