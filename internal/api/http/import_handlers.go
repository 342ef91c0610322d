package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/exambank/qbank/internal/auth"
	"github.com/exambank/qbank/internal/ingest"
	"github.com/exambank/qbank/internal/ingest/extract"
	"github.com/exambank/qbank/internal/question"
)

const maxUploadBytes = 64 << 20

// POST /import/preview
// multipart form: file (docx|pdf), subjectId, saveCopy, labels (csv)
func ImportPreviewHandler(svc *ingest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "bad multipart form", http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		if err != nil {
			http.Error(w, "read upload", http.StatusInternalServerError)
			return
		}
		if len(data) > maxUploadBytes {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}

		subjectID, err := strconv.ParseInt(r.FormValue("subjectId"), 10, 64)
		if err != nil {
			http.Error(w, "subjectId required", http.StatusBadRequest)
			return
		}
		saveCopy := r.FormValue("saveCopy") == "true" || r.FormValue("saveCopy") == "1"

		var labels []question.Label
		for _, p := range strings.Split(r.FormValue("labels"), ",") {
			switch strings.ToUpper(strings.TrimSpace(p)) {
			case string(question.LabelPractice):
				labels = append(labels, question.LabelPractice)
			case string(question.LabelExam):
				labels = append(labels, question.LabelExam)
			}
		}

		resp, err := svc.BuildPreview(r.Context(), subjectID, data, hdr.Filename, saveCopy, labels)
		if err != nil {
			if errors.Is(err, extract.ErrUnsupportedFormat) {
				http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
				return
			}
			http.Error(w, "extract failed: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, resp)
	}
}

// POST /import/commit
func ImportCommitHandler(svc *ingest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ingest.CommitRequest
			SubjectID int64 `json:"subjectId"`
			SaveCopy  bool  `json:"saveCopy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.SessionID == "" {
			http.Error(w, "sessionId required", http.StatusBadRequest)
			return
		}
		var userID int64
		if c := auth.ClaimsFromContext(r.Context()); c != nil {
			userID = c.UserID
		}
		res, err := svc.CommitPreview(r.Context(), req.SubjectID, userID, req.CommitRequest, req.SaveCopy)
		if err != nil {
			if errors.Is(err, ingest.ErrSessionNotFound) {
				http.Error(w, err.Error(), http.StatusGone)
				return
			}
			http.Error(w, "commit failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, res)
	}
}

// GET /import/sessions/{sessionID}/images/{index}
func PreviewImageHandler(svc *ingest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "bad image index", http.StatusBadRequest)
			return
		}
		img, ct, err := svc.PreviewImage(chi.URLParam(r, "sessionID"), idx)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", ct)
		_, _ = w.Write(img)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
