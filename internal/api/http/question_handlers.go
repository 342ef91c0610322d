package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/exambank/qbank/internal/archive"
	"github.com/exambank/qbank/internal/question"
)

// GET /questions/{questionID}
func GetQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		q, err := store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, question.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, q)
	}
}

// GET /archives?subjectId=N
func ListArchivesHandler(store archive.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, err := strconv.ParseInt(r.URL.Query().Get("subjectId"), 10, 64)
		if err != nil {
			http.Error(w, "subjectId required", http.StatusBadRequest)
			return
		}
		recs, err := store.ListBySubject(r.Context(), subjectID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []archive.Record{}
		}
		writeJSON(w, recs)
	}
}
