package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/exambank/qbank/internal/rbac"
)

func TestCheckerRoles(t *testing.T) {
	c := rbac.NewChecker(nil)
	if !c.Has("teacher", "question:import") {
		t.Error("teacher should import")
	}
	if c.Has("reviewer", "question:import") {
		t.Error("reviewer must not import")
	}
	if !c.Has("admin", "anything:at-all") {
		t.Error("admin wildcard broken")
	}
	if c.Has("nobody", "question:view") {
		t.Error("unknown role granted")
	}
	if !c.Any("reviewer", "question:import", "question:view") {
		t.Error("Any should match the second permission")
	}
}

func TestRequireMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := rbac.Require("question:import")(next)

	call := func(role string) int {
		req := httptest.NewRequest("POST", "/import/preview", nil)
		if role != "" {
			req = req.WithContext(rbac.WithRole(req.Context(), role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := call("teacher"); got != http.StatusNoContent {
		t.Errorf("teacher status = %d", got)
	}
	if got := call("reviewer"); got != http.StatusForbidden {
		t.Errorf("reviewer status = %d", got)
	}
	if got := call(""); got != http.StatusForbidden {
		t.Errorf("anonymous status = %d", got)
	}
}
