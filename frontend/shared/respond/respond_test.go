package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"miragepos/infrastructure/apperr"
)

func TestErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.NotFound("sale 1"), http.StatusNotFound},
		{apperr.Validation("cart is empty"), http.StatusBadRequest},
		{fmt.Errorf("create user: %w", apperr.ErrConflict), http.StatusConflict},
		{apperr.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperr.Storage(fmt.Errorf("disk full")), http.StatusInternalServerError},
		{&apperr.IntegrityWarning{Field: "retailPrice", Message: "below cost"}, http.StatusConflict},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)
		if rec.Code != tc.status {
			t.Fatalf("err=%v expected %d got %d", tc.err, tc.status, rec.Code)
		}
		var body ProblemDetail
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode problem: %v", err)
		}
		if body.Status != tc.status {
			t.Fatalf("expected status %d in body, got %d", tc.status, body.Status)
		}
	}
}

func TestStorageErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/x", nil), apperr.Storage(fmt.Errorf("secret path /var/db")))
	var body ProblemDetail
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Detail != "" {
		t.Fatalf("expected no detail, got %q", body.Detail)
	}
}
