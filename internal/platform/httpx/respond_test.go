package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("session: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("filter: %w", ErrValidation), http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{fmt.Errorf("fetch: %w", ErrUpstream), http.StatusBadGateway},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		if rr.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("unexpected content type %s", ct)
		}
		var body ProblemDetail
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode problem: %v", err)
		}
		if body.Status != tc.status {
			t.Fatalf("expected status %d in body, got %d", tc.status, body.Status)
		}
	}
}

func TestDecodeOptionalJSON(t *testing.T) {
	var target struct {
		Mode string `json:"mode"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeOptionalJSON(req, &target); err != nil {
		t.Fatalf("empty body: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"mode":"compare"}`))
	if err := DecodeOptionalJSON(req, &target); err != nil || target.Mode != "compare" {
		t.Fatalf("decode: %v %q", err, target.Mode)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	if err := DecodeOptionalJSON(req, &target); err == nil {
		t.Fatalf("expected unknown field error")
	}
}
