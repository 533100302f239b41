package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResp_EncodeFailureIs500(t *testing.T) {
	rr := httptest.NewRecorder()
	jsonResp(rr, http.StatusOK, map[string]float64{"v": math.Inf(1)})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	var e errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil || e.Error == "" {
		t.Errorf("body = %q, want an error object", rr.Body.String())
	}
}

func TestJSONResp_OK(t *testing.T) {
	rr := httptest.NewRecorder()
	jsonResp(rr, http.StatusCreated, map[string]int{"n": 1})

	if rr.Code != http.StatusCreated {
		t.Errorf("status: got %d, want 201", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"n\":1}\n" {
		t.Errorf("body = %q", got)
	}
}
