package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestList(t *testing.T) {
	rec := httptest.NewRecorder()
	List(rec, []string{"01SI001", "01FR009"}, 2)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store, got %q", cc)
	}

	var body struct {
		Data  []string `json:"data"`
		Count int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Count != 2 || body.Data[1] != "01FR009" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, errors.New("match abc not found"))

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if rec.Code != http.StatusNotFound || body.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d / %d", rec.Code, body.Code)
	}
	if body.Error != "Not Found" || body.Message != "match abc not found" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]interface{}{"bad": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected a JSON error body, got %q", rec.Body.String())
	}
	if body.Code != http.StatusInternalServerError {
		t.Errorf("expected code 500, got %d", body.Code)
	}
}
