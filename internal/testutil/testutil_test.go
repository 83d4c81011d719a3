package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateHTTPRequestWithBody(t *testing.T) {
	req := CreateHTTPRequest(t, "POST", "/v1/turn", map[string]string{"message": "hello"})
	if req.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.Method)
	}
	if req.URL.Path != "/v1/turn" {
		t.Errorf("expected /v1/turn, got %s", req.URL.Path)
	}
	if req.Body == nil {
		t.Error("expected a request body")
	}
}

func TestCreateHTTPRequestWithoutBody(t *testing.T) {
	req := CreateHTTPRequest(t, "GET", "/health", nil)
	if req.Method != http.MethodGet {
		t.Errorf("expected GET, got %s", req.Method)
	}
}

func TestAssertJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Body.WriteString(`{"status":"ok","message":"healthy"}`)

	response := AssertJSONResponse(t, rr, "ok")
	if response["message"] != "healthy" {
		t.Errorf("expected message field, got %v", response["message"])
	}
}
