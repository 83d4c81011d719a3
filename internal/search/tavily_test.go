package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.APIKey != "tvly-test" {
			t.Errorf("api key not forwarded, got %q", req.APIKey)
		}
		if req.Query != "support groups near Portland" {
			t.Errorf("unexpected query: %q", req.Query)
		}
		json.NewEncoder(w).Encode(searchResponse{Results: []Result{
			{Title: "Portland Support Network", URL: "https://example.org", Content: "Weekly peer groups"},
		}})
	}))
	defer server.Close()

	client, err := NewTavilyClient(WithAPIKey("tvly-test"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewTavilyClient() error: %v", err)
	}

	results, err := client.Search(context.Background(), "support groups near Portland", 3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Portland Support Network" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewTavilyClient(WithAPIKey("tvly-test"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewTavilyClient() error: %v", err)
	}
	if _, err := client.Search(context.Background(), "anything", 0); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	client, err := NewTavilyClient(WithAPIKey("tvly-test"))
	if err != nil {
		t.Fatalf("NewTavilyClient() error: %v", err)
	}
	if _, err := client.Search(context.Background(), "", 0); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestNewTavilyClient_NoKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	if _, err := NewTavilyClient(); err == nil {
		t.Error("expected error when API key not provided")
	}
}
