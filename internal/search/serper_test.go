package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(" ", Options{}); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestNewClient_ClampsResults(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultResults},
		{in: -3, want: DefaultResults},
		{in: 5, want: 5},
		{in: 500, want: maxResults},
	}
	for _, tt := range tests {
		c, err := NewClient("k", Options{Results: tt.in})
		if err != nil {
			t.Fatalf("new client: %v", err)
		}
		if c.num != tt.want {
			t.Fatalf("Results=%d: want %d got %d", tt.in, tt.want, c.num)
		}
	}
}

func TestSearch_SendsQueryAndParsesOrganic(t *testing.T) {
	var (
		gotKey string
		gotReq searchRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotKey = r.Header.Get("X-API-KEY")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"searchParameters":{"q":"Lahore latest job openings"},"organic":[
			{"title":"Go Developer","link":"https://jobs.example/1","snippet":"Backend role","date":"2 days ago","position":1},
			{"title":"SRE","link":"https://jobs.example/2","snippet":"On-call","position":2}]}`))
	}))
	defer srv.Close()

	c, err := NewClient("secret", Options{Endpoint: srv.URL, Results: 5})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	results, err := c.Search(context.Background(), "Lahore latest job openings")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotReq.Q != "Lahore latest job openings" || gotReq.Num != 5 {
		t.Fatalf("unexpected request %+v", gotReq)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Go Developer" || results[0].Date != "2 days ago" || results[1].Link != "https://jobs.example/2" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestSearch_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Unauthorized."}`))
	}))
	defer srv.Close()

	c, _ := NewClient("bad", Options{Endpoint: srv.URL})
	_, err := c.Search(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "Unauthorized.") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c, _ := NewClient("k", Options{Endpoint: "http://127.0.0.1:0"})
	if _, err := c.Search(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestFormatResults(t *testing.T) {
	if got := FormatResults(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
	got := FormatResults([]Result{
		{Title: "Go Developer", Link: "https://jobs.example/1", Snippet: "Backend role", Date: "2 days ago"},
		{Link: "https://jobs.example/2"},
	})
	want := "- [Go Developer](https://jobs.example/1) (2 days ago): Backend role\n" +
		"- [https://jobs.example/2](https://jobs.example/2)\n"
	if got != want {
		t.Fatalf("unexpected output:\nwant %q\ngot  %q", want, got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 10); got != "héllo" {
		t.Fatalf("unexpected %q", got)
	}
	if got := truncate("héllo", 2); got != "hé..." {
		t.Fatalf("unexpected %q", got)
	}
}
