package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resume-coach/internal/shared/telemetry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)

	client, err := NewClient("test-key", Options{BaseURL: srv.URL + "/", Model: "gemini-test"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGenerate_Success(t *testing.T) {
	var (
		gotPath   string
		gotKey    string
		gotType   string
		gotPrompt string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotType = r.Header.Get("Content-Type")
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Score: 8/10"},{"text":"ignored"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":4,"totalTokenCount":14}}`))
	})

	text, err := client.Generate(context.Background(), "review this resume")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Score: 8/10" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotPath != "/models/gemini-test:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotType)
	}
	if gotPrompt != "review this resume" {
		t.Fatalf("expected prompt to be forwarded, got %q", gotPrompt)
	}
}

func TestGenerate_NonOKEmbedsStatusAndBody(t *testing.T) {
	body := `{"error":{"code":429,"message":"Resource has been exhausted"}}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(body))
	})

	_, err := client.Generate(context.Background(), "prompt")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	want := "Error fetching feedback from Gemini API. Status code: 429, Response: " + body
	if err.Error() != want {
		t.Fatalf("unexpected message:\nwant %q\ngot  %q", want, err.Error())
	}
}

func TestGenerate_MalformedSuccessBody(t *testing.T) {
	cases := map[string]string{
		"not json":        `<html>oops</html>`,
		"no candidates":   `{"candidates":[]}`,
		"no parts":        `{"candidates":[{"content":{"parts":[]}}]}`,
		"empty candidate": `{"candidates":[{}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := client.Generate(context.Background(), "prompt")
			if !errors.Is(err, ErrEmptyResponse) {
				t.Fatalf("expected ErrEmptyResponse, got %v", err)
			}
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := NewClient("k", Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestGenerate_LogsUsage(t *testing.T) {
	var buf bytes.Buffer
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}],"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":1,"totalTokenCount":4}}`))
	})
	restore := telemetry.SetOutput(&buf)
	defer restore()

	if _, err := client.Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "llm.response" || entry["model"] != "gemini-test" {
		t.Fatalf("unexpected log entry %v", entry)
	}
	if entry["total_tokens"] != float64(4) {
		t.Fatalf("expected total_tokens=4, got %v", entry["total_tokens"])
	}
}

func TestNewClient_Defaults(t *testing.T) {
	if _, err := NewClient("  ", Options{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	client, err := NewClient("k", Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", client.Model())
	}
	if want := DefaultBaseURL + "/models/gemini-pro:generateContent"; client.endpoint != want {
		t.Fatalf("unexpected endpoint %q", client.endpoint)
	}
	if client.httpClient.Timeout != DefaultTimeout {
		t.Fatalf("unexpected timeout %v", client.httpClient.Timeout)
	}
}
