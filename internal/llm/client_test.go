package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateSuccessTrimsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path: %s", request.URL.Path)
		}
		var payload generateRequest
		if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Stream {
			t.Fatal("stream should be disabled")
		}
		writer.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(writer).Encode(generateResponse{
			Model:    payload.Model,
			Response: "  a reasoning trace  ",
			Done:     true,
		}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer server.Close()

	client := Client{HTTPBaseURL: server.URL}
	result, err := client.Generate(context.Background(), "qwen3:8b", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "a reasoning trace" {
		t.Fatalf("expected trimmed response, got %q", result)
	}
}

func TestGenerateEmptyResponseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(writer).Encode(generateResponse{Response: "   ", Done: true}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer server.Close()

	client := Client{HTTPBaseURL: server.URL}
	if _, err := client.Generate(context.Background(), "m", "p"); err == nil {
		t.Fatal("expected error for whitespace-only response")
	}
}

func TestGenerateHTTPErrorIncludesBodyPreview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, `{"error":"model 'missing' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := Client{HTTPBaseURL: server.URL}
	_, err := client.Generate(context.Background(), "missing", "p")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "model http error 404") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("error should carry a body preview: %v", err)
	}
}
