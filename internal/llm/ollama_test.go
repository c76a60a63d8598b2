package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/medcheck/api/internal/apperrors"
)

func TestOllamaClientGenerate(t *testing.T) {
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "generated text"})
	}))
	defer srv.Close()

	logger, _ := zap.NewDevelopment()
	client := NewOllamaClient(srv.URL, "llama3.2", 0, logger)

	out, err := client.Generate(context.Background(), "the prompt", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if out != "generated text" {
		t.Errorf("Expected 'generated text', got %q", out)
	}
	if gotBody.Model != "llama3.2" {
		t.Errorf("Expected model llama3.2, got %q", gotBody.Model)
	}
	if gotBody.Prompt != "the prompt" {
		t.Errorf("Expected prompt unchanged, got %q", gotBody.Prompt)
	}
	if gotBody.Stream {
		t.Error("Expected stream:false")
	}
}

func TestOllamaClientSystemPromptPrefix(t *testing.T) {
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer srv.Close()

	logger, _ := zap.NewDevelopment()
	client := NewOllamaClient(srv.URL, "llama3.2", 0, logger)

	if _, err := client.Generate(context.Background(), "user part", "system part"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if gotBody.Prompt != "system part\n\nuser part" {
		t.Errorf("Expected system prompt prefixed with blank line, got %q", gotBody.Prompt)
	}
}

func TestOllamaClientNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger, _ := zap.NewDevelopment()
	client := NewOllamaClient(srv.URL, "llama3.2", 0, logger)

	_, err := client.Generate(context.Background(), "prompt", "")
	if err == nil {
		t.Fatal("Expected error for non-success status")
	}
	if apperrors.KindOf(err) != apperrors.KindInferenceUnavailable {
		t.Errorf("Expected inference_unavailable kind, got %v", apperrors.KindOf(err))
	}
}

func TestOllamaClientUnreachable(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	client := NewOllamaClient("http://127.0.0.1:1", "llama3.2", 0, logger)

	_, err := client.Generate(context.Background(), "prompt", "")
	if err == nil {
		t.Fatal("Expected error for unreachable endpoint")
	}
	if apperrors.KindOf(err) != apperrors.KindInferenceUnavailable {
		t.Errorf("Expected inference_unavailable kind, got %v", apperrors.KindOf(err))
	}
}
