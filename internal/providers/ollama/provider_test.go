// internal/providers/ollama/provider_test.go
package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tfletch/clausecheck/internal/appconfig"
	"github.com/tfletch/clausecheck/internal/providers"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// TestProviderGenerate verifies that Generate issues a single non-streaming
// chat request carrying the configured sampling parameters and never asks the
// host for JSON mode.
func TestProviderGenerate(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		capturedBody = body
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"model":"test-model","message":{"role":"assistant","content":"{\"confidence\": 71}"},"done":true,"total_duration":123}`))
	}))
	defer server.Close()

	cfg := &appconfig.Config{TimeoutSeconds: 5}
	cfg.Host = appconfig.Host{Name: "test", URL: server.URL}
	provider := New(cfg)

	req := providers.GenerateRequest{
		Model:  "test-model",
		System: "you are an auditor",
		User:   "check the contract",
		Parameters: appconfig.Parameters{
			Temperature: floatPtr(0.0),
			TopP:        floatPtr(1.0),
			Seed:        intPtr(42),
		},
		QuestionID: "password-management",
	}

	got, err := provider.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != `{"confidence": 71}` {
		t.Fatalf("unexpected content: %q", got)
	}

	var payload map[string]any
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if stream, ok := payload["stream"].(bool); !ok || stream {
		t.Fatalf("expected stream=false, got %v", payload["stream"])
	}
	if _, present := payload["format"]; present {
		t.Fatalf("format must never be set, got %v", payload["format"])
	}

	messages, ok := payload["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %v", payload["messages"])
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "you are an auditor" {
		t.Fatalf("unexpected system message: %v", first)
	}

	options, ok := payload["options"].(map[string]any)
	if !ok {
		t.Fatalf("expected options map, got %T", payload["options"])
	}
	if options["temperature"] != 0.0 {
		t.Fatalf("expected temperature 0, got %v", options["temperature"])
	}
	if options["seed"] != 42.0 {
		t.Fatalf("expected seed 42, got %v", options["seed"])
	}
	if _, present := options["num_predict"]; present {
		t.Fatalf("unset num_predict must be omitted, got %v", options["num_predict"])
	}
}

// TestProviderGenerateServerError checks that a non-200 status surfaces as an
// error carrying the host's message.
func TestProviderGenerateServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	cfg := &appconfig.Config{TimeoutSeconds: 5}
	cfg.Host = appconfig.Host{Name: "test", URL: server.URL}
	provider := New(cfg)

	_, err := provider.Generate(context.Background(), providers.GenerateRequest{Model: "missing", User: "hi"})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

// TestProviderEmbed verifies the embedding round trip.
func TestProviderEmbed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer server.Close()

	cfg := &appconfig.Config{TimeoutSeconds: 5}
	cfg.Host = appconfig.Host{Name: "test", URL: server.URL}
	provider := New(cfg)

	vec, err := provider.Embed(context.Background(), "embed-model", "some text")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(vec) != 3 || vec[1] != 0.2 {
		t.Fatalf("unexpected vector: %v", vec)
	}

	if _, err := provider.Embed(context.Background(), "  ", "text"); err == nil {
		t.Fatal("expected error for empty model")
	}
}
