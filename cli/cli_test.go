// cli/cli_test.go
package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tfletch/clausecheck/internal/appconfig"
	"github.com/tfletch/clausecheck/internal/chat"
	"github.com/tfletch/clausecheck/internal/providers"
)

type testProvider struct{}

func (testProvider) EnsureModelReady(ctx context.Context, model string) error { return nil }

func (testProvider) Generate(ctx context.Context, req providers.GenerateRequest) (string, error) {
	return "answer", nil
}

func (testProvider) Embed(ctx context.Context, model, text string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func (testProvider) Close() error { return nil }

// TestChatStateTransitionsAndView covers the ingest-then-chat state machine
// and view rendering.
func TestChatStateTransitionsAndView(t *testing.T) {
	cfg := &Config{Model: "m1", Chat: appconfig.Chat{ChunkSize: 100, ChunkOverlap: 10}}
	session, err := chat.NewSession(cfg, testProvider{})
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	m := initialModel(context.Background(), cfg, session, "contract.txt")

	_, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	if m.state != viewIngesting || !m.isLoading {
		t.Fatalf("expected ingesting state; got state=%v loading=%v", m.state, m.isLoading)
	}
	if out := m.View(); !strings.Contains(out, "Ingesting contract.txt") {
		t.Fatalf("expected ingest spinner in view; got: %s", out)
	}

	m2, _ := m.Update(ingestDoneMsg{chunks: 7})
	m = m2.(*model)
	if m.state != viewChat || m.isLoading || m.chunkCount != 7 {
		t.Fatalf("expected chat view with 7 chunks; state=%v loading=%v chunks=%d", m.state, m.isLoading, m.chunkCount)
	}

	m.textArea.SetValue("what about passwords?")
	m2, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = m2.(*model)
	if len(m.chatHistory) == 0 || m.chatHistory[len(m.chatHistory)-1].Role != "user" {
		t.Fatalf("expected last message to be user; history=%v", m.chatHistory)
	}
	if !m.isLoading {
		t.Fatal("expected loading after sending message")
	}

	m2, _ = m.Update(answerMsg{answer: chat.Answer{Text: "salted hashing"}})
	m = m2.(*model)
	if m.isLoading {
		t.Fatal("expected not loading after answer")
	}
	if len(m.chatHistory) < 2 || m.chatHistory[len(m.chatHistory)-1].Role != "assistant" {
		t.Fatalf("expected assistant message after answer; history=%v", m.chatHistory)
	}

	out := m.View()
	if !strings.Contains(out, "Assistant:") || !strings.Contains(out, "You:") {
		t.Fatalf("expected roles in view output; got: %s", out)
	}
}

// TestChatIngestFailure renders the error instead of the chat view.
func TestChatIngestFailure(t *testing.T) {
	cfg := &Config{Model: "m1", Chat: appconfig.Chat{ChunkSize: 100, ChunkOverlap: 10}}
	session, err := chat.NewSession(cfg, testProvider{})
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	m := initialModel(context.Background(), cfg, session, "missing.txt")
	_, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	cmd := ingestCmd(context.Background(), session, "missing.txt")
	msg := cmd()
	if _, ok := msg.(ingestErr); !ok {
		t.Fatalf("expected ingestErr for missing file, got %T", msg)
	}

	m2, _ := m.Update(msg)
	m = m2.(*model)
	if m.err == nil || m.state != viewIngesting {
		t.Fatalf("expected retained ingest error; err=%v state=%v", m.err, m.state)
	}
	if out := m.View(); !strings.Contains(out, "Error:") {
		t.Fatalf("expected error in view; got: %s", out)
	}
}
