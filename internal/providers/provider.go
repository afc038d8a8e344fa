// internal/providers/provider.go
// Package providers defines the model transport contract the analysis and
// chat pipelines depend on.
package providers

import (
	"context"

	"github.com/tfletch/clausecheck/internal/appconfig"
)

// GenerateRequest is a single non-streaming chat completion request.
// Parameters carry the deterministic generation settings (temperature,
// top_p, seed, num_predict); the transport must honor them verbatim.
type GenerateRequest struct {
	Model      string
	System     string
	User       string
	Parameters appconfig.Parameters
	// QuestionID tags request logging; it has no effect on the call.
	QuestionID string
}

// ChatProvider is the transport collaborator for model generation and
// embeddings. Implementations must not retry internally: the caller owns
// the attempt budget.
type ChatProvider interface {
	// EnsureModelReady warms the model so the first real call is not
	// dominated by load time.
	EnsureModelReady(ctx context.Context, model string) error
	// Generate performs one blocking completion and returns the raw model
	// text, reasoning chain included.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, model, text string) ([]float64, error)
	// Close releases any resources held by the provider.
	Close() error
}
