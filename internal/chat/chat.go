// internal/chat/chat.go
// Package chat provides retrieval-augmented question answering over an
// ingested document. Unlike the compliance pipeline it uses embedding
// similarity rather than keyword ranking, holds the vector store in memory
// for the life of the session, and applies no policy layer to the answer.
package chat

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tfletch/clausecheck/internal/appconfig"
	"github.com/tfletch/clausecheck/internal/document"
	"github.com/tfletch/clausecheck/internal/providers"
	"github.com/tfletch/clausecheck/internal/segment"
)

const defaultSimilarityK = 4

// maxAnswerContext bounds how many supporting chunks an Answer reports.
const maxAnswerContext = 3

var thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// indexEntry is one embedded chunk in the in-memory store.
type indexEntry struct {
	Text      string
	Embedding []float64
}

// Answer is a model response plus the top supporting chunks.
type Answer struct {
	Text    string
	Context []string
}

// Session holds the embedded document for one chat conversation. It is not
// safe for concurrent use.
type Session struct {
	cfg      *appconfig.Config
	provider providers.ChatProvider
	entries  []indexEntry
}

// NewSession validates the chat chunking configuration and returns an empty
// session.
func NewSession(cfg *appconfig.Config, provider providers.ChatProvider) (*Session, error) {
	if err := segment.Validate(cfg.Chat.ChunkSize, cfg.Chat.ChunkOverlap); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("chat session requires a provider")
	}
	return &Session{cfg: cfg, provider: provider}, nil
}

// Ingest chunks the passages, embeds each chunk, and replaces the session's
// store. It returns the number of chunks indexed.
func (s *Session) Ingest(ctx context.Context, passages []document.Passage) (int, error) {
	chunks, err := segment.Segment(passages, s.cfg.Chat.ChunkSize, s.cfg.Chat.ChunkOverlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document contains no text to ingest")
	}

	model := s.embeddingModel()
	entries := make([]indexEntry, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := s.provider.Embed(ctx, model, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("embed chunk: %w", err)
		}
		entries = append(entries, indexEntry{Text: chunk.Text, Embedding: vec})
	}
	s.entries = entries
	return len(entries), nil
}

// Ask embeds the question, ranks the stored chunks by cosine similarity, and
// asks the model to answer from that context only.
func (s *Session) Ask(ctx context.Context, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("question is empty")
	}
	if len(s.entries) == 0 {
		return Answer{}, fmt.Errorf("no document ingested")
	}

	queryVec, err := s.provider.Embed(ctx, s.embeddingModel(), question)
	if err != nil {
		return Answer{}, fmt.Errorf("embed question: %w", err)
	}

	ranked := scoreEntries(s.entries, queryVec)
	topK := s.cfg.Chat.SimilarityK
	if topK <= 0 {
		topK = defaultSimilarityK
	}
	if topK > len(ranked) {
		topK = len(ranked)
	}
	selected := ranked[:topK]

	texts := make([]string, 0, len(selected))
	for _, entry := range selected {
		texts = append(texts, entry.Text)
	}

	user := fmt.Sprintf("Answer based ONLY on this context:\n\n%s\n\nQuestion: %s",
		strings.Join(texts, "\n\n"), question)
	raw, err := s.provider.Generate(ctx, providers.GenerateRequest{
		Model:      s.cfg.Model,
		User:       user,
		Parameters: s.cfg.Parameters,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("chat generation failed: %w", err)
	}

	answer := strings.TrimSpace(thinkBlockPattern.ReplaceAllString(raw, ""))
	supporting := texts
	if len(supporting) > maxAnswerContext {
		supporting = supporting[:maxAnswerContext]
	}
	return Answer{Text: answer, Context: supporting}, nil
}

func (s *Session) embeddingModel() string {
	if model := strings.TrimSpace(s.cfg.Chat.EmbeddingModel); model != "" {
		return model
	}
	return s.cfg.Model
}

func scoreEntries(entries []indexEntry, queryVec []float64) []indexEntry {
	queryNorm := vectorNorm(queryVec)
	type scored struct {
		entry indexEntry
		score float64
	}
	ranked := make([]scored, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Embedding) != len(queryVec) {
			continue
		}
		ranked = append(ranked, scored{entry: entry, score: cosineSimilarity(queryVec, entry.Embedding, queryNorm)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	result := make([]indexEntry, 0, len(ranked))
	for _, r := range ranked {
		result = append(result, r.entry)
	}
	return result
}

func cosineSimilarity(a, b []float64, normA float64) float64 {
	if normA == 0 {
		return 0
	}
	normB := vectorNorm(b)
	if normB == 0 {
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}
