// internal/analyzer/analyzer.go
// Package analyzer runs the end-to-end compliance evaluation: segment the
// document once, rank context per question, call the model with a bounded
// attempt budget, and classify the recovered confidence. Questions run
// sequentially with one in-flight model call at a time, so a failure on one
// question never disturbs another.
package analyzer

import (
	"context"
	"fmt"

	"github.com/tfletch/clausecheck/internal/appconfig"
	"github.com/tfletch/clausecheck/internal/document"
	"github.com/tfletch/clausecheck/internal/logging"
	"github.com/tfletch/clausecheck/internal/policy"
	"github.com/tfletch/clausecheck/internal/prompt"
	"github.com/tfletch/clausecheck/internal/providers"
	"github.com/tfletch/clausecheck/internal/retrieve"
	"github.com/tfletch/clausecheck/internal/segment"
	"github.com/tfletch/clausecheck/internal/util"
	"github.com/tfletch/clausecheck/internal/verdict"
)

// emptyContextRationale is reported when retrieval finds nothing relevant
// and the model is never called.
const emptyContextRationale = "No relevant evidence found in extracted context."

// Result is the final verdict for one compliance question.
type Result struct {
	QuestionID      string       `json:"question_id"`
	Question        string       `json:"compliance_question"`
	ComplianceState policy.State `json:"compliance_state"`
	Confidence      int          `json:"confidence"`
	RelevantQuotes  []string     `json:"relevant_quotes"`
	Rationale       string       `json:"rationale"`
}

// Analyzer evaluates a document against a fixed question suite.
type Analyzer struct {
	cfg       *appconfig.Config
	questions []prompt.Question
	provider  providers.ChatProvider
}

// New validates configuration and the question suite before any model work
// begins. Invalid chunking parameters are fatal here, not at segmentation
// time.
func New(cfg *appconfig.Config, questions []prompt.Question, provider providers.ChatProvider) (*Analyzer, error) {
	if err := segment.Validate(cfg.Analyzer.ChunkSize, cfg.Analyzer.ChunkOverlap); err != nil {
		return nil, err
	}
	if err := prompt.ValidateQuestions(questions); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("analyzer requires a provider")
	}
	return &Analyzer{cfg: cfg, questions: questions, provider: provider}, nil
}

// Analyze evaluates the passages against every configured question. It always
// returns one Result per question, in question-definition order; per-question
// failures degrade that question's Result instead of aborting the run.
func (a *Analyzer) Analyze(ctx context.Context, passages []document.Passage) ([]Result, error) {
	chunks, err := segment.Segment(passages, a.cfg.Analyzer.ChunkSize, a.cfg.Analyzer.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	index := retrieve.BuildIndex(chunks)
	logging.LogEvent("analyzer: segmented document into %d chunks for %d questions", len(chunks), len(a.questions))

	// Warm the model once so the first question's attempt budget is not
	// consumed by load time. Warmup failure is not fatal; the real calls
	// report their own errors.
	if err := a.provider.EnsureModelReady(ctx, a.cfg.Model); err != nil {
		logging.LogEvent("analyzer: model warmup failed: %v", err)
	}

	results := make([]Result, 0, len(a.questions))
	for _, q := range a.questions {
		results = append(results, a.analyzeQuestion(ctx, index, q))
	}
	return results, nil
}

func (a *Analyzer) analyzeQuestion(ctx context.Context, index *retrieve.Index, q prompt.Question) Result {
	retrieved := index.Retrieve(q.ID, q.Keywords, a.cfg.Analyzer.TopKText, a.cfg.Analyzer.TopKTable)
	if retrieved.Empty() {
		logging.LogEvent("analyzer: question %s: no relevant context, skipping model call", q.ID)
		return Result{
			QuestionID:      q.ID,
			Question:        q.Title,
			ComplianceState: policy.NonCompliant,
			Confidence:      0,
			RelevantQuotes:  []string{},
			Rationale:       emptyContextRationale,
		}
	}

	p := prompt.Build(q, retrieved.TextChunks, retrieved.TableChunks)
	req := providers.GenerateRequest{
		Model:      a.cfg.Model,
		System:     p.System,
		User:       p.User,
		Parameters: a.cfg.Parameters,
		QuestionID: q.ID,
	}

	attempts := a.cfg.Analyzer.Attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := a.provider.Generate(ctx, req)
		if err != nil {
			lastErr = fmt.Errorf("model call failed: %w", err)
			logging.LogEvent("analyzer: question %s attempt %d/%d: %v", q.ID, attempt, attempts, lastErr)
			continue
		}

		recovered, err := verdict.Recover(raw)
		if err != nil {
			lastErr = fmt.Errorf("unparseable response: %w", err)
			logging.LogEvent("analyzer: question %s attempt %d/%d: %v", q.ID, attempt, attempts, lastErr)
			continue
		}

		return Result{
			QuestionID:      q.ID,
			Question:        q.Title,
			ComplianceState: policy.Classify(recovered.Confidence),
			Confidence:      recovered.Confidence,
			RelevantQuotes:  recovered.RelevantQuotes,
			Rationale:       recovered.Rationale,
		}
	}

	logging.LogEvent("analyzer: question %s exhausted %d attempts", q.ID, attempts)
	return Result{
		QuestionID:      q.ID,
		Question:        q.Title,
		ComplianceState: policy.NonCompliant,
		Confidence:      0,
		RelevantQuotes:  []string{},
		Rationale:       fmt.Sprintf("Error analyzing after %d attempts: %s", attempts, util.TruncateRunes(lastErr.Error(), 200)),
	}
}
