// internal/retrieve/retrieve.go
// Package retrieve ranks document chunks against a question's keyword set
// using term-frequency × inverse-document-frequency scoring. The five
// question keyword sets are hand-curated, so exact term overlap is a
// stronger and perfectly reproducible signal than embedding similarity;
// reproducibility is a requirement here, not an optimization.
package retrieve

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/tfletch/clausecheck/internal/document"
	"github.com/tfletch/clausecheck/internal/segment"
)

// ScoredChunk is a chunk plus its similarity score against the query.
type ScoredChunk struct {
	Chunk segment.Chunk
	Score float64
	// Position is the chunk's index in the original chunk sequence; it is
	// the tie-break key that keeps ranking reproducible.
	Position int
}

// RetrievalResult holds the bounded, deduplicated context for one question.
type RetrievalResult struct {
	QuestionID  string
	TextChunks  []ScoredChunk
	TableChunks []ScoredChunk
}

// Empty reports whether retrieval found no evidence at all. Callers must
// treat this as a signal of non-compliance, not as a fault.
func (r RetrievalResult) Empty() bool {
	return len(r.TextChunks) == 0 && len(r.TableChunks) == 0
}

// Index is a read-only TF-IDF index over a chunk corpus. Built once per
// analysis invocation; safe for concurrent reads.
type Index struct {
	chunks     []segment.Chunk
	normalized []string
}

// BuildIndex normalizes every chunk's text once so ranking only counts terms.
func BuildIndex(chunks []segment.Chunk) *Index {
	normalized := make([]string, len(chunks))
	for i, c := range chunks {
		normalized[i] = normalize(c.Text)
	}
	return &Index{chunks: chunks, normalized: normalized}
}

// Rank scores chunks of the given kind against the keyword set and returns
// at most limit chunks, best first. Ties keep original chunk order. An empty
// corpus or a query matching nothing yields an empty result, not an error.
func (idx *Index) Rank(keywords []string, limit int, kind document.Kind) []ScoredChunk {
	if limit <= 0 || len(idx.chunks) == 0 || len(keywords) == 0 {
		return nil
	}

	// Partition first so document frequency reflects the corpus the
	// question is actually searched against.
	var positions []int
	for i, c := range idx.chunks {
		if c.Kind == kind {
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return nil
	}

	terms := normalizeKeywords(keywords)
	scored := scoreChunks(idx, positions, terms)
	if len(scored) == 0 {
		return nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Position < scored[j].Position
	})

	if limit > len(scored) {
		limit = len(scored)
	}
	return scored[:limit]
}

// Retrieve runs both partitions for a question and deduplicates: a table
// chunk whose text matches an already-selected text chunk is dropped.
func (idx *Index) Retrieve(questionID string, keywords []string, topN, topM int) RetrievalResult {
	result := RetrievalResult{QuestionID: questionID}
	result.TextChunks = idx.Rank(keywords, topN, document.KindProse)

	seen := make(map[string]struct{}, len(result.TextChunks))
	for _, sc := range result.TextChunks {
		seen[sc.Chunk.Text] = struct{}{}
	}
	for _, sc := range idx.Rank(keywords, topM, document.KindTableRow) {
		if _, dup := seen[sc.Chunk.Text]; dup {
			continue
		}
		result.TableChunks = append(result.TableChunks, sc)
	}
	return result
}

// scoreChunks computes Σ tf(term, chunk) × idf(term) per chunk, keeping only
// chunks with a positive score.
func scoreChunks(idx *Index, positions []int, terms []string) []ScoredChunk {
	n := len(positions)

	// Document frequency per term within this partition.
	idf := make([]float64, len(terms))
	for t, term := range terms {
		df := 0
		for _, pos := range positions {
			if countOccurrences(idx.normalized[pos], term) > 0 {
				df++
			}
		}
		idf[t] = math.Log(float64(n+1)/float64(df+1)) + 1
	}

	var scored []ScoredChunk
	for _, pos := range positions {
		score := 0.0
		for t, term := range terms {
			if tf := countOccurrences(idx.normalized[pos], term); tf > 0 {
				score += float64(tf) * idf[t]
			}
		}
		if score > 0 {
			scored = append(scored, ScoredChunk{
				Chunk:    idx.chunks[pos],
				Score:    score,
				Position: pos,
			})
		}
	}
	return scored
}

// countOccurrences counts non-overlapping matches of a normalized term
// (which may be a multi-word phrase) on word boundaries.
func countOccurrences(normalized, term string) int {
	if term == "" {
		return 0
	}
	count := 0
	offset := 0
	for {
		i := strings.Index(normalized[offset:], term)
		if i == -1 {
			return count
		}
		start := offset + i
		end := start + len(term)
		if boundedByWordBreaks(normalized, start, end) {
			count++
			offset = end
		} else {
			offset = start + 1
		}
	}
}

func boundedByWordBreaks(s string, start, end int) bool {
	if start > 0 && s[start-1] != ' ' {
		return false
	}
	if end < len(s) && s[end] != ' ' {
		return false
	}
	return true
}

// normalize lowercases text and collapses every non-alphanumeric run to a
// single space, so "TLS 1.2+" and "tls 1.2" match the same terms.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// normalizeKeywords normalizes the query terms and drops empties and
// duplicates while preserving order.
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	var terms []string
	for _, kw := range keywords {
		norm := normalize(kw)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		terms = append(terms, norm)
	}
	return terms
}
