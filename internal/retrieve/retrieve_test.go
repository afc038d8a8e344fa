package retrieve

import (
	"testing"

	"github.com/tfletch/clausecheck/internal/document"
	"github.com/tfletch/clausecheck/internal/segment"
)

func proseChunk(text string) segment.Chunk {
	return segment.Chunk{Text: text, Kind: document.KindProse}
}

func tableChunk(text string) segment.Chunk {
	return segment.Chunk{Text: text, Kind: document.KindTableRow}
}

func TestRankOrdersByScore(t *testing.T) {
	idx := BuildIndex([]segment.Chunk{
		proseChunk("This section covers data retention and deletion."),
		proseChunk("Password length, password strength, and password rotation are required."),
		proseChunk("A password must never be shared."),
	})

	got := idx.Rank([]string{"password"}, 10, document.KindProse)
	if len(got) != 2 {
		t.Fatalf("expected 2 scored chunks, got %d", len(got))
	}
	if got[0].Position != 1 {
		t.Fatalf("expected chunk 1 (three password mentions) first, got position %d", got[0].Position)
	}
	if got[1].Position != 2 {
		t.Fatalf("expected chunk 2 second, got position %d", got[1].Position)
	}
}

func TestRankTiesKeepOriginalOrder(t *testing.T) {
	idx := BuildIndex([]segment.Chunk{
		proseChunk("encryption applies here"),
		proseChunk("encryption applies there"),
		proseChunk("encryption applies everywhere"),
	})

	got := idx.Rank([]string{"encryption"}, 3, document.KindProse)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for i, sc := range got {
		if sc.Position != i {
			t.Fatalf("tie-break violated: rank %d has position %d", i, sc.Position)
		}
	}
}

func TestRankRespectsLimitAndKind(t *testing.T) {
	idx := BuildIndex([]segment.Chunk{
		proseChunk("mfa required"),
		proseChunk("mfa for admins"),
		proseChunk("mfa for production"),
		tableChunk("IAM-01 | mfa | required"),
	})

	got := idx.Rank([]string{"mfa"}, 2, document.KindProse)
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
	for _, sc := range got {
		if sc.Chunk.Kind != document.KindProse {
			t.Fatalf("table chunk leaked into prose ranking: %+v", sc)
		}
	}

	table := idx.Rank([]string{"mfa"}, 5, document.KindTableRow)
	if len(table) != 1 {
		t.Fatalf("expected 1 table chunk, got %d", len(table))
	}
}

func TestRankPhraseKeywords(t *testing.T) {
	idx := BuildIndex([]segment.Chunk{
		proseChunk("Accounts lock after repeated failures; rate limiting applies."),
		proseChunk("The rate of change is limited by policy."),
	})

	got := idx.Rank([]string{"rate limiting"}, 10, document.KindProse)
	if len(got) != 1 {
		t.Fatalf("expected phrase to match exactly one chunk, got %d", len(got))
	}
	if got[0].Position != 0 {
		t.Fatalf("wrong chunk matched: %d", got[0].Position)
	}
}

func TestRankNormalizesPunctuation(t *testing.T) {
	idx := BuildIndex([]segment.Chunk{
		proseChunk("Traffic must use TLS 1.2+ at minimum."),
	})

	got := idx.Rank([]string{"TLS 1.2"}, 10, document.KindProse)
	if len(got) != 1 {
		t.Fatalf("expected TLS 1.2 to match despite punctuation, got %d", len(got))
	}
}

func TestRankEmptyCorpus(t *testing.T) {
	idx := BuildIndex(nil)
	if got := idx.Rank([]string{"password"}, 10, document.KindProse); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestRankNoMatches(t *testing.T) {
	idx := BuildIndex([]segment.Chunk{proseChunk("nothing relevant here")})
	if got := idx.Rank([]string{"password"}, 10, document.KindProse); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestRetrieveDeduplicatesTableChunks(t *testing.T) {
	shared := "PASS-03 | vaulting of privileged credentials"
	idx := BuildIndex([]segment.Chunk{
		proseChunk(shared),
		tableChunk(shared),
		tableChunk("PASS-04 | rotation of break-glass credentials"),
	})

	result := idx.Retrieve("password-management", []string{"credentials"}, 5, 5)
	if len(result.TextChunks) != 1 {
		t.Fatalf("expected 1 text chunk, got %d", len(result.TextChunks))
	}
	if len(result.TableChunks) != 1 {
		t.Fatalf("expected duplicate table chunk dropped, got %d", len(result.TableChunks))
	}
	if result.TableChunks[0].Chunk.Text != "PASS-04 | rotation of break-glass credentials" {
		t.Fatalf("wrong table chunk survived: %q", result.TableChunks[0].Chunk.Text)
	}
}

func TestRetrieveEmptyIsState(t *testing.T) {
	idx := BuildIndex([]segment.Chunk{proseChunk("unrelated content")})
	result := idx.Retrieve("q", []string{"absent"}, 5, 5)
	if !result.Empty() {
		t.Fatal("expected empty retrieval result")
	}
}

func TestIDFWeighting(t *testing.T) {
	// "inventory" appears in one chunk only; "asset" appears in all.
	// A single occurrence of the rare term must outweigh a single
	// occurrence of the ubiquitous one.
	idx := BuildIndex([]segment.Chunk{
		proseChunk("asset register"),
		proseChunk("asset listing"),
		proseChunk("asset inventory"),
	})

	got := idx.Rank([]string{"asset", "inventory"}, 3, document.KindProse)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	if got[0].Position != 2 {
		t.Fatalf("expected inventory-bearing chunk first, got position %d", got[0].Position)
	}
}
