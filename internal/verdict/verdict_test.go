package verdict

import (
	"errors"
	"strings"
	"testing"
)

func TestRecoverCleanJSON(t *testing.T) {
	raw := `{"compliance_state": "Fully Compliant", "confidence": 86,
		"relevant_quotes": ["Section 6.6 (password standards)"],
		"rationale": "The contract documents password controls in detail."}`

	v, err := Recover(raw)
	if err != nil {
		t.Fatalf("Recover returned error: %v", err)
	}
	if v.ComplianceState != "Fully Compliant" || v.Confidence != 86 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	if len(v.RelevantQuotes) != 1 || v.RelevantQuotes[0] != "Section 6.6 (password standards)" {
		t.Fatalf("unexpected quotes: %v", v.RelevantQuotes)
	}
}

func TestRecoverStripsThinkBlocksAndFences(t *testing.T) {
	raw := "<think>Let me reason about this. The contract {mentions} passwords " +
		"in section 6.6 so I think compliance is partial.</think>\n" +
		"```json\n" +
		`{"compliance_state": "Partially Compliant", "confidence": 57, "relevant_quotes": [], "rationale": "Some controls covered.",}` +
		"\n```"

	v, err := Recover(raw)
	if err != nil {
		t.Fatalf("Recover returned error: %v", err)
	}
	if v.Confidence != 57 {
		t.Fatalf("expected confidence 57, got %d", v.Confidence)
	}
}

// Braces inside the reasoning chain must not derail object extraction even
// when the closing think tag is missing.
func TestRecoverSkipsUnbalancedNoise(t *testing.T) {
	raw := `The answer depends on {unclosed analysis... ` +
		`{"compliance_state": "Non-Compliant", "confidence": 12, "relevant_quotes": [], "rationale": "No evidence found in the context."}`

	v, err := Recover(raw)
	if err != nil {
		t.Fatalf("Recover returned error: %v", err)
	}
	if v.Confidence != 12 || v.ComplianceState != "Non-Compliant" {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestRecoverSanitizesLegacySyntax(t *testing.T) {
	raw := `{compliance_state: 'Partially Compliant', confidence: 45, relevant_quotes: ['Section 9.1',], rationale: 'Inventory partially documented.',}`

	v, err := Recover(raw)
	if err != nil {
		t.Fatalf("Recover returned error: %v", err)
	}
	if v.ComplianceState != "Partially Compliant" || v.Confidence != 45 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	if len(v.RelevantQuotes) != 1 || v.RelevantQuotes[0] != "Section 9.1" {
		t.Fatalf("unexpected quotes: %v", v.RelevantQuotes)
	}
}

func TestRecoverConfidenceCoercion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "percent string", raw: `{"compliance_state":"x","confidence":"71.4%","relevant_quotes":[],"rationale":"r"}`, want: 71},
		{name: "arithmetic string", raw: `{"compliance_state":"x","confidence":"(5/7)*100 = 71.4","relevant_quotes":[],"rationale":"r"}`, want: 71},
		{name: "clamp high", raw: `{"compliance_state":"x","confidence":150,"relevant_quotes":[],"rationale":"r"}`, want: 98},
		{name: "clamp low", raw: `{"compliance_state":"x","confidence":-5,"relevant_quotes":[],"rationale":"r"}`, want: 0},
		{name: "boundary 98", raw: `{"compliance_state":"x","confidence":98,"relevant_quotes":[],"rationale":"r"}`, want: 98},
		{name: "missing defaults mid-band", raw: `{"compliance_state":"x","relevant_quotes":[],"rationale":"r"}`, want: 60},
		{name: "unparseable string defaults", raw: `{"compliance_state":"x","confidence":"high","relevant_quotes":[],"rationale":"r"}`, want: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Recover(tt.raw)
			if err != nil {
				t.Fatalf("Recover returned error: %v", err)
			}
			if v.Confidence != tt.want {
				t.Fatalf("expected confidence %d, got %d", tt.want, v.Confidence)
			}
		})
	}
}

func TestRecoverQuoteNormalization(t *testing.T) {
	raw := `{"compliance_state": "Partially Compliant", "confidence": 50,
		"relevant_quotes": [
			{"section": "7.2", "text": "TLS 1.2 required"},
			{"quote": "Exhibit G CRYP-01"},
			"Section 8.2",
			"<think>internal</think>  "
		],
		"rationale": "Encryption partially covered."}`

	v, err := Recover(raw)
	if err != nil {
		t.Fatalf("Recover returned error: %v", err)
	}
	want := []string{"Section 7.2: TLS 1.2 required", "Exhibit G CRYP-01", "Section 8.2"}
	if len(v.RelevantQuotes) != len(want) {
		t.Fatalf("expected %d quotes, got %v", len(want), v.RelevantQuotes)
	}
	for i := range want {
		if v.RelevantQuotes[i] != want[i] {
			t.Fatalf("quote %d: expected %q, got %q", i, want[i], v.RelevantQuotes[i])
		}
	}
}

func TestRecoverQuoteStringBecomesList(t *testing.T) {
	raw := `{"compliance_state": "x", "confidence": 50, "relevant_quotes": "Section 4.3", "rationale": "r"}`
	v, err := Recover(raw)
	if err != nil {
		t.Fatalf("Recover returned error: %v", err)
	}
	if len(v.RelevantQuotes) != 1 || v.RelevantQuotes[0] != "Section 4.3" {
		t.Fatalf("unexpected quotes: %v", v.RelevantQuotes)
	}
}

func TestRecoverRationaleBackfill(t *testing.T) {
	raw := `{"compliance_state": "x", "confidence": 50, "relevant_quotes": [], "rationale": "<think>only reasoning</think>"}`
	v, err := Recover(raw)
	if err != nil {
		t.Fatalf("Recover returned error: %v", err)
	}
	if v.Rationale == "" || !strings.Contains(v.Rationale, "concise rationale") {
		t.Fatalf("expected backfilled rationale, got %q", v.Rationale)
	}
}

func TestRecoverRationaleListJoined(t *testing.T) {
	raw := `{"compliance_state": "x", "confidence": 50, "relevant_quotes": [], "rationale": ["part one.", "part two."]}`
	v, err := Recover(raw)
	if err != nil {
		t.Fatalf("Recover returned error: %v", err)
	}
	if v.Rationale != "part one. part two." {
		t.Fatalf("unexpected rationale: %q", v.Rationale)
	}
}

func TestRecoverFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "think only", raw: "<think>nothing but reasoning</think>"},
		{name: "no object", raw: "The contract looks compliant to me."},
		{name: "never closes", raw: `{"compliance_state": "Fully Compliant", "confidence": 90`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recover(tt.raw)
			if err == nil {
				t.Fatal("expected recovery error")
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if parseErr.Raw != tt.raw {
				t.Fatalf("ParseError.Raw does not preserve input")
			}
		})
	}
}

func TestRecoverIdempotent(t *testing.T) {
	raw := "<think>thinking</think>{compliance_state: 'Fully Compliant', confidence: '92%', relevant_quotes: ['a'], rationale: 'ok, covered.'}"
	a, errA := Recover(raw)
	b, errB := Recover(raw)
	if errA != nil || errB != nil {
		t.Fatalf("Recover returned errors: %v %v", errA, errB)
	}
	if a.Confidence != b.Confidence || a.Rationale != b.Rationale || len(a.RelevantQuotes) != len(b.RelevantQuotes) {
		t.Fatalf("identical input produced different verdicts: %+v vs %+v", a, b)
	}
}
