// internal/cli/render_test.go
package clausecheck

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/tfletch/clausecheck/internal/analyzer"
	"github.com/tfletch/clausecheck/internal/policy"
	"github.com/tfletch/clausecheck/internal/prompt"
)

func TestRenderResults(t *testing.T) {
	color.NoColor = true

	results := []analyzer.Result{
		{
			QuestionID:      "password-management",
			Question:        "Password Management",
			ComplianceState: policy.FullyCompliant,
			Confidence:      90,
			RelevantQuotes:  []string{"Section 6.6 (password standards)"},
			Rationale:       "All password controls are documented.",
		},
		{
			QuestionID:      "it-asset-management",
			Question:        "IT Asset Management",
			ComplianceState: policy.NonCompliant,
			Confidence:      0,
			RelevantQuotes:  []string{},
			Rationale:       "No relevant evidence found in extracted context.",
		},
	}

	var buf bytes.Buffer
	renderResults(&buf, results)
	out := buf.String()

	for _, want := range []string{
		"Password Management  [Fully Compliant, confidence 90]",
		"- Section 6.6 (password standards)",
		"IT Asset Management  [Non-Compliant, confidence 0]",
		"No relevant evidence found in extracted context.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderQuestions(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	renderQuestions(&buf, prompt.DefaultQuestions())
	out := buf.String()

	for _, want := range []string{
		"Password Management (password-management)",
		"1. Password length/strength standards documented",
		"Data in Transit Encryption (data-in-transit-encryption)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("questions output missing %q:\n%s", want, out)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "a", "b"); got != "a" {
		t.Fatalf("firstNonEmpty = %q, want %q", got, "a")
	}
	if got := firstNonEmpty("", "  "); got != "" {
		t.Fatalf("firstNonEmpty = %q, want empty", got)
	}
}
