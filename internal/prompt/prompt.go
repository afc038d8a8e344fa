// internal/prompt/prompt.go
// Package prompt assembles the deterministic system and user messages for a
// single compliance question. The system message turns the judgment into
// arithmetic: the model checks each sub-requirement YES/NO and reports
// confidence = (YES count / total) × 100, which the policy layer then maps
// to a state. The builder performs no ranking and no truncation.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tfletch/clausecheck/internal/retrieve"
)

// Prompt is one fully assembled system+user message pair.
type Prompt struct {
	System string
	User   string
}

// systemMessage fixes the auditor role and the exact output schema. JSON
// mode is intentionally not requested from the host: reasoning models need
// their chain to run freely, and recovery strips it afterwards.
const systemMessage = "You are a strict contract compliance auditor. " +
	"For each numbered sub-requirement, check if the contract has EXPLICIT evidence. " +
	"Do NOT assume compliance — if a sub-requirement is not explicitly addressed, mark it NO.\n" +
	"Return ONLY a JSON object with these keys:\n" +
	"  compliance_state: \"Fully Compliant\" | \"Partially Compliant\" | \"Non-Compliant\"\n" +
	"  confidence: integer 0-100 = (YES count / total sub-requirements) * 100\n" +
	"  relevant_quotes: [\"Section X.Y (brief label)\", \"Exhibit G (ID-01–ID-03)\", ...] " +
	"— cite ONLY specific section numbers, exhibit IDs, and control IDs where evidence is found\n" +
	"  rationale: ONE concise sentence summarising what the contract covers (and any gaps).\n" +
	"Rules: >=85 → Fully Compliant, 40-84 → Partially Compliant, <40 → Non-Compliant. " +
	"Be conservative — missing evidence means NO. Use ONLY the provided context."

// Build assembles the prompt for one question from its retrieved context.
// Text chunks come first, then table chunks, both in ranked order.
func Build(q Question, textChunks, tableChunks []retrieve.ScoredChunk) Prompt {
	var ctx strings.Builder
	for _, sc := range textChunks {
		if ctx.Len() > 0 {
			ctx.WriteString("\n\n")
		}
		ctx.WriteString(sc.Chunk.Text)
	}
	for _, sc := range tableChunks {
		if ctx.Len() > 0 {
			ctx.WriteString("\n\n")
		}
		ctx.WriteString(sc.Chunk.Text)
	}

	user := fmt.Sprintf("CONTEXT:\n%s\n\nREQUIREMENT:\n%s\n\n"+
		"Respond with ONLY valid JSON:\n"+
		`{"compliance_state": "...", "confidence": N, "relevant_quotes": [...], "rationale": "..."}`,
		ctx.String(), Requirement(q))

	return Prompt{System: systemMessage, User: user}
}

// Requirement renders a question's sub-requirements as the numbered
// checklist the system message refers to.
func Requirement(q Question) string {
	var b strings.Builder
	b.WriteString("Check EACH sub-requirement below against the contract. Mark YES only if there is explicit evidence.\n")
	fmt.Fprintf(&b, "Sub-requirements (%d total):\n", len(q.SubRequirements))
	for i, sub := range q.SubRequirements {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, sub)
	}
	if strings.TrimSpace(q.Hint) != "" {
		b.WriteString("HINT: ")
		b.WriteString(q.Hint)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "confidence = (number of YES / %d) * 100. Round to nearest integer.\n", len(q.SubRequirements))
	fmt.Fprintf(&b, "Based on the contract language and exhibits, what is the compliance state for %s?", q.Title)
	return b.String()
}
