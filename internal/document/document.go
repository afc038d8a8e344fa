// internal/document/document.go
// Package document defines the extracted-passage contract and loaders for
// pre-extracted document content. Extraction itself (PDF parsing, table
// detection) happens upstream; this package only consumes its output and
// preserves its ordering, which downstream ranking relies on as a tie-break.
package document

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Kind distinguishes prose passages from flattened table rows.
type Kind string

const (
	KindProse    Kind = "prose"
	KindTableRow Kind = "table_row"
)

// Passage is one unit of extracted document content: a page's prose or one
// table row pre-flattened to a single line. Immutable once loaded.
type Passage struct {
	Source string `json:"source"`
	Kind   Kind   `json:"kind"`
	Text   string `json:"text"`
}

// LoadPassagesJSONL reads passages from a JSONL file, one object per line,
// preserving line order.
func LoadPassagesJSONL(path string) ([]Passage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open passages file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	var passages []Passage
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var p Passage
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("parse passage line %d: %w", lineNo, err)
		}
		if p.Kind != KindProse && p.Kind != KindTableRow {
			return nil, fmt.Errorf("passage line %d: unknown kind %q", lineNo, p.Kind)
		}
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		passages = append(passages, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read passages file: %w", err)
	}

	return passages, nil
}

// LoadText reads a plain-text export (e.g. pdftotext output). Pages are
// separated by form feeds; each page's running text becomes one prose
// passage, and each line containing table cell separators (" | ") becomes
// one table_row passage, mirroring the upstream extractor's row flattening.
func LoadText(path string) ([]Passage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	return ParseText(string(raw)), nil
}

// ParseText splits raw export text into ordered passages. See LoadText.
func ParseText(raw string) []Passage {
	var passages []Passage
	pages := strings.Split(raw, "\f")
	for i, page := range pages {
		source := fmt.Sprintf("page %d", i+1)
		var prose []string
		var rows []string
		for _, line := range strings.Split(page, "\n") {
			if strings.Contains(line, " | ") {
				if row := strings.TrimSpace(line); row != "" {
					rows = append(rows, row)
				}
				continue
			}
			prose = append(prose, line)
		}
		// Page prose first, then that page's table rows, matching the
		// upstream extractor's ordering.
		if text := strings.TrimSpace(strings.Join(prose, "\n")); text != "" {
			passages = append(passages, Passage{Source: source, Kind: KindProse, Text: text})
		}
		for _, row := range rows {
			passages = append(passages, Passage{Source: source, Kind: KindTableRow, Text: row})
		}
	}
	return passages
}

// Load picks a loader based on the file extension: .jsonl for pre-extracted
// passages, anything else is treated as a plain-text export.
func Load(path string) ([]Passage, error) {
	if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
		return LoadPassagesJSONL(path)
	}
	return LoadText(path)
}
