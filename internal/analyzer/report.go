// internal/analyzer/report.go
package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ReportRecord is one analysis run as appended to the JSONL report file.
type ReportRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	Document  string    `json:"document"`
	Results   []Result  `json:"results"`
}

// WriteReport appends the run to a per-model, per-document JSONL file under
// resultsDir and returns the file path.
func WriteReport(resultsDir, model, documentPath string, results []Result) (string, error) {
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return "", fmt.Errorf("error creating results directory: %w", err)
	}

	docName := strings.TrimSuffix(filepath.Base(documentPath), filepath.Ext(documentPath))
	fileName := fmt.Sprintf("%s_%s.jsonl", slugify(model), slugify(docName))
	path := filepath.Join(resultsDir, fileName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("error opening results file: %w", err)
	}
	defer file.Close()

	record := ReportRecord{
		Timestamp: time.Now().UTC(),
		Model:     model,
		Document:  documentPath,
		Results:   results,
	}
	encoder := json.NewEncoder(file)
	if err := encoder.Encode(record); err != nil {
		return "", fmt.Errorf("error writing results: %w", err)
	}

	return path, nil
}

// slugify converts a string into a filesystem-friendly slug.
func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ":", "_")
	re := regexp.MustCompile(`[^a-z0-9_]+`)
	s = re.ReplaceAllString(s, "-")
	s = regexp.MustCompile(`-+`).ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")
	return s
}
