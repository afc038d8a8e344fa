// internal/segment/segment.go
// Package segment splits extracted passages into overlapping fixed-size
// character windows. Output is deterministic: identical passages and
// parameters always produce byte-identical chunks.
package segment

import (
	"fmt"
	"strings"

	"github.com/tfletch/clausecheck/internal/document"
)

// separator joins passage texts while keeping a visible boundary between them.
const separator = "\n\n"

// ConfigError reports invalid chunking parameters. It is fatal and must be
// surfaced before any model traffic.
type ConfigError struct {
	ChunkSize int
	Overlap   int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunking parameters: chunkSize=%d overlap=%d (need chunkSize > 0 and 0 <= overlap < chunkSize)", e.ChunkSize, e.Overlap)
}

// Chunk is one retrieval unit: a window of concatenated passage text.
type Chunk struct {
	Text string
	Kind document.Kind
	// Overlap is true when the chunk shares its leading characters with the
	// previous chunk of the same kind.
	Overlap bool
	// FirstPassage and LastPassage are the ordinal positions (within the
	// original passage sequence) of the passages this chunk draws from.
	FirstPassage int
	LastPassage  int
}

// span records where one passage's text landed in the concatenated corpus,
// measured in runes.
type span struct {
	ordinal int
	start   int
	end     int
}

// Validate checks chunking parameters without segmenting anything.
func Validate(chunkSize, overlap int) error {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return &ConfigError{ChunkSize: chunkSize, Overlap: overlap}
	}
	return nil
}

// Segment windows the passages into chunks of chunkSize characters advancing
// chunkSize-overlap per step. Passages are grouped by kind so prose and
// table-row chunks form separate corpora; within each kind the original
// passage order is preserved and the final chunk may be short. Empty input
// yields an empty (nil) chunk slice.
func Segment(passages []document.Passage, chunkSize, overlap int) ([]Chunk, error) {
	if err := Validate(chunkSize, overlap); err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, kind := range []document.Kind{document.KindProse, document.KindTableRow} {
		chunks = append(chunks, segmentKind(passages, kind, chunkSize, overlap)...)
	}
	return chunks, nil
}

// segmentKind concatenates all passages of one kind and slides the window.
func segmentKind(passages []document.Passage, kind document.Kind, chunkSize, overlap int) []Chunk {
	var b strings.Builder
	var spans []span
	runeLen := 0
	for i, p := range passages {
		if p.Kind != kind {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(separator)
			runeLen += len(separator)
		}
		start := runeLen
		b.WriteString(p.Text)
		runeLen += len([]rune(p.Text))
		spans = append(spans, span{ordinal: i, start: start, end: runeLen})
	}
	text := b.String()
	if text == "" {
		return nil
	}

	step := chunkSize - overlap
	runes := []rune(text)

	var chunks []Chunk
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		first, last := passageRange(spans, start, end)
		chunks = append(chunks, Chunk{
			Text:         string(runes[start:end]),
			Kind:         kind,
			Overlap:      start > 0,
			FirstPassage: first,
			LastPassage:  last,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// passageRange finds the ordinals of the first and last passages whose text
// intersects the [start,end) rune window.
func passageRange(spans []span, start, end int) (int, int) {
	first, last := -1, -1
	for _, s := range spans {
		if s.end <= start || s.start >= end {
			continue
		}
		if first == -1 {
			first = s.ordinal
		}
		last = s.ordinal
	}
	return first, last
}
