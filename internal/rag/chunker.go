package rag

import "strings"

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// SplitText breaks text into overlapping chunks of roughly chunkSize
// characters. Each break prefers the last sentence boundary in the
// window so chunks stay readable for retrieval.
func SplitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			chunk := strings.TrimSpace(text[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		if cut := lastSentenceEnd(text[start:end]); cut > 0 {
			end = start + cut
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - chunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// lastSentenceEnd returns the index just past the final sentence
// terminator in s, or 0 when none is found past the midpoint.
func lastSentenceEnd(s string) int {
	best := 0
	for _, sep := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.LastIndex(s, sep); idx >= 0 && idx+len(sep) > best {
			best = idx + len(sep)
		}
	}
	// A boundary too close to the start would produce degenerate
	// chunks; fall back to the hard cut.
	if best <= len(s)/2 {
		return 0
	}
	return best
}
