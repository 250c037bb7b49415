package testcase

import (
	"encoding/json"
	"strings"

	"github.com/casegen-io/casegen/logger"
)

// envelope is the schema the prompt asks for: all records wrapped in a single
// test_cases array. Models sometimes emit bare record objects instead, so both
// shapes are accepted.
type envelope struct {
	TestCases []json.RawMessage `json:"test_cases"`
}

// Parse extracts validated records from raw model output. It never fails:
// fragments that do not decode or do not validate are counted as skipped and
// the scan continues. An empty result is a valid outcome, not an error.
//
// Nested objects inside a record are not supported: the fragment scanner
// carries them whole inside the enclosing fragment, and a record whose field
// values are objects rather than strings fails to decode and is skipped.
func Parse(text string) ([]Record, int) {
	fragments := ExtractFragments(stripFence(text))

	var records []Record
	skipped := 0

	for _, fragment := range fragments {
		var env envelope
		if err := json.Unmarshal([]byte(fragment), &env); err == nil && env.TestCases != nil {
			for _, raw := range env.TestCases {
				if record, ok := decodeRecord(raw); ok {
					records = append(records, record)
				} else {
					skipped++
				}
			}
			continue
		}

		if record, ok := decodeRecord([]byte(fragment)); ok {
			records = append(records, record)
		} else {
			skipped++
		}
	}

	if skipped > 0 {
		logger.Warnf("Skipped %d malformed or invalid fragment(s) in model output", skipped)
	}

	return records, skipped
}

func decodeRecord(raw []byte) (Record, bool) {
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		logger.Debugf("Dropping fragment that failed to decode: %v", err)
		return Record{}, false
	}
	if err := record.Validate(); err != nil {
		logger.Debugf("Dropping record that failed validation: %v", err)
		return Record{}, false
	}
	return record, true
}

// ExtractFragments scans text for top-level brace-balanced substrings. The
// scanner tracks nesting depth and respects string literals and escapes, so a
// nested object stays inside its enclosing fragment instead of truncating it.
// An unterminated fragment at the end of the text is discarded.
func ExtractFragments(text string) []string {
	var fragments []string

	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				// Stray closing brace outside any fragment; ignore.
				continue
			}
			depth--
			if depth == 0 {
				fragments = append(fragments, text[start:i+1])
				start = -1
			}
		}
	}

	return fragments
}

// stripFence removes a wrapping ``` or ```json code fence that models add
// despite instructions. The brace scanner would ignore the fence markers
// anyway; stripping keeps degenerate fenced output with stray braces in
// surrounding prose from confusing the scan.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return s
	}
	inner := trimmed[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}
