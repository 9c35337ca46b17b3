// Package jsonx defensively extracts structured payloads from LLM output.
// Both service contracts (structured extraction and fact-check) instruct the
// model to emit only a JSON object, but responses still arrive wrapped in
// prose or code fences, with trailing commas, or with raw newlines inside
// string values. Extract locates and repairs the first usable object before
// strict parsing.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no parseable object exists in a response.
var ErrNoJSON = errors.New("no well-formed JSON object in response")

// Extract locates the first well-formed JSON object inside an LLM response
// and unmarshals it into out.
func Extract(response string, out any) error {
	response = stripFences(response)

	for _, candidate := range jsonCandidates(response) {
		if json.Unmarshal([]byte(candidate), out) == nil {
			return nil
		}
		repaired := repairJSON(candidate)
		if repaired != candidate && json.Unmarshal([]byte(repaired), out) == nil {
			return nil
		}
	}
	return ErrNoJSON
}

// stripFences removes markdown code-block markers when the whole response
// is fenced.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// jsonCandidates scans for top-level {...} spans using a byte state machine
// that tracks string boundaries and escapes, so braces inside string values
// do not confuse the depth count. ASCII delimiters are safe to match
// byte-wise in UTF-8.
func jsonCandidates(s string) []string {
	var (
		candidates []string
		depth      int
		start      = -1
		inString   bool
		escape     bool
	)

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return candidates
}

// repairJSON fixes the two malformations models actually produce: trailing
// commas before a closing brace or bracket, and literal newlines inside
// string values.
func repairJSON(s string) string {
	var (
		sb       strings.Builder
		inString bool
		escape   bool
	)
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		b := s[i]

		if inString {
			if escape {
				escape = false
				sb.WriteByte(b)
				continue
			}
			switch b {
			case '\\':
				escape = true
				sb.WriteByte(b)
			case '"':
				inString = false
				sb.WriteByte(b)
			case '\n':
				sb.WriteString(`\n`)
			case '\r':
				// dropped; the \n branch emits the escape
			case '\t':
				sb.WriteString(`\t`)
			default:
				sb.WriteByte(b)
			}
			continue
		}

		switch b {
		case '"':
			inString = true
			sb.WriteByte(b)
		case ',':
			// Look ahead past whitespace: a comma directly before a
			// closing delimiter is dropped.
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			sb.WriteByte(b)
		default:
			sb.WriteByte(b)
		}
	}
	return sb.String()
}
