// Package repair detects tool-call payloads a model emitted as plain text,
// executes them for real and rewrites the transcript as if the calls had
// gone through the tool channel.
package repair

import (
	"encoding/json"
	"strings"
	"unicode"
)

// extractLeadingObjects scans the front of content for one or more complete
// JSON object literals and returns them decoded, plus the trailing text that
// follows the last one. The scan is string-aware: braces inside quoted
// strings and escaped quotes do not affect the depth count. Content that
// does not begin with an object yields no extraction, and so does content
// that is nothing but objects: a hallucinated call is a payload the model
// kept narrating after, so without trailing prose the message is taken at
// face value.
func extractLeadingObjects(content string) ([]map[string]interface{}, string, bool) {
	var objects []map[string]interface{}
	rest := content

	for {
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if !strings.HasPrefix(trimmed, "{") {
			break
		}
		raw, remainder, ok := scanObject(trimmed)
		if !ok {
			break
		}
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			// Balanced but not valid JSON, e.g. a code block opening
			// with a brace. Stop scanning rather than guessing.
			break
		}
		objects = append(objects, payload)
		rest = remainder
	}

	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(objects) == 0 || rest == "" {
		return nil, content, false
	}
	return objects, rest, true
}

// scanObject returns the balanced object literal at the start of s and
// whatever follows it. s must start with '{'.
func scanObject(s string) (string, string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], s[i+1:], true
			}
		}
	}
	return "", "", false
}
