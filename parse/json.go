package parse

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var tripleQuoted = regexp.MustCompile(`(?s)"""(.*?)"""`)

// ContainsValidJSON finds the object spanning the first '{' to the last '}'
// of s and decodes it. Triple-quoted strings are turned into JSON strings
// and raw control characters inside strings are accepted.
func ContainsValidJSON(s string) (map[string]any, bool) {
	candidate, ok := normalize(s)
	if !ok {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal(candidate, &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// ExtractJSON is ContainsValidJSON returning the object as compact JSON
// text with the original key order.
func ExtractJSON(s string) (json.RawMessage, bool) {
	candidate, ok := normalize(s)
	if !ok {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, candidate); err != nil {
		return nil, false
	}
	return json.RawMessage(buf.Bytes()), true
}

// normalize cuts the candidate object out of s and rewrites it as strict JSON.
func normalize(s string) ([]byte, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, false
	}
	candidate := tripleQuoted.ReplaceAllStringFunc(s[start:end+1], func(m string) string {
		return quote(m[3 : len(m)-3])
	})
	return escapeControlChars(candidate), true
}

// quote renders s as a JSON string literal without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// escapeControlChars escapes raw control characters that appear inside
// string literals. Characters outside strings are left for the decoder.
func escapeControlChars(s string) []byte {
	out := make([]byte, 0, len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString && c < 0x20:
			out = append(out, controlEscape(c)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

func controlEscape(c byte) string {
	switch c {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case '\b':
		return `\b`
	case '\f':
		return `\f`
	}
	const hex = "0123456789abcdef"
	return `\u00` + string([]byte{hex[c>>4], hex[c&0xf]})
}
